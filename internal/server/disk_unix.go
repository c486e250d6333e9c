//go:build linux || darwin || freebsd

package server

import "golang.org/x/sys/unix"

func diskStats(path string) (*diskUsage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return nil, err
	}

	blockSize := uint64(st.Bsize)
	total := uint64(st.Blocks) * blockSize
	free := uint64(st.Bavail) * blockSize

	return &diskUsage{
		TotalBytes: total,
		FreeBytes:  free,
		UsedBytes:  total - uint64(st.Bfree)*blockSize,
	}, nil
}
