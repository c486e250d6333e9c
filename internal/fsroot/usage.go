package fsroot

import (
	"context"
	"io/fs"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// Usage totals a directory subtree.
type Usage struct {
	Files   int64 `json:"files"`
	Dirs    int64 `json:"dirs"`
	Bytes   int64 `json:"bytes"`
	Skipped int64 `json:"skipped"`
}

// Usage walks dir concurrently and sums regular file sizes. Symlinks are
// neither followed nor counted. Unreadable entries only bump Skipped.
func (r *Root) Usage(ctx context.Context, dir string) (Usage, error) {
	if !r.Contains(dir) {
		return Usage{}, ErrForbidden
	}

	var files, dirs, bytes, skipped atomic.Int64
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, dir, func(p string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			skipped.Add(1)
			return nil
		}
		if p == dir {
			return nil
		}

		if d.IsDir() {
			dirs.Add(1)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			skipped.Add(1)
			return nil
		}

		files.Add(1)
		bytes.Add(info.Size())
		return nil
	})

	usage := Usage{
		Files:   files.Load(),
		Dirs:    dirs.Load(),
		Bytes:   bytes.Load(),
		Skipped: skipped.Load(),
	}

	return usage, err
}
