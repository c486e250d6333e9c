//go:build !(linux || darwin || freebsd)

package server

import "errors"

func diskStats(string) (*diskUsage, error) {
	return nil, errors.New("disk stats not supported on this platform")
}
