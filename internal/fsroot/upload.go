package fsroot

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
)

// CreateFile stores src as name inside dir. name may contain forward
// slashes, in which case the missing parent directories are created. Every
// name is resolved against the root again, so an upload can never write
// outside it. Existing files are not replaced. It returns the canonical
// path that was written.
func (r *Root) CreateFile(dir, name string, src io.Reader) (string, error) {
	rel, err := uploadName(name)
	if err != nil {
		return "", err
	}

	if !r.Contains(dir) {
		return "", ErrForbidden
	}
	base := r.Rel(dir)

	target, err := r.Resolve(path.Join(base, rel))
	if err != nil {
		return "", err
	}

	parent := filepath.Dir(target)
	if err := r.fsys.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("create parent of %s: %w", rel, err)
	}

	// a symlink swapped in for a parent between Resolve and MkdirAll would
	// show up here
	if _, err := r.Resolve(path.Join(base, path.Dir(rel))); err != nil {
		return "", err
	}

	dst, err := r.fsys.CreateExcl(target)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%s: %w", rel, ErrExists)
		}
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = r.fsys.Remove(target)
		return "", fmt.Errorf("write %s: %w", rel, err)
	}

	if err := dst.Close(); err != nil {
		_ = r.fsys.Remove(target)
		return "", fmt.Errorf("close %s: %w", rel, err)
	}

	return target, nil
}

// uploadName normalizes a client supplied file name into a clean relative
// slash path.
func uploadName(name string) (string, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	if name == "" || strings.ContainsRune(name, 0) {
		return "", ErrInvalidName
	}

	var parts []string
	for _, part := range strings.Split(name, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", fmt.Errorf("%q: %w", name, ErrInvalidName)
		}
		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return "", ErrInvalidName
	}

	return strings.Join(parts, "/"), nil
}
