// Package fsroot confines filesystem access to a single directory tree.
//
// A Root is created once at startup and handed to every operation. Callers
// pass untrusted relative paths to Resolve and only use what it returns for
// listing, searching, archiving or writing. Operations that walk many
// entries never fail because of a single unreadable entry; they record it
// in a SkipLog and carry on.
package fsroot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
)

var (
	// ErrForbidden means a path resolves outside the root.
	ErrForbidden = errors.New("path escapes root")
	// ErrNotDir is returned when a directory was required.
	ErrNotDir = errors.New("not a directory")
	// ErrExists is returned by CreateFile instead of overwriting.
	ErrExists = errors.New("file already exists")
	// ErrInvalidName rejects upload names that cannot be stored safely.
	ErrInvalidName = errors.New("invalid file name")
	// ErrBadPattern rejects malformed glob patterns.
	ErrBadPattern = errors.New("invalid glob pattern")
)

// Root is an immutable, canonical directory outside of which nothing is
// read or written.
type Root struct {
	path  string
	fsys  FS
	level int
}

// Option customizes a Root.
type Option func(*Root)

// WithFS swaps the filesystem implementation, mainly for tests.
func WithFS(fsys FS) Option {
	return func(r *Root) { r.fsys = fsys }
}

// WithCompressionLevel sets the deflate level used for archives.
func WithCompressionLevel(level int) Option {
	return func(r *Root) { r.level = level }
}

// NewRoot canonicalizes dir and checks that it is a directory.
func NewRoot(dir string, opts ...Option) (*Root, error) {
	r := &Root{fsys: OSFS{}, level: flate.DefaultCompression}
	for _, opt := range opts {
		opt(r)
	}

	if r.level < flate.HuffmanOnly || r.level > flate.BestCompression {
		return nil, fmt.Errorf("compression level %d out of range", r.level)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	canonical, err := r.fsys.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", dir, err)
	}

	info, err := r.fsys.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("stat root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s: %w", dir, ErrNotDir)
	}

	r.path = canonical
	return r, nil
}

// Path returns the canonical root directory.
func (r *Root) Path() string {
	return r.path
}

// Resolve joins requested onto the root and returns its canonical form.
// The target does not need to exist. Paths that land outside the root,
// directly or through a symlink, yield ErrForbidden.
func (r *Root) Resolve(requested string) (string, error) {
	if strings.ContainsRune(requested, 0) {
		return "", fmt.Errorf("%q: %w", requested, ErrForbidden)
	}

	canonical, err := r.canonical(filepath.Join(r.path, filepath.FromSlash(requested)))
	if err != nil {
		return "", err
	}

	if !r.Contains(canonical) {
		return "", fmt.Errorf("%q: %w", requested, ErrForbidden)
	}

	return canonical, nil
}

// Contains reports whether the canonical path p is the root or below it.
// It is a pure string check; callers holding a path that may contain
// symlinks must go through Resolve.
func (r *Root) Contains(p string) bool {
	if p == r.path {
		return true
	}

	prefix := r.path
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}

	return strings.HasPrefix(p, prefix)
}

// Rel returns p relative to the root with forward slashes, "" for the root
// itself.
func (r *Root) Rel(p string) string {
	rel, err := filepath.Rel(r.path, p)
	if err != nil || rel == "." {
		return ""
	}

	return filepath.ToSlash(rel)
}

// canonical evaluates symlinks on the longest existing prefix of p and
// appends the missing remainder unchanged.
func (r *Root) canonical(p string) (string, error) {
	cur := filepath.Clean(p)
	var missing []string

	for {
		real, err := r.fsys.EvalSymlinks(cur)
		if err == nil {
			parts := make([]string, 0, len(missing)+1)
			parts = append(parts, real)
			for i := len(missing) - 1; i >= 0; i-- {
				parts = append(parts, missing[i])
			}

			return filepath.Join(parts...), nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("canonicalize %s: %w", p, err)
		}

		missing = append(missing, filepath.Base(cur))
		cur = parent
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
