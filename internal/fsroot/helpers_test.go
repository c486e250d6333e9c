package fsroot

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRoot(t *testing.T, opts ...Option) *Root {
	t.Helper()

	root, err := NewRoot(t.TempDir(), opts...)
	require.NoError(t, err)
	return root
}

func writeFile(t *testing.T, p, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func mkdir(t *testing.T, p string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(p, 0o755))
}

// countingFS counts every call that reaches the filesystem.
type countingFS struct {
	OSFS
	calls atomic.Int64
}

func (c *countingFS) ReadDir(name string) ([]fs.DirEntry, error) {
	c.calls.Add(1)
	return c.OSFS.ReadDir(name)
}

func (c *countingFS) Stat(name string) (fs.FileInfo, error) {
	c.calls.Add(1)
	return c.OSFS.Stat(name)
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.calls.Add(1)
	return c.OSFS.Open(name)
}

func (c *countingFS) EvalSymlinks(name string) (string, error) {
	c.calls.Add(1)
	return c.OSFS.EvalSymlinks(name)
}

func (c *countingFS) MkdirAll(name string, perm fs.FileMode) error {
	c.calls.Add(1)
	return c.OSFS.MkdirAll(name, perm)
}

func (c *countingFS) CreateExcl(name string) (io.WriteCloser, error) {
	c.calls.Add(1)
	return c.OSFS.CreateExcl(name)
}

// deniedFS refuses to open or stat the listed base names, standing in for
// permission errors regardless of the user running the tests.
type deniedFS struct {
	OSFS
	denied map[string]bool
}

func (d deniedFS) Open(name string) (fs.File, error) {
	if d.denied[filepath.Base(name)] {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return d.OSFS.Open(name)
}

func (d deniedFS) Stat(name string) (fs.FileInfo, error) {
	if d.denied[filepath.Base(name)] {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrPermission}
	}
	return d.OSFS.Stat(name)
}

func (d deniedFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if d.denied[filepath.Base(name)] {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return d.OSFS.ReadDir(name)
}

// countingReadDirFS records every directory that was enumerated.
type countingReadDirFS struct {
	OSFS
	dirs []string
}

func (c *countingReadDirFS) ReadDir(name string) ([]fs.DirEntry, error) {
	c.dirs = append(c.dirs, name)
	return c.OSFS.ReadDir(name)
}

// truncatingFS lets the listed base names be read for a few bytes and then
// fails the read, like a disk error partway through a file.
type truncatingFS struct {
	OSFS
	broken map[string]bool
	after  int
}

func (t truncatingFS) Open(name string) (fs.File, error) {
	f, err := t.OSFS.Open(name)
	if err != nil || !t.broken[filepath.Base(name)] {
		return f, err
	}
	return &failingFile{File: f, remaining: t.after}, nil
}

type failingFile struct {
	fs.File
	remaining int
}

func (f *failingFile) Read(p []byte) (int, error) {
	if f.remaining <= 0 {
		return 0, errors.New("input/output error")
	}
	if len(p) > f.remaining {
		p = p[:f.remaining]
	}
	n, err := f.File.Read(p)
	f.remaining -= n
	return n, err
}
