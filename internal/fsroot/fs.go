package fsroot

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FS is the slice of the host filesystem a Root touches. Every read and
// write made by this package goes through it.
type FS interface {
	ReadDir(name string) ([]fs.DirEntry, error)
	Stat(name string) (fs.FileInfo, error)
	Open(name string) (fs.File, error)
	EvalSymlinks(name string) (string, error)
	MkdirAll(name string, perm fs.FileMode) error
	// CreateExcl creates name for writing and fails if anything, including
	// a dangling symlink, already exists there.
	CreateExcl(name string) (io.WriteCloser, error)
	Remove(name string) error
}

// OSFS is the FS backed by package os.
type OSFS struct{}

func (OSFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }

func (OSFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

func (OSFS) Open(name string) (fs.File, error) { return os.Open(name) }

func (OSFS) EvalSymlinks(name string) (string, error) { return filepath.EvalSymlinks(name) }

func (OSFS) MkdirAll(name string, perm fs.FileMode) error { return os.MkdirAll(name, perm) }

func (OSFS) CreateExcl(name string) (io.WriteCloser, error) {
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

func (OSFS) Remove(name string) error { return os.Remove(name) }
