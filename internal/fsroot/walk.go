package fsroot

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
)

const maxSkipEntries = 100

// SkippedEntry is one entry an operation could not read.
type SkippedEntry struct {
	Path string
	Err  error
}

// SkipLog keeps the first entries skipped during an operation and counts
// all of them.
type SkipLog struct {
	Entries []SkippedEntry
	Total   int
}

func (s *SkipLog) add(path string, err error) {
	s.Total++
	if len(s.Entries) < maxSkipEntries {
		s.Entries = append(s.Entries, SkippedEntry{Path: path, Err: err})
	}
}

var errStopWalk = errors.New("stop walk")

type visitFunc func(path string, d fs.DirEntry) error

// walker visits every entry below a directory using an explicit stack.
// Directories are never followed through symlinks because DirEntry.IsDir
// reports the link itself.
type walker struct {
	fsys          FS
	includeHidden bool
	skips         *SkipLog
}

func (w *walker) walk(ctx context.Context, start string, visit visitFunc) error {
	stack := []string{start}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := w.fsys.ReadDir(dir)
		if err != nil {
			w.skips.add(dir, err)
		}

		var subdirs []string
		for _, d := range entries {
			if !w.includeHidden && isHidden(d.Name()) {
				continue
			}

			p := filepath.Join(dir, d.Name())
			if err := visit(p, d); err != nil {
				if errors.Is(err, errStopWalk) {
					return nil
				}
				return err
			}

			if d.IsDir() {
				subdirs = append(subdirs, p)
			}
		}

		// reversed so the first subdirectory is popped first
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	return nil
}
