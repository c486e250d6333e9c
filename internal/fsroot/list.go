package fsroot

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DirEntry is one immediate child of a listed directory.
type DirEntry struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
	IsDir      bool      `json:"is_dir"`
}

// List returns the children of dir, directories first and then by
// lowercase name. Children that cannot be stat'd are left out and an
// unreadable dir gives an empty listing.
func (r *Root) List(dir string, includeHidden bool) []DirEntry {
	children, err := r.fsys.ReadDir(dir)
	if err != nil && len(children) == 0 {
		return []DirEntry{}
	}

	entries := make([]DirEntry, 0, len(children))
	for _, child := range children {
		name := child.Name()
		if !includeHidden && isHidden(name) {
			continue
		}

		info, err := r.fsys.Stat(filepath.Join(dir, name))
		if err != nil {
			continue
		}

		entry := DirEntry{
			Name:       name,
			ModifiedAt: info.ModTime(),
			IsDir:      info.IsDir(),
		}
		if !entry.IsDir {
			entry.Size = info.Size()
		}

		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}

		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	return entries
}
