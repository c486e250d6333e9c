package fsroot

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// MaxSearchResults caps every search.
const MaxSearchResults = 100

// SearchResult is one matching entry.
type SearchResult struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	IsDir      bool      `json:"is_dir"`
	Size       int64     `json:"size,omitempty"`
	ModifiedAt time.Time `json:"modified_at"`
}

// SearchReport holds the results of a search in walk order. Truncated is
// set once a match beyond MaxSearchResults was seen.
type SearchReport struct {
	Results   []SearchResult
	Truncated bool
	Skipped   SkipLog
}

// matchFunc receives the lowercased entry name and its slash path relative
// to the search start.
type matchFunc func(name, rel string) bool

// Search finds entries below start whose name contains query, ignoring
// case. An empty query returns an empty report without touching the
// filesystem.
func (r *Root) Search(ctx context.Context, start, query string, includeHidden bool) SearchReport {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return SearchReport{Results: []SearchResult{}}
	}

	return r.search(ctx, start, includeHidden, func(name, _ string) bool {
		return strings.Contains(name, query)
	})
}

// SearchGlob is Search with a doublestar pattern. Patterns containing a
// slash are matched against the path relative to start, others against the
// entry name. Matching ignores case.
func (r *Root) SearchGlob(ctx context.Context, start, pattern string, includeHidden bool) (SearchReport, error) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return SearchReport{Results: []SearchResult{}}, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return SearchReport{}, ErrBadPattern
	}

	byPath := strings.Contains(pattern, "/")
	report := r.search(ctx, start, includeHidden, func(name, rel string) bool {
		subject := name
		if byPath {
			subject = strings.ToLower(rel)
		}

		ok, _ := doublestar.Match(pattern, subject)
		return ok
	})

	return report, nil
}

func (r *Root) search(ctx context.Context, start string, includeHidden bool, match matchFunc) SearchReport {
	report := SearchReport{Results: []SearchResult{}}
	w := &walker{fsys: r.fsys, includeHidden: includeHidden, skips: &report.Skipped}

	_ = w.walk(ctx, start, func(p string, d fs.DirEntry) error {
		rel, err := filepath.Rel(start, p)
		if err != nil {
			return nil
		}

		if !match(strings.ToLower(d.Name()), filepath.ToSlash(rel)) {
			return nil
		}

		if len(report.Results) == MaxSearchResults {
			report.Truncated = true
			return errStopWalk
		}

		// follow symlinks so results agree with List
		info, err := r.fsys.Stat(p)
		if err != nil {
			report.Skipped.add(p, err)
			return nil
		}

		result := SearchResult{
			Name:       d.Name(),
			Path:       r.Rel(p),
			IsDir:      info.IsDir(),
			ModifiedAt: info.ModTime(),
		}
		if !result.IsDir {
			result.Size = info.Size()
		}

		report.Results = append(report.Results, result)
		return nil
	})

	return report
}
