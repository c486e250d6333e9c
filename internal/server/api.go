package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"deskswap/internal/fsroot"
)

type listResponse struct {
	Path    string            `json:"path"`
	Entries []fsroot.DirEntry `json:"entries"`
}

type searchResponse struct {
	Path      string                `json:"path"`
	Query     string                `json:"query,omitempty"`
	Glob      string                `json:"glob,omitempty"`
	Results   []fsroot.SearchResult `json:"results"`
	Truncated bool                  `json:"truncated"`
	Skipped   int                   `json:"skipped"`
}

type usageResponse struct {
	Path string `json:"path"`
	fsroot.Usage
}

// resolveDir resolves the "path" query parameter and requires a directory.
func (s *Server) resolveDir(c *gin.Context) (string, bool) {
	absolutePath, info, err := s.resolveExisting(c, c.Query("path"))
	if err != nil {
		s.respondError(c, err)
		return "", false
	}

	if !info.IsDir() {
		s.respondError(c, errPathNotExist)
		return "", false
	}

	return absolutePath, true
}

func (s *Server) handleAPIList(c *gin.Context) {
	dir, ok := s.resolveDir(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, listResponse{
		Path:    s.root.Rel(dir),
		Entries: s.root.List(dir, s.includeHidden(c)),
	})
}

// handleAPISearch runs a substring search for q, or a glob search when glob
// is given instead.
func (s *Server) handleAPISearch(c *gin.Context) {
	dir, ok := s.resolveDir(c)
	if !ok {
		return
	}

	includeHidden := s.includeHidden(c)
	resp := searchResponse{Path: s.root.Rel(dir)}

	var report fsroot.SearchReport
	if pattern := strings.TrimSpace(c.Query("glob")); pattern != "" {
		var err error
		report, err = s.root.SearchGlob(c.Request.Context(), dir, pattern, includeHidden)
		if err != nil {
			s.respondError(c, err)
			return
		}
		resp.Glob = pattern
		s.recordSearch(c, "glob", report)
	} else {
		resp.Query = strings.TrimSpace(c.Query("q"))
		report = s.root.Search(c.Request.Context(), dir, resp.Query, includeHidden)
		s.recordSearch(c, "name", report)
	}

	resp.Results = report.Results
	if resp.Results == nil {
		resp.Results = []fsroot.SearchResult{}
	}
	resp.Truncated = report.Truncated
	resp.Skipped = report.Skipped.Total

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleAPIUsage(c *gin.Context) {
	dir, ok := s.resolveDir(c)
	if !ok {
		return
	}

	usage, err := s.root.Usage(c.Request.Context(), dir)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, usageResponse{Path: s.root.Rel(dir), Usage: usage})
}
