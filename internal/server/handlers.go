package server

import (
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"deskswap/internal/fsroot"
)

func (s *Server) handleIndex(c *gin.Context) {
	s.browse(c, c.Query("path"))
}

// handleBrowse serves /<subpath>: directories are listed, files downloaded.
func (s *Server) handleBrowse(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		s.respondError(c, errPathNotExist)
		return
	}

	s.browse(c, c.Request.URL.Path)
}

func (s *Server) browse(c *gin.Context, requested string) {
	absolutePath, info, err := s.resolveExisting(c, requested)
	if err != nil {
		s.respondError(c, err)
		return
	}

	if !info.IsDir() {
		s.sendFile(c, absolutePath)
		return
	}

	includeHidden := s.includeHidden(c)
	rel := s.root.Rel(absolutePath)
	title := "./"
	if rel != "" {
		title = rel
	}

	data := indexPageData{
		Title:           title,
		Path:            rel,
		Crumbs:          breadcrumbs(rel),
		ShowHidden:      includeHidden,
		DownloadAllHref: buildFileHref("/download-all/", rel),
	}

	if query := strings.TrimSpace(c.Query("q")); query != "" {
		report := s.root.Search(c.Request.Context(), absolutePath, query, includeHidden)
		s.recordSearch(c, "name", report)

		data.Query = query
		data.Searching = true
		data.Truncated = report.Truncated
		data.Entries = s.searchViews(rel, report.Results)
	} else {
		data.Entries = s.entryViews(rel, s.root.List(absolutePath, includeHidden))
	}

	c.HTML(http.StatusOK, "index", data)
}

func (s *Server) handleDownload(c *gin.Context) {
	absolutePath, info, err := s.resolveExisting(c, c.Param("filepath"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	if info.IsDir() {
		s.respondError(c, errNotFile)
		return
	}

	s.sendFile(c, absolutePath)
}

func (s *Server) sendFile(c *gin.Context, absolutePath string) {
	// attachments go out as stored, whatever their content type
	c.Header(gzhttp.HeaderNoCompression, "1")
	if mtype, err := mimetype.DetectFile(absolutePath); err == nil {
		c.Header("Content-Type", mtype.String())
	}

	c.FileAttachment(absolutePath, path.Base(s.root.Rel(absolutePath)))
}

func (s *Server) entryViews(dir string, entries []fsroot.DirEntry) []entryView {
	views := make([]entryView, 0, len(entries))
	for _, entry := range entries {
		rel := joinRel(dir, entry.Name)
		view := entryView{
			Name:        entry.Name,
			SelectValue: entry.Name,
			IsDir:       entry.IsDir,
			Size:        entry.Size,
			ModifiedAt:  entry.ModifiedAt,
		}

		if entry.IsDir {
			view.Href = buildDirHref(rel)
		} else {
			view.Href = buildFileHref("/download/", rel)
		}

		views = append(views, view)
	}

	return views
}

func (s *Server) searchViews(dir string, results []fsroot.SearchResult) []entryView {
	views := make([]entryView, 0, len(results))
	for _, result := range results {
		selectValue := strings.TrimPrefix(result.Path, dir+"/")
		if dir == "" {
			selectValue = result.Path
		}

		view := entryView{
			Name:        result.Name,
			SelectValue: selectValue,
			Location:    path.Dir(result.Path),
			IsDir:       result.IsDir,
			Size:        result.Size,
			ModifiedAt:  result.ModifiedAt,
		}

		if result.IsDir {
			view.Href = buildDirHref(result.Path)
		} else {
			view.Href = buildFileHref("/download/", result.Path)
		}

		views = append(views, view)
	}

	return views
}

func (s *Server) includeHidden(c *gin.Context) bool {
	raw, ok := c.GetQuery("hidden")
	if !ok {
		return s.cfg.Files.ShowHidden
	}

	show, err := strconv.ParseBool(raw)
	if err != nil {
		return s.cfg.Files.ShowHidden
	}

	return show
}

func (s *Server) recordSearch(c *gin.Context, mode string, report fsroot.SearchReport) {
	s.metrics.Searches.WithLabelValues(mode).Inc()
	if report.Truncated {
		s.metrics.SearchTruncations.Inc()
	}
	s.logSkipped(c, "search", report.Skipped)
}

func (s *Server) logSkipped(c *gin.Context, op string, skipped fsroot.SkipLog) {
	if skipped.Total == 0 {
		return
	}

	logger := s.log(c)

	for _, entry := range skipped.Entries {
		logger.Debug("entry skipped",
			zap.String("op", op),
			zap.String("path", entry.Path),
			zap.Error(entry.Err),
		)
	}
	logger.Info("entries skipped", zap.String("op", op), zap.Int("total", skipped.Total))
}

func (s *Server) respondError(c *gin.Context, err error) {
	if err == nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	httpErr := asHTTPError(err)
	if httpErr == nil {
		_ = c.Error(err)
		s.log(c).Error("unexpected error", zap.Error(err))
		httpErr = &httpError{Status: http.StatusInternalServerError, Message: "internal server error"}
	}

	if strings.HasPrefix(c.Request.URL.Path, "/api/") || wantsJSON(c) {
		c.AbortWithStatusJSON(httpErr.Status, gin.H{"error": httpErr.Message})
		return
	}

	c.HTML(httpErr.Status, "error", errorPageData{Status: httpErr.Status, Message: httpErr.Message})
	c.Abort()
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
