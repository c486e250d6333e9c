package server

import (
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"deskswap/internal/fsroot"
)

// handleDownloadMultiple zips the entries selected in one directory.
func (s *Server) handleDownloadMultiple(c *gin.Context) {
	names := c.PostFormArray("files[]")
	current := c.PostForm("current_path")
	if len(names) == 0 {
		s.respondError(c, errEmptySelection)
		return
	}

	members := make([]fsroot.Member, 0, len(names))
	for _, name := range names {
		// a bad entry only drops itself, like an unreadable file would
		absolutePath, err := s.resolve(c, joinRel(cleanRequested(current), cleanRequested(name)))
		if err != nil {
			continue
		}

		members = append(members, fsroot.Member{Path: absolutePath, Name: name})
	}

	s.streamArchive(c, "selection", fsroot.SelectionArchiveName(names), members)
}

// handleDownloadAll zips a whole directory, the root when no path is given.
func (s *Server) handleDownloadAll(c *gin.Context) {
	absolutePath, info, err := s.resolveExisting(c, c.Param("subpath"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	if !info.IsDir() {
		s.respondError(c, errPathNotExist)
		return
	}

	s.streamArchive(c, "subtree", s.root.SubtreeArchiveName(absolutePath), []fsroot.Member{{Path: absolutePath}})
}

// streamArchive writes the zip straight into the response. Once the first
// byte is out the status can no longer change, so failures after that are
// only logged.
func (s *Server) streamArchive(c *gin.Context, shape, name string, members []fsroot.Member) {
	start := time.Now()

	c.Header(gzhttp.HeaderNoCompression, "1")
	c.Header("Content-Type", fsroot.ArchiveContentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Status(http.StatusOK)

	report, err := s.root.WriteArchive(c.Request.Context(), c.Writer, members)

	s.metrics.ArchiveFiles.Add(float64(report.Files))
	s.metrics.ArchiveBytes.Add(float64(report.Bytes))
	s.metrics.ArchiveSkipped.Add(float64(report.Skipped.Total))
	s.logSkipped(c, "archive", report.Skipped)

	fields := []zap.Field{
		zap.String("shape", shape),
		zap.String("name", name),
		zap.Int("members", len(members)),
		zap.Int("files", report.Files),
		zap.Int64("bytes", report.Bytes),
		zap.Int("skipped", report.Skipped.Total),
		zap.Duration("elapsed", time.Since(start)),
	}

	if err != nil {
		s.metrics.ArchivesTotal.WithLabelValues(shape, "aborted").Inc()
		s.log(c).Warn("archive aborted", append(fields, zap.Error(err))...)
		_ = c.Error(err)
		return
	}

	s.metrics.ArchivesTotal.WithLabelValues(shape, "complete").Inc()
	s.log(c).Info("archive sent", fields...)
}
