package server

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deskswap/internal/fsroot"
)

const uploadMemory = 32 << 20

type uploadFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type uploadResult struct {
	Uploaded []string        `json:"uploaded"`
	Failed   []uploadFailure `json:"failed"`
}

// handleUpload stores multipart "files" into current_path. An optional
// "paths" field per file carries a nested relative name, as sent by
// directory pickers. Files that already exist are reported, not replaced.
func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes())
	if err := c.Request.ParseMultipartForm(uploadMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.respondError(c, errUploadTooLarge)
			return
		}
		s.respondError(c, errNoUpload)
		return
	}
	defer c.Request.MultipartForm.RemoveAll()

	current := c.Request.FormValue("current_path")
	dir, info, err := s.resolveExisting(c, current)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !info.IsDir() {
		s.respondError(c, errPathNotExist)
		return
	}

	files := c.Request.MultipartForm.File["files"]
	if len(files) == 0 {
		s.respondError(c, errNoUpload)
		return
	}
	relNames := c.Request.MultipartForm.Value["paths"]

	result := uploadResult{Uploaded: []string{}, Failed: []uploadFailure{}}
	var firstErr error

	for i, fh := range files {
		name := fh.Filename
		if i < len(relNames) && relNames[i] != "" {
			name = relNames[i]
		}

		written, err := s.storeUpload(dir, name, fh)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			result.Failed = append(result.Failed, uploadFailure{Name: name, Error: s.uploadErrorMessage(err)})
			s.log(c).Warn("upload rejected",
				zap.String("name", name),
				zap.Error(err),
			)
			continue
		}

		s.metrics.UploadedFiles.Inc()
		s.metrics.UploadedBytes.Add(float64(fh.Size))
		result.Uploaded = append(result.Uploaded, s.root.Rel(written))
	}

	if len(result.Uploaded) == 0 {
		s.respondError(c, firstErr)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, result)
		return
	}

	c.Redirect(http.StatusSeeOther, buildDirHref(s.root.Rel(dir)))
}

func (s *Server) storeUpload(dir, name string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	written, err := s.root.CreateFile(dir, name, src)
	if errors.Is(err, fsroot.ErrForbidden) {
		s.metrics.ForbiddenPaths.Inc()
	}

	return written, err
}

func (s *Server) uploadErrorMessage(err error) string {
	if httpErr := asHTTPError(err); httpErr != nil {
		return httpErr.Message
	}

	return "write failed"
}
