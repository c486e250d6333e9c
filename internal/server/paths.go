package server

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deskswap/internal/fsroot"
)

type crumb struct {
	Name string
	Href string
}

// cleanRequested normalizes a path taken from a URL, query or form into the
// slash form Resolve expects. It is cosmetic; Resolve does the checking.
func cleanRequested(raw string) string {
	p := strings.TrimSpace(raw)
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return ""
	}

	return p
}

// resolve runs the requested path through the root and records escapes.
func (s *Server) resolve(c *gin.Context, requested string) (string, error) {
	absolutePath, err := s.root.Resolve(cleanRequested(requested))
	if err != nil {
		if errors.Is(err, fsroot.ErrForbidden) {
			s.metrics.ForbiddenPaths.Inc()
			s.log(c).Warn("path escapes root",
				zap.String("requested", requested),
				zap.String("client_ip", c.ClientIP()),
			)
			return "", errForbidden
		}

		return "", err
	}

	return absolutePath, nil
}

// resolveExisting resolves requested and stats the result.
func (s *Server) resolveExisting(c *gin.Context, requested string) (string, fs.FileInfo, error) {
	absolutePath, err := s.resolve(c, requested)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Stat(absolutePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, errPathNotExist
		}

		return "", nil, err
	}

	return absolutePath, info, nil
}

func breadcrumbs(rel string) []crumb {
	crumbs := []crumb{{Name: "root", Href: "/"}}
	if rel == "" {
		return crumbs
	}

	parts := strings.Split(rel, "/")
	for i, part := range parts {
		crumbs = append(crumbs, crumb{
			Name: part,
			Href: buildDirHref(strings.Join(parts[:i+1], "/")),
		})
	}

	return crumbs
}

func buildDirHref(relative string) string {
	if relative == "" {
		return "/"
	}

	return "/?path=" + url.QueryEscape(relative)
}

func buildFileHref(prefix, relative string) string {
	clean := strings.TrimPrefix(path.Clean("/"+relative), "/")
	if clean == "" {
		return prefix
	}

	parts := strings.Split(clean, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}

	return prefix + strings.Join(parts, "/")
}

func joinRel(dir, name string) string {
	if dir == "" {
		return name
	}

	return dir + "/" + name
}
