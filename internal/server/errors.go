package server

import (
	"errors"
	"net/http"

	"deskswap/internal/fsroot"
)

type httpError struct {
	Status  int
	Message string
}

func (e *httpError) Error() string {
	return e.Message
}

var (
	errPathNotExist = &httpError{
		Status:  http.StatusNotFound,
		Message: "File or Directory Not Found",
	}
	errForbidden = &httpError{
		Status:  http.StatusForbidden,
		Message: "Access Forbidden",
	}
	errNotFile = &httpError{
		Status:  http.StatusBadRequest,
		Message: "Path is a directory",
	}
	errEmptySelection = &httpError{
		Status:  http.StatusBadRequest,
		Message: "No files selected",
	}
	errBadPattern = &httpError{
		Status:  http.StatusBadRequest,
		Message: "Invalid glob pattern",
	}
	errNoUpload = &httpError{
		Status:  http.StatusBadRequest,
		Message: "No files uploaded",
	}
	errInvalidName = &httpError{
		Status:  http.StatusBadRequest,
		Message: "Invalid file name",
	}
	errFileExists = &httpError{
		Status:  http.StatusConflict,
		Message: "File already exists",
	}
	errUploadTooLarge = &httpError{
		Status:  http.StatusRequestEntityTooLarge,
		Message: "Upload too large",
	}
)

// asHTTPError maps core errors onto their HTTP form. Unknown errors map to
// nil.
func asHTTPError(err error) *httpError {
	var httpErr *httpError
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, fsroot.ErrForbidden):
		return errForbidden
	case errors.Is(err, fsroot.ErrExists):
		return errFileExists
	case errors.Is(err, fsroot.ErrInvalidName):
		return errInvalidName
	case errors.Is(err, fsroot.ErrBadPattern):
		return errBadPattern
	case errors.As(err, &maxBytes):
		return errUploadTooLarge
	}

	return nil
}
