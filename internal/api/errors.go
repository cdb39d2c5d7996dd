package api

import (
	"net/http"

	"github.com/go-chi/render"
)

// ErrResponse is the JSON error body
type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
	ErrorText      string `json:"error,omitempty"`
}

// Render sets the response status
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ErrInvalidRequest is a 400 carrying err's message
func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "invalid request",
		ErrorText:      err.Error(),
	}
}

// ErrInternal is a 500 carrying err's message
func ErrInternal(err error) render.Renderer {
	return &ErrResponse{
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "internal error",
		ErrorText:      err.Error(),
	}
}

var (
	// ErrNotFound is returned for unknown assessment ids
	ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "not found"}
	// ErrUnavailable is returned when the server runs without a store
	ErrUnavailable = &ErrResponse{HTTPStatusCode: http.StatusServiceUnavailable, StatusText: "assessment store not configured"}
)
