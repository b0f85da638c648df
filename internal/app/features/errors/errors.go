// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/httperr"
)

// Handler serves JSON bodies for unmatched routes and methods.
// No DB needed.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is the router's fallback for unknown paths.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	httperr.JSON(w, http.StatusNotFound, httperr.Response{Error: "not found"})
}

// MethodNotAllowed is the router's fallback for known paths with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httperr.JSON(w, http.StatusMethodNotAllowed, httperr.Response{Error: "method not allowed"})
}
