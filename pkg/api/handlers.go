package api

import (
	"errors"
	"net/http"

	"github.com/adfharrison1/go-ape/pkg/domain"
	"github.com/adfharrison1/go-ape/pkg/pipeline"
	"github.com/adfharrison1/go-ape/pkg/storage"
)

// Handler provides HTTP handlers over a workspace
type Handler struct {
	workspace *storage.Workspace
}

// NewHandler creates a new API handler with dependency injection
func NewHandler(workspace *storage.Workspace) *Handler {
	return &Handler{
		workspace: workspace,
	}
}

// statusFor maps workspace and engine errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrCollectionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrIndexNotFound),
		errors.Is(err, domain.ErrNoIndexKeys),
		errors.Is(err, pipeline.ErrInvalidStep):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}
