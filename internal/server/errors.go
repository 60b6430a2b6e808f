package server

import (
	"errors"
	"net/http"

	"ledcanvas/internal/artifact"
	"ledcanvas/internal/models"
	"ledcanvas/internal/storage"
)

var (
	ErrNoFile       = errors.New("no file part")
	ErrBadRequest   = errors.New("invalid request")
	ErrUnauthorized = errors.New("missing or invalid owner")
)

// MapHTTPStatus maps domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNoFile),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, artifact.ErrDecode),
		errors.Is(err, models.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrInvalidKey):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// userMessage hides internal detail from clients.
func userMessage(err error) string {
	switch {
	case errors.Is(err, artifact.ErrDecode):
		return "Invalid image format"
	case errors.Is(err, artifact.ErrMetadataWrite):
		return "Database error"
	case errors.Is(err, artifact.ErrStorageWrite):
		return "File save error"
	case errors.Is(err, models.ErrConfiguration),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrNoFile),
		errors.Is(err, ErrUnauthorized):
		return err.Error()
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrInvalidKey):
		return "Image not found"
	default:
		return "An unexpected error occurred"
	}
}
