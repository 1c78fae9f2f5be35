package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vijaymanda323/motion-video/internal/domain"
	"github.com/vijaymanda323/motion-video/internal/service"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError translates domain and service errors into HTTP responses.
// Unexpected errors are logged and returned as a generic 500 so internal
// details never reach the client.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status := statusForError(err)

	resp := errorResponse{Message: err.Error()}
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
		resp = errorResponse{Message: "internal server error"}
	}

	writeJSON(w, status, resp)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUserAlreadyExists),
		errors.Is(err, domain.ErrInvalidVideoID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrVideoNotFound),
		errors.Is(err, domain.ErrNoThumbnail),
		errors.Is(err, domain.ErrBlobNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRange):
		return http.StatusRequestedRangeNotSatisfiable
	case errors.Is(err, service.ErrStoreNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
