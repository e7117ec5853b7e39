package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/insights"
	"fintrack/internal/log"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/storage"
)

// ownerID extracts the calling owner from the X-User-ID header.
func ownerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}

// writeError maps service and storage errors onto HTTP statuses. Validation
// failures carry the offending field name when known.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *insights.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: verr.Message, Field: verr.Field})
	case errors.Is(err, storage.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "not found")
	case isValidationError(err):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	default:
		logger := log.FromContext(r.Context())
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldError, err.Error(),
			log.FieldRequestID, trace.GetRequestID(r.Context()),
			log.FieldPath, r.URL.Path,
			log.FieldMethod, r.Method)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// isValidationError reports whether err originates from domain validation
// rather than from storage or transport.
func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidRange,
		core.ErrInvalidGranularity,
		core.ErrEmptyOwner,
		core.ErrEmptyCategory,
		core.ErrEmptyDescription,
		core.ErrEmptyName,
		core.ErrEmptyPattern,
		core.ErrZeroDate,
		core.ErrDescriptionLength,
		core.ErrInvalidRepetition,
		core.ErrEndBeforeStart,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// decodeBody parses a JSON request body into dst, enforcing a size cap.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// parseDateParam parses an optional YYYY-MM-DD query parameter.
func parseDateParam(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
