package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError maps a service error to an HTTP status by its message
// class and responds. Expected conditions surface their own message; anything
// unrecognized is logged and hidden behind a generic 500.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, err error) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		h.RespondError(w, http.StatusNotFound, msg)
	case strings.Contains(msg, "already exists"):
		h.RespondError(w, http.StatusConflict, msg)
	case strings.Contains(msg, "required"),
		strings.Contains(msg, "invalid status"),
		strings.Contains(msg, "cannot be empty"),
		strings.Contains(msg, "invalid email"),
		strings.Contains(msg, "invalid course id"),
		strings.Contains(msg, "invalid order"),
		strings.Contains(msg, "password must be"),
		strings.Contains(msg, "no fields to update"),
		strings.Contains(msg, "must be an image"),
		strings.Contains(msg, "file size too large"),
		strings.Contains(msg, "invalid file type"):
		h.RespondError(w, http.StatusBadRequest, msg)
	default:
		h.Logger.Error("unexpected service error", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
