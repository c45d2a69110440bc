package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avelari/skylog/internal/storage/sqlite"
	"github.com/avelari/skylog/pkg/logger"
)

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON response with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

// respondError maps domain errors onto status codes and writes the error
// body. Unrecognized errors become 500s with the detail kept in the log, not
// the response.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sqlite.ErrFlightNotFound):
		h.respondJSON(w, http.StatusNotFound, errorResponse{Error: "flight not found"})
	case errors.Is(err, sqlite.ErrDuplicateFlight):
		h.respondJSON(w, http.StatusConflict, errorResponse{Error: "flight already imported"})
	default:
		h.logger.Error("Request failed", logger.Error(err))
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// respondBadRequest writes a 400 with the given message.
func (h *Handler) respondBadRequest(w http.ResponseWriter, message string) {
	h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}
