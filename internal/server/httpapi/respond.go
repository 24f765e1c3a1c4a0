package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hevault-io/hevault/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "response encode failed", "error", err)
	}
}

// writeError maps service sentinels to HTTP statuses. Anything unmapped is a
// 500 with a generic body; details stay in the log.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var msg string

	switch {
	case errors.Is(err, common.ErrorNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrorConflict):
		status, msg = http.StatusConflict, "conflict"
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrUserNotVerified):
		status, msg = http.StatusForbidden, "account not verified"
	default:
		status, msg = http.StatusInternalServerError, "internal error"
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}

	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *HTTPServer) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return false
	}
	return true
}
