package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ekdahl/libris-auth/internal/model"
)

type errorResponse struct {
	Error             string `json:"error"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
}

// handleError maps service errors to HTTP status codes. Credential and
// token failures collapse into one generic 401 so the response does not
// reveal whether an account exists.
func (h *Auth) handleError(w http.ResponseWriter, err error) {
	var locked *model.AccountLockedError
	if errors.As(err, &locked) {
		w.Header().Set("Retry-After", strconv.FormatInt(locked.RetryAfter, 10))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:             "account temporarily locked",
			RetryAfterSeconds: locked.RetryAfter,
		})
		return
	}

	switch {
	case errors.Is(err, model.ErrInvalidCredentials),
		errors.Is(err, model.ErrTokenInvalid),
		errors.Is(err, model.ErrTokenRevoked):
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, model.ErrRateLimited):
		writeJSONError(w, http.StatusTooManyRequests, "too many requests")
	default:
		h.logger.Error("unhandled service error", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
