package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aidemoi/aidemoi/internal/common"
	"github.com/aidemoi/aidemoi/internal/server/services"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

type envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondOK(w http.ResponseWriter, status int, message string, data any) {
	respondJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{
		Success: false,
		Message: message,
		Error:   &errorBody{Message: message, Code: status},
	})
}

// statusFor maps a domain error to the HTTP status and the client-facing
// message. Anything unknown becomes a generic 500.
func statusFor(err error) (int, string) {
	var weak *services.WeakPasswordError
	switch {
	case errors.As(err, &weak):
		return http.StatusBadRequest, weak.Reason
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "Invalid request body"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, common.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "Invalid or expired refresh token"
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized, "Access token is required"
	case errors.Is(err, common.ErrTokenVerificationFailed):
		return http.StatusForbidden, "Invalid or expired token"
	case errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusConflict, "Email already registered"
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "User not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
