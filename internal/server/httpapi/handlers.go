package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aidemoi/aidemoi/internal/common"
	"github.com/aidemoi/aidemoi/internal/server/services"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, "login", fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		a.failMessage(w, "login", http.StatusBadRequest, "Email and password are required")
		return
	}

	res, err := a.sessions.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		a.fail(w, r, "login", err)
		return
	}

	a.metrics.event("login", http.StatusOK)
	respondOK(w, http.StatusOK, "Login successful", res)
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, "register", fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" {
		a.failMessage(w, "register", http.StatusBadRequest, "Username and email are required")
		return
	}

	user, err := a.sessions.Register(r.Context(), strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		a.fail(w, r, "register", err)
		return
	}

	a.metrics.event("register", http.StatusCreated)
	respondOK(w, http.StatusCreated, "User registered successfully", map[string]any{"user": user})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, "refresh", fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	block, err := a.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		a.fail(w, r, "refresh", err)
		return
	}

	a.metrics.event("refresh", http.StatusOK)
	respondOK(w, http.StatusOK, "Token refreshed successfully", map[string]any{"tokens": block})
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		a.fail(w, r, "profile", common.ErrUnauthorized)
		return
	}

	user, err := a.sessions.GetProfile(r.Context(), id.UserID)
	if err != nil {
		a.fail(w, r, "profile", err)
		return
	}

	a.metrics.event("profile", http.StatusOK)
	respondOK(w, http.StatusOK, "", map[string]any{"user": user})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	res := a.sessions.Logout(r.Context(), bearerToken(r))

	a.metrics.event("logout", http.StatusOK)
	respondOK(w, http.StatusOK, "Logged out successfully", res)
}

func (a *API) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		a.fail(w, r, "logout_all", common.ErrUnauthorized)
		return
	}

	n, err := a.sessions.LogoutAll(r.Context(), id.UserID)
	if err != nil {
		a.fail(w, r, "logout_all", err)
		return
	}

	a.metrics.event("logout_all", http.StatusOK)
	respondOK(w, http.StatusOK, "All sessions revoked", map[string]any{"deleted": n})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if a.ready != nil {
		if err := a.ready(r.Context()); err != nil {
			a.logger.Warn(r.Context(), "readiness check failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// fail writes the error envelope. Unmapped errors are logged and reported
// as a generic 500.
func (a *API) fail(w http.ResponseWriter, r *http.Request, event string, err error) {
	code, msg := statusFor(err)
	if code == http.StatusInternalServerError {
		a.logger.Error(r.Context(), "request failed", "event", event, "error", err)
	} else if errors.Is(err, errBadRequest) {
		a.logger.Debug(r.Context(), "malformed request", "event", event, "error", err)
	}
	a.failMessage(w, event, code, msg)
}

func (a *API) failMessage(w http.ResponseWriter, event string, code int, msg string) {
	a.metrics.event(event, code)
	respondError(w, code, msg)
}

var _ SessionService = (*services.SessionService)(nil)
