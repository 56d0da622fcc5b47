package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"signhub.io/internal/audit"
	"signhub.io/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, "email and password are required")
		return
	}

	if err := a.throttle.Allow(email, clientIP(r)); err != nil {
		handleDomainError(w, r, err)
		return
	}

	tnt, err := a.resolveTenant(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	pair, user, err := a.tokens.Login(r.Context(), tnt, email, req.Password)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"tenant_id": tnt.ID,
		"user_id":   user.ID,
	})
	writeJSON(w, http.StatusOK, pair)
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, "refresh_token is required")
		return
	}

	claims, err := a.tokens.InspectRefresh(req.RefreshToken)
	if err != nil {
		// An unparseable token carries no principal; throttle by source only.
		if terr := a.throttle.Allow(clientIP(r)); terr != nil {
			handleDomainError(w, r, terr)
			return
		}
		handleDomainError(w, r, err)
		return
	}
	if err := a.throttle.Allow(claims.Subject, clientIP(r)); err != nil {
		handleDomainError(w, r, err)
		return
	}

	tnt, err := a.resolveTenant(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	pair, user, err := a.tokens.Refresh(r.Context(), tnt, req.RefreshToken)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.token.refreshed", map[string]any{
		"tenant_id": tnt.ID,
		"user_id":   user.ID,
	})
	writeJSON(w, http.StatusOK, pair)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req logoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, "refresh_token is required")
		return
	}

	if err := a.tokens.Revoke(r.Context(), req.RefreshToken); err != nil {
		// An invalid token on logout is not worth distinguishing; the
		// session is gone either way.
		if !errors.Is(err, auth.ErrTokenInvalid) {
			handleDomainError(w, r, err)
			return
		}
	}

	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}
