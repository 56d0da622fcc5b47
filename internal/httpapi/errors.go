package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"signhub.io/internal/asset"
	"signhub.io/internal/audit"
	"signhub.io/internal/auth"
	"signhub.io/internal/guard"
	"signhub.io/internal/tenant"
)

// Stable machine-readable error codes. Clients branch on these, never on
// message text.
const (
	codeTenantRequired     = "TENANT_REQUIRED"
	codeTenantSuspended    = "TENANT_SUSPENDED"
	codeTokenExpired       = "TOKEN_EXPIRED"
	codeTokenInvalid       = "TOKEN_INVALID"
	codeTokenRevoked       = "TOKEN_REVOKED"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codePermissionDenied   = "PERMISSION_DENIED"
	codeRateLimited        = "RATE_LIMITED"
	codeQuotaReached       = "QUOTA_REACHED"
	codeNoContext          = "NO_CONTEXT"
	codeNotFound           = "NOT_FOUND"
	codeConflict           = "CONFLICT"
	codeInvalidInput       = "INVALID_INPUT"
	codeInternal           = "INTERNAL"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	payload := map[string]any{
		"error": msg,
		"code":  code,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, status, payload)
}

// handleDomainError maps domain errors onto HTTP status and stable codes.
func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tenant.ErrRequired):
		writeError(w, r, http.StatusBadRequest, codeTenantRequired, "tenant could not be resolved from the request")
	case errors.Is(err, tenant.ErrSuspended):
		writeError(w, r, http.StatusForbidden, codeTenantSuspended, "tenant is suspended")
	case errors.Is(err, auth.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		writeError(w, r, http.StatusTooManyRequests, codeRateLimited, "too many attempts, retry later")
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, r, http.StatusUnauthorized, codeTokenExpired, "token expired")
	case errors.Is(err, auth.ErrTokenRevoked):
		writeError(w, r, http.StatusUnauthorized, codeTokenRevoked, "token revoked")
	case errors.Is(err, auth.ErrTokenInvalid):
		writeError(w, r, http.StatusUnauthorized, codeTokenInvalid, "token invalid")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, codeInvalidCredentials, "invalid credentials")
	case errors.Is(err, auth.ErrPermissionDenied):
		writeError(w, r, http.StatusForbidden, codePermissionDenied, "permission denied")
	case errors.Is(err, asset.ErrQuotaReached):
		writeError(w, r, http.StatusForbidden, codeQuotaReached, "plan quota reached")
	case errors.Is(err, guard.ErrNoContext):
		writeError(w, r, http.StatusInternalServerError, codeNoContext, "no execution context bound")
	case errors.Is(err, tenant.ErrNotFound), errors.Is(err, auth.ErrNotFound), errors.Is(err, asset.ErrNotFound):
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
	case errors.Is(err, tenant.ErrConflict), errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, codeConflict, "resource already exists")
	case errors.Is(err, tenant.ErrInvalid), errors.Is(err, auth.ErrInvalidInput), errors.Is(err, asset.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, codeInvalidInput, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
