package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"signhub.io/internal/auth"
	"signhub.io/internal/scope"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/",
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/info",
	"/v1/auth/login",
	"/v1/auth/refresh",
	"/v1/auth/logout",
}

// withAuth authenticates every non-public request: it resolves the tenant
// from the request's routing signals, verifies the bearer token and binds
// both into the execution context. Resolution runs first, so a request that
// cannot be routed to a tenant fails on that before any token is inspected.
// Handlers downstream read only the scope.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		tnt, err := a.resolveTenant(r)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, codeTokenInvalid, err.Error())
			return
		}

		claims, err := a.tokens.Verify(r.Context(), token)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}

		sc, err := scope.Bind(tnt, claims)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(scope.Into(r.Context(), sc)))
	})
}

// requireScope fetches the bound execution context or fails the request.
func requireScope(w http.ResponseWriter, r *http.Request) (*scope.Context, bool) {
	sc, ok := scope.From(r.Context())
	if !ok {
		writeError(w, r, http.StatusInternalServerError, codeNoContext, "no execution context bound")
		return nil, false
	}
	return sc, true
}

// requirePermission checks the scope's permission snapshot.
func requirePermission(w http.ResponseWriter, r *http.Request, sc *scope.Context, perm string) bool {
	if err := sc.Allow(perm); err != nil {
		handleDomainError(w, r, err)
		return false
	}
	return true
}

func (a *API) requirePlatformAdmin(ctx context.Context, sc *scope.Context) error {
	// Platform operations are never granted by a role bundle alone; the
	// acting membership must carry the explicit custom permission.
	m, err := a.memberships.FindMembership(ctx, sc.TenantID(), sc.Subject())
	if err != nil {
		return auth.ErrPermissionDenied
	}
	if !m.Active || !auth.Satisfies(m.CustomPermissions, auth.PermPlatformAdmin) {
		return auth.ErrPermissionDenied
	}
	return nil
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
