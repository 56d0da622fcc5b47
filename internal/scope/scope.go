// Package scope binds the resolved tenant and verified claims of one inbound
// operation into an immutable execution context. The context travels on the
// operation's context.Context, so it lives exactly as long as the request and
// can never leak across goroutines serving other requests. There is no
// ambient or global fallback: code without a bound scope simply has no
// tenant.
package scope

import (
	"context"
	"fmt"
	"strings"

	"signhub.io/internal/auth"
	"signhub.io/internal/tenant"
)

// ErrTenantMismatch reports a token presented against a tenant other than
// the one it was issued for. It is a token failure, not a tenant failure.
var ErrTenantMismatch = fmt.Errorf("%w: tenant mismatch", auth.ErrTokenInvalid)

// Context is the per-operation bundle of resolved tenant, authenticated
// subject and effective permission snapshot. Fields are unexported: a bound
// context cannot be altered after Bind.
type Context struct {
	tnt     tenant.Tenant
	subject string
	role    auth.Role
	perms   []string
}

// Bind validates the (tenant, claims) pairing and produces the execution
// context. The tenant must be active, the claims must be an access token,
// and the token's tenant claim must name this exact tenant.
func Bind(tnt tenant.Tenant, claims auth.Claims) (*Context, error) {
	if !tnt.Active() {
		return nil, tenant.ErrSuspended
	}
	if claims.TokenType != auth.TokenTypeAccess {
		return nil, auth.ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, auth.ErrTokenInvalid
	}
	if claims.TenantID != tnt.ID {
		return nil, ErrTenantMismatch
	}
	perms := make([]string, len(claims.Permissions))
	copy(perms, claims.Permissions)
	return &Context{
		tnt:     tnt,
		subject: claims.Subject,
		role:    claims.Role,
		perms:   perms,
	}, nil
}

// Tenant returns the bound tenant.
func (c *Context) Tenant() tenant.Tenant { return c.tnt }

// TenantID returns the bound tenant's id.
func (c *Context) TenantID() string { return c.tnt.ID }

// Subject returns the authenticated principal's user id.
func (c *Context) Subject() string { return c.subject }

// Role returns the membership role captured at token issuance.
func (c *Context) Role() auth.Role { return c.role }

// Permissions returns a copy of the effective permission snapshot.
func (c *Context) Permissions() []string {
	out := make([]string, len(c.perms))
	copy(out, c.perms)
	return out
}

// Allow checks the required permission against the snapshot. Absence of a
// matching pattern is denial.
func (c *Context) Allow(required string) error {
	if c == nil {
		return auth.ErrPermissionDenied
	}
	if !auth.Satisfies(c.perms, required) {
		return auth.ErrPermissionDenied
	}
	return nil
}

type scopeContextKey struct{}

// Into attaches the execution context to ctx for the remainder of the
// operation. The value is scoped by context derivation: once the operation's
// ctx is gone, so is the binding.
func Into(ctx context.Context, c *Context) context.Context {
	if c == nil {
		return ctx
	}
	return context.WithValue(ctx, scopeContextKey{}, c)
}

// From extracts the execution context bound to ctx, if any.
func From(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(scopeContextKey{}).(*Context)
	if !ok || c == nil {
		return nil, false
	}
	return c, true
}

// With makes the execution context visible only for the duration of fn. The
// derived context.Context is discarded when fn returns, success or failure.
func With(ctx context.Context, c *Context, fn func(context.Context) error) error {
	return fn(Into(ctx, c))
}
