package tenant

import (
	"context"
	"errors"
	"net"
	"strings"

	"signhub.io/internal/obs"
)

// Reserved subdomains that never route to a tenant.
var reservedSubdomains = map[string]struct{}{
	"www":   {},
	"api":   {},
	"app":   {},
	"admin": {},
}

// RequestMeta is the transport-neutral slice of an inbound operation the
// resolver inspects. The HTTP layer fills it from the request; other
// transports can do the same.
type RequestMeta struct {
	// Host is the request authority, optionally with a port.
	Host string
	// TenantHeader is the value of the explicit tenant-identifier header
	// used by non-browser clients.
	TenantHeader string
	// DebugTenant is the debug override value. Consulted only when the
	// resolver was built with debug overrides enabled.
	DebugTenant string
}

// Resolver maps inbound request metadata to a tenant using a fixed-priority
// strategy chain: subdomain, custom domain, explicit header, debug override.
// The first strategy that yields a tenant wins and lower strategies are not
// consulted, so conflicting signals cannot be spoofed into a different
// tenant. When nothing matches the caller gets ErrRequired, never a
// fallback tenant.
type Resolver struct {
	dir        Directory
	baseDomain string
	allowDebug bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithBaseDomain sets the apex domain tenant subdomains hang off of.
func WithBaseDomain(domain string) ResolverOption {
	return func(r *Resolver) {
		r.baseDomain = strings.ToLower(strings.TrimSpace(domain))
	}
}

// WithDebugOverride enables the query-parameter override strategy. Must stay
// disabled in production deployments.
func WithDebugOverride(enabled bool) ResolverOption {
	return func(r *Resolver) {
		r.allowDebug = enabled
	}
}

// NewResolver builds a Resolver over the directory.
func NewResolver(dir Directory, opts ...ResolverOption) (*Resolver, error) {
	if dir == nil {
		return nil, errors.New("tenant: directory is required")
	}
	r := &Resolver{dir: dir}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve runs the strategy chain. ErrSuspended is terminal: a routing key
// that names a suspended tenant must not fall through to a weaker strategy.
func (r *Resolver) Resolve(ctx context.Context, meta RequestMeta) (Tenant, error) {
	host := canonicalHost(meta.Host)

	if sub, ok := r.subdomainOf(host); ok {
		tnt, err := r.lookup(ctx, "subdomain", sub, BySubdomain)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return tnt, err
		}
	}

	if host != "" && host != r.baseDomain {
		tnt, err := r.lookup(ctx, "custom_domain", host, ByCustomDomain)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return tnt, err
		}
	}

	if key := strings.TrimSpace(meta.TenantHeader); key != "" {
		tnt, err := r.lookup(ctx, "header", key, ByID)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return tnt, err
		}
	}

	if r.allowDebug {
		if key := NormalizeSlug(meta.DebugTenant); key != "" {
			tnt, err := r.lookup(ctx, "debug", key, ByID)
			if errors.Is(err, ErrNotFound) {
				tnt, err = r.lookup(ctx, "debug", key, BySubdomain)
			}
			if err == nil || !errors.Is(err, ErrNotFound) {
				return tnt, err
			}
		}
	}

	obs.ObserveTenantResolution("none", "unresolved")
	return Tenant{}, ErrRequired
}

func (r *Resolver) lookup(ctx context.Context, strategy, key string, by LookupStrategy) (Tenant, error) {
	tnt, err := r.dir.Lookup(ctx, key, by)
	switch {
	case err == nil:
		obs.ObserveTenantResolution(strategy, "hit")
	case errors.Is(err, ErrSuspended):
		obs.ObserveTenantResolution(strategy, "suspended")
	default:
		obs.ObserveTenantResolution(strategy, "miss")
	}
	return tnt, err
}

// subdomainOf extracts the tenant slug when host is a direct child of the
// base domain. Reserved labels and nested subdomains do not resolve.
func (r *Resolver) subdomainOf(host string) (string, bool) {
	if r.baseDomain == "" || host == "" {
		return "", false
	}
	suffix := "." + r.baseDomain
	if !strings.HasSuffix(host, suffix) {
		return "", false
	}
	sub := strings.TrimSuffix(host, suffix)
	if sub == "" || strings.Contains(sub, ".") {
		return "", false
	}
	if _, reserved := reservedSubdomains[sub]; reserved {
		return "", false
	}
	if !ValidSlug(sub) {
		return "", false
	}
	return sub, true
}

func canonicalHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
