package tenant

import (
	"context"
	"errors"
	"testing"
)

func seedRegistry(t *testing.T) *MemoryRegistry {
	t.Helper()
	reg := NewMemoryRegistry()
	if _, err := reg.Create(context.Background(), Tenant{
		Name:         "Acme Displays",
		Subdomain:    "acme",
		CustomDomain: "screens.acme.example",
	}); err != nil {
		t.Fatalf("seed acme: %v", err)
	}
	if _, err := reg.Create(context.Background(), Tenant{
		Name:      "Globex Media",
		Subdomain: "globex",
	}); err != nil {
		t.Fatalf("seed globex: %v", err)
	}
	return reg
}

func newResolver(t *testing.T, reg *MemoryRegistry, opts ...ResolverOption) *Resolver {
	t.Helper()
	opts = append([]ResolverOption{WithBaseDomain("signhub.io")}, opts...)
	r, err := NewResolver(reg, opts...)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func TestResolveBySubdomain(t *testing.T) {
	reg := seedRegistry(t)
	r := newResolver(t, reg)

	tnt, err := r.Resolve(context.Background(), RequestMeta{Host: "acme.signhub.io:443"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tnt.Subdomain != "acme" {
		t.Fatalf("resolved wrong tenant: %s", tnt.Subdomain)
	}
}

func TestResolveByCustomDomain(t *testing.T) {
	reg := seedRegistry(t)
	r := newResolver(t, reg)

	tnt, err := r.Resolve(context.Background(), RequestMeta{Host: "screens.acme.example"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tnt.Subdomain != "acme" {
		t.Fatalf("resolved wrong tenant: %s", tnt.Subdomain)
	}
}

func TestResolveByHeader(t *testing.T) {
	reg := seedRegistry(t)
	r := newResolver(t, reg)

	globex, err := reg.Lookup(context.Background(), "globex", BySubdomain)
	if err != nil {
		t.Fatalf("lookup globex: %v", err)
	}

	tnt, err := r.Resolve(context.Background(), RequestMeta{
		Host:         "api.signhub.io",
		TenantHeader: globex.ID,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tnt.ID != globex.ID {
		t.Fatalf("resolved wrong tenant: %s", tnt.ID)
	}
}

func TestResolveReservedSubdomainSkipsToHeader(t *testing.T) {
	reg := seedRegistry(t)
	r := newResolver(t, reg)

	for _, host := range []string{"www.signhub.io", "api.signhub.io", "app.signhub.io", "admin.signhub.io"} {
		_, err := r.Resolve(context.Background(), RequestMeta{Host: host})
		if !errors.Is(err, ErrRequired) {
			t.Fatalf("host %s: expected ErrRequired, got %v", host, err)
		}
	}
}

func TestResolveHigherPriorityWins(t *testing.T) {
	reg := seedRegistry(t)
	r := newResolver(t, reg)

	globex, err := reg.Lookup(context.Background(), "globex", BySubdomain)
	if err != nil {
		t.Fatalf("lookup globex: %v", err)
	}

	// Subdomain says acme, header says globex: subdomain wins.
	tnt, err := r.Resolve(context.Background(), RequestMeta{
		Host:         "acme.signhub.io",
		TenantHeader: globex.ID,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tnt.Subdomain != "acme" {
		t.Fatalf("expected subdomain strategy to win, got %s", tnt.Subdomain)
	}
}

func TestResolveSuspendedIsTerminal(t *testing.T) {
	reg := seedRegistry(t)
	r := newResolver(t, reg)

	acme, err := reg.Lookup(context.Background(), "acme", BySubdomain)
	if err != nil {
		t.Fatalf("lookup acme: %v", err)
	}
	if err := reg.Suspend(context.Background(), acme.ID); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	globex, err := reg.Lookup(context.Background(), "globex", BySubdomain)
	if err != nil {
		t.Fatalf("lookup globex: %v", err)
	}

	// Even with a valid header naming another tenant, the suspended
	// subdomain match must not fall through.
	_, err = r.Resolve(context.Background(), RequestMeta{
		Host:         "acme.signhub.io",
		TenantHeader: globex.ID,
	})
	if !errors.Is(err, ErrSuspended) {
		t.Fatalf("expected ErrSuspended, got %v", err)
	}
}

func TestResolveUnresolvedNeverDefaults(t *testing.T) {
	reg := seedRegistry(t)
	r := newResolver(t, reg)

	tnt, err := r.Resolve(context.Background(), RequestMeta{Host: "signhub.io"})
	if !errors.Is(err, ErrRequired) {
		t.Fatalf("expected ErrRequired, got %v", err)
	}
	if tnt.ID != "" {
		t.Fatalf("unresolved request must not yield a tenant, got %q", tnt.ID)
	}
}

func TestResolveDebugOverrideGated(t *testing.T) {
	reg := seedRegistry(t)

	prod := newResolver(t, reg)
	if _, err := prod.Resolve(context.Background(), RequestMeta{Host: "signhub.io", DebugTenant: "acme"}); !errors.Is(err, ErrRequired) {
		t.Fatalf("debug override must be ignored when disabled, got %v", err)
	}

	dev := newResolver(t, reg, WithDebugOverride(true))
	tnt, err := dev.Resolve(context.Background(), RequestMeta{Host: "signhub.io", DebugTenant: "acme"})
	if err != nil {
		t.Fatalf("Resolve with debug override: %v", err)
	}
	if tnt.Subdomain != "acme" {
		t.Fatalf("resolved wrong tenant: %s", tnt.Subdomain)
	}
}

func TestMemoryRegistryConflicts(t *testing.T) {
	reg := seedRegistry(t)

	if _, err := reg.Create(context.Background(), Tenant{Name: "Copycat", Subdomain: "acme"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected subdomain conflict, got %v", err)
	}
	if _, err := reg.Create(context.Background(), Tenant{
		Name:         "Copycat",
		Subdomain:    "copycat",
		CustomDomain: "screens.acme.example",
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected custom domain conflict, got %v", err)
	}
}

func TestMemoryRegistrySuspendLifecycle(t *testing.T) {
	reg := seedRegistry(t)
	acme, err := reg.Lookup(context.Background(), "acme", BySubdomain)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	if err := reg.Suspend(context.Background(), acme.ID); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if active, err := reg.IsActive(context.Background(), acme.ID); err != nil || active {
		t.Fatalf("expected inactive, got active=%v err=%v", active, err)
	}
	if _, err := reg.Lookup(context.Background(), "acme", BySubdomain); !errors.Is(err, ErrSuspended) {
		t.Fatalf("expected ErrSuspended, got %v", err)
	}

	if err := reg.Reactivate(context.Background(), acme.ID); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if active, err := reg.IsActive(context.Background(), acme.ID); err != nil || !active {
		t.Fatalf("expected active, got active=%v err=%v", active, err)
	}
}
