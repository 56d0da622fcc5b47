package tenant

import "context"

// LookupStrategy selects which routing key a directory lookup matches on.
type LookupStrategy string

const (
	ByID           LookupStrategy = "id"
	BySubdomain    LookupStrategy = "subdomain"
	ByCustomDomain LookupStrategy = "custom_domain"
)

// Directory is the read model over the tenant registry. Lookup is a single
// deterministic read: routing keys are unique-constrained, so ties cannot
// occur. A suspended tenant is reported as ErrSuspended, distinct from
// ErrNotFound, so callers can surface the more specific failure.
type Directory interface {
	Lookup(ctx context.Context, key string, strategy LookupStrategy) (Tenant, error)
	IsActive(ctx context.Context, id string) (bool, error)
}

// Update carries provisioning-side mutations. Nil fields are left unchanged.
type Update struct {
	Name         *string
	CustomDomain *string
	Plan         *Plan
	Settings     map[string]any
}

// Registry extends Directory with the administrative write operations.
// Suspension is the only lifecycle exit: rows are never deleted.
type Registry interface {
	Directory
	Create(ctx context.Context, t Tenant) (Tenant, error)
	UpdateTenant(ctx context.Context, id string, upd Update) (Tenant, error)
	Suspend(ctx context.Context, id string) error
	Reactivate(ctx context.Context, id string) error
	List(ctx context.Context) ([]Tenant, error)
}
