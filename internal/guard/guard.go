// Package guard is the enforcement point between application code and
// tenant-owned storage. Every read carries the bound scope's tenant id as a
// mandatory predicate and every write stamps it; a call without a bound
// scope fails loudly with ErrNoContext instead of degrading to an unscoped
// query. Application code never holds a raw asset.Store.
package guard

import (
	"context"
	"errors"

	"signhub.io/internal/asset"
	"signhub.io/internal/scope"
	"signhub.io/internal/tenant"
)

// ErrNoContext reports guarded access attempted outside a bound execution
// context. This is a programming-contract violation, surfaced as a
// 5xx-class failure, never as an empty result.
var ErrNoContext = errors.New("guard: no execution context")

// Assets guards the asset store. The tenant id used for every call comes
// exclusively from the scope, never from the caller, so handler bugs cannot
// address another tenant's rows.
type Assets struct {
	store asset.Store
}

// NewAssets wraps the only sanctioned path to asset storage.
func NewAssets(store asset.Store) *Assets {
	return &Assets{store: store}
}

// check validates the scope and surrounding context before any storage call.
func check(ctx context.Context, sc *scope.Context) error {
	if sc == nil || sc.TenantID() == "" {
		return ErrNoContext
	}
	// A canceled operation must not issue new storage calls.
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Create stamps the scope's tenant id on the record and persists it. The
// plan quota is enforced here so no write path can bypass it.
func (g *Assets) Create(ctx context.Context, sc *scope.Context, a asset.Asset) (asset.Asset, error) {
	if err := check(ctx, sc); err != nil {
		return asset.Asset{}, err
	}
	count, err := g.store.CountAssets(ctx, sc.TenantID())
	if err != nil {
		return asset.Asset{}, err
	}
	if limit := sc.Tenant().Plan.MaxAssets(); count >= limit {
		return asset.Asset{}, asset.ErrQuotaReached
	}
	a.TenantID = sc.TenantID()
	if err := g.store.CreateAsset(ctx, sc.TenantID(), &a); err != nil {
		return asset.Asset{}, err
	}
	return a, nil
}

// Find reads one record within the scope's tenant. Records owned by other
// tenants are reported as not found, never as someone else's data.
func (g *Assets) Find(ctx context.Context, sc *scope.Context, id string) (asset.Asset, error) {
	if err := check(ctx, sc); err != nil {
		return asset.Asset{}, err
	}
	return g.store.FindAsset(ctx, sc.TenantID(), id)
}

// List returns the scope's tenant's records.
func (g *Assets) List(ctx context.Context, sc *scope.Context) ([]asset.Asset, error) {
	if err := check(ctx, sc); err != nil {
		return nil, err
	}
	return g.store.ListAssets(ctx, sc.TenantID())
}

// Update mutates editable fields of a record within the scope's tenant.
func (g *Assets) Update(ctx context.Context, sc *scope.Context, id string, upd asset.Update) (asset.Asset, error) {
	if err := check(ctx, sc); err != nil {
		return asset.Asset{}, err
	}
	return g.store.UpdateAsset(ctx, sc.TenantID(), id, upd)
}

// Delete removes a record within the scope's tenant.
func (g *Assets) Delete(ctx context.Context, sc *scope.Context, id string) error {
	if err := check(ctx, sc); err != nil {
		return err
	}
	return g.store.DeleteAsset(ctx, sc.TenantID(), id)
}

// WithGuardedAccess runs fn with the scope's tenant id after the same checks
// the typed accessors perform. It exists for collaborators that need scoped
// storage access outside the asset store (report generation, exports)
// without ever seeing the scope itself.
func WithGuardedAccess(ctx context.Context, sc *scope.Context, fn func(ctx context.Context, tenantID string) error) error {
	if err := check(ctx, sc); err != nil {
		return err
	}
	return fn(ctx, sc.TenantID())
}

// Snapshot is a read-only copy of scope data safe to hand to side-effect
// collaborators (webhooks, notifications). It shares no reference with the
// live scope, so those systems cannot couple to the request lifetime.
type Snapshot struct {
	TenantID   string
	TenantName string
	Plan       tenant.Plan
	Subject    string
}

// SnapshotOf copies the identifying scope data.
func SnapshotOf(sc *scope.Context) (Snapshot, error) {
	if sc == nil || sc.TenantID() == "" {
		return Snapshot{}, ErrNoContext
	}
	t := sc.Tenant()
	return Snapshot{
		TenantID:   t.ID,
		TenantName: t.Name,
		Plan:       t.Plan,
		Subject:    sc.Subject(),
	}, nil
}
