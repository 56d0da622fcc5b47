package guard

import (
	"context"
	"errors"
	"testing"

	"signhub.io/internal/asset"
	"signhub.io/internal/auth"
	"signhub.io/internal/scope"
	"signhub.io/internal/tenant"
)

func boundScope(t *testing.T, tenantID, subject string) *scope.Context {
	t.Helper()
	claims := auth.Claims{
		TenantID:    tenantID,
		Role:        auth.RoleAdmin,
		Permissions: auth.EffectivePermissions(auth.RoleAdmin, nil),
		TokenType:   auth.TokenTypeAccess,
	}
	claims.Subject = subject
	sc, err := scope.Bind(tenant.Tenant{
		ID:        tenantID,
		Name:      tenantID,
		Subdomain: tenantID,
		Status:    tenant.StatusActive,
		Plan:      tenant.PlanStarter,
	}, claims)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	return sc
}

func TestGuardStampsTenantOnCreate(t *testing.T) {
	g := NewAssets(asset.NewMemoryStore())
	sc := boundScope(t, "t-acme", "user-42")

	created, err := g.Create(context.Background(), sc, asset.Asset{
		TenantID:  "t-globex", // caller-supplied owner is ignored
		Name:      "lobby-loop.mp4",
		MediaType: "video/mp4",
		SizeBytes: 1 << 20,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.TenantID != "t-acme" {
		t.Fatalf("tenant id not stamped from scope: %s", created.TenantID)
	}
}

func TestGuardCrossTenantReadIsNotFound(t *testing.T) {
	store := asset.NewMemoryStore()
	g := NewAssets(store)

	acme := boundScope(t, "t-acme", "user-42")
	globex := boundScope(t, "t-globex", "user-77")

	acmeAsset, err := g.Create(context.Background(), acme, asset.Asset{Name: "asset-acme-1", MediaType: "image/png"})
	if err != nil {
		t.Fatalf("create acme asset: %v", err)
	}
	globexAsset, err := g.Create(context.Background(), globex, asset.Asset{Name: "asset-globex-1", MediaType: "image/png"})
	if err != nil {
		t.Fatalf("create globex asset: %v", err)
	}

	// A scope bound to acme must never see globex data.
	if _, err := g.Find(context.Background(), acme, globexAsset.ID); !errors.Is(err, asset.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign asset, got %v", err)
	}
	if err := g.Delete(context.Background(), acme, globexAsset.ID); !errors.Is(err, asset.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting foreign asset, got %v", err)
	}

	list, err := g.List(context.Background(), acme)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != acmeAsset.ID {
		t.Fatalf("list leaked foreign rows: %+v", list)
	}
}

func TestGuardRejectsMissingScope(t *testing.T) {
	g := NewAssets(asset.NewMemoryStore())

	if _, err := g.List(context.Background(), nil); !errors.Is(err, ErrNoContext) {
		t.Fatalf("expected ErrNoContext, got %v", err)
	}
	if _, err := g.Create(context.Background(), nil, asset.Asset{Name: "x", MediaType: "image/png"}); !errors.Is(err, ErrNoContext) {
		t.Fatalf("expected ErrNoContext, got %v", err)
	}
	err := WithGuardedAccess(context.Background(), nil, func(context.Context, string) error {
		t.Fatal("callback must not run without a scope")
		return nil
	})
	if !errors.Is(err, ErrNoContext) {
		t.Fatalf("expected ErrNoContext, got %v", err)
	}
}

func TestGuardHonorsCancellation(t *testing.T) {
	g := NewAssets(asset.NewMemoryStore())
	sc := boundScope(t, "t-acme", "user-42")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.List(ctx, sc); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGuardEnforcesPlanQuota(t *testing.T) {
	g := NewAssets(asset.NewMemoryStore())
	sc := boundScope(t, "t-acme", "user-42")

	limit := tenant.PlanStarter.MaxAssets()
	for i := 0; i < limit; i++ {
		if _, err := g.Create(context.Background(), sc, asset.Asset{Name: "a", MediaType: "image/png"}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if _, err := g.Create(context.Background(), sc, asset.Asset{Name: "over", MediaType: "image/png"}); !errors.Is(err, asset.ErrQuotaReached) {
		t.Fatalf("expected ErrQuotaReached, got %v", err)
	}
}

func TestSnapshotOf(t *testing.T) {
	sc := boundScope(t, "t-acme", "user-42")
	snap, err := SnapshotOf(sc)
	if err != nil {
		t.Fatalf("SnapshotOf: %v", err)
	}
	if snap.TenantID != "t-acme" || snap.Subject != "user-42" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if _, err := SnapshotOf(nil); !errors.Is(err, ErrNoContext) {
		t.Fatalf("expected ErrNoContext, got %v", err)
	}
}
