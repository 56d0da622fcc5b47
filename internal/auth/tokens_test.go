package auth

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"signhub.io/internal/tenant"
)

type tokenFixture struct {
	svc      *TokenService
	store    *MemoryStore
	registry *tenant.MemoryRegistry
	tnt      tenant.Tenant
	user     User
	clock    *fakeClock
}

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time { return c.current }

func (c *fakeClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func newTokenFixture(t *testing.T) *tokenFixture {
	t.Helper()
	ResetEffectiveCache()

	clock := &fakeClock{current: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	registry := tenant.NewMemoryRegistry()
	store := NewMemoryStore()

	tnt, err := registry.Create(context.Background(), tenant.Tenant{
		Name:      "Acme Displays",
		Subdomain: "acme",
	})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}

	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := User{Email: "pat@acme.example", PasswordHash: hash}
	if err := store.CreateUser(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := store.UpsertMembership(context.Background(), Membership{
		TenantID: tnt.ID,
		UserID:   user.ID,
		Role:     RoleContentManager,
		Active:   true,
	}); err != nil {
		t.Fatalf("create membership: %v", err)
	}

	svc, err := NewTokenService(store, store, store, registry, "unit-test-secret", WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return &tokenFixture{svc: svc, store: store, registry: registry, tnt: tnt, user: user, clock: clock}
}

func TestLoginRoundTrip(t *testing.T) {
	f := newTokenFixture(t)

	pair, user, err := f.svc.Login(context.Background(), f.tnt, "pat@acme.example", "correct horse battery staple")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != f.user.ID {
		t.Fatalf("unexpected user: %s", user.ID)
	}

	claims, err := f.svc.Verify(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != f.user.ID {
		t.Fatalf("subject mismatch: %s", claims.Subject)
	}
	if claims.TenantID != f.tnt.ID {
		t.Fatalf("tenant mismatch: %s", claims.TenantID)
	}
	if claims.Role != RoleContentManager {
		t.Fatalf("role mismatch: %s", claims.Role)
	}
	want := EffectivePermissions(RoleContentManager, nil)
	if !slices.Equal(claims.Permissions, want) {
		t.Fatalf("permission snapshot mismatch: got %v want %v", claims.Permissions, want)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newTokenFixture(t)

	if _, _, err := f.svc.Login(context.Background(), f.tnt, "pat@acme.example", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := f.svc.Login(context.Background(), f.tnt, "nobody@acme.example", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRejectsForeignTenant(t *testing.T) {
	f := newTokenFixture(t)

	other, err := f.registry.Create(context.Background(), tenant.Tenant{Name: "Globex", Subdomain: "globex"})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	if _, _, err := f.svc.Login(context.Background(), other, "pat@acme.example", "correct horse battery staple"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("login without membership must fail as invalid credentials, got %v", err)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	f := newTokenFixture(t)

	pair, _, err := f.svc.Login(context.Background(), f.tnt, "pat@acme.example", "correct horse battery staple")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	token := pair.AccessToken
	for _, pos := range []int{1, len(token) / 2, len(token) - 2} {
		mutated := []byte(token)
		if mutated[pos] == 'A' {
			mutated[pos] = 'B'
		} else {
			mutated[pos] = 'A'
		}
		if _, err := f.svc.Verify(context.Background(), string(mutated)); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("byte %d: expected ErrTokenInvalid, got %v", pos, err)
		}
	}
}

func TestVerifyRejectsSuspendedTenant(t *testing.T) {
	f := newTokenFixture(t)

	pair, _, err := f.svc.Login(context.Background(), f.tnt, "pat@acme.example", "correct horse battery staple")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.registry.Suspend(context.Background(), f.tnt.ID); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	// Signature and expiry are still valid; the suspension alone kills it.
	if _, err := f.svc.Verify(context.Background(), pair.AccessToken); !errors.Is(err, tenant.ErrSuspended) {
		t.Fatalf("expected tenant.ErrSuspended, got %v", err)
	}
}

func TestAccessTokenExpiryAndRefresh(t *testing.T) {
	f := newTokenFixture(t)

	pair, _, err := f.svc.Login(context.Background(), f.tnt, "pat@acme.example", "correct horse battery staple")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	f.clock.Advance(16 * time.Minute)

	if _, err := f.svc.Verify(context.Background(), pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	// The refresh token is still inside its window and yields a fresh,
	// verifiable access token.
	next, _, err := f.svc.Refresh(context.Background(), f.tnt, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := f.svc.Verify(context.Background(), next.AccessToken); err != nil {
		t.Fatalf("Verify refreshed token: %v", err)
	}
}

func TestRefreshRotationSingleUse(t *testing.T) {
	f := newTokenFixture(t)

	pair, _, err := f.svc.Login(context.Background(), f.tnt, "pat@acme.example", "correct horse battery staple")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, _, err := f.svc.Refresh(context.Background(), f.tnt, pair.RefreshToken); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if _, _, err := f.svc.Refresh(context.Background(), f.tnt, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("second refresh: expected ErrTokenRevoked, got %v", err)
	}
}

func TestRefreshSuspendedTenantKeepsToken(t *testing.T) {
	f := newTokenFixture(t)

	pair, _, err := f.svc.Login(context.Background(), f.tnt, "pat@acme.example", "correct horse battery staple")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	suspended := f.tnt
	suspended.Status = tenant.StatusSuspended
	if _, _, err := f.svc.Refresh(context.Background(), suspended, pair.RefreshToken); !errors.Is(err, tenant.ErrSuspended) {
		t.Fatalf("expected tenant.ErrSuspended, got %v", err)
	}

	// The rotation id was not retired by the failed attempt; the same token
	// refreshes once the tenant is active again.
	if _, _, err := f.svc.Refresh(context.Background(), f.tnt, pair.RefreshToken); err != nil {
		t.Fatalf("refresh after reactivation: %v", err)
	}
}

func TestRefreshInactiveMembershipKeepsToken(t *testing.T) {
	f := newTokenFixture(t)

	pair, _, err := f.svc.Login(context.Background(), f.tnt, "pat@acme.example", "correct horse battery staple")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := f.store.DeactivateMembership(context.Background(), f.tnt.ID, f.user.ID); err != nil {
		t.Fatalf("deactivate membership: %v", err)
	}
	if _, _, err := f.svc.Refresh(context.Background(), f.tnt, pair.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	if err := f.store.UpsertMembership(context.Background(), Membership{
		TenantID: f.tnt.ID,
		UserID:   f.user.ID,
		Role:     RoleContentManager,
		Active:   true,
	}); err != nil {
		t.Fatalf("reactivate membership: %v", err)
	}
	if _, _, err := f.svc.Refresh(context.Background(), f.tnt, pair.RefreshToken); err != nil {
		t.Fatalf("refresh after reinstatement: %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	f := newTokenFixture(t)

	pair, _, err := f.svc.Login(context.Background(), f.tnt, "pat@acme.example", "correct horse battery staple")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := f.svc.Revoke(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if err := f.svc.Revoke(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if _, _, err := f.svc.Refresh(context.Background(), f.tnt, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("refresh after revoke: expected ErrTokenRevoked, got %v", err)
	}
}

func TestVerifyRejectsRefreshTokenAsAccess(t *testing.T) {
	f := newTokenFixture(t)

	pair, _, err := f.svc.Login(context.Background(), f.tnt, "pat@acme.example", "correct horse battery staple")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := f.svc.Verify(context.Background(), pair.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for refresh token, got %v", err)
	}
}

func TestCustomPermissionGrant(t *testing.T) {
	f := newTokenFixture(t)

	pair, _, err := f.svc.Login(context.Background(), f.tnt, "pat@acme.example", "correct horse battery staple")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := f.svc.Verify(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if Satisfies(claims.Permissions, PermAssetsDelete) {
		t.Fatal("content_manager must not delete assets before the grant")
	}

	if err := f.store.SetMembershipPermissions(context.Background(), f.tnt.ID, f.user.ID, []string{PermAssetsDelete}); err != nil {
		t.Fatalf("grant custom permission: %v", err)
	}

	pair, _, err = f.svc.Login(context.Background(), f.tnt, "pat@acme.example", "correct horse battery staple")
	if err != nil {
		t.Fatalf("Login after grant: %v", err)
	}
	claims, err = f.svc.Verify(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Verify after grant: %v", err)
	}
	if !Satisfies(claims.Permissions, PermAssetsDelete) {
		t.Fatal("custom grant missing from permission snapshot")
	}
}
