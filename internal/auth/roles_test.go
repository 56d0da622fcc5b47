package auth

import (
	"slices"
	"testing"
)

func TestMatches(t *testing.T) {
	cases := []struct {
		pattern  string
		required string
		want     bool
	}{
		{"*", "assets.delete", true},
		{"*", "anything.at.all", true},
		{"assets.delete", "assets.delete", true},
		{"assets.delete", "assets.view", false},
		{"assets.*", "assets.delete", true},
		{"assets.*", "assets.view", true},
		{"assets.*", "users.view", false},
		{"assets.*", "assetsx.view", false},
		{"assets.*", "assets", false},
		{"", "assets.view", false},
		{"assets.view", "", false},
	}
	for _, tc := range cases {
		if got := Matches(tc.pattern, tc.required); got != tc.want {
			t.Fatalf("Matches(%q, %q)=%v, want %v", tc.pattern, tc.required, got, tc.want)
		}
	}
}

func TestSatisfiesDefaultDeny(t *testing.T) {
	if Satisfies(nil, "assets.view") {
		t.Fatal("empty permission set must deny")
	}
	if Satisfies([]string{"screens.view"}, "assets.view") {
		t.Fatal("unrelated permission must deny")
	}
}

func TestRoleBundles(t *testing.T) {
	if Satisfies(RoleContentManager.Bundle(), PermAssetsDelete) {
		t.Fatal("content_manager must not delete assets by role alone")
	}
	if !Satisfies(RoleContentManager.Bundle(), PermAssetsUpload) {
		t.Fatal("content_manager must upload assets")
	}
	if !Satisfies(RoleOwner.Bundle(), PermMembersManage) {
		t.Fatal("owner must hold every permission")
	}
	if Satisfies(RoleViewer.Bundle(), PermAssetsUpload) {
		t.Fatal("viewer must be read-only")
	}
}

func TestEffectivePermissionsMonotonic(t *testing.T) {
	ResetEffectiveCache()

	base := EffectivePermissions(RoleContentManager, nil)
	if Satisfies(base, PermAssetsDelete) {
		t.Fatal("base bundle unexpectedly grants assets.delete")
	}

	widened := EffectivePermissions(RoleContentManager, []string{PermAssetsDelete})
	if !Satisfies(widened, PermAssetsDelete) {
		t.Fatal("custom permission was not granted")
	}
	// Adding a permission never removes one.
	for _, p := range base {
		if !slices.Contains(widened, p) {
			t.Fatalf("widening dropped %q", p)
		}
	}
	// And never grants outside the requested namespace.
	if Satisfies(widened, "users.view") {
		t.Fatal("assets.delete must not leak into users namespace")
	}
}

func TestEffectivePermissionsCached(t *testing.T) {
	ResetEffectiveCache()

	first := EffectivePermissions(RoleViewer, []string{"assets.upload"})
	second := EffectivePermissions(RoleViewer, []string{"assets.upload"})
	if !slices.Equal(first, second) {
		t.Fatalf("cache returned different set: %v vs %v", first, second)
	}

	// Returned slices are copies; mutating one must not poison the cache.
	first[0] = "tampered"
	third := EffectivePermissions(RoleViewer, []string{"assets.upload"})
	if slices.Contains(third, "tampered") {
		t.Fatal("cache entry was mutated through a returned slice")
	}

	ResetEffectiveCache()
	fourth := EffectivePermissions(RoleViewer, []string{"assets.upload"})
	if !slices.Equal(second, fourth) {
		t.Fatalf("recomputed set differs after reset: %v vs %v", second, fourth)
	}
}

func TestParseRole(t *testing.T) {
	if role, ok := ParseRole("  Content_Manager "); !ok || role != RoleContentManager {
		t.Fatalf("ParseRole failed: %v %v", role, ok)
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Fatal("unknown role must not parse")
	}
}
