package auth

import (
	"sort"
	"strings"
	"sync"

	"signhub.io/internal/obs"
)

// Permission keys understood by the core. Dotted namespaces; a trailing ".*"
// in a bundle grants the whole namespace.
const (
	PermAssetsView      = "assets.view"
	PermAssetsUpload    = "assets.upload"
	PermAssetsEdit      = "assets.edit"
	PermAssetsDelete    = "assets.delete"
	PermScreensView     = "screens.view"
	PermScreensManage   = "screens.manage"
	PermPlaylistsView   = "playlists.view"
	PermPlaylistsManage = "playlists.manage"
	PermMembersView     = "members.view"
	PermMembersManage   = "members.manage"
	PermTenantSettings  = "tenant.settings"

	// PermPlatformAdmin gates cross-tenant provisioning operations. Granted
	// only as a custom permission on operator memberships, never by a role.
	PermPlatformAdmin = "platform.admin"
)

// Role is the enumerated RBAC role. The set is fixed: adding a role is a
// code change, not a data mutation. Per-membership custom permissions are
// the escape hatch for one-off grants.
type Role string

const (
	RoleOwner          Role = "owner"
	RoleAdmin          Role = "admin"
	RoleContentManager Role = "content_manager"
	RoleViewer         Role = "viewer"
)

var roleBundles = map[Role][]string{
	RoleOwner: {"*"},
	RoleAdmin: {
		"assets.*",
		"screens.*",
		"playlists.*",
		"members.*",
		PermTenantSettings,
	},
	RoleContentManager: {
		PermAssetsView,
		PermAssetsUpload,
		PermAssetsEdit,
		PermScreensView,
		"playlists.*",
	},
	RoleViewer: {
		PermAssetsView,
		PermScreensView,
		PermPlaylistsView,
	},
}

// ParseRole normalizes and validates a role name.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := roleBundles[role]
	return role, ok
}

// Valid reports whether the role is one of the enumerated set.
func (r Role) Valid() bool {
	_, ok := roleBundles[r]
	return ok
}

// Bundle returns a copy of the role's permission patterns.
func (r Role) Bundle() []string {
	bundle := roleBundles[r]
	out := make([]string, len(bundle))
	copy(out, bundle)
	return out
}

// Matches reports whether pattern satisfies the required permission.
// "*" satisfies everything; "ns.*" satisfies any permission under ns;
// otherwise only an exact match counts. This is the single place wildcard
// semantics live.
func Matches(pattern, required string) bool {
	if pattern == "" || required == "" {
		return false
	}
	if pattern == "*" {
		return true
	}
	if pattern == required {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(required, prefix+".")
	}
	return false
}

// Satisfies reports whether any pattern in perms matches required.
// Absence of a match is denial; there is no implicit allow.
func Satisfies(perms []string, required string) bool {
	for _, p := range perms {
		if Matches(p, required) {
			return true
		}
	}
	return false
}

// effectiveCache memoizes EffectivePermissions per (role, custom set). The
// computation is pure, so entries never go stale on their own; membership
// mutations call ResetEffectiveCache. A short staleness window after a
// change is acceptable, concurrent access is not, hence sync.Map.
var effectiveCache sync.Map

// EffectivePermissions returns the sorted union of the role bundle and the
// membership's custom permissions.
func EffectivePermissions(role Role, custom []string) []string {
	key := effectiveKey(role, custom)
	if cached, ok := effectiveCache.Load(key); ok {
		obs.ObservePermissionCache("hit")
		perms := cached.([]string)
		out := make([]string, len(perms))
		copy(out, perms)
		return out
	}
	obs.ObservePermissionCache("miss")

	set := make(map[string]struct{})
	for _, p := range roleBundles[role] {
		set[p] = struct{}{}
	}
	for _, p := range custom {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	perms := make([]string, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	sort.Strings(perms)

	effectiveCache.Store(key, perms)
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// ResetEffectiveCache drops all memoized permission sets. Called whenever a
// membership's role or custom permissions change.
func ResetEffectiveCache() {
	effectiveCache.Range(func(key, _ any) bool {
		effectiveCache.Delete(key)
		return true
	})
}

func effectiveKey(role Role, custom []string) string {
	if len(custom) == 0 {
		return string(role)
	}
	sorted := make([]string, 0, len(custom))
	for _, p := range custom {
		p = strings.TrimSpace(p)
		if p != "" {
			sorted = append(sorted, p)
		}
	}
	sort.Strings(sorted)
	return string(role) + "|" + strings.Join(sorted, ",")
}
