package auth

import (
	"context"
	"time"
)

// UserStore manages tenant-independent principals.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	FindUser(ctx context.Context, id string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
}

// MembershipStore manages the (tenant, user) relation. Implementations
// enforce uniqueness per pair and deactivate instead of delete.
type MembershipStore interface {
	UpsertMembership(ctx context.Context, m Membership) error
	FindMembership(ctx context.Context, tenantID, userID string) (Membership, error)
	ListMemberships(ctx context.Context, tenantID string) ([]Membership, error)
	SetMembershipRole(ctx context.Context, tenantID, userID string, role Role) error
	SetMembershipPermissions(ctx context.Context, tenantID, userID string, perms []string) error
	DeactivateMembership(ctx context.Context, tenantID, userID string) error
}

// RevocationStore tracks revoked refresh-token rotation ids. It must be
// immediately consistent: a revoked id may never be honored by a concurrent
// verification. Revoke reports whether the id was already present so the
// refresh path can reject replay while the logout path stays idempotent.
type RevocationStore interface {
	Revoke(ctx context.Context, rotationID string, expiresAt time.Time) (alreadyRevoked bool, err error)
	IsRevoked(ctx context.Context, rotationID string) (bool, error)
}
