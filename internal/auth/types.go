package auth

import "time"

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// User is a principal with an identity independent of any tenant. A user may
// hold zero or more memberships.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Membership grants a user a role within one tenant, optionally widened by
// custom permissions. Unique per (tenant, user); removal deactivates rather
// than deletes so the audit trail stays intact.
type Membership struct {
	TenantID          string    `json:"tenant_id"`
	UserID            string    `json:"user_id"`
	Role              Role      `json:"role"`
	CustomPermissions []string  `json:"custom_permissions,omitempty"`
	Active            bool      `json:"active"`
	JoinedAt          time.Time `json:"joined_at"`
}
