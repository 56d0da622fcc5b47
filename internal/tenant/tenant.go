package tenant

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("tenant: not found")
	ErrSuspended = errors.New("tenant: suspended")
	ErrRequired  = errors.New("tenant: tenant required")
	ErrConflict  = errors.New("tenant: routing key already in use")
	ErrInvalid   = errors.New("tenant: invalid input")
)

// Status is the tenant lifecycle flag. Tenants are never deleted; suspension
// preserves the audit trail while cutting off all access.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Plan is the resource-limit tier a tenant is subscribed to.
type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanGrowth     Plan = "growth"
	PlanEnterprise Plan = "enterprise"
)

// MaxAssets returns the asset-record ceiling for the plan.
func (p Plan) MaxAssets() int {
	switch p {
	case PlanGrowth:
		return 5000
	case PlanEnterprise:
		return 100000
	default:
		return 200
	}
}

func (p Plan) Valid() bool {
	switch p {
	case PlanStarter, PlanGrowth, PlanEnterprise:
		return true
	}
	return false
}

// Tenant is an isolated customer organization. Subdomain is the primary
// routing key; CustomDomain is an optional secondary one. Both are unique
// across the directory.
type Tenant struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Subdomain    string         `json:"subdomain"`
	CustomDomain string         `json:"custom_domain,omitempty"`
	Status       Status         `json:"status"`
	Plan         Plan           `json:"plan"`
	Settings     map[string]any `json:"settings,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Active reports whether operations may run on behalf of the tenant.
func (t Tenant) Active() bool {
	return t.Status == StatusActive
}

// NormalizeSlug lowercases and trims a subdomain slug.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// ValidSlug reports whether the slug can serve as a subdomain label:
// lowercase alphanumerics and hyphens, not starting or ending with a hyphen.
func ValidSlug(slug string) bool {
	if slug == "" || len(slug) > 63 {
		return false
	}
	if slug[0] == '-' || slug[len(slug)-1] == '-' {
		return false
	}
	for i := 0; i < len(slug); i++ {
		c := slug[i]
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' {
			continue
		}
		return false
	}
	return true
}
