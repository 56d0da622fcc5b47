package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"signhub.io/internal/ids"
)

// MemoryStore implements UserStore, MembershipStore and RevocationStore in
// process memory. Used by unit tests and DSN-less development mode; the
// mutex gives the revocation set the immediate consistency the contract
// demands.
type MemoryStore struct {
	mu          sync.Mutex
	users       map[string]User
	byEmail     map[string]string
	memberships map[string]Membership
	revoked     map[string]time.Time
	now         func() time.Time
}

var (
	_ UserStore       = (*MemoryStore)(nil)
	_ MembershipStore = (*MemoryStore)(nil)
	_ RevocationStore = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]User),
		byEmail:     make(map[string]string),
		memberships: make(map[string]Membership),
		revoked:     make(map[string]time.Time),
		now:         time.Now,
	}
}

func membershipKey(tenantID, userID string) string {
	return tenantID + "/" + userID
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *User) error {
	if u == nil {
		return ErrInvalidInput
	}
	email := strings.TrimSpace(strings.ToLower(u.Email))
	if email == "" {
		return ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[email]; exists {
		return ErrConflict
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	now := m.now().UTC()
	u.Email = email
	u.CreatedAt = now
	u.UpdatedAt = now
	m.users[u.ID] = *u
	m.byEmail[email] = u.ID
	return nil
}

func (m *MemoryStore) FindUser(ctx context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *MemoryStore) UpsertMembership(ctx context.Context, ms Membership) error {
	if ms.TenantID == "" || ms.UserID == "" || !ms.Role.Valid() {
		return ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := membershipKey(ms.TenantID, ms.UserID)
	if existing, ok := m.memberships[key]; ok {
		ms.JoinedAt = existing.JoinedAt
	} else if ms.JoinedAt.IsZero() {
		ms.JoinedAt = m.now().UTC()
	}
	m.memberships[key] = ms
	ResetEffectiveCache()
	return nil
}

func (m *MemoryStore) FindMembership(ctx context.Context, tenantID, userID string) (Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.memberships[membershipKey(tenantID, userID)]
	if !ok {
		return Membership{}, ErrNotFound
	}
	return ms, nil
}

func (m *MemoryStore) ListMemberships(ctx context.Context, tenantID string) ([]Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Membership
	for _, ms := range m.memberships {
		if ms.TenantID == tenantID {
			out = append(out, ms)
		}
	}
	return out, nil
}

func (m *MemoryStore) SetMembershipRole(ctx context.Context, tenantID, userID string, role Role) error {
	if !role.Valid() {
		return ErrInvalidInput
	}
	return m.mutateMembership(tenantID, userID, func(ms *Membership) {
		ms.Role = role
	})
}

func (m *MemoryStore) SetMembershipPermissions(ctx context.Context, tenantID, userID string, perms []string) error {
	cleaned := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return m.mutateMembership(tenantID, userID, func(ms *Membership) {
		ms.CustomPermissions = cleaned
	})
}

func (m *MemoryStore) DeactivateMembership(ctx context.Context, tenantID, userID string) error {
	return m.mutateMembership(tenantID, userID, func(ms *Membership) {
		ms.Active = false
	})
}

func (m *MemoryStore) mutateMembership(tenantID, userID string, fn func(*Membership)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := membershipKey(tenantID, userID)
	ms, ok := m.memberships[key]
	if !ok {
		return ErrNotFound
	}
	fn(&ms)
	m.memberships[key] = ms
	ResetEffectiveCache()
	return nil
}

func (m *MemoryStore) Revoke(ctx context.Context, rotationID string, expiresAt time.Time) (bool, error) {
	if rotationID == "" {
		return false, ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.revoked[rotationID]; ok {
		return true, nil
	}
	m.revoked[rotationID] = expiresAt
	return false, nil
}

func (m *MemoryStore) IsRevoked(ctx context.Context, rotationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[rotationID]
	return ok, nil
}
