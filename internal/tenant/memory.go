package tenant

import (
	"context"
	"strings"
	"sync"
	"time"

	"signhub.io/internal/ids"
)

// MemoryRegistry is an in-memory Registry used by unit tests and DSN-less
// development mode. It mirrors the semantics of the Postgres store.
type MemoryRegistry struct {
	mu      sync.RWMutex
	tenants map[string]Tenant
	now     func() time.Time
}

var _ Registry = (*MemoryRegistry)(nil)

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		tenants: make(map[string]Tenant),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Test use only.
func (m *MemoryRegistry) SetClock(fn func() time.Time) {
	if fn != nil {
		m.now = fn
	}
}

func (m *MemoryRegistry) Create(ctx context.Context, t Tenant) (Tenant, error) {
	t.Name = strings.TrimSpace(t.Name)
	t.Subdomain = NormalizeSlug(t.Subdomain)
	t.CustomDomain = strings.ToLower(strings.TrimSpace(t.CustomDomain))
	if t.Name == "" || !ValidSlug(t.Subdomain) {
		return Tenant{}, ErrInvalid
	}
	if t.Plan == "" {
		t.Plan = PlanStarter
	}
	if !t.Plan.Valid() {
		return Tenant{}, ErrInvalid
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tenants {
		if existing.Subdomain == t.Subdomain {
			return Tenant{}, ErrConflict
		}
		if t.CustomDomain != "" && existing.CustomDomain == t.CustomDomain {
			return Tenant{}, ErrConflict
		}
	}
	if t.ID == "" {
		t.ID = ids.New()
	}
	t.Status = StatusActive
	now := m.now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Settings == nil {
		t.Settings = map[string]any{}
	}
	m.tenants[t.ID] = t
	return t, nil
}

func (m *MemoryRegistry) Lookup(ctx context.Context, key string, strategy LookupStrategy) (Tenant, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return Tenant{}, ErrNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tenants {
		var match bool
		switch strategy {
		case ByID:
			match = strings.EqualFold(t.ID, key)
		case BySubdomain:
			match = t.Subdomain == key
		case ByCustomDomain:
			match = t.CustomDomain != "" && t.CustomDomain == key
		}
		if !match {
			continue
		}
		if !t.Active() {
			return t, ErrSuspended
		}
		return t, nil
	}
	return Tenant{}, ErrNotFound
}

func (m *MemoryRegistry) IsActive(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tenants[id]
	if !ok {
		return false, ErrNotFound
	}
	return t.Active(), nil
}

func (m *MemoryRegistry) UpdateTenant(ctx context.Context, id string, upd Update) (Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return Tenant{}, ErrNotFound
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return Tenant{}, ErrInvalid
		}
		t.Name = name
	}
	if upd.CustomDomain != nil {
		domain := strings.ToLower(strings.TrimSpace(*upd.CustomDomain))
		for otherID, other := range m.tenants {
			if otherID != id && domain != "" && other.CustomDomain == domain {
				return Tenant{}, ErrConflict
			}
		}
		t.CustomDomain = domain
	}
	if upd.Plan != nil {
		if !upd.Plan.Valid() {
			return Tenant{}, ErrInvalid
		}
		t.Plan = *upd.Plan
	}
	if upd.Settings != nil {
		t.Settings = upd.Settings
	}
	t.UpdatedAt = m.now().UTC()
	m.tenants[id] = t
	return t, nil
}

func (m *MemoryRegistry) Suspend(ctx context.Context, id string) error {
	return m.setStatus(id, StatusSuspended)
}

func (m *MemoryRegistry) Reactivate(ctx context.Context, id string) error {
	return m.setStatus(id, StatusActive)
}

func (m *MemoryRegistry) setStatus(id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = m.now().UTC()
	m.tenants[id] = t
	return nil
}

func (m *MemoryRegistry) List(ctx context.Context) ([]Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, t)
	}
	return out, nil
}
