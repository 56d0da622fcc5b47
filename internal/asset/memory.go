package asset

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"signhub.io/internal/ids"
)

// MemoryStore keeps asset records in process memory, mirroring the Postgres
// store's semantics for tests and DSN-less development.
type MemoryStore struct {
	mu     sync.RWMutex
	assets map[string]Asset
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assets: make(map[string]Asset),
		now:    time.Now,
	}
}

func (m *MemoryStore) CreateAsset(ctx context.Context, tenantID string, a *Asset) error {
	if tenantID == "" || a == nil {
		return ErrInvalidInput
	}
	a.Name = strings.TrimSpace(a.Name)
	a.MediaType = strings.TrimSpace(a.MediaType)
	if err := a.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = ids.New()
	}
	now := m.now().UTC()
	a.TenantID = tenantID
	a.CreatedAt = now
	a.UpdatedAt = now
	m.assets[a.ID] = *a
	return nil
}

func (m *MemoryStore) FindAsset(ctx context.Context, tenantID, id string) (Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assets[id]
	// A row owned by another tenant is indistinguishable from no row.
	if !ok || a.TenantID != tenantID {
		return Asset{}, ErrNotFound
	}
	return a, nil
}

func (m *MemoryStore) ListAssets(ctx context.Context, tenantID string) ([]Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Asset
	for _, a := range m.assets {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) UpdateAsset(ctx context.Context, tenantID, id string, upd Update) (Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok || a.TenantID != tenantID {
		return Asset{}, ErrNotFound
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return Asset{}, ErrInvalidInput
		}
		a.Name = name
	}
	if upd.MediaType != nil {
		mt := strings.TrimSpace(*upd.MediaType)
		if mt == "" {
			return Asset{}, ErrInvalidInput
		}
		a.MediaType = mt
	}
	a.UpdatedAt = m.now().UTC()
	m.assets[id] = a
	return a, nil
}

func (m *MemoryStore) DeleteAsset(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok || a.TenantID != tenantID {
		return ErrNotFound
	}
	delete(m.assets, id)
	return nil
}

func (m *MemoryStore) CountAssets(ctx context.Context, tenantID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, a := range m.assets {
		if a.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}
