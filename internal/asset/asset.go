// Package asset models the representative tenant-owned entity: a signage
// media record. Storage and transcoding of the media bytes themselves are
// external collaborators; only the record lives here.
package asset

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("asset: not found")
	ErrInvalidInput = errors.New("asset: invalid input")
	ErrQuotaReached = errors.New("asset: plan quota reached")
)

// Asset is a tenant-owned media record. TenantID is stamped at creation and
// immutable afterwards.
type Asset struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	MediaType string    `json:"media_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Update mutates editable fields. Nil fields are left unchanged; TenantID is
// deliberately absent.
type Update struct {
	Name      *string
	MediaType *string
}

// Validate checks the fields a caller controls.
func (a Asset) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.Join(ErrInvalidInput, errors.New("name is required"))
	}
	if strings.TrimSpace(a.MediaType) == "" {
		return errors.Join(ErrInvalidInput, errors.New("media_type is required"))
	}
	if a.SizeBytes < 0 {
		return errors.Join(ErrInvalidInput, errors.New("size_bytes must be non-negative"))
	}
	return nil
}

// Store is the persistence contract for asset records. Every operation takes
// the owning tenant id as its first predicate; implementations must apply it
// to every read and stamp it on every write. Application code never calls a
// Store directly; it goes through the guard, which supplies the tenant id
// from the bound execution context.
type Store interface {
	CreateAsset(ctx context.Context, tenantID string, a *Asset) error
	FindAsset(ctx context.Context, tenantID, id string) (Asset, error)
	ListAssets(ctx context.Context, tenantID string) ([]Asset, error)
	UpdateAsset(ctx context.Context, tenantID, id string, upd Update) (Asset, error)
	DeleteAsset(ctx context.Context, tenantID, id string) error
	CountAssets(ctx context.Context, tenantID string) (int, error)
}
