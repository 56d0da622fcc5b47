package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"signhub.io/internal/asset"
	"signhub.io/internal/ids"
)

const assetColumns = `id, tenant_id, name, media_type, size_bytes, created_at, updated_at`

func scanAsset(row interface{ Scan(...any) error }) (asset.Asset, error) {
	var a asset.Asset
	err := row.Scan(&a.ID, &a.TenantID, &a.Name, &a.MediaType, &a.SizeBytes, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) CreateAsset(ctx context.Context, tenantID string, a *asset.Asset) error {
	if a == nil || tenantID == "" {
		return asset.ErrInvalidInput
	}
	if a.ID == "" {
		a.ID = ids.New()
	}
	a.TenantID = tenantID
	row := s.db.QueryRowContext(ctx, `
		insert into assets (id, tenant_id, name, media_type, size_bytes)
		values ($1, $2, $3, $4, $5)
		returning created_at, updated_at`,
		a.ID, tenantID, a.Name, a.MediaType, a.SizeBytes)
	return row.Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (s *Store) FindAsset(ctx context.Context, tenantID, id string) (asset.Asset, error) {
	a, err := scanAsset(s.db.QueryRowContext(ctx,
		`select `+assetColumns+` from assets where tenant_id = $1 and id = $2`,
		tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return asset.Asset{}, asset.ErrNotFound
	}
	return a, err
}

func (s *Store) ListAssets(ctx context.Context, tenantID string) ([]asset.Asset, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+assetColumns+` from assets where tenant_id = $1 order by created_at desc`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []asset.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAsset(ctx context.Context, tenantID, id string, upd asset.Update) (asset.Asset, error) {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 4)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return asset.Asset{}, asset.ErrInvalidInput
		}
		sets = append(sets, `name = `+arg(*upd.Name))
	}
	if upd.MediaType != nil {
		if strings.TrimSpace(*upd.MediaType) == "" {
			return asset.Asset{}, asset.ErrInvalidInput
		}
		sets = append(sets, `media_type = `+arg(*upd.MediaType))
	}
	if len(sets) == 0 {
		return s.FindAsset(ctx, tenantID, id)
	}
	sets = append(sets, `updated_at = now()`)

	query := `update assets set ` + strings.Join(sets, ", ") +
		` where tenant_id = ` + arg(tenantID) + ` and id = ` + arg(id) +
		` returning ` + assetColumns
	a, err := scanAsset(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return asset.Asset{}, asset.ErrNotFound
	}
	return a, err
}

func (s *Store) DeleteAsset(ctx context.Context, tenantID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from assets where tenant_id = $1 and id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return asset.ErrNotFound
	}
	return nil
}

func (s *Store) CountAssets(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`select count(*) from assets where tenant_id = $1`, tenantID).Scan(&n)
	return n, err
}
