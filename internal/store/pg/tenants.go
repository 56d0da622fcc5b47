package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"signhub.io/internal/ids"
	"signhub.io/internal/tenant"
)

const tenantColumns = `id, name, subdomain, coalesce(custom_domain, ''), status, plan, settings, created_at, updated_at`

func scanTenant(row interface{ Scan(...any) error }) (tenant.Tenant, error) {
	var (
		t        tenant.Tenant
		settings []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.CustomDomain, &t.Status, &t.Plan, &settings, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return tenant.Tenant{}, err
	}
	t.Settings = map[string]any{}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &t.Settings); err != nil {
			return tenant.Tenant{}, fmt.Errorf("decode settings: %w", err)
		}
	}
	return t, nil
}

func (s *Store) Create(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	t.Name = strings.TrimSpace(t.Name)
	t.Subdomain = tenant.NormalizeSlug(t.Subdomain)
	t.CustomDomain = strings.ToLower(strings.TrimSpace(t.CustomDomain))
	if t.Name == "" || !tenant.ValidSlug(t.Subdomain) {
		return tenant.Tenant{}, tenant.ErrInvalid
	}
	if t.Plan == "" {
		t.Plan = tenant.PlanStarter
	}
	if !t.Plan.Valid() {
		return tenant.Tenant{}, tenant.ErrInvalid
	}
	if t.ID == "" {
		t.ID = ids.New()
	}
	settings := []byte("{}")
	if len(t.Settings) > 0 {
		raw, err := json.Marshal(t.Settings)
		if err != nil {
			return tenant.Tenant{}, fmt.Errorf("marshal settings: %w", err)
		}
		settings = raw
	}

	var customDomain any
	if t.CustomDomain != "" {
		customDomain = t.CustomDomain
	}
	row := s.db.QueryRowContext(ctx, `
		insert into tenants (id, name, subdomain, custom_domain, status, plan, settings)
		values ($1, $2, $3, $4, 'active', $5, $6)
		returning `+tenantColumns,
		t.ID, t.Name, t.Subdomain, customDomain, t.Plan, settings)
	created, err := scanTenant(row)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return tenant.Tenant{}, tenant.ErrConflict
		}
		return tenant.Tenant{}, err
	}
	return created, nil
}

func (s *Store) Lookup(ctx context.Context, key string, strategy tenant.LookupStrategy) (tenant.Tenant, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return tenant.Tenant{}, tenant.ErrNotFound
	}

	var predicate string
	switch strategy {
	case tenant.ByID:
		predicate = `id = $1`
	case tenant.BySubdomain:
		predicate = `subdomain = $1`
	case tenant.ByCustomDomain:
		predicate = `custom_domain = $1`
	default:
		return tenant.Tenant{}, fmt.Errorf("tenant: unknown lookup strategy %q", strategy)
	}

	row := s.db.QueryRowContext(ctx, `select `+tenantColumns+` from tenants where `+predicate, key)
	t, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return tenant.Tenant{}, tenant.ErrNotFound
	}
	if err != nil {
		return tenant.Tenant{}, err
	}
	if !t.Active() {
		return t, tenant.ErrSuspended
	}
	return t, nil
}

func (s *Store) IsActive(ctx context.Context, id string) (bool, error) {
	var status tenant.Status
	err := s.db.QueryRowContext(ctx, `select status from tenants where id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, tenant.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return status == tenant.StatusActive, nil
}

func (s *Store) UpdateTenant(ctx context.Context, id string, upd tenant.Update) (tenant.Tenant, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return tenant.Tenant{}, tenant.ErrInvalid
		}
		sets = append(sets, `name = `+arg(name))
	}
	if upd.CustomDomain != nil {
		domain := strings.ToLower(strings.TrimSpace(*upd.CustomDomain))
		if domain == "" {
			sets = append(sets, `custom_domain = null`)
		} else {
			sets = append(sets, `custom_domain = `+arg(domain))
		}
	}
	if upd.Plan != nil {
		if !upd.Plan.Valid() {
			return tenant.Tenant{}, tenant.ErrInvalid
		}
		sets = append(sets, `plan = `+arg(string(*upd.Plan)))
	}
	if upd.Settings != nil {
		raw, err := json.Marshal(upd.Settings)
		if err != nil {
			return tenant.Tenant{}, fmt.Errorf("marshal settings: %w", err)
		}
		sets = append(sets, `settings = `+arg(raw))
	}
	if len(sets) == 0 {
		return s.findByID(ctx, id)
	}
	sets = append(sets, `updated_at = now()`)

	query := `update tenants set ` + strings.Join(sets, ", ") + ` where id = ` + arg(id) + ` returning ` + tenantColumns
	t, err := scanTenant(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return tenant.Tenant{}, tenant.ErrNotFound
	}
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return tenant.Tenant{}, tenant.ErrConflict
		}
		return tenant.Tenant{}, err
	}
	return t, nil
}

func (s *Store) Suspend(ctx context.Context, id string) error {
	return s.setTenantStatus(ctx, id, tenant.StatusSuspended)
}

func (s *Store) Reactivate(ctx context.Context, id string) error {
	return s.setTenantStatus(ctx, id, tenant.StatusActive)
}

func (s *Store) setTenantStatus(ctx context.Context, id string, status tenant.Status) error {
	res, err := s.db.ExecContext(ctx, `update tenants set status = $1, updated_at = now() where id = $2`, status, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return tenant.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, `select `+tenantColumns+` from tenants order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) findByID(ctx context.Context, id string) (tenant.Tenant, error) {
	row := s.db.QueryRowContext(ctx, `select `+tenantColumns+` from tenants where id = $1`, id)
	t, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return tenant.Tenant{}, tenant.ErrNotFound
	}
	return t, err
}
