package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"signhub.io/internal/auth"
)

const membershipColumns = `tenant_id, user_id, role, custom_permissions, active, joined_at`

func scanMembership(row interface{ Scan(...any) error }) (auth.Membership, error) {
	var (
		m     auth.Membership
		perms []byte
	)
	if err := row.Scan(&m.TenantID, &m.UserID, &m.Role, &perms, &m.Active, &m.JoinedAt); err != nil {
		return auth.Membership{}, err
	}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &m.CustomPermissions); err != nil {
			return auth.Membership{}, fmt.Errorf("decode custom permissions: %w", err)
		}
	}
	return m, nil
}

func (s *Store) UpsertMembership(ctx context.Context, m auth.Membership) error {
	if m.TenantID == "" || m.UserID == "" || !m.Role.Valid() {
		return auth.ErrInvalidInput
	}
	perms, err := json.Marshal(m.CustomPermissions)
	if err != nil {
		return fmt.Errorf("marshal custom permissions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		insert into memberships (tenant_id, user_id, role, custom_permissions, active)
		values ($1, $2, $3, $4, $5)
		on conflict (tenant_id, user_id) do update
		set role = excluded.role,
		    custom_permissions = excluded.custom_permissions,
		    active = excluded.active`,
		m.TenantID, m.UserID, m.Role, perms, m.Active)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return auth.ErrNotFound
		}
		return err
	}
	auth.ResetEffectiveCache()
	return nil
}

func (s *Store) FindMembership(ctx context.Context, tenantID, userID string) (auth.Membership, error) {
	m, err := scanMembership(s.db.QueryRowContext(ctx,
		`select `+membershipColumns+` from memberships where tenant_id = $1 and user_id = $2`,
		tenantID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Membership{}, auth.ErrNotFound
	}
	return m, err
}

func (s *Store) ListMemberships(ctx context.Context, tenantID string) ([]auth.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+membershipColumns+` from memberships where tenant_id = $1 order by joined_at`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auth.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) SetMembershipRole(ctx context.Context, tenantID, userID string, role auth.Role) error {
	if !role.Valid() {
		return auth.ErrInvalidInput
	}
	return s.mutateMembership(ctx,
		`update memberships set role = $1 where tenant_id = $2 and user_id = $3`,
		role, tenantID, userID)
}

func (s *Store) SetMembershipPermissions(ctx context.Context, tenantID, userID string, perms []string) error {
	raw, err := json.Marshal(perms)
	if err != nil {
		return fmt.Errorf("marshal custom permissions: %w", err)
	}
	return s.mutateMembership(ctx,
		`update memberships set custom_permissions = $1 where tenant_id = $2 and user_id = $3`,
		raw, tenantID, userID)
}

func (s *Store) DeactivateMembership(ctx context.Context, tenantID, userID string) error {
	return s.mutateMembership(ctx,
		`update memberships set active = false where tenant_id = $1 and user_id = $2`,
		tenantID, userID)
}

func (s *Store) mutateMembership(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return auth.ErrNotFound
	}
	auth.ResetEffectiveCache()
	return nil
}
