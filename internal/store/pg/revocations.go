package pg

import (
	"context"
	"time"
)

func (s *Store) Revoke(ctx context.Context, rotationID string, expiresAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		insert into revoked_refresh_tokens (rotation_id, expires_at)
		values ($1, $2)
		on conflict (rotation_id) do nothing`,
		rotationID, expiresAt)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 0, nil
}

func (s *Store) IsRevoked(ctx context.Context, rotationID string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from revoked_refresh_tokens where rotation_id = $1)`,
		rotationID).Scan(&revoked)
	return revoked, err
}

// PruneRevocations drops entries whose backing refresh token has expired on
// its own; they can no longer pass signature verification anyway.
func (s *Store) PruneRevocations(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`delete from revoked_refresh_tokens where expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
