package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"signhub.io/internal/auth"
	"signhub.io/internal/ids"
)

const userColumns = `id, email, password_hash, status, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	if u == nil {
		return auth.ErrInvalidInput
	}
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	if u.Email == "" {
		return auth.ErrInvalidInput
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.Status == "" {
		u.Status = auth.UserStatusActive
	}
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, email, password_hash, status)
		values ($1, $2, $3, $4)
		returning created_at, updated_at`,
		u.ID, u.Email, u.PasswordHash, u.Status)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) FindUser(ctx context.Context, id string) (auth.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrNotFound
	}
	return u, err
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (auth.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrNotFound
	}
	return u, err
}
