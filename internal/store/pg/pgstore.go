// Package pg implements the tenant registry, principal stores and the
// guarded asset store on PostgreSQL. Every query against a tenant-owned
// table carries the tenant id predicate handed down by the guard; there is
// no unscoped accessor.
package pg

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"signhub.io/internal/asset"
	"signhub.io/internal/auth"
	"signhub.io/internal/tenant"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// Store bundles all Postgres-backed persistence behind one connection pool.
type Store struct {
	db *sql.DB
}

var (
	_ tenant.Registry      = (*Store)(nil)
	_ auth.UserStore       = (*Store)(nil)
	_ auth.MembershipStore = (*Store)(nil)
	_ auth.RevocationStore = (*Store)(nil)
	_ asset.Store          = (*Store)(nil)
)

// Open dials Postgres via the pgx stdlib driver with pool defaults tuned for
// the API workload.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return New(db), nil
}

// New wraps an existing handle. Used by tests with sqlmock.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the handle for readiness probes and the migration runner.
func (s *Store) DB() *sql.DB { return s.db }

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
