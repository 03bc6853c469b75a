package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"menuqr.org/internal/auth"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// execer is the slice of *sql.DB / *sql.Tx the audit recorder needs.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AuditRecorder appends a claim audit entry using the caller's transaction,
// so the override write and its audit row commit or roll back together.
type AuditRecorder interface {
	Append(ctx context.Context, ex execer, entry *auth.ClaimAuditEntry) error
}

// Store is the Postgres-backed implementation of the auth and menu
// persistence interfaces.
type Store struct {
	db    *sql.DB
	audit AuditRecorder
}

var _ auth.Store = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithAuditRecorder overrides the audit sink, used by tests.
func WithAuditRecorder(r AuditRecorder) StoreOption {
	return func(s *Store) {
		if r != nil {
			s.audit = r
		}
	}
}

// Open connects to Postgres via the pgx stdlib driver.
func Open(dsn string, opts ...StoreOption) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return NewStore(db, opts...), nil
}

// NewStore wraps an existing connection pool, used by tests with sqlmock.
func NewStore(db *sql.DB, opts ...StoreOption) *Store {
	s := &Store{db: db, audit: claimAuditLog{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Ping verifies connectivity, used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Tenants() auth.TenantStore             { return &tenantStore{s} }
func (s *Store) Users() auth.UserStore                 { return &userStore{s} }
func (s *Store) Roles() auth.RoleStore                 { return &roleStore{s} }
func (s *Store) Claims() auth.ClaimStore               { return &claimStore{s} }
func (s *Store) RefreshTokens() auth.RefreshTokenStore { return &refreshTokenStore{s} }

// CreateTenantWithOwner inserts the tenant and its owner user in one
// transaction. Unique violations are mapped onto the registration conflict
// errors by constraint.
func (s *Store) CreateTenantWithOwner(ctx context.Context, tenant *auth.Tenant, owner *auth.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into tenants (id, name, slug, email, phone, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $6)
	`, tenant.ID, tenant.Name, tenant.Slug, tenant.Email, nullIfEmpty(tenant.Phone), tenant.CreatedAt); err != nil {
		return registrationConflict(err)
	}

	if _, err := tx.ExecContext(ctx, `
		insert into users (id, tenant_id, name, email, password_hash, role, phone, is_active, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, owner.ID, owner.TenantID, owner.Name, owner.Email, owner.PasswordHash,
		owner.Role, nullIfEmpty(owner.Phone), owner.IsActive, owner.CreatedAt); err != nil {
		return registrationConflict(err)
	}

	return tx.Commit()
}

// registrationConflict distinguishes which unique constraint fired so the
// API can report the exact conflict.
func registrationConflict(err error) error {
	pgErr, ok := maybePgError(err)
	if !ok || pgErr.Code != pgErrUniqueViolation {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "slug"):
		return auth.ErrSlugTaken
	case strings.Contains(pgErr.ConstraintName, "email"):
		return auth.ErrEmailTaken
	}
	return fmt.Errorf("%w: %s", auth.ErrConflict, pgErr.ConstraintName)
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
