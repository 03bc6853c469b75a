package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"menuqr.org/internal/auth"
)

type userStore struct {
	s *Store
}

const userColumns = `
	id, tenant_id, name, email, password_hash, role,
	coalesce(phone, ''), is_active, created_at, updated_at
`

func scanUser(row interface{ Scan(dest ...any) error }) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.TenantID, &u.Name, &u.Email, &u.PasswordHash,
		&u.Role, &u.Phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (st *userStore) Get(ctx context.Context, id string) (*auth.User, error) {
	row := st.s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id)
	return scanUser(row)
}

func (st *userStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := st.s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email = $1`, email)
	return scanUser(row)
}

func (st *userStore) ListByTenant(ctx context.Context, tenantID string) ([]auth.User, error) {
	return st.list(ctx, `
		select `+userColumns+` from users
		where tenant_id = $1
		order by created_at
	`, tenantID)
}

func (st *userStore) ListByRole(ctx context.Context, tenantID, role string) ([]auth.User, error) {
	return st.list(ctx, `
		select `+userColumns+` from users
		where tenant_id = $1 and role = $2
		order by created_at
	`, tenantID, role)
}

func (st *userStore) list(ctx context.Context, query string, args ...any) ([]auth.User, error) {
	rows, err := st.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (st *userStore) Create(ctx context.Context, u *auth.User) error {
	_, err := st.s.db.ExecContext(ctx, `
		insert into users (id, tenant_id, name, email, password_hash, role, phone, is_active, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, u.ID, u.TenantID, u.Name, u.Email, u.PasswordHash, u.Role,
		nullIfEmpty(u.Phone), u.IsActive, u.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return auth.ErrEmailTaken
			case pgErrForeignKeyViolation:
				return fmt.Errorf("%w: tenant does not exist", auth.ErrInvalidInput)
			}
		}
		return err
	}
	return nil
}

func (st *userStore) Update(ctx context.Context, id string, upd auth.UserUpdate) (*auth.User, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", idx))
		args = append(args, *upd.Email)
		idx++
	}
	if upd.Password != nil {
		// Already hashed by the service layer.
		sets = append(sets, fmt.Sprintf("password_hash = $%d", idx))
		args = append(args, *upd.Password)
		idx++
	}
	if upd.Role != nil {
		sets = append(sets, fmt.Sprintf("role = $%d", idx))
		args = append(args, *upd.Role)
		idx++
	}
	if upd.Phone != nil {
		sets = append(sets, fmt.Sprintf("phone = $%d", idx))
		args = append(args, nullIfEmpty(*upd.Phone))
		idx++
	}
	if upd.IsActive != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", idx))
		args = append(args, *upd.IsActive)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update users set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := st.s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
				return nil, auth.ErrEmailTaken
			}
			return nil, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if aff == 0 {
			return nil, auth.ErrNotFound
		}
	}
	return st.Get(ctx, id)
}

func (st *userStore) Delete(ctx context.Context, id string) error {
	res, err := st.s.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}
