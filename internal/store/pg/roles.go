package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"menuqr.org/internal/auth"
)

type roleStore struct {
	s *Store
}

// List returns every role with claim and user counts, in priority order:
// admin first, staff last.
func (st *roleStore) List(ctx context.Context) ([]auth.RoleSummary, error) {
	rows, err := st.s.db.QueryContext(ctx, `
		select r.name, r.title, coalesce(r.description, ''), coalesce(r.color, ''),
			r.is_system_role, r.created_at, r.updated_at,
			(select count(*) from role_claims rc where rc.role_name = r.name),
			(select count(*) from users u where u.role = r.name)
		from roles r
		order by case r.name
			when 'admin' then 1
			when 'manager' then 2
			when 'staff' then 3
			else 4
		end
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.RoleSummary
	for rows.Next() {
		var rs auth.RoleSummary
		if err := rows.Scan(&rs.Name, &rs.Title, &rs.Description, &rs.Color,
			&rs.IsSystem, &rs.CreatedAt, &rs.UpdatedAt, &rs.ClaimCount, &rs.UserCount); err != nil {
			return nil, err
		}
		result = append(result, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (st *roleStore) Get(ctx context.Context, name string) (*auth.Role, error) {
	var r auth.Role
	err := st.s.db.QueryRowContext(ctx, `
		select name, title, coalesce(description, ''), coalesce(color, ''),
			is_system_role, created_at, updated_at
		from roles
		where name = $1
	`, name).Scan(&r.Name, &r.Title, &r.Description, &r.Color,
		&r.IsSystem, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (st *roleStore) ClaimsForRole(ctx context.Context, name string) ([]auth.Claim, error) {
	rows, err := st.s.db.QueryContext(ctx, `
		select c.id, c.name, c.resource, c.action, coalesce(c.description, '')
		from role_claims rc
		join claims c on c.id = rc.claim_id
		where rc.role_name = $1
		order by c.resource, c.action
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []auth.Claim
	for rows.Next() {
		var c auth.Claim
		if err := rows.Scan(&c.ID, &c.Name, &c.Resource, &c.Action, &c.Description); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return claims, nil
}

func (st *roleStore) ClaimNamesForRole(ctx context.Context, name string) ([]string, error) {
	rows, err := st.s.db.QueryContext(ctx, `
		select c.name
		from role_claims rc
		join claims c on c.id = rc.claim_id
		where rc.role_name = $1
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// ReplaceClaims swaps the role's claim set with delete-then-insert inside a
// single transaction, so concurrent readers see either the old set or the
// new one, never a mixture.
func (st *roleStore) ReplaceClaims(ctx context.Context, name string, claimIDs []string) error {
	tx, err := st.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from role_claims where role_name = $1`, name); err != nil {
		return err
	}
	for _, claimID := range claimIDs {
		if _, err := tx.ExecContext(ctx, `
			insert into role_claims (role_name, claim_id) values ($1, $2)
		`, name, claimID); err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
				return fmt.Errorf("%w: unknown claim id %q", auth.ErrInvalidInput, claimID)
			}
			return err
		}
	}
	return tx.Commit()
}

func (st *roleStore) UpdateMetadata(ctx context.Context, name string, upd auth.RoleMetadataUpdate) (*auth.Role, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", idx))
		args = append(args, *upd.Title)
		idx++
	}
	if upd.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", idx))
		args = append(args, nullIfEmpty(*upd.Description))
		idx++
	}
	if upd.Color != nil {
		sets = append(sets, fmt.Sprintf("color = $%d", idx))
		args = append(args, nullIfEmpty(*upd.Color))
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update roles set %s where name = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, name)
		res, err := st.s.db.ExecContext(ctx, query, args...)
		if err != nil {
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
	return st.Get(ctx, name)
}
