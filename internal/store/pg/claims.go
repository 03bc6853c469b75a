package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"menuqr.org/internal/auth"
)

type claimStore struct {
	s *Store
}

// claimAuditLog is the default AuditRecorder: it appends to the
// claim_audit_log table with the caller's transaction.
type claimAuditLog struct{}

func (claimAuditLog) Append(ctx context.Context, ex execer, entry *auth.ClaimAuditEntry) error {
	var prev sql.NullBool
	if entry.PreviousValue != nil {
		prev = sql.NullBool{Bool: *entry.PreviousValue, Valid: true}
	}
	_, err := ex.ExecContext(ctx, `
		insert into claim_audit_log (id, user_id, claim_id, action, modified_by, tenant_id, previous_value, new_value, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.ID, entry.UserID, entry.ClaimID, entry.Action, entry.ModifiedBy,
		entry.TenantID, prev, entry.NewValue, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (st *claimStore) All(ctx context.Context) ([]auth.Claim, error) {
	rows, err := st.s.db.QueryContext(ctx, `
		select id, name, resource, action, coalesce(description, '')
		from claims
		order by resource, action
	`)
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

func (st *claimStore) GetByName(ctx context.Context, name string) (*auth.Claim, error) {
	var c auth.Claim
	err := st.s.db.QueryRowContext(ctx, `
		select id, name, resource, action, coalesce(description, '')
		from claims
		where name = $1
	`, name).Scan(&c.ID, &c.Name, &c.Resource, &c.Action, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (st *claimStore) Overrides(ctx context.Context, userID string) ([]auth.OverrideValue, error) {
	rows, err := st.s.db.QueryContext(ctx, `
		select c.name, uc.granted
		from user_claims uc
		join claims c on c.id = uc.claim_id
		where uc.user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []auth.OverrideValue
	for rows.Next() {
		var o auth.OverrideValue
		if err := rows.Scan(&o.ClaimName, &o.Granted); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return overrides, nil
}

// SetOverride upserts one override and its audit entry in a single
// transaction. The prior override value, if any, is read under lock and
// recorded as the entry's previous_value.
func (st *claimStore) SetOverride(ctx context.Context, o *auth.ClaimOverride, entry *auth.ClaimAuditEntry) error {
	tx, err := st.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var prev bool
	err = tx.QueryRowContext(ctx, `
		select granted from user_claims
		where user_id = $1 and claim_id = $2
		for update
	`, o.UserID, o.ClaimID).Scan(&prev)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		entry.PreviousValue = nil
	case err != nil:
		return err
	default:
		entry.PreviousValue = &prev
	}

	if _, err := tx.ExecContext(ctx, `
		insert into user_claims (user_id, claim_id, granted, granted_by, granted_at)
		values ($1, $2, $3, $4, $5)
		on conflict (user_id, claim_id) do update
		set granted = excluded.granted,
			granted_by = excluded.granted_by,
			granted_at = excluded.granted_at
	`, o.UserID, o.ClaimID, o.Granted, o.GrantedBy, o.GrantedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return fmt.Errorf("%w: user or claim does not exist", auth.ErrInvalidInput)
		}
		return err
	}

	if err := st.s.audit.Append(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceOverrides applies a full override set in one transaction: every
// row is upserted and every entry appended, or nothing is.
func (st *claimStore) ReplaceOverrides(ctx context.Context, overrides []auth.ClaimOverride, entries []*auth.ClaimAuditEntry) error {
	if len(overrides) != len(entries) {
		return fmt.Errorf("%w: overrides and audit entries must pair up", auth.ErrInvalidInput)
	}

	tx, err := st.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for i, o := range overrides {
		entry := entries[i]

		var prev bool
		err := tx.QueryRowContext(ctx, `
			select granted from user_claims
			where user_id = $1 and claim_id = $2
			for update
		`, o.UserID, o.ClaimID).Scan(&prev)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			entry.PreviousValue = nil
		case err != nil:
			return err
		default:
			entry.PreviousValue = &prev
		}

		if _, err := tx.ExecContext(ctx, `
			insert into user_claims (user_id, claim_id, granted, granted_by, granted_at)
			values ($1, $2, $3, $4, $5)
			on conflict (user_id, claim_id) do update
			set granted = excluded.granted,
				granted_by = excluded.granted_by,
				granted_at = excluded.granted_at
		`, o.UserID, o.ClaimID, o.Granted, o.GrantedBy, o.GrantedAt); err != nil {
			return err
		}

		if err := st.s.audit.Append(ctx, tx, entry); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DetailedForUser builds the per-user permission matrix in one query: every
// system claim, joined with the role default and any override, with the
// override winning.
func (st *claimStore) DetailedForUser(ctx context.Context, userID, role string) ([]auth.UserClaimDetail, error) {
	rows, err := st.s.db.QueryContext(ctx, `
		select c.id, c.name, c.resource, c.action, coalesce(c.description, ''),
			(rc.claim_id is not null) as role_default,
			uc.granted, coalesce(uc.granted_by, ''), uc.granted_at
		from claims c
		left join role_claims rc on rc.claim_id = c.id and rc.role_name = $2
		left join user_claims uc on uc.claim_id = c.id and uc.user_id = $1
		order by c.resource, c.action
	`, userID, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []auth.UserClaimDetail
	for rows.Next() {
		var (
			d           auth.UserClaimDetail
			roleDefault bool
			overridden  sql.NullBool
			grantedAt   sql.NullTime
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Resource, &d.Action, &d.Description,
			&roleDefault, &overridden, &d.GrantedBy, &grantedAt); err != nil {
			return nil, err
		}
		switch {
		case overridden.Valid:
			d.HasClaim = overridden.Bool
			d.Source = auth.ClaimSourceOverride
			if grantedAt.Valid {
				t := grantedAt.Time
				d.GrantedAt = &t
			}
		case roleDefault:
			d.HasClaim = true
			d.Source = auth.ClaimSourceRoleDefault
			d.GrantedBy = ""
		default:
			d.HasClaim = false
			d.Source = auth.ClaimSourceNone
			d.GrantedBy = ""
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

func (st *claimStore) AuditLog(ctx context.Context, userID string, limit int) ([]auth.ClaimAuditRecord, error) {
	rows, err := st.s.db.QueryContext(ctx, `
		select l.id, l.user_id, l.claim_id, l.action, l.modified_by, l.tenant_id,
			l.previous_value, l.new_value, l.created_at,
			c.name, coalesce(c.description, ''),
			coalesce(m.name, ''), coalesce(m.email, '')
		from claim_audit_log l
		join claims c on c.id = l.claim_id
		left join users m on m.id = l.modified_by
		where l.user_id = $1
		order by l.created_at desc
		limit $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []auth.ClaimAuditRecord
	for rows.Next() {
		var (
			rec  auth.ClaimAuditRecord
			prev sql.NullBool
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ClaimID, &rec.Action,
			&rec.ModifiedBy, &rec.TenantID, &prev, &rec.NewValue, &rec.CreatedAt,
			&rec.ClaimName, &rec.ClaimDescription,
			&rec.ModifiedByName, &rec.ModifiedByEmail); err != nil {
			return nil, err
		}
		if prev.Valid {
			v := prev.Bool
			rec.PreviousValue = &v
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
