package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"menuqr.org/internal/auth"
)

type refreshTokenStore struct {
	s *Store
}

func (st *refreshTokenStore) Create(ctx context.Context, t *auth.RefreshToken) error {
	_, err := st.s.db.ExecContext(ctx, `
		insert into refresh_tokens (token, user_id, expires_at, created_at)
		values ($1, $2, $3, $4)
	`, t.Token, t.UserID, t.ExpiresAt, t.CreatedAt)
	return err
}

func (st *refreshTokenStore) Find(ctx context.Context, token string) (*auth.RefreshToken, error) {
	var (
		t       auth.RefreshToken
		revoked sql.NullTime
	)
	err := st.s.db.QueryRowContext(ctx, `
		select token, user_id, expires_at, revoked_at, created_at
		from refresh_tokens
		where token = $1
	`, token).Scan(&t.Token, &t.UserID, &t.ExpiresAt, &revoked, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if revoked.Valid {
		at := revoked.Time
		t.RevokedAt = &at
	}
	return &t, nil
}

// Revoke marks a token revoked. Revoking an unknown or already-revoked
// token is a no-op so logout stays idempotent.
func (st *refreshTokenStore) Revoke(ctx context.Context, token string, at time.Time) error {
	_, err := st.s.db.ExecContext(ctx, `
		update refresh_tokens set revoked_at = $2
		where token = $1 and revoked_at is null
	`, token, at)
	return err
}

func (st *refreshTokenStore) RevokeAllForUser(ctx context.Context, userID string, at time.Time) error {
	_, err := st.s.db.ExecContext(ctx, `
		update refresh_tokens set revoked_at = $2
		where user_id = $1 and revoked_at is null
	`, userID, at)
	return err
}

func (st *refreshTokenStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := st.s.db.ExecContext(ctx, `
		delete from refresh_tokens where expires_at < $1
	`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
