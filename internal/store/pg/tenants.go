package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"menuqr.org/internal/auth"
)

type tenantStore struct {
	s *Store
}

const tenantColumns = `
	id, name, slug, email,
	coalesce(phone, ''), coalesce(whatsapp_number, ''),
	coalesce(logo_url, ''), coalesce(color_theme, ''),
	coalesce(currencies, '[]'), created_at, updated_at
`

func scanTenant(row interface{ Scan(dest ...any) error }) (*auth.Tenant, error) {
	var (
		t             auth.Tenant
		rawCurrencies []byte
	)
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Email,
		&t.Phone, &t.WhatsAppNumber, &t.LogoURL, &t.ColorTheme,
		&rawCurrencies, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(rawCurrencies) > 0 {
		if err := json.Unmarshal(rawCurrencies, &t.Currencies); err != nil {
			return nil, fmt.Errorf("decode currencies: %w", err)
		}
	}
	return &t, nil
}

func (st *tenantStore) Get(ctx context.Context, id string) (*auth.Tenant, error) {
	row := st.s.db.QueryRowContext(ctx,
		`select `+tenantColumns+` from tenants where id = $1`, id)
	return scanTenant(row)
}

func (st *tenantStore) GetBySlug(ctx context.Context, slug string) (*auth.Tenant, error) {
	row := st.s.db.QueryRowContext(ctx,
		`select `+tenantColumns+` from tenants where slug = $1`, slug)
	return scanTenant(row)
}

func (st *tenantStore) Update(ctx context.Context, id string, upd auth.TenantUpdate) (*auth.Tenant, error) {
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
	if upd.Phone != nil {
		sets = append(sets, fmt.Sprintf("phone = $%d", idx))
		args = append(args, nullIfEmpty(*upd.Phone))
		idx++
	}
	if upd.WhatsAppNumber != nil {
		sets = append(sets, fmt.Sprintf("whatsapp_number = $%d", idx))
		args = append(args, nullIfEmpty(*upd.WhatsAppNumber))
		idx++
	}
	if upd.LogoURL != nil {
		sets = append(sets, fmt.Sprintf("logo_url = $%d", idx))
		args = append(args, nullIfEmpty(*upd.LogoURL))
		idx++
	}
	if upd.ColorTheme != nil {
		sets = append(sets, fmt.Sprintf("color_theme = $%d", idx))
		args = append(args, nullIfEmpty(*upd.ColorTheme))
		idx++
	}
	if upd.Currencies != nil {
		raw, err := json.Marshal(upd.Currencies)
		if err != nil {
			return nil, fmt.Errorf("marshal currencies: %w", err)
		}
		sets = append(sets, fmt.Sprintf("currencies = $%d", idx))
		args = append(args, raw)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update tenants set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
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
	return st.Get(ctx, id)
}
