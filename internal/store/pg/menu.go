package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"menuqr.org/internal/auth"
	"menuqr.org/internal/menu"
)

var _ menu.Store = (*Store)(nil)

func (s *Store) ListCategories(ctx context.Context, tenantID string) ([]menu.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, tenant_id, name, coalesce(description, ''), sort_order, is_active, created_at, updated_at
		from categories
		where tenant_id = $1
		order by sort_order, name
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []menu.Category
	for rows.Next() {
		var c menu.Category
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description,
			&c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetCategory(ctx context.Context, tenantID, id string) (*menu.Category, error) {
	var c menu.Category
	err := s.db.QueryRowContext(ctx, `
		select id, tenant_id, name, coalesce(description, ''), sort_order, is_active, created_at, updated_at
		from categories
		where tenant_id = $1 and id = $2
	`, tenantID, id).Scan(&c.ID, &c.TenantID, &c.Name, &c.Description,
		&c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, menu.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *menu.Category) error {
	_, err := s.db.ExecContext(ctx, `
		insert into categories (id, tenant_id, name, description, sort_order, is_active, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $7)
	`, c.ID, c.TenantID, c.Name, nullIfEmpty(c.Description), c.SortOrder, c.IsActive, c.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return fmt.Errorf("%w: tenant does not exist", auth.ErrInvalidInput)
		}
		return err
	}
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, tenantID, id string, upd menu.CategoryUpdate) (*menu.Category, error) {
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
	if upd.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", idx))
		args = append(args, nullIfEmpty(*upd.Description))
		idx++
	}
	if upd.SortOrder != nil {
		sets = append(sets, fmt.Sprintf("sort_order = $%d", idx))
		args = append(args, *upd.SortOrder)
		idx++
	}
	if upd.IsActive != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", idx))
		args = append(args, *upd.IsActive)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update categories set %s where tenant_id = $%d and id = $%d`,
			strings.Join(sets, ", "), idx, idx+1)
		args = append(args, tenantID, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if aff == 0 {
			return nil, menu.ErrNotFound
		}
	}
	return s.GetCategory(ctx, tenantID, id)
}

func (s *Store) DeleteCategory(ctx context.Context, tenantID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from categories where tenant_id = $1 and id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return menu.ErrNotFound
	}
	return nil
}

const productColumns = `
	id, tenant_id, category_id, name, coalesce(description, ''), coalesce(image_url, ''),
	price, currency, coalesce(variants, '[]'), is_available, sort_order, created_at, updated_at
`

func scanProduct(row interface{ Scan(dest ...any) error }) (*menu.Product, error) {
	var (
		p           menu.Product
		rawVariants []byte
	)
	err := row.Scan(&p.ID, &p.TenantID, &p.CategoryID, &p.Name, &p.Description, &p.ImageURL,
		&p.Price, &p.Currency, &rawVariants, &p.IsAvailable, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, menu.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(rawVariants) > 0 {
		if err := json.Unmarshal(rawVariants, &p.Variants); err != nil {
			return nil, fmt.Errorf("decode variants: %w", err)
		}
	}
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context, tenantID, categoryID string) ([]menu.Product, error) {
	query := `select ` + productColumns + ` from products where tenant_id = $1`
	args := []any{tenantID}
	if categoryID != "" {
		query += ` and category_id = $2`
		args = append(args, categoryID)
	}
	query += ` order by sort_order, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []menu.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetProduct(ctx context.Context, tenantID, id string) (*menu.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+productColumns+` from products where tenant_id = $1 and id = $2`, tenantID, id)
	return scanProduct(row)
}

func (s *Store) CreateProduct(ctx context.Context, p *menu.Product) error {
	rawVariants, err := json.Marshal(p.Variants)
	if err != nil {
		return fmt.Errorf("marshal variants: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		insert into products (id, tenant_id, category_id, name, description, image_url,
			price, currency, variants, is_available, sort_order, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	`, p.ID, p.TenantID, p.CategoryID, p.Name, nullIfEmpty(p.Description), nullIfEmpty(p.ImageURL),
		p.Price, p.Currency, rawVariants, p.IsAvailable, p.SortOrder, p.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return fmt.Errorf("%w: category does not exist", auth.ErrInvalidInput)
		}
		return err
	}
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, tenantID, id string, upd menu.ProductUpdate) (*menu.Product, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.CategoryID != nil {
		sets = append(sets, fmt.Sprintf("category_id = $%d", idx))
		args = append(args, *upd.CategoryID)
		idx++
	}
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", idx))
		args = append(args, nullIfEmpty(*upd.Description))
		idx++
	}
	if upd.ImageURL != nil {
		sets = append(sets, fmt.Sprintf("image_url = $%d", idx))
		args = append(args, nullIfEmpty(*upd.ImageURL))
		idx++
	}
	if upd.Price != nil {
		sets = append(sets, fmt.Sprintf("price = $%d", idx))
		args = append(args, *upd.Price)
		idx++
	}
	if upd.Currency != nil {
		sets = append(sets, fmt.Sprintf("currency = $%d", idx))
		args = append(args, *upd.Currency)
		idx++
	}
	if upd.Variants != nil {
		raw, err := json.Marshal(upd.Variants)
		if err != nil {
			return nil, fmt.Errorf("marshal variants: %w", err)
		}
		sets = append(sets, fmt.Sprintf("variants = $%d", idx))
		args = append(args, raw)
		idx++
	}
	if upd.IsAvailable != nil {
		sets = append(sets, fmt.Sprintf("is_available = $%d", idx))
		args = append(args, *upd.IsAvailable)
		idx++
	}
	if upd.SortOrder != nil {
		sets = append(sets, fmt.Sprintf("sort_order = $%d", idx))
		args = append(args, *upd.SortOrder)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update products set %s where tenant_id = $%d and id = $%d`,
			strings.Join(sets, ", "), idx, idx+1)
		args = append(args, tenantID, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if aff == 0 {
			return nil, menu.ErrNotFound
		}
	}
	return s.GetProduct(ctx, tenantID, id)
}

func (s *Store) DeleteProduct(ctx context.Context, tenantID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from products where tenant_id = $1 and id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return menu.ErrNotFound
	}
	return nil
}
