package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"menuqr.org/internal/menu"
)

const orderColumns = `
	id, tenant_id, customer_name, coalesce(customer_phone, ''), coalesce(table_number, ''),
	items, total, currency, status, coalesce(notes, ''), created_at, updated_at
`

func scanOrder(row interface{ Scan(dest ...any) error }) (*menu.Order, error) {
	var (
		o        menu.Order
		rawItems []byte
	)
	err := row.Scan(&o.ID, &o.TenantID, &o.CustomerName, &o.CustomerPhone, &o.TableNumber,
		&rawItems, &o.Total, &o.Currency, &o.Status, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, menu.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(rawItems) > 0 {
		if err := json.Unmarshal(rawItems, &o.Items); err != nil {
			return nil, fmt.Errorf("decode order items: %w", err)
		}
	}
	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context, tenantID, status string) ([]menu.Order, error) {
	query := `select ` + orderColumns + ` from orders where tenant_id = $1`
	args := []any{tenantID}
	if status != "" {
		query += ` and status = $2`
		args = append(args, status)
	}
	query += ` order by created_at desc`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []menu.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetOrder(ctx context.Context, tenantID, id string) (*menu.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+orderColumns+` from orders where tenant_id = $1 and id = $2`, tenantID, id)
	return scanOrder(row)
}

func (s *Store) CreateOrder(ctx context.Context, o *menu.Order) error {
	rawItems, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		insert into orders (id, tenant_id, customer_name, customer_phone, table_number,
			items, total, currency, status, notes, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`, o.ID, o.TenantID, o.CustomerName, nullIfEmpty(o.CustomerPhone), nullIfEmpty(o.TableNumber),
		rawItems, o.Total, o.Currency, o.Status, nullIfEmpty(o.Notes), o.CreatedAt)
	return err
}

func (s *Store) UpdateOrderStatus(ctx context.Context, tenantID, id, status string, at time.Time) (*menu.Order, error) {
	res, err := s.db.ExecContext(ctx, `
		update orders set status = $3, updated_at = $4
		where tenant_id = $1 and id = $2
	`, tenantID, id, status, at)
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
	return s.GetOrder(ctx, tenantID, id)
}
