package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"menuqr.org/internal/ids"
)

var (
	ErrNotFound     = errors.New("menu: not found")
	ErrInvalidInput = errors.New("menu: invalid input")
)

// Store is the persistence surface the menu service depends on. All reads
// and writes are tenant-scoped; a lookup outside the tenant reports
// ErrNotFound.
type Store interface {
	ListCategories(ctx context.Context, tenantID string) ([]Category, error)
	GetCategory(ctx context.Context, tenantID, id string) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, tenantID, id string, upd CategoryUpdate) (*Category, error)
	DeleteCategory(ctx context.Context, tenantID, id string) error

	ListProducts(ctx context.Context, tenantID, categoryID string) ([]Product, error)
	GetProduct(ctx context.Context, tenantID, id string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, tenantID, id string, upd ProductUpdate) (*Product, error)
	DeleteProduct(ctx context.Context, tenantID, id string) error

	ListOrders(ctx context.Context, tenantID, status string) ([]Order, error)
	GetOrder(ctx context.Context, tenantID, id string) (*Order, error)
	CreateOrder(ctx context.Context, o *Order) error
	UpdateOrderStatus(ctx context.Context, tenantID, id, status string, at time.Time) (*Order, error)
}

// Service implements tenant-scoped menu and order management.
type Service struct {
	store Store
	clock func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock injects a clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService builds the menu service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListCategories returns the tenant's categories in sort order.
func (s *Service) ListCategories(ctx context.Context, tenantID string) ([]Category, error) {
	return s.store.ListCategories(ctx, tenantID)
}

// CreateCategory adds a category to the tenant's menu.
func (s *Service) CreateCategory(ctx context.Context, tenantID, name, description string, sortOrder int) (*Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	now := s.clock()
	c := &Category{
		ID:          ids.New(),
		TenantID:    tenantID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		SortOrder:   sortOrder,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCategory applies a partial update to a category.
func (s *Service) UpdateCategory(ctx context.Context, tenantID, id string, upd CategoryUpdate) (*Category, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be blank", ErrInvalidInput)
	}
	return s.store.UpdateCategory(ctx, tenantID, id, upd)
}

// DeleteCategory removes a category and, through storage cascades, its
// products.
func (s *Service) DeleteCategory(ctx context.Context, tenantID, id string) error {
	return s.store.DeleteCategory(ctx, tenantID, id)
}

// ListProducts returns the tenant's products, optionally filtered by
// category.
func (s *Service) ListProducts(ctx context.Context, tenantID, categoryID string) ([]Product, error) {
	return s.store.ListProducts(ctx, tenantID, categoryID)
}

// GetProduct loads one product within the tenant.
func (s *Service) GetProduct(ctx context.Context, tenantID, id string) (*Product, error) {
	return s.store.GetProduct(ctx, tenantID, id)
}

// CreateProduct adds a product to a category of the tenant's menu.
func (s *Service) CreateProduct(ctx context.Context, tenantID string, p Product) (*Product, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if p.CategoryID == "" {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if p.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	for _, v := range p.Variants {
		if strings.TrimSpace(v.Name) == "" || v.Price < 0 {
			return nil, fmt.Errorf("%w: variant needs a name and a non-negative price", ErrInvalidInput)
		}
	}
	if _, err := s.store.GetCategory(ctx, tenantID, p.CategoryID); err != nil {
		return nil, fmt.Errorf("%w: unknown category", ErrInvalidInput)
	}

	now := s.clock()
	created := p
	created.ID = ids.New()
	created.TenantID = tenantID
	created.Name = strings.TrimSpace(p.Name)
	created.IsAvailable = true
	created.CreatedAt = now
	created.UpdatedAt = now
	if err := s.store.CreateProduct(ctx, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProduct applies a partial update to a product.
func (s *Service) UpdateProduct(ctx context.Context, tenantID, id string, upd ProductUpdate) (*Product, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be blank", ErrInvalidInput)
	}
	if upd.Price != nil && *upd.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if upd.CategoryID != nil {
		if _, err := s.store.GetCategory(ctx, tenantID, *upd.CategoryID); err != nil {
			return nil, fmt.Errorf("%w: unknown category", ErrInvalidInput)
		}
	}
	return s.store.UpdateProduct(ctx, tenantID, id, upd)
}

// DeleteProduct removes a product from the tenant's menu.
func (s *Service) DeleteProduct(ctx context.Context, tenantID, id string) error {
	return s.store.DeleteProduct(ctx, tenantID, id)
}

// ListOrders returns the tenant's orders, newest first, optionally filtered
// by status.
func (s *Service) ListOrders(ctx context.Context, tenantID, status string) ([]Order, error) {
	if status != "" && !validStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.store.ListOrders(ctx, tenantID, status)
}

// GetOrder loads one order within the tenant.
func (s *Service) GetOrder(ctx context.Context, tenantID, id string) (*Order, error) {
	return s.store.GetOrder(ctx, tenantID, id)
}

// PlaceOrder records a new customer order. Line item names and unit prices
// are snapshotted from the current products; the total is computed here,
// never taken from the caller.
func (s *Service) PlaceOrder(ctx context.Context, tenantID string, o Order) (*Order, error) {
	if strings.TrimSpace(o.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}
	if len(o.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidInput)
	}

	var total int64
	items := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
		}
		product, err := s.store.GetProduct(ctx, tenantID, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown product %q", ErrInvalidInput, item.ProductID)
		}
		if !product.IsAvailable {
			return nil, fmt.Errorf("%w: product %q is unavailable", ErrInvalidInput, product.Name)
		}
		price := product.Price
		if item.Variant != "" {
			matched := false
			for _, v := range product.Variants {
				if v.Name == item.Variant {
					price = v.Price
					matched = true
					break
				}
			}
			if !matched {
				return nil, fmt.Errorf("%w: unknown variant %q", ErrInvalidInput, item.Variant)
			}
		}
		items = append(items, OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Variant:   item.Variant,
			Quantity:  item.Quantity,
			UnitPrice: price,
		})
		total += price * int64(item.Quantity)
	}

	now := s.clock()
	created := Order{
		ID:            ids.New(),
		TenantID:      tenantID,
		CustomerName:  strings.TrimSpace(o.CustomerName),
		CustomerPhone: strings.TrimSpace(o.CustomerPhone),
		TableNumber:   strings.TrimSpace(o.TableNumber),
		Items:         items,
		Total:         total,
		Currency:      o.Currency,
		Status:        OrderStatusPending,
		Notes:         strings.TrimSpace(o.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateOrder(ctx, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateOrderStatus advances an order through its lifecycle. Invalid
// transitions are rejected.
func (s *Service) UpdateOrderStatus(ctx context.Context, tenantID, id, status string) (*Order, error) {
	if !validStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	order, err := s.store.GetOrder(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !validTransition(order.Status, status) {
		return nil, fmt.Errorf("%w: cannot move order from %q to %q", ErrInvalidInput, order.Status, status)
	}
	return s.store.UpdateOrderStatus(ctx, tenantID, id, status, s.clock())
}

func validStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func validTransition(from, to string) bool {
	switch from {
	case OrderStatusPending:
		return to == OrderStatusConfirmed || to == OrderStatusCancelled
	case OrderStatusConfirmed:
		return to == OrderStatusDelivered || to == OrderStatusCancelled
	}
	return false
}
