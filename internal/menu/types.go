package menu

import "time"

// Category groups products on a tenant's menu.
type Category struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SortOrder   int       `json:"sort_order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Variant is a purchasable variation of a product (size, extras). Prices are
// minor currency units.
type Variant struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Product is a sellable menu item. Price is minor currency units; Variants
// override it when present.
type Product struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	CategoryID  string    `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Price       int64     `json:"price"`
	Currency    string    `json:"currency"`
	Variants    []Variant `json:"variants,omitempty"`
	IsAvailable bool      `json:"is_available"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Order statuses. Transitions are linear: pending -> confirmed -> delivered,
// with cancellation allowed from the two non-terminal states.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// OrderItem is a line item captured at order time. Name and UnitPrice are
// snapshots so later product edits never rewrite order history.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Variant   string `json:"variant,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Order is a customer order placed against a tenant's menu.
type Order struct {
	ID            string      `json:"id"`
	TenantID      string      `json:"tenant_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone,omitempty"`
	TableNumber   string      `json:"table_number,omitempty"`
	Items         []OrderItem `json:"items"`
	Total         int64       `json:"total"`
	Currency      string      `json:"currency"`
	Status        string      `json:"status"`
	Notes         string      `json:"notes,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// CategoryUpdate is a partial update of a category.
type CategoryUpdate struct {
	Name        *string
	Description *string
	SortOrder   *int
	IsActive    *bool
}

// ProductUpdate is a partial update of a product.
type ProductUpdate struct {
	CategoryID  *string
	Name        *string
	Description *string
	ImageURL    *string
	Price       *int64
	Currency    *string
	Variants    []Variant
	IsAvailable *bool
	SortOrder   *int
}
