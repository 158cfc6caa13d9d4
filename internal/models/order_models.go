package models

import "time"

// Order statuses used by the payment workflow. Confirmed orders are the only
// ones considered when settling a table session.
const (
	OrderStatusDraft     = "draft"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order is a confirmed set of line items, either created explicitly or
// linked to a table session.
type Order struct {
	ID             string          `json:"id" db:"id"`
	TableSessionID *string         `json:"table_session_id,omitempty" db:"table_session_id"`
	BookingID      *string         `json:"booking_id,omitempty" db:"booking_id"`
	Status         string          `json:"status" db:"status"`
	TotalAmount    float64         `json:"total_amount" db:"total_amount"`
	Notes          *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
	Items          []OrderLineItem `json:"items,omitempty"`
}

// OrderLineItem is the normalized line shape the payment workflow operates
// on, regardless of which source (explicit order, session snapshot or linked
// order) it was assembled from. It is never persisted in this shape.
type OrderLineItem struct {
	ProductID    string              `json:"product_id"`
	ProductName  string              `json:"product_name"`
	CategoryName string              `json:"category_name,omitempty"`
	Quantity     int                 `json:"quantity"`
	UnitPrice    float64             `json:"unit_price"` // tax-inclusive
	TotalPrice   float64             `json:"total_price"`
	Notes        *string             `json:"notes,omitempty"`
	Modifiers    []OrderItemModifier `json:"modifiers,omitempty"`
}

// OrderItemModifier is a free-form add-on attached to a line item.
type OrderItemModifier struct {
	Name  string  `json:"name"`
	Price float64 `json:"price,omitempty"`
}
