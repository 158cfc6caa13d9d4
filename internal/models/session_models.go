package models

import "time"

// Table session statuses. A session reaches "paid" exactly once, via the
// payment workflow; "cancelled" belongs to a different workflow entirely.
const (
	SessionStatusActive    = "active"
	SessionStatusOccupied  = "occupied"
	SessionStatusPaid      = "paid"
	SessionStatusCancelled = "cancelled"
)

// TableSession represents an open tab at a physical table. The working order
// snapshot (CurrentOrderItems) is stored as jsonb and used as a fallback item
// source when no confirmed order exists yet.
type TableSession struct {
	ID                string             `json:"id" db:"id"`
	TableNumber       *string            `json:"table_number,omitempty" db:"table_number"`
	Status            string             `json:"status" db:"status"`
	PaxCount          int                `json:"pax_count" db:"pax_count"`
	CurrentOrderItems []SessionOrderItem `json:"current_order_items,omitempty"`
	TotalAmount       float64            `json:"total_amount" db:"total_amount"`
	BookingID         *string            `json:"booking_id,omitempty" db:"booking_id"`
	Notes             *string            `json:"notes,omitempty" db:"notes"`
	SessionStart      time.Time          `json:"session_start" db:"session_start"`
	SessionEnd        *time.Time         `json:"session_end,omitempty" db:"session_end"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" db:"updated_at"`
}

// SessionOrderItem is one entry of the session's embedded working-order
// snapshot. Product name and category may be stale or missing; the loader
// re-resolves them against the product catalog where possible.
type SessionOrderItem struct {
	ProductID    string              `json:"product_id"`
	ProductName  string              `json:"product_name,omitempty"`
	CategoryName string              `json:"category_name,omitempty"`
	Quantity     int                 `json:"quantity"`
	UnitPrice    float64             `json:"unit_price"`
	TotalPrice   float64             `json:"total_price,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	Modifiers    []OrderItemModifier `json:"modifiers,omitempty"`
}
