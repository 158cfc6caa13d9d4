package models

import "time"

// Booking is the reservation a table session may have originated from. The
// payment workflow only uses it for customer attribution on transaction rows;
// a missing or broken booking reference is never fatal.
type Booking struct {
	ID           string    `json:"id" db:"id"`
	CustomerID   *int64    `json:"customer_id,omitempty" db:"customer_id"`
	CustomerName *string   `json:"customer_name,omitempty" db:"customer_name"`
	Status       string    `json:"status" db:"status"`
	StartTime    time.Time `json:"start_time" db:"start_time"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
