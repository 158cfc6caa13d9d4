package models

import "time"

// StaffMember represents a venue employee who can process payments.
// The PIN is stored as a bcrypt hash and never leaves the server.
type StaffMember struct {
	ID          int64     `json:"id" db:"id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	PinHash     string    `json:"-" db:"pin_hash"`
	Role        string    `json:"role" db:"role"` // e.g. admin, staff
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
