package models

import "time"

// Transaction statuses. A transaction is written as "paid" and never mutated
// afterwards except by an explicit item void.
const (
	TransactionStatusPaid      = "paid"
	TransactionStatusCompleted = "completed"
	TransactionStatusVoided    = "voided"
)

// PaymentAllocation is one (tender method, amount) pairing covering part or
// all of a payment. Multiple allocations on one payment form a split.
type PaymentAllocation struct {
	Method    string  `json:"method" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	Reference *string `json:"reference,omitempty"`
}

// Transaction is the durable header record of a completed payment. Amounts
// are decomposed from the tax-inclusive total at the fixed VAT rate, so
// Subtotal + VATAmount == TotalAmount always holds.
type Transaction struct {
	ID              int64                `json:"id" db:"id"`
	TransactionID   string               `json:"transaction_id" db:"transaction_id"` // public UUID
	ReceiptNumber   string               `json:"receipt_number" db:"receipt_number"`
	Subtotal        float64              `json:"subtotal" db:"subtotal"`
	VATAmount       float64              `json:"vat_amount" db:"vat_amount"`
	TotalAmount     float64              `json:"total_amount" db:"total_amount"`
	DiscountAmount  float64              `json:"discount_amount" db:"discount_amount"`
	Status          string               `json:"status" db:"status"`
	TableSessionID  *string              `json:"table_session_id,omitempty" db:"table_session_id"`
	StaffID         int64                `json:"staff_id" db:"staff_id"`
	CustomerID      *int64               `json:"customer_id,omitempty" db:"customer_id"`
	BookingID       *string              `json:"booking_id,omitempty" db:"booking_id"`
	TransactionDate time.Time            `json:"transaction_date" db:"transaction_date"`
	CreatedAt       time.Time            `json:"created_at" db:"created_at"`
	Payments        []TransactionPayment `json:"payments,omitempty"`
	Items           []TransactionItem    `json:"items,omitempty"`
}

// TransactionPayment is one row per payment allocation, in allocation order.
// Method holds the canonical payment-method code after alias resolution.
type TransactionPayment struct {
	ID            int64     `json:"id" db:"id"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	Sequence      int       `json:"sequence" db:"sequence"` // 1-based
	Method        string    `json:"method" db:"method"`
	Amount        float64   `json:"amount" db:"amount"`
	Reference     *string   `json:"reference,omitempty" db:"reference"`
	StaffID       int64     `json:"staff_id" db:"staff_id"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// TransactionItem is one row per ordered line. Voiding flips the flag and
// records who/when/why; the row itself and the parent header totals are
// never rewritten.
type TransactionItem struct {
	ID               int64      `json:"id" db:"id"`
	TransactionID    string     `json:"transaction_id" db:"transaction_id"`
	LineNumber       int        `json:"line_number" db:"line_number"` // 1-based
	ProductID        *string    `json:"product_id,omitempty" db:"product_id"`
	ProductName      string     `json:"product_name" db:"product_name"`
	Quantity         int        `json:"quantity" db:"quantity"`
	UnitPriceInclVAT float64    `json:"unit_price_incl_vat" db:"unit_price_incl_vat"`
	UnitPriceExclVAT float64    `json:"unit_price_excl_vat" db:"unit_price_excl_vat"`
	LineTotalInclVAT float64    `json:"line_total_incl_vat" db:"line_total_incl_vat"`
	LineTotalExclVAT float64    `json:"line_total_excl_vat" db:"line_total_excl_vat"`
	LineVATAmount    float64    `json:"line_vat_amount" db:"line_vat_amount"`
	StaffID          int64      `json:"staff_id" db:"staff_id"`
	CustomerID       *int64     `json:"customer_id,omitempty" db:"customer_id"`
	BookingID        *string    `json:"booking_id,omitempty" db:"booking_id"`
	Notes            *string    `json:"notes,omitempty" db:"notes"`
	IsVoided         bool       `json:"is_voided" db:"is_voided"`
	VoidedAt         *time.Time `json:"voided_at,omitempty" db:"voided_at"`
	VoidedBy         *int64     `json:"voided_by,omitempty" db:"voided_by"`
	VoidReason       *string    `json:"void_reason,omitempty" db:"void_reason"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}
