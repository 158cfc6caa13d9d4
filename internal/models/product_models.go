package models

// Product carries the catalog fields the payment workflow needs when
// re-resolving snapshot lines to canonical names. The full catalog (pricing,
// search, availability) lives elsewhere.
type Product struct {
	ID           string  `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	CategoryName *string `json:"category_name,omitempty" db:"category_name"`
}
