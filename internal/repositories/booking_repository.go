package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"lengolf_pos_backend/internal/models"
)

// BookingRepository defines the interface for booking lookups. The payment
// workflow only reads bookings, for customer attribution.
type BookingRepository interface {
	GetBookingByID(bookingID string) (*models.Booking, error)
}

type bookingRepository struct {
	db *sql.DB
}

// NewBookingRepository creates a new instance of BookingRepository.
func NewBookingRepository(db *sql.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetBookingByID(bookingID string) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT id, customer_id, customer_name, status, start_time, created_at, updated_at
	          FROM bookings
	          WHERE id = $1`
	err := r.db.QueryRow(query, bookingID).Scan(
		&booking.ID, &booking.CustomerID, &booking.CustomerName, &booking.Status,
		&booking.StartTime, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting booking by ID %s: %v", ErrDatabaseError, bookingID, err)
	}
	return booking, nil
}
