package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"lengolf_pos_backend/internal/models"
)

// StaffRepository defines the interface for staff directory lookups.
type StaffRepository interface {
	GetStaffByID(staffID int64) (*models.StaffMember, error)
	GetActiveStaff() ([]models.StaffMember, error)
}

type staffRepository struct {
	db *sql.DB
}

// NewStaffRepository creates a new instance of StaffRepository.
func NewStaffRepository(db *sql.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) GetStaffByID(staffID int64) (*models.StaffMember, error) {
	staff := &models.StaffMember{}
	query := `SELECT id, display_name, pin_hash, role, is_active, created_at, updated_at
	          FROM staff_members
	          WHERE id = $1`
	err := r.db.QueryRow(query, staffID).Scan(
		&staff.ID, &staff.DisplayName, &staff.PinHash, &staff.Role, &staff.IsActive,
		&staff.CreatedAt, &staff.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting staff member by ID %d: %v", ErrDatabaseError, staffID, err)
	}
	return staff, nil
}

// GetActiveStaff returns every active staff member. PIN verification has to
// compare bcrypt hashes one by one, so the PIN cannot be part of the query.
func (r *staffRepository) GetActiveStaff() ([]models.StaffMember, error) {
	staff := []models.StaffMember{}
	query := `SELECT id, display_name, pin_hash, role, is_active, created_at, updated_at
	          FROM staff_members
	          WHERE is_active = TRUE
	          ORDER BY id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying active staff: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.StaffMember
		err := rows.Scan(&s.ID, &s.DisplayName, &s.PinHash, &s.Role, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning staff member: %v", ErrDatabaseError, err)
		}
		staff = append(staff, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating staff rows: %v", ErrDatabaseError, err)
	}
	return staff, nil
}
