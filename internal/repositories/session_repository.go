package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lengolf_pos_backend/internal/models"
)

// SessionRepository defines the interface for table session reads and the
// single terminal transition the payment workflow performs.
type SessionRepository interface {
	GetSessionByID(tableSessionID string) (*models.TableSession, error)
	// CloseSession marks the session paid, pins its total to the settled
	// amount and clears the working-order state. It refuses to touch a
	// session that is already paid or cancelled.
	CloseSession(executor SQLExecutor, tableSessionID string, settledAmount float64, closedAt time.Time) error
}

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *sql.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) GetSessionByID(tableSessionID string) (*models.TableSession, error) {
	session := &models.TableSession{}
	var snapshot []byte
	query := `SELECT id, table_number, status, pax_count, current_order_items, total_amount,
	                 booking_id, notes, session_start, session_end, created_at, updated_at
	          FROM table_sessions
	          WHERE id = $1`
	err := r.db.QueryRow(query, tableSessionID).Scan(
		&session.ID, &session.TableNumber, &session.Status, &session.PaxCount, &snapshot,
		&session.TotalAmount, &session.BookingID, &session.Notes,
		&session.SessionStart, &session.SessionEnd, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting table session by ID %s: %v", ErrDatabaseError, tableSessionID, err)
	}

	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &session.CurrentOrderItems); err != nil {
			return nil, fmt.Errorf("%w: decoding order snapshot for session %s: %v", ErrDatabaseError, tableSessionID, err)
		}
	}
	return session, nil
}

func (r *sessionRepository) CloseSession(executor SQLExecutor, tableSessionID string, settledAmount float64, closedAt time.Time) error {
	query := `UPDATE table_sessions
	          SET status = $1, pax_count = 0, session_end = $2, total_amount = $3,
	              current_order_items = NULL, notes = NULL, updated_at = $2
	          WHERE id = $4 AND status NOT IN ($5, $6)`
	result, err := executor.Exec(query,
		models.SessionStatusPaid, closedAt, settledAmount,
		tableSessionID, models.SessionStatusPaid, models.SessionStatusCancelled,
	)
	if err != nil {
		return fmt.Errorf("%w: closing table session %s: %v", ErrDatabaseError, tableSessionID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for session close %s: %v", ErrDatabaseError, tableSessionID, err)
	}
	if rowsAffected == 0 {
		// Either the session does not exist or it already reached a
		// terminal status under a concurrent close.
		return ErrNotFound
	}
	return nil
}
