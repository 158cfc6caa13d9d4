package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"lengolf_pos_backend/internal/models"
)

// OrderRepository defines the interface for order reads used by the payment
// workflow. Orders are created and edited by a separate ordering surface;
// payment only consumes them.
type OrderRepository interface {
	GetOrderByID(orderID string) (*models.Order, error)
	GetConfirmedOrdersBySession(tableSessionID string) ([]models.Order, error)
	SumConfirmedOrderTotals(tableSessionID string) (float64, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// GetOrderByID returns the order header with its line items attached.
func (r *orderRepository) GetOrderByID(orderID string) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT id, table_session_id, booking_id, status, total_amount, notes, created_at, updated_at
	          FROM orders
	          WHERE id = $1`
	err := r.db.QueryRow(query, orderID).Scan(
		&order.ID, &order.TableSessionID, &order.BookingID, &order.Status,
		&order.TotalAmount, &order.Notes, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %s: %v", ErrDatabaseError, orderID, err)
	}

	items, err := r.getOrderItems(orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// GetConfirmedOrdersBySession returns the session's confirmed orders, most
// recently created first, each with items attached.
func (r *orderRepository) GetConfirmedOrdersBySession(tableSessionID string) ([]models.Order, error) {
	orders := []models.Order{}
	query := `SELECT id, table_session_id, booking_id, status, total_amount, notes, created_at, updated_at
	          FROM orders
	          WHERE table_session_id = $1 AND status = $2
	          ORDER BY created_at DESC`
	rows, err := r.db.Query(query, tableSessionID, models.OrderStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("%w: querying confirmed orders for session %s: %v", ErrDatabaseError, tableSessionID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		err := rows.Scan(&o.ID, &o.TableSessionID, &o.BookingID, &o.Status,
			&o.TotalAmount, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order for session %s: %v", ErrDatabaseError, tableSessionID, err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order rows for session %s: %v", ErrDatabaseError, tableSessionID, err)
	}

	for i := range orders {
		items, err := r.getOrderItems(orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// SumConfirmedOrderTotals returns the total owed across the session's
// confirmed orders. Used to decide whether a session can be closed.
func (r *orderRepository) SumConfirmedOrderTotals(tableSessionID string) (float64, error) {
	var total float64
	query := `SELECT COALESCE(SUM(total_amount), 0)
	          FROM orders
	          WHERE table_session_id = $1 AND status = $2`
	err := r.db.QueryRow(query, tableSessionID, models.OrderStatusConfirmed).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%w: summing confirmed order totals for session %s: %v", ErrDatabaseError, tableSessionID, err)
	}
	return total, nil
}

func (r *orderRepository) getOrderItems(orderID string) ([]models.OrderLineItem, error) {
	items := []models.OrderLineItem{}
	query := `SELECT oi.product_id, COALESCE(p.name, oi.product_name), COALESCE(c.name, ''),
	                 oi.quantity, oi.unit_price, oi.total_price, oi.notes
	          FROM order_items oi
	          LEFT JOIN products p ON oi.product_id = p.id
	          LEFT JOIN product_categories c ON p.category_id = c.id
	          WHERE oi.order_id = $1
	          ORDER BY oi.id`
	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items for order %s: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderLineItem
		err := rows.Scan(&item.ProductID, &item.ProductName, &item.CategoryName,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.Notes)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item for order %s: %v", ErrDatabaseError, orderID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows for order %s: %v", ErrDatabaseError, orderID, err)
	}
	return items, nil
}
