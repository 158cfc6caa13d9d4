package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lengolf_pos_backend/internal/models"

	"github.com/lib/pq"
)

// TransactionRepository defines the interface for durable payment records:
// the transaction header, its payment rows, its item rows, the receipt
// sequence and the payment-method alias table.
//
// Write methods take a SQLExecutor so they can run against *sql.DB or
// *sql.Tx. The payment workflow deliberately runs them against the plain
// connection and compensates on failure instead of holding a transaction
// open across the whole pipeline.
type TransactionRepository interface {
	NextReceiptNumber(date time.Time) (string, error)

	CreateTransaction(executor SQLExecutor, txn *models.Transaction) (int64, error)
	CreateTransactionPayments(executor SQLExecutor, payments []models.TransactionPayment) error
	CreateTransactionItems(executor SQLExecutor, items []models.TransactionItem) error

	GetTransactionByID(transactionID string) (*models.Transaction, error)
	GetTransactionPayments(transactionID string) ([]models.TransactionPayment, error)
	GetTransactionItems(transactionID string) ([]models.TransactionItem, error)

	DeleteTransactionItems(executor SQLExecutor, transactionID string) (int64, error)
	DeleteTransaction(executor SQLExecutor, transactionID string) (int64, error)

	VoidTransactionItem(executor SQLExecutor, transactionID string, lineNumber int, voidedBy int64, reason string, voidedAt time.Time) error
	SumCompletedBySession(tableSessionID string) (float64, error)
	ReceiptReady(transactionID string) (bool, error)

	GetPaymentMethodMappings(aliases []string) (map[string]string, error)
	GetPaymentMethodMapping(alias string) (string, error)
}

type transactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new instance of TransactionRepository.
func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// NextReceiptNumber hands out the next receipt number for the given business
// date, formatted R<yyyymmdd>-<counter>. The per-day counter row is upserted
// atomically so concurrent payments never share a number.
func (r *transactionRepository) NextReceiptNumber(date time.Time) (string, error) {
	dateKey := date.Format("20060102")
	var counter int64
	query := `INSERT INTO receipt_counters (date_key, counter)
	          VALUES ($1, 1)
	          ON CONFLICT (date_key) DO UPDATE SET counter = receipt_counters.counter + 1
	          RETURNING counter`
	err := r.db.QueryRow(query, dateKey).Scan(&counter)
	if err != nil {
		return "", fmt.Errorf("%w: obtaining receipt number for %s: %v", ErrDatabaseError, dateKey, err)
	}
	return fmt.Sprintf("R%s-%04d", dateKey, counter), nil
}

func (r *transactionRepository) CreateTransaction(executor SQLExecutor, txn *models.Transaction) (int64, error) {
	query := `INSERT INTO transactions
	            (transaction_id, receipt_number, subtotal, vat_amount, total_amount, discount_amount,
	             status, table_session_id, staff_id, customer_id, booking_id, transaction_date, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`

	if txn.TransactionDate.IsZero() {
		txn.TransactionDate = time.Now()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		txn.TransactionID, txn.ReceiptNumber, txn.Subtotal, txn.VATAmount, txn.TotalAmount, txn.DiscountAmount,
		txn.Status, txn.TableSessionID, txn.StaffID, txn.CustomerID, txn.BookingID, txn.TransactionDate, txn.CreatedAt,
	).Scan(&txn.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, fmt.Errorf("%w: transaction %s: %v", ErrDuplicateKey, txn.TransactionID, err)
		}
		return 0, fmt.Errorf("%w: creating transaction: %v", ErrDatabaseError, err)
	}
	return txn.ID, nil
}

func (r *transactionRepository) CreateTransactionPayments(executor SQLExecutor, payments []models.TransactionPayment) error {
	query := `INSERT INTO transaction_payments
	            (transaction_id, sequence, method, amount, reference, staff_id, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	for i := range payments {
		p := &payments[i]
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now()
		}
		err := executor.QueryRow(query,
			p.TransactionID, p.Sequence, p.Method, p.Amount, p.Reference, p.StaffID, p.Status, p.CreatedAt,
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("%w: creating transaction payment %d for %s: %v", ErrDatabaseError, p.Sequence, p.TransactionID, err)
		}
	}
	return nil
}

func (r *transactionRepository) CreateTransactionItems(executor SQLExecutor, items []models.TransactionItem) error {
	query := `INSERT INTO transaction_items
	            (transaction_id, line_number, product_id, product_name, quantity,
	             unit_price_incl_vat, unit_price_excl_vat, line_total_incl_vat, line_total_excl_vat,
	             line_vat_amount, staff_id, customer_id, booking_id, notes, is_voided, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, FALSE, $15)
	          RETURNING id`
	for i := range items {
		item := &items[i]
		if item.CreatedAt.IsZero() {
			item.CreatedAt = time.Now()
		}
		err := executor.QueryRow(query,
			item.TransactionID, item.LineNumber, item.ProductID, item.ProductName, item.Quantity,
			item.UnitPriceInclVAT, item.UnitPriceExclVAT, item.LineTotalInclVAT, item.LineTotalExclVAT,
			item.LineVATAmount, item.StaffID, item.CustomerID, item.BookingID, item.Notes, item.CreatedAt,
		).Scan(&item.ID)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23503" {
				return fmt.Errorf("%w: creating transaction item line %d (constraint: %s): %v", ErrDatabaseError, item.LineNumber, pqErr.Constraint, err)
			}
			return fmt.Errorf("%w: creating transaction item line %d for %s: %v", ErrDatabaseError, item.LineNumber, item.TransactionID, err)
		}
	}
	return nil
}

func (r *transactionRepository) GetTransactionByID(transactionID string) (*models.Transaction, error) {
	txn := &models.Transaction{}
	query := `SELECT id, transaction_id, receipt_number, subtotal, vat_amount, total_amount, discount_amount,
	                 status, table_session_id, staff_id, customer_id, booking_id, transaction_date, created_at
	          FROM transactions
	          WHERE transaction_id = $1`
	err := r.db.QueryRow(query, transactionID).Scan(
		&txn.ID, &txn.TransactionID, &txn.ReceiptNumber, &txn.Subtotal, &txn.VATAmount,
		&txn.TotalAmount, &txn.DiscountAmount, &txn.Status, &txn.TableSessionID,
		&txn.StaffID, &txn.CustomerID, &txn.BookingID, &txn.TransactionDate, &txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting transaction %s: %v", ErrDatabaseError, transactionID, err)
	}
	return txn, nil
}

func (r *transactionRepository) GetTransactionPayments(transactionID string) ([]models.TransactionPayment, error) {
	payments := []models.TransactionPayment{}
	query := `SELECT id, transaction_id, sequence, method, amount, reference, staff_id, status, created_at
	          FROM transaction_payments
	          WHERE transaction_id = $1
	          ORDER BY sequence`
	rows, err := r.db.Query(query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying payments for transaction %s: %v", ErrDatabaseError, transactionID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.TransactionPayment
		err := rows.Scan(&p.ID, &p.TransactionID, &p.Sequence, &p.Method, &p.Amount,
			&p.Reference, &p.StaffID, &p.Status, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning payment for transaction %s: %v", ErrDatabaseError, transactionID, err)
		}
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payment rows for transaction %s: %v", ErrDatabaseError, transactionID, err)
	}
	return payments, nil
}

func (r *transactionRepository) GetTransactionItems(transactionID string) ([]models.TransactionItem, error) {
	items := []models.TransactionItem{}
	query := `SELECT id, transaction_id, line_number, product_id, product_name, quantity,
	                 unit_price_incl_vat, unit_price_excl_vat, line_total_incl_vat, line_total_excl_vat,
	                 line_vat_amount, staff_id, customer_id, booking_id, notes,
	                 is_voided, voided_at, voided_by, void_reason, created_at
	          FROM transaction_items
	          WHERE transaction_id = $1
	          ORDER BY line_number`
	rows, err := r.db.Query(query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying items for transaction %s: %v", ErrDatabaseError, transactionID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.TransactionItem
		err := rows.Scan(&item.ID, &item.TransactionID, &item.LineNumber, &item.ProductID,
			&item.ProductName, &item.Quantity,
			&item.UnitPriceInclVAT, &item.UnitPriceExclVAT, &item.LineTotalInclVAT, &item.LineTotalExclVAT,
			&item.LineVATAmount, &item.StaffID, &item.CustomerID, &item.BookingID, &item.Notes,
			&item.IsVoided, &item.VoidedAt, &item.VoidedBy, &item.VoidReason, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning item for transaction %s: %v", ErrDatabaseError, transactionID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating item rows for transaction %s: %v", ErrDatabaseError, transactionID, err)
	}
	return items, nil
}

func (r *transactionRepository) DeleteTransactionItems(executor SQLExecutor, transactionID string) (int64, error) {
	result, err := executor.Exec(`DELETE FROM transaction_items WHERE transaction_id = $1`, transactionID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting items for transaction %s: %v", ErrDatabaseError, transactionID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for item delete %s: %v", ErrDatabaseError, transactionID, err)
	}
	return rowsAffected, nil
}

func (r *transactionRepository) DeleteTransaction(executor SQLExecutor, transactionID string) (int64, error) {
	result, err := executor.Exec(`DELETE FROM transactions WHERE transaction_id = $1`, transactionID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting transaction %s: %v", ErrDatabaseError, transactionID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for transaction delete %s: %v", ErrDatabaseError, transactionID, err)
	}
	return rowsAffected, nil
}

// VoidTransactionItem flags a single line as voided. The parent header keeps
// its stored totals; voids are historical annotations, not recomputations.
func (r *transactionRepository) VoidTransactionItem(executor SQLExecutor, transactionID string, lineNumber int, voidedBy int64, reason string, voidedAt time.Time) error {
	query := `UPDATE transaction_items
	          SET is_voided = TRUE, voided_at = $1, voided_by = $2, void_reason = $3
	          WHERE transaction_id = $4 AND line_number = $5 AND is_voided = FALSE`
	result, err := executor.Exec(query, voidedAt, voidedBy, reason, transactionID, lineNumber)
	if err != nil {
		return fmt.Errorf("%w: voiding item line %d of transaction %s: %v", ErrDatabaseError, lineNumber, transactionID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for void of %s line %d: %v", ErrDatabaseError, transactionID, lineNumber, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SumCompletedBySession totals the settled transactions recorded against a
// table session.
func (r *transactionRepository) SumCompletedBySession(tableSessionID string) (float64, error) {
	var total float64
	query := `SELECT COALESCE(SUM(total_amount), 0)
	          FROM transactions
	          WHERE table_session_id = $1 AND status IN ($2, $3)`
	err := r.db.QueryRow(query, tableSessionID, models.TransactionStatusPaid, models.TransactionStatusCompleted).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%w: summing completed transactions for session %s: %v", ErrDatabaseError, tableSessionID, err)
	}
	return total, nil
}

// ReceiptReady reports whether the stored transaction is complete enough to
// print: header present, at least one payment row and at least one item row.
func (r *transactionRepository) ReceiptReady(transactionID string) (bool, error) {
	var paymentCount, itemCount int
	query := `SELECT
	            (SELECT COUNT(*) FROM transaction_payments WHERE transaction_id = t.transaction_id),
	            (SELECT COUNT(*) FROM transaction_items WHERE transaction_id = t.transaction_id)
	          FROM transactions t
	          WHERE t.transaction_id = $1`
	err := r.db.QueryRow(query, transactionID).Scan(&paymentCount, &itemCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%w: checking receipt readiness for %s: %v", ErrDatabaseError, transactionID, err)
	}
	return paymentCount > 0 && itemCount > 0, nil
}

// GetPaymentMethodMappings resolves raw tender method strings to canonical
// codes in a single query.
func (r *transactionRepository) GetPaymentMethodMappings(aliases []string) (map[string]string, error) {
	mappings := make(map[string]string, len(aliases))
	if len(aliases) == 0 {
		return mappings, nil
	}

	query := `SELECT alias, canonical FROM payment_method_aliases WHERE alias = ANY($1)`
	rows, err := r.db.Query(query, pq.Array(aliases))
	if err != nil {
		return nil, fmt.Errorf("%w: querying payment method aliases: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var alias, canonical string
		if err := rows.Scan(&alias, &canonical); err != nil {
			return nil, fmt.Errorf("%w: scanning payment method alias: %v", ErrDatabaseError, err)
		}
		mappings[alias] = canonical
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payment method alias rows: %v", ErrDatabaseError, err)
	}
	return mappings, nil
}

func (r *transactionRepository) GetPaymentMethodMapping(alias string) (string, error) {
	var canonical string
	query := `SELECT canonical FROM payment_method_aliases WHERE alias = $1`
	err := r.db.QueryRow(query, alias).Scan(&canonical)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: getting payment method alias %s: %v", ErrDatabaseError, alias, err)
	}
	return canonical, nil
}
