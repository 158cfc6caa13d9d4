package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lengolf_pos_backend/internal/models"
	"lengolf_pos_backend/internal/repositories"
	"lengolf_pos_backend/pkg/utils"
)

// Custom Errors for transaction recording.
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrItemNotFound        = errors.New("transaction item not found or already voided")
	ErrVoidValidation      = errors.New("void request validation error")
)

// VATRate is the fixed VAT rate applied to tax-inclusive totals.
const VATRate = 0.07

// PaymentMethodOther is the canonical code used when a tender method string
// has no alias mapping.
const PaymentMethodOther = "other"

// DecomposeVAT splits a tax-inclusive amount into its tax-exclusive subtotal
// and VAT portion. subtotal + vat == total by construction.
func DecomposeVAT(totalInclVAT float64) (subtotal, vat float64) {
	subtotal = totalInclVAT / (1 + VATRate)
	vat = totalInclVAT - subtotal
	return subtotal, vat
}

// RecordTransactionRequest carries everything the recorder needs to persist
// one completed payment: identity of the transaction, the resolved order
// lines, the validated allocations and the linking context.
type RecordTransactionRequest struct {
	TransactionID   string
	ReceiptNumber   string
	Order           *LoadedOrder
	Allocations     []models.PaymentAllocation
	StaffID         int64
	CustomerID      *int64
	BookingID       *string
	TableSessionID  *string
	TransactionDate time.Time
}

// VoidItemRequest is the payload for voiding a single transaction line.
type VoidItemRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// --- TransactionService Interface ---
type TransactionService interface {
	// NextReceiptNumber obtains the next human-readable receipt number.
	// Failure here aborts a payment before any row is written.
	NextReceiptNumber(date time.Time) (string, error)
	// RecordTransaction inserts the header, then the payment rows, then the
	// item rows. It does not retry and does not clean up after itself; on
	// partial failure the caller compensates via CleanupTransaction.
	RecordTransaction(req RecordTransactionRequest) (*models.Transaction, error)
	// CleanupTransaction best-effort deletes any rows written for the given
	// transaction ID. Its own failures are logged, never returned.
	CleanupTransaction(transactionID string)
	GetTransaction(transactionID string) (*models.Transaction, error)
	VoidTransactionItem(transactionID string, lineNumber int, voidedBy int64, reason string) error
	ReceiptReady(transactionID string) (bool, error)
}

type transactionService struct {
	transactionRepo repositories.TransactionRepository
	db              *sql.DB
}

// NewTransactionService creates a new instance of TransactionService.
func NewTransactionService(tr repositories.TransactionRepository, db *sql.DB) TransactionService {
	return &transactionService{transactionRepo: tr, db: db}
}

func (s *transactionService) NextReceiptNumber(date time.Time) (string, error) {
	receiptNumber, err := s.transactionRepo.NextReceiptNumber(date)
	if err != nil {
		return "", fmt.Errorf("failed to obtain receipt number: %w", err)
	}
	return receiptNumber, nil
}

func (s *transactionService) RecordTransaction(req RecordTransactionRequest) (*models.Transaction, error) {
	if req.TransactionDate.IsZero() {
		req.TransactionDate = time.Now()
	}

	subtotal, vat := DecomposeVAT(req.Order.Total)
	txn := &models.Transaction{
		TransactionID:   req.TransactionID,
		ReceiptNumber:   req.ReceiptNumber,
		Subtotal:        subtotal,
		VATAmount:       vat,
		TotalAmount:     req.Order.Total,
		DiscountAmount:  0,
		Status:          models.TransactionStatusPaid,
		TableSessionID:  req.TableSessionID,
		StaffID:         req.StaffID,
		CustomerID:      req.CustomerID,
		BookingID:       req.BookingID,
		TransactionDate: req.TransactionDate,
	}

	if _, err := s.transactionRepo.CreateTransaction(s.db, txn); err != nil {
		return nil, fmt.Errorf("failed to create transaction header: %w", err)
	}

	payments := s.buildPayments(req)
	if err := s.transactionRepo.CreateTransactionPayments(s.db, payments); err != nil {
		return nil, fmt.Errorf("failed to create transaction payments: %w", err)
	}
	txn.Payments = payments

	items := buildItems(req)
	if err := s.transactionRepo.CreateTransactionItems(s.db, items); err != nil {
		return nil, fmt.Errorf("failed to create transaction items: %w", err)
	}
	txn.Items = items

	return txn, nil
}

// buildPayments maps allocations to payment rows in allocation order,
// resolving tender method strings to canonical codes.
func (s *transactionService) buildPayments(req RecordTransactionRequest) []models.TransactionPayment {
	canonical := s.resolvePaymentMethods(req.Allocations)

	payments := make([]models.TransactionPayment, 0, len(req.Allocations))
	for i, alloc := range req.Allocations {
		payments = append(payments, models.TransactionPayment{
			TransactionID: req.TransactionID,
			Sequence:      i + 1,
			Method:        canonical[normalizeMethod(alloc.Method)],
			Amount:        alloc.Amount,
			Reference:     alloc.Reference,
			StaffID:       req.StaffID,
			Status:        models.TransactionStatusCompleted,
		})
	}
	return payments
}

// resolvePaymentMethods looks up all distinct methods in one batched query,
// falling back to per-method lookups if the batch fails, and to "other" for
// any method with no mapping.
func (s *transactionService) resolvePaymentMethods(allocations []models.PaymentAllocation) map[string]string {
	distinct := make([]string, 0, len(allocations))
	seen := make(map[string]struct{}, len(allocations))
	for _, alloc := range allocations {
		method := normalizeMethod(alloc.Method)
		if _, ok := seen[method]; ok {
			continue
		}
		seen[method] = struct{}{}
		distinct = append(distinct, method)
	}

	resolved, err := s.transactionRepo.GetPaymentMethodMappings(distinct)
	if err != nil {
		utils.LogError(err, "transaction service: batched method lookup failed, falling back to per-method lookups")
		resolved = make(map[string]string, len(distinct))
		for _, method := range distinct {
			canonical, lookupErr := s.transactionRepo.GetPaymentMethodMapping(method)
			if lookupErr != nil {
				continue
			}
			resolved[method] = canonical
		}
	}

	for _, method := range distinct {
		if _, ok := resolved[method]; !ok {
			resolved[method] = PaymentMethodOther
		}
	}
	return resolved
}

// buildItems maps loaded order lines to item rows with 1-based line numbers
// and per-line VAT decomposition.
func buildItems(req RecordTransactionRequest) []models.TransactionItem {
	items := make([]models.TransactionItem, 0, len(req.Order.Items))
	for i, line := range req.Order.Items {
		lineTotal := line.TotalPrice
		if lineTotal == 0 {
			lineTotal = float64(line.Quantity) * line.UnitPrice
		}
		lineExcl, lineVAT := DecomposeVAT(lineTotal)
		unitExcl, _ := DecomposeVAT(line.UnitPrice)

		item := models.TransactionItem{
			TransactionID:    req.TransactionID,
			LineNumber:       i + 1,
			ProductName:      line.ProductName,
			Quantity:         line.Quantity,
			UnitPriceInclVAT: line.UnitPrice,
			UnitPriceExclVAT: unitExcl,
			LineTotalInclVAT: lineTotal,
			LineTotalExclVAT: lineExcl,
			LineVATAmount:    lineVAT,
			StaffID:          req.StaffID,
			CustomerID:       req.CustomerID,
			BookingID:        req.BookingID,
			Notes:            line.Notes,
		}
		if line.ProductID != "" {
			productID := line.ProductID
			item.ProductID = &productID
		}
		items = append(items, item)
	}
	return items
}

func (s *transactionService) CleanupTransaction(transactionID string) {
	if _, err := s.transactionRepo.DeleteTransactionItems(s.db, transactionID); err != nil {
		utils.LogError(err, "cleanup: failed to delete transaction items for "+transactionID)
	}
	if _, err := s.transactionRepo.DeleteTransaction(s.db, transactionID); err != nil {
		utils.LogError(err, "cleanup: failed to delete transaction header for "+transactionID)
	}
}

func (s *transactionService) GetTransaction(transactionID string) (*models.Transaction, error) {
	txn, err := s.transactionRepo.GetTransactionByID(transactionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	payments, err := s.transactionRepo.GetTransactionPayments(transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction payments: %w", err)
	}
	txn.Payments = payments

	items, err := s.transactionRepo.GetTransactionItems(transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction items: %w", err)
	}
	txn.Items = items

	return txn, nil
}

func (s *transactionService) VoidTransactionItem(transactionID string, lineNumber int, voidedBy int64, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: a void reason is required", ErrVoidValidation)
	}
	if lineNumber < 1 {
		return fmt.Errorf("%w: line number must be 1-based", ErrVoidValidation)
	}

	err := s.transactionRepo.VoidTransactionItem(s.db, transactionID, lineNumber, voidedBy, reason, time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to void transaction item: %w", err)
	}
	return nil
}

func (s *transactionService) ReceiptReady(transactionID string) (bool, error) {
	ready, err := s.transactionRepo.ReceiptReady(transactionID)
	if err != nil {
		return false, fmt.Errorf("failed to check receipt readiness: %w", err)
	}
	return ready, nil
}

func normalizeMethod(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}
