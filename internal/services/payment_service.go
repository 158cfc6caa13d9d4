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

	"github.com/google/uuid"
)

// Custom Errors for payment completion.
var (
	ErrPaymentValidation      = errors.New("payment request validation error")
	ErrUnpaidOrders           = errors.New("table session has unpaid orders")
	ErrCancellationNotAllowed = errors.New("session close cannot be used for cancellation")
)

// CompletionStep enumerates the linear payment pipeline. Steps only ever
// advance; any failure moves to StepFailed and triggers compensation.
type CompletionStep int

const (
	StepStart CompletionStep = iota
	StepValidated
	StepStaffResolved
	StepOrderLoaded
	StepTransactionRecorded
	StepSessionClosed
	StepReceiptChecked
	StepDone
	StepFailed
)

var stepNames = map[CompletionStep]string{
	StepStart:               "start",
	StepValidated:           "validated",
	StepStaffResolved:       "staff_resolved",
	StepOrderLoaded:         "order_loaded",
	StepTransactionRecorded: "transaction_recorded",
	StepSessionClosed:       "session_closed",
	StepReceiptChecked:      "receipt_checked",
	StepDone:                "done",
	StepFailed:              "failed",
}

func (s CompletionStep) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// advance returns the successor of a step in the pipeline. StepDone and
// StepFailed are terminal.
func advance(step CompletionStep) CompletionStep {
	if step >= StepDone {
		return step
	}
	return step + 1
}

// --- Payment DTOs ---

// CompletePaymentOptions carries optional context for a payment completion.
type CompletePaymentOptions struct {
	CustomerID        *int64  `json:"customer_id,omitempty"`
	CustomerName      *string `json:"customer_name,omitempty"`
	TableNumber       *string `json:"table_number,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	CloseTableSession *bool   `json:"close_table_session,omitempty"` // default true
	StaffID           *int64  `json:"staff_id,omitempty"`            // pre-resolved, skips PIN lookup
	StaffName         *string `json:"staff_name,omitempty"`
}

// CompletePaymentRequest is the entry payload for a payment completion.
type CompletePaymentRequest struct {
	OrderID            *string                    `json:"order_id,omitempty"`
	TableSessionID     string                     `json:"table_session_id" binding:"required"`
	PaymentAllocations []models.PaymentAllocation `json:"payment_allocations" binding:"required,dive"`
	StaffPin           string                     `json:"staff_pin"`
	Options            CompletePaymentOptions     `json:"options"`
}

// PaymentSplit is one named lane of a split payment before method grouping.
type PaymentSplit struct {
	Label     string  `json:"label,omitempty"`
	Method    string  `json:"method" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	Reference *string `json:"reference,omitempty"`
}

// CompleteSplitPaymentRequest is the entry payload for a split payment.
type CompleteSplitPaymentRequest struct {
	OrderID        *string                `json:"order_id,omitempty"`
	TableSessionID string                 `json:"table_session_id" binding:"required"`
	Splits         []PaymentSplit         `json:"splits" binding:"required,dive"`
	StaffPin       string                 `json:"staff_pin"`
	Options        CompletePaymentOptions `json:"options"`
}

// CompletePaymentResult summarizes which sub-steps of a completion
// succeeded. Success refers to the financial write; session close and
// receipt readiness report separately through the flags and Errors.
type CompletePaymentResult struct {
	Success             bool                `json:"success"`
	Transaction         *models.Transaction `json:"transaction,omitempty"`
	ReceiptGenerated    bool                `json:"receipt_generated"`
	TableSessionUpdated bool                `json:"table_session_updated"`
	OrderCompleted      bool                `json:"order_completed"`
	RedirectToTables    bool                `json:"redirect_to_tables"`
	Errors              []string            `json:"errors,omitempty"`
}

// PaymentStatus is the read-only settlement summary of a table session.
type PaymentStatus struct {
	TableSessionID string  `json:"table_session_id"`
	TotalDue       float64 `json:"total_due"`
	TotalPaid      float64 `json:"total_paid"`
	Outstanding    float64 `json:"outstanding"`
	FullyPaid      bool    `json:"fully_paid"`
}

// CloseTableSessionRequest is the payload for the guarded standalone close.
type CloseTableSessionRequest struct {
	StaffPin   string `json:"staff_pin" binding:"required"`
	Reason     string `json:"reason"`
	ForceClose bool   `json:"force_close"`
}

// --- PaymentService Interface ---
type PaymentService interface {
	CompletePayment(req CompletePaymentRequest) (*CompletePaymentResult, error)
	CompleteSplitPayment(req CompleteSplitPaymentRequest) (*CompletePaymentResult, error)
	GetPaymentStatus(tableSessionID string) (*PaymentStatus, error)
	CloseTableSession(tableSessionID string, req CloseTableSessionRequest) error
}

// --- paymentService Implementation ---
type paymentService struct {
	validator          AmountValidator
	staffResolver      StaffResolver
	orderLoader        OrderLoader
	transactionService TransactionService
	sessionRepo        repositories.SessionRepository
	orderRepo          repositories.OrderRepository
	transactionRepo    repositories.TransactionRepository
	db                 *sql.DB
	now                func() time.Time
}

// NewPaymentService creates a new instance of PaymentService.
func NewPaymentService(
	av AmountValidator,
	sr StaffResolver,
	ol OrderLoader,
	ts TransactionService,
	sessionRepo repositories.SessionRepository,
	orderRepo repositories.OrderRepository,
	transactionRepo repositories.TransactionRepository,
	db *sql.DB,
) PaymentService {
	return &paymentService{
		validator:          av,
		staffResolver:      sr,
		orderLoader:        ol,
		transactionService: ts,
		sessionRepo:        sessionRepo,
		orderRepo:          orderRepo,
		transactionRepo:    transactionRepo,
		db:                 db,
		now:                time.Now,
	}
}

func (s *paymentService) CompletePayment(req CompletePaymentRequest) (*CompletePaymentResult, error) {
	step := StepStart
	transactionID := uuid.NewString()
	result := &CompletePaymentResult{}

	// Input validation. The amount check against the loaded total comes
	// later; nothing has been written yet at any validation failure.
	if strings.TrimSpace(req.TableSessionID) == "" {
		return nil, s.fail(step, transactionID, fmt.Errorf("%w: table session ID is required", ErrPaymentValidation))
	}
	if len(req.PaymentAllocations) == 0 {
		return nil, s.fail(step, transactionID, ErrNoAllocations)
	}
	step = advance(step) // validated

	// Staff resolution, preferring a pre-resolved ID over a PIN lookup.
	var staffID int64
	var err error
	if req.Options.StaffID != nil {
		staffID, err = s.staffResolver.ResolveID(*req.Options.StaffID)
	} else {
		staffID, err = s.staffResolver.ResolvePin(req.StaffPin)
	}
	if err != nil {
		return nil, s.fail(step, transactionID, err)
	}
	step = advance(step) // staff_resolved

	loaded, err := s.orderLoader.Load(req.OrderID, req.TableSessionID)
	if err != nil {
		return nil, s.fail(step, transactionID, err)
	}
	step = advance(step) // order_loaded

	if err := s.validator.Validate(req.PaymentAllocations, loaded.Total); err != nil {
		return nil, s.fail(step, transactionID, err)
	}

	// The receipt number comes from the sequence before any row is written;
	// failure to obtain one aborts the whole operation.
	receiptNumber, err := s.transactionService.NextReceiptNumber(s.now())
	if err != nil {
		return nil, s.fail(step, transactionID, err)
	}

	customerID := req.Options.CustomerID
	var bookingID *string
	if loaded.Booking != nil {
		id := loaded.Booking.ID
		bookingID = &id
		if customerID == nil {
			customerID = loaded.Booking.CustomerID
		}
	}

	sessionID := req.TableSessionID
	txn, err := s.transactionService.RecordTransaction(RecordTransactionRequest{
		TransactionID:   transactionID,
		ReceiptNumber:   receiptNumber,
		Order:           loaded,
		Allocations:     req.PaymentAllocations,
		StaffID:         staffID,
		CustomerID:      customerID,
		BookingID:       bookingID,
		TableSessionID:  &sessionID,
		TransactionDate: s.now(),
	})
	if err != nil {
		return nil, s.fail(step, transactionID, err)
	}
	step = advance(step) // transaction_recorded

	// From here on the payment is durably recorded; later failures degrade
	// the result instead of aborting.
	result.Success = true
	result.Transaction = txn
	result.OrderCompleted = true

	closeSession := req.Options.CloseTableSession == nil || *req.Options.CloseTableSession
	if closeSession {
		if err := s.sessionRepo.CloseSession(s.db, req.TableSessionID, loaded.Total, s.now()); err != nil {
			utils.LogError(err, "payment completion: session close failed after recorded payment")
			result.Errors = append(result.Errors, fmt.Sprintf("table session close failed: %v", err))
		} else {
			result.TableSessionUpdated = true
			result.RedirectToTables = true
		}
	}
	step = advance(step) // session_closed

	ready, err := s.transactionService.ReceiptReady(transactionID)
	if err != nil {
		utils.LogError(err, "payment completion: receipt readiness check failed")
		result.Errors = append(result.Errors, fmt.Sprintf("receipt readiness check failed: %v", err))
	} else if !ready {
		result.Errors = append(result.Errors, "receipt data incomplete for transaction "+transactionID)
	} else {
		result.ReceiptGenerated = true
	}
	step = advance(step) // receipt_checked
	step = advance(step) // done

	utils.LogInfo("Payment completed", map[string]interface{}{
		"transaction_id": transactionID,
		"receipt_number": receiptNumber,
		"table_session":  req.TableSessionID,
		"total":          loaded.Total,
		"source":         string(loaded.Source),
		"final_step":     step.String(),
	})
	return result, nil
}

// fail logs the failing step, attempts compensating cleanup of any rows
// written under the generated transaction ID and returns the original
// error. Cleanup failures are logged inside the transaction service and
// never mask the cause.
func (s *paymentService) fail(step CompletionStep, transactionID string, err error) error {
	utils.LogError(err, "payment completion failed at step "+step.String())
	s.transactionService.CleanupTransaction(transactionID)
	return err
}

// CompleteSplitPayment flattens named splits into one allocation list by
// summing amounts per tender method, then runs the normal completion. Only
// the aggregated per-method totals are recorded; lane references are joined
// into the aggregated row's reference so they stay humanly traceable.
func (s *paymentService) CompleteSplitPayment(req CompleteSplitPaymentRequest) (*CompletePaymentResult, error) {
	if len(req.Splits) == 0 {
		return nil, ErrNoAllocations
	}

	type bucket struct {
		method     string
		amount     float64
		references []string
	}
	order := make([]string, 0, len(req.Splits))
	buckets := make(map[string]*bucket, len(req.Splits))
	for _, split := range req.Splits {
		key := normalizeMethod(split.Method)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{method: split.Method}
			buckets[key] = b
			order = append(order, key)
		}
		b.amount += split.Amount
		if split.Reference != nil && *split.Reference != "" {
			b.references = append(b.references, *split.Reference)
		}
	}

	allocations := make([]models.PaymentAllocation, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		alloc := models.PaymentAllocation{Method: b.method, Amount: b.amount}
		if len(b.references) > 0 {
			ref := strings.Join(b.references, "; ")
			alloc.Reference = &ref
		}
		allocations = append(allocations, alloc)
	}

	return s.CompletePayment(CompletePaymentRequest{
		OrderID:            req.OrderID,
		TableSessionID:     req.TableSessionID,
		PaymentAllocations: allocations,
		StaffPin:           req.StaffPin,
		Options:            req.Options,
	})
}

// GetPaymentStatus reports the settled and outstanding amounts for a table
// session. Callers use it to gate whether closing the session is safe.
func (s *paymentService) GetPaymentStatus(tableSessionID string) (*PaymentStatus, error) {
	if _, err := s.sessionRepo.GetSessionByID(tableSessionID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %s", ErrSessionNotFound, tableSessionID)
		}
		return nil, fmt.Errorf("failed to load table session for status: %w", err)
	}

	totalDue, err := s.orderRepo.SumConfirmedOrderTotals(tableSessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum confirmed orders: %w", err)
	}
	totalPaid, err := s.transactionRepo.SumCompletedBySession(tableSessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum completed transactions: %w", err)
	}

	outstanding := totalDue - totalPaid
	if outstanding < 0 {
		outstanding = 0
	}
	return &PaymentStatus{
		TableSessionID: tableSessionID,
		TotalDue:       totalDue,
		TotalPaid:      totalPaid,
		Outstanding:    outstanding,
		FullyPaid:      outstanding <= AmountTolerance,
	}, nil
}

// CloseTableSession closes a session outside the payment pipeline. It
// refuses to close over unpaid orders unless forced, and it refuses outright
// to double as a cancellation path: cancelling belongs to a different
// workflow with its own stock and booking consequences.
func (s *paymentService) CloseTableSession(tableSessionID string, req CloseTableSessionRequest) error {
	if isCancellationReason(req.Reason) {
		return ErrCancellationNotAllowed
	}

	staffID, err := s.staffResolver.ResolvePin(req.StaffPin)
	if err != nil {
		return err
	}

	status, err := s.GetPaymentStatus(tableSessionID)
	if err != nil {
		return err
	}
	if status.Outstanding > AmountTolerance {
		if !req.ForceClose {
			return fmt.Errorf("%w: %.2f outstanding", ErrUnpaidOrders, status.Outstanding)
		}
		utils.LogInfo("Table session force-closed with unpaid orders", map[string]interface{}{
			"table_session": tableSessionID,
			"outstanding":   status.Outstanding,
			"staff_id":      staffID,
			"reason":        req.Reason,
		})
	}

	if err := s.sessionRepo.CloseSession(s.db, tableSessionID, status.TotalPaid, s.now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: ID %s", ErrSessionNotFound, tableSessionID)
		}
		return fmt.Errorf("failed to close table session: %w", err)
	}
	return nil
}

func isCancellationReason(reason string) bool {
	return strings.Contains(strings.ToLower(reason), "cancel")
}
