package services

import (
	"errors"
	"testing"
	"time"

	"lengolf_pos_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentEnv struct {
	staffRepo   *fakeStaffRepo
	sessionRepo *fakeSessionRepo
	orderRepo   *fakeOrderRepo
	productRepo *fakeProductRepo
	bookingRepo *fakeBookingRepo
	txnRepo     *fakeTransactionRepo
	clock       *fakeClock
	svc         *paymentService
}

// newPaymentEnv wires the full pipeline over fakes, seeded with one staff
// member (PIN 1234) and one occupied session carrying a 100.00 snapshot.
func newPaymentEnv(t *testing.T) *paymentEnv {
	t.Helper()

	env := &paymentEnv{
		staffRepo: &fakeStaffRepo{staff: []models.StaffMember{
			{ID: 3, DisplayName: "Alice", PinHash: hashPin(t, "1234"), Role: "Staff", IsActive: true},
		}},
		sessionRepo: &fakeSessionRepo{sessions: map[string]models.TableSession{
			"sess-1": {
				ID:          "sess-1",
				Status:      models.SessionStatusOccupied,
				PaxCount:    2,
				TotalAmount: 100,
				CurrentOrderItems: []models.SessionOrderItem{
					{ProductID: "p1", ProductName: "Pad Thai", Quantity: 1, UnitPrice: 60, TotalPrice: 60},
					{ProductID: "p2", ProductName: "Iced Tea", Quantity: 2, UnitPrice: 20, TotalPrice: 40},
				},
			},
		}},
		orderRepo: &fakeOrderRepo{
			orders:       map[string]models.Order{},
			bySession:    map[string][]models.Order{},
			sumBySession: map[string]float64{"sess-1": 100},
		},
		productRepo: &fakeProductRepo{products: map[string]models.Product{}},
		bookingRepo: &fakeBookingRepo{bookings: map[string]models.Booking{}},
		txnRepo:     newFakeTransactionRepo(),
		clock:       &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	env.txnRepo.aliases["cash"] = "cash"
	env.txnRepo.aliases["card"] = "card"

	loader := NewOrderLoader(env.orderRepo, env.sessionRepo, env.productRepo, env.bookingRepo)
	resolver := NewStaffResolver(env.staffRepo, NewPinCache(StaffCacheTTL, env.clock.Now))
	env.svc = &paymentService{
		validator:          NewAmountValidator(nil),
		staffResolver:      resolver,
		orderLoader:        loader,
		transactionService: NewTransactionService(env.txnRepo, nil),
		sessionRepo:        env.sessionRepo,
		orderRepo:          env.orderRepo,
		transactionRepo:    env.txnRepo,
		now:                env.clock.Now,
	}
	return env
}

func TestCompletePaymentHappyPath(t *testing.T) {
	env := newPaymentEnv(t)

	result, err := env.svc.CompletePayment(CompletePaymentRequest{
		TableSessionID:     "sess-1",
		PaymentAllocations: []models.PaymentAllocation{{Method: "cash", Amount: 100}},
		StaffPin:           "1234",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.OrderCompleted)
	assert.True(t, result.TableSessionUpdated)
	assert.True(t, result.ReceiptGenerated)
	assert.True(t, result.RedirectToTables)
	assert.Empty(t, result.Errors)

	require.NotNil(t, result.Transaction)
	txn := result.Transaction
	assert.Equal(t, "R20250601-0001", txn.ReceiptNumber)
	assert.InDelta(t, 100/1.07, txn.Subtotal, 0.0001)
	assert.Equal(t, 100.0, txn.TotalAmount)
	assert.Equal(t, int64(3), txn.StaffID)
	require.NotNil(t, txn.TableSessionID)
	assert.Equal(t, "sess-1", *txn.TableSessionID)

	session := env.sessionRepo.sessions["sess-1"]
	assert.Equal(t, models.SessionStatusPaid, session.Status)
	assert.Zero(t, session.PaxCount)
	assert.Nil(t, session.CurrentOrderItems)
	assert.Equal(t, 100.0, session.TotalAmount)
	require.NotNil(t, session.SessionEnd)
	assert.Equal(t, env.clock.Now(), *session.SessionEnd)
}

func TestCompletePaymentUsesPreResolvedStaffID(t *testing.T) {
	env := newPaymentEnv(t)
	staffID := int64(3)

	result, err := env.svc.CompletePayment(CompletePaymentRequest{
		TableSessionID:     "sess-1",
		PaymentAllocations: []models.PaymentAllocation{{Method: "cash", Amount: 100}},
		Options:            CompletePaymentOptions{StaffID: &staffID},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	// Pre-resolved identity never touches PIN verification.
	assert.Zero(t, env.staffRepo.activeCalls)
	assert.Equal(t, 1, env.staffRepo.byIDCalls)
}

func TestCompletePaymentRejectsInvalidInputWithoutWrites(t *testing.T) {
	env := newPaymentEnv(t)

	_, err := env.svc.CompletePayment(CompletePaymentRequest{
		TableSessionID:     "  ",
		PaymentAllocations: []models.PaymentAllocation{{Method: "cash", Amount: 100}},
		StaffPin:           "1234",
	})
	assert.ErrorIs(t, err, ErrPaymentValidation)

	_, err = env.svc.CompletePayment(CompletePaymentRequest{
		TableSessionID: "sess-1",
		StaffPin:       "1234",
	})
	assert.ErrorIs(t, err, ErrNoAllocations)

	assert.Empty(t, env.txnRepo.headers)
	assert.Zero(t, env.txnRepo.receiptCounter)
}

func TestCompletePaymentRejectsBadPin(t *testing.T) {
	env := newPaymentEnv(t)

	_, err := env.svc.CompletePayment(CompletePaymentRequest{
		TableSessionID:     "sess-1",
		PaymentAllocations: []models.PaymentAllocation{{Method: "cash", Amount: 100}},
		StaffPin:           "0000",
	})
	assert.ErrorIs(t, err, ErrInvalidStaffPin)
	assert.Empty(t, env.txnRepo.headers)
}

func TestCompletePaymentRejectsAmountMismatch(t *testing.T) {
	env := newPaymentEnv(t)

	_, err := env.svc.CompletePayment(CompletePaymentRequest{
		TableSessionID:     "sess-1",
		PaymentAllocations: []models.PaymentAllocation{{Method: "cash", Amount: 90}},
		StaffPin:           "1234",
	})
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Empty(t, env.txnRepo.headers)
	assert.Zero(t, env.txnRepo.receiptCounter)
	assert.Equal(t, models.SessionStatusOccupied, env.sessionRepo.sessions["sess-1"].Status)
}

func TestCompletePaymentAbortsOnReceiptNumberFailure(t *testing.T) {
	env := newPaymentEnv(t)
	env.txnRepo.receiptErr = errors.New("sequence unavailable")

	_, err := env.svc.CompletePayment(CompletePaymentRequest{
		TableSessionID:     "sess-1",
		PaymentAllocations: []models.PaymentAllocation{{Method: "cash", Amount: 100}},
		StaffPin:           "1234",
	})
	require.Error(t, err)
	assert.Empty(t, env.txnRepo.headers)
}

func TestCompletePaymentCleansUpAfterItemFailure(t *testing.T) {
	env := newPaymentEnv(t)
	env.txnRepo.createItemsErr = errors.New("items insert failed")

	_, err := env.svc.CompletePayment(CompletePaymentRequest{
		TableSessionID:     "sess-1",
		PaymentAllocations: []models.PaymentAllocation{{Method: "cash", Amount: 100}},
		StaffPin:           "1234",
	})
	require.Error(t, err)

	// Compensating cleanup removed the header written before the failure.
	assert.Empty(t, env.txnRepo.headers)
	assert.GreaterOrEqual(t, env.txnRepo.deleteHeaderCalls, 1)
	assert.Equal(t, models.SessionStatusOccupied, env.sessionRepo.sessions["sess-1"].Status)
}

func TestCompletePaymentSurvivesSessionCloseFailure(t *testing.T) {
	env := newPaymentEnv(t)
	env.sessionRepo.closeErr = errors.New("session table locked")

	result, err := env.svc.CompletePayment(CompletePaymentRequest{
		TableSessionID:     "sess-1",
		PaymentAllocations: []models.PaymentAllocation{{Method: "cash", Amount: 100}},
		StaffPin:           "1234",
	})
	require.NoError(t, err)

	// The financial write stands; the close failure is reported, not fatal.
	assert.True(t, result.Success)
	assert.False(t, result.TableSessionUpdated)
	assert.False(t, result.RedirectToTables)
	assert.True(t, result.ReceiptGenerated)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "table session close failed")
	assert.Len(t, env.txnRepo.headers, 1)
}

func TestCompletePaymentHonorsCloseOptOut(t *testing.T) {
	env := newPaymentEnv(t)
	noClose := false

	result, err := env.svc.CompletePayment(CompletePaymentRequest{
		TableSessionID:     "sess-1",
		PaymentAllocations: []models.PaymentAllocation{{Method: "cash", Amount: 100}},
		StaffPin:           "1234",
		Options:            CompletePaymentOptions{CloseTableSession: &noClose},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.TableSessionUpdated)
	assert.Zero(t, env.sessionRepo.closeCalls)
	assert.Equal(t, models.SessionStatusOccupied, env.sessionRepo.sessions["sess-1"].Status)
}

func TestCompleteSplitPaymentGroupsByMethod(t *testing.T) {
	env := newPaymentEnv(t)

	result, err := env.svc.CompleteSplitPayment(CompleteSplitPaymentRequest{
		TableSessionID: "sess-1",
		Splits: []PaymentSplit{
			{Label: "Alice", Method: "cash", Amount: 50},
			{Label: "Bob", Method: "Cash", Amount: 30},
			{Label: "Carol", Method: "card", Amount: 20, Reference: strPtr("AUTH-9")},
		},
		StaffPin: "1234",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Transaction)

	// Three lanes collapse to exactly one row per tender method.
	payments := result.Transaction.Payments
	require.Len(t, payments, 2)
	assert.Equal(t, "cash", payments[0].Method)
	assert.Equal(t, 80.0, payments[0].Amount)
	assert.Equal(t, "card", payments[1].Method)
	assert.Equal(t, 20.0, payments[1].Amount)
	require.NotNil(t, payments[1].Reference)
	assert.Equal(t, "AUTH-9", *payments[1].Reference)
}

func TestCompleteSplitPaymentJoinsReferencesPerMethod(t *testing.T) {
	env := newPaymentEnv(t)

	result, err := env.svc.CompleteSplitPayment(CompleteSplitPaymentRequest{
		TableSessionID: "sess-1",
		Splits: []PaymentSplit{
			{Method: "card", Amount: 60, Reference: strPtr("AUTH-1")},
			{Method: "card", Amount: 40, Reference: strPtr("AUTH-2")},
		},
		StaffPin: "1234",
	})
	require.NoError(t, err)

	payments := result.Transaction.Payments
	require.Len(t, payments, 1)
	assert.Equal(t, 100.0, payments[0].Amount)
	require.NotNil(t, payments[0].Reference)
	assert.Equal(t, "AUTH-1; AUTH-2", *payments[0].Reference)
}

func TestCompleteSplitPaymentRejectsEmptySplits(t *testing.T) {
	env := newPaymentEnv(t)

	_, err := env.svc.CompleteSplitPayment(CompleteSplitPaymentRequest{
		TableSessionID: "sess-1",
		StaffPin:       "1234",
	})
	assert.ErrorIs(t, err, ErrNoAllocations)
}

func TestGetPaymentStatus(t *testing.T) {
	env := newPaymentEnv(t)
	env.txnRepo.sumBySession["sess-1"] = 80

	status, err := env.svc.GetPaymentStatus("sess-1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, status.TotalDue)
	assert.Equal(t, 80.0, status.TotalPaid)
	assert.Equal(t, 20.0, status.Outstanding)
	assert.False(t, status.FullyPaid)

	env.txnRepo.sumBySession["sess-1"] = 100
	status, err = env.svc.GetPaymentStatus("sess-1")
	require.NoError(t, err)
	assert.Zero(t, status.Outstanding)
	assert.True(t, status.FullyPaid)

	// Overpayment never reports negative outstanding.
	env.txnRepo.sumBySession["sess-1"] = 120
	status, err = env.svc.GetPaymentStatus("sess-1")
	require.NoError(t, err)
	assert.Zero(t, status.Outstanding)
	assert.True(t, status.FullyPaid)

	_, err = env.svc.GetPaymentStatus("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCloseTableSessionRefusesCancellation(t *testing.T) {
	env := newPaymentEnv(t)

	err := env.svc.CloseTableSession("sess-1", CloseTableSessionRequest{
		StaffPin: "1234",
		Reason:   "customer wants to CANCEL the booking",
	})
	assert.ErrorIs(t, err, ErrCancellationNotAllowed)
	// Refused before staff verification or any session read.
	assert.Zero(t, env.staffRepo.activeCalls)
	assert.Zero(t, env.sessionRepo.closeCalls)
}

func TestCloseTableSessionGuardsUnpaidOrders(t *testing.T) {
	env := newPaymentEnv(t)
	env.txnRepo.sumBySession["sess-1"] = 40

	err := env.svc.CloseTableSession("sess-1", CloseTableSessionRequest{StaffPin: "1234"})
	assert.ErrorIs(t, err, ErrUnpaidOrders)
	assert.Equal(t, models.SessionStatusOccupied, env.sessionRepo.sessions["sess-1"].Status)

	// Force close overrides the guard and settles at the amount actually
	// paid so far.
	err = env.svc.CloseTableSession("sess-1", CloseTableSessionRequest{
		StaffPin:   "1234",
		Reason:     "walked out",
		ForceClose: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusPaid, env.sessionRepo.sessions["sess-1"].Status)
	assert.Equal(t, 40.0, env.sessionRepo.closedWith)
}

func TestCloseTableSessionWhenFullyPaid(t *testing.T) {
	env := newPaymentEnv(t)
	env.txnRepo.sumBySession["sess-1"] = 100

	err := env.svc.CloseTableSession("sess-1", CloseTableSessionRequest{StaffPin: "1234"})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusPaid, env.sessionRepo.sessions["sess-1"].Status)

	// Closing again fails: the status-conditioned update matches no row.
	err = env.svc.CloseTableSession("sess-1", CloseTableSessionRequest{StaffPin: "1234"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCloseTableSessionRejectsBadPin(t *testing.T) {
	env := newPaymentEnv(t)

	err := env.svc.CloseTableSession("sess-1", CloseTableSessionRequest{StaffPin: "0000"})
	assert.ErrorIs(t, err, ErrInvalidStaffPin)
	assert.Zero(t, env.sessionRepo.closeCalls)
}

func TestCompletionStepProgression(t *testing.T) {
	step := StepStart
	names := []string{}
	for step != StepDone {
		step = advance(step)
		names = append(names, step.String())
	}
	assert.Equal(t, []string{
		"validated", "staff_resolved", "order_loaded",
		"transaction_recorded", "session_closed", "receipt_checked", "done",
	}, names)

	// Terminal steps stay put.
	assert.Equal(t, StepDone, advance(StepDone))
	assert.Equal(t, StepFailed, advance(StepFailed))
	assert.Equal(t, "failed", StepFailed.String())
}
