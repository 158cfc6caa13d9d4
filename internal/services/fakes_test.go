package services

import (
	"time"

	"lengolf_pos_backend/internal/models"
	"lengolf_pos_backend/internal/repositories"
)

// In-memory repository fakes shared by the service tests. Error fields
// inject failures at specific points; call counters let tests assert on
// round trips.

type fakeStaffRepo struct {
	staff           []models.StaffMember
	activeCalls     int
	byIDCalls       int
	getActiveErr    error
	getStaffByIDErr error
}

func (f *fakeStaffRepo) GetStaffByID(staffID int64) (*models.StaffMember, error) {
	f.byIDCalls++
	if f.getStaffByIDErr != nil {
		return nil, f.getStaffByIDErr
	}
	for i := range f.staff {
		if f.staff[i].ID == staffID {
			s := f.staff[i]
			return &s, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeStaffRepo) GetActiveStaff() ([]models.StaffMember, error) {
	f.activeCalls++
	if f.getActiveErr != nil {
		return nil, f.getActiveErr
	}
	active := []models.StaffMember{}
	for _, s := range f.staff {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active, nil
}

type fakeBookingRepo struct {
	bookings map[string]models.Booking
	err      error
}

func (f *fakeBookingRepo) GetBookingByID(bookingID string) (*models.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	if b, ok := f.bookings[bookingID]; ok {
		return &b, nil
	}
	return nil, repositories.ErrNotFound
}

type fakeProductRepo struct {
	products map[string]models.Product
	batchErr error
}

func (f *fakeProductRepo) GetProductsByIDs(productIDs []string) (map[string]models.Product, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	result := map[string]models.Product{}
	for _, id := range productIDs {
		if p, ok := f.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (f *fakeProductRepo) GetProductByID(productID string) (*models.Product, error) {
	if p, ok := f.products[productID]; ok {
		return &p, nil
	}
	return nil, repositories.ErrNotFound
}

type fakeOrderRepo struct {
	orders       map[string]models.Order
	bySession    map[string][]models.Order
	sumBySession map[string]float64
	sumErr       error
}

func (f *fakeOrderRepo) GetOrderByID(orderID string) (*models.Order, error) {
	if o, ok := f.orders[orderID]; ok {
		return &o, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeOrderRepo) GetConfirmedOrdersBySession(tableSessionID string) ([]models.Order, error) {
	return f.bySession[tableSessionID], nil
}

func (f *fakeOrderRepo) SumConfirmedOrderTotals(tableSessionID string) (float64, error) {
	if f.sumErr != nil {
		return 0, f.sumErr
	}
	return f.sumBySession[tableSessionID], nil
}

type fakeSessionRepo struct {
	sessions   map[string]models.TableSession
	closeErr   error
	closeCalls int
	closedWith float64
}

func (f *fakeSessionRepo) GetSessionByID(tableSessionID string) (*models.TableSession, error) {
	if s, ok := f.sessions[tableSessionID]; ok {
		return &s, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeSessionRepo) CloseSession(executor repositories.SQLExecutor, tableSessionID string, settledAmount float64, closedAt time.Time) error {
	f.closeCalls++
	if f.closeErr != nil {
		return f.closeErr
	}
	session, ok := f.sessions[tableSessionID]
	if !ok || session.Status == models.SessionStatusPaid || session.Status == models.SessionStatusCancelled {
		return repositories.ErrNotFound
	}
	session.Status = models.SessionStatusPaid
	session.PaxCount = 0
	session.TotalAmount = settledAmount
	session.CurrentOrderItems = nil
	session.Notes = nil
	session.SessionEnd = &closedAt
	f.sessions[tableSessionID] = session
	f.closedWith = settledAmount
	return nil
}

type fakeTransactionRepo struct {
	receiptCounter int
	receiptErr     error

	headers  map[string]*models.Transaction
	payments map[string][]models.TransactionPayment
	items    map[string][]models.TransactionItem

	aliases      map[string]string
	batchErr     error
	perMethodErr error

	createHeaderErr   error
	createPaymentsErr error
	createItemsErr    error

	deleteItemCalls   int
	deleteHeaderCalls int
	deleteItemsErr    error
	deleteHeaderErr   error

	sumBySession map[string]float64
	sumErr       error
	readyErr     error
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{
		headers:      map[string]*models.Transaction{},
		payments:     map[string][]models.TransactionPayment{},
		items:        map[string][]models.TransactionItem{},
		aliases:      map[string]string{},
		sumBySession: map[string]float64{},
	}
}

func (f *fakeTransactionRepo) NextReceiptNumber(date time.Time) (string, error) {
	if f.receiptErr != nil {
		return "", f.receiptErr
	}
	f.receiptCounter++
	return "R" + date.Format("20060102") + "-0001", nil
}

func (f *fakeTransactionRepo) CreateTransaction(executor repositories.SQLExecutor, txn *models.Transaction) (int64, error) {
	if f.createHeaderErr != nil {
		return 0, f.createHeaderErr
	}
	txn.ID = int64(len(f.headers) + 1)
	copied := *txn
	f.headers[txn.TransactionID] = &copied
	return txn.ID, nil
}

func (f *fakeTransactionRepo) CreateTransactionPayments(executor repositories.SQLExecutor, payments []models.TransactionPayment) error {
	if f.createPaymentsErr != nil {
		return f.createPaymentsErr
	}
	for _, p := range payments {
		f.payments[p.TransactionID] = append(f.payments[p.TransactionID], p)
	}
	return nil
}

func (f *fakeTransactionRepo) CreateTransactionItems(executor repositories.SQLExecutor, items []models.TransactionItem) error {
	if f.createItemsErr != nil {
		return f.createItemsErr
	}
	for _, item := range items {
		f.items[item.TransactionID] = append(f.items[item.TransactionID], item)
	}
	return nil
}

func (f *fakeTransactionRepo) GetTransactionByID(transactionID string) (*models.Transaction, error) {
	if txn, ok := f.headers[transactionID]; ok {
		copied := *txn
		return &copied, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeTransactionRepo) GetTransactionPayments(transactionID string) ([]models.TransactionPayment, error) {
	return f.payments[transactionID], nil
}

func (f *fakeTransactionRepo) GetTransactionItems(transactionID string) ([]models.TransactionItem, error) {
	return f.items[transactionID], nil
}

func (f *fakeTransactionRepo) DeleteTransactionItems(executor repositories.SQLExecutor, transactionID string) (int64, error) {
	f.deleteItemCalls++
	if f.deleteItemsErr != nil {
		return 0, f.deleteItemsErr
	}
	n := int64(len(f.items[transactionID]))
	delete(f.items, transactionID)
	return n, nil
}

func (f *fakeTransactionRepo) DeleteTransaction(executor repositories.SQLExecutor, transactionID string) (int64, error) {
	f.deleteHeaderCalls++
	if f.deleteHeaderErr != nil {
		return 0, f.deleteHeaderErr
	}
	if _, ok := f.headers[transactionID]; !ok {
		return 0, nil
	}
	delete(f.headers, transactionID)
	return 1, nil
}

func (f *fakeTransactionRepo) VoidTransactionItem(executor repositories.SQLExecutor, transactionID string, lineNumber int, voidedBy int64, reason string, voidedAt time.Time) error {
	items := f.items[transactionID]
	for i := range items {
		if items[i].LineNumber == lineNumber && !items[i].IsVoided {
			items[i].IsVoided = true
			items[i].VoidedAt = &voidedAt
			items[i].VoidedBy = &voidedBy
			items[i].VoidReason = &reason
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeTransactionRepo) SumCompletedBySession(tableSessionID string) (float64, error) {
	if f.sumErr != nil {
		return 0, f.sumErr
	}
	if total, ok := f.sumBySession[tableSessionID]; ok {
		return total, nil
	}
	var total float64
	for _, txn := range f.headers {
		if txn.TableSessionID != nil && *txn.TableSessionID == tableSessionID {
			total += txn.TotalAmount
		}
	}
	return total, nil
}

func (f *fakeTransactionRepo) ReceiptReady(transactionID string) (bool, error) {
	if f.readyErr != nil {
		return false, f.readyErr
	}
	if _, ok := f.headers[transactionID]; !ok {
		return false, nil
	}
	return len(f.payments[transactionID]) > 0 && len(f.items[transactionID]) > 0, nil
}

func (f *fakeTransactionRepo) GetPaymentMethodMappings(aliases []string) (map[string]string, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	result := map[string]string{}
	for _, alias := range aliases {
		if canonical, ok := f.aliases[alias]; ok {
			result[alias] = canonical
		}
	}
	return result, nil
}

func (f *fakeTransactionRepo) GetPaymentMethodMapping(alias string) (string, error) {
	if f.perMethodErr != nil {
		return "", f.perMethodErr
	}
	if canonical, ok := f.aliases[alias]; ok {
		return canonical, nil
	}
	return "", repositories.ErrNotFound
}

// fakeClock is a controllable clock for cache and pipeline tests.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
