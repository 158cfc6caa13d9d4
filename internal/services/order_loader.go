package services

import (
	"errors"
	"fmt"

	"lengolf_pos_backend/internal/models"
	"lengolf_pos_backend/internal/repositories"
	"lengolf_pos_backend/pkg/utils"
)

// Custom Errors for order/session resolution.
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrSessionNotFound = errors.New("table session not found")
	ErrNoOrderItems    = errors.New("no order items found for payment")
)

// OrderSource tags which of the three data sources produced the loaded
// line items, so callers and tests can assert on the resolution path
// instead of inspecting logs.
type OrderSource string

const (
	SourceOrder           OrderSource = "order"
	SourceSessionSnapshot OrderSource = "session_snapshot"
	SourceLinkedOrder     OrderSource = "linked_order"
)

// LoadedOrder is the normalized result of order/session resolution: the
// line items to settle, the amount owed and optional booking attribution.
type LoadedOrder struct {
	Source  OrderSource
	OrderID *string
	Items   []models.OrderLineItem
	Total   float64
	Booking *models.Booking
}

// --- OrderLoader Interface ---
type OrderLoader interface {
	// Load assembles the line items for a payment. With an explicit order ID
	// it loads that order; otherwise it falls back from the session's
	// embedded snapshot to the most recent confirmed linked order.
	Load(orderID *string, tableSessionID string) (*LoadedOrder, error)
}

type orderLoader struct {
	orderRepo   repositories.OrderRepository
	sessionRepo repositories.SessionRepository
	productRepo repositories.ProductRepository
	bookingRepo repositories.BookingRepository
}

// NewOrderLoader creates a new OrderLoader.
func NewOrderLoader(
	or repositories.OrderRepository,
	sr repositories.SessionRepository,
	pr repositories.ProductRepository,
	br repositories.BookingRepository,
) OrderLoader {
	return &orderLoader{
		orderRepo:   or,
		sessionRepo: sr,
		productRepo: pr,
		bookingRepo: br,
	}
}

func (l *orderLoader) Load(orderID *string, tableSessionID string) (*LoadedOrder, error) {
	if orderID != nil && *orderID != "" {
		return l.loadExplicitOrder(*orderID, tableSessionID)
	}
	return l.loadFromSession(tableSessionID)
}

func (l *orderLoader) loadExplicitOrder(orderID, tableSessionID string) (*LoadedOrder, error) {
	order, err := l.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %s", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("%w: order %s has no items", ErrNoOrderItems, orderID)
	}

	total := order.TotalAmount
	if total <= 0 {
		total = sumLineItems(order.Items)
	}

	return &LoadedOrder{
		Source:  SourceOrder,
		OrderID: &order.ID,
		Items:   order.Items,
		Total:   total,
		Booking: l.resolveBooking(tableSessionID, order.BookingID),
	}, nil
}

func (l *orderLoader) loadFromSession(tableSessionID string) (*LoadedOrder, error) {
	session, err := l.sessionRepo.GetSessionByID(tableSessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %s", ErrSessionNotFound, tableSessionID)
		}
		return nil, fmt.Errorf("failed to load table session %s: %w", tableSessionID, err)
	}

	booking := l.resolveBookingRef(session.BookingID)

	// First tier: the session's embedded working-order snapshot.
	if len(session.CurrentOrderItems) > 0 {
		items := l.normalizeSnapshotItems(session.CurrentOrderItems)
		total := session.TotalAmount
		if total <= 0 {
			total = sumLineItems(items)
		}
		return &LoadedOrder{
			Source:  SourceSessionSnapshot,
			Items:   items,
			Total:   total,
			Booking: booking,
		}, nil
	}

	// Second tier: the most recently created confirmed order linked to the
	// session.
	orders, err := l.orderRepo.GetConfirmedOrdersBySession(tableSessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmed orders for session %s: %w", tableSessionID, err)
	}
	for _, order := range orders {
		if len(order.Items) == 0 {
			continue
		}
		total := order.TotalAmount
		if total <= 0 {
			total = sumLineItems(order.Items)
		}
		id := order.ID
		return &LoadedOrder{
			Source:  SourceLinkedOrder,
			OrderID: &id,
			Items:   order.Items,
			Total:   total,
			Booking: booking,
		}, nil
	}

	return nil, ErrNoOrderItems
}

// normalizeSnapshotItems converts snapshot entries to line items, refreshing
// product names and categories against the catalog where possible. Catalog
// misses fall back to whatever the snapshot carried.
func (l *orderLoader) normalizeSnapshotItems(snapshot []models.SessionOrderItem) []models.OrderLineItem {
	productIDs := make([]string, 0, len(snapshot))
	for _, entry := range snapshot {
		if entry.ProductID != "" {
			productIDs = append(productIDs, entry.ProductID)
		}
	}
	products, err := l.productRepo.GetProductsByIDs(productIDs)
	if err != nil {
		utils.LogError(err, "order loader: product lookup failed, using snapshot values")
		products = map[string]models.Product{}
	}

	items := make([]models.OrderLineItem, 0, len(snapshot))
	for _, entry := range snapshot {
		item := models.OrderLineItem{
			ProductID:    entry.ProductID,
			ProductName:  entry.ProductName,
			CategoryName: entry.CategoryName,
			Quantity:     entry.Quantity,
			UnitPrice:    entry.UnitPrice,
			TotalPrice:   entry.TotalPrice,
			Modifiers:    entry.Modifiers,
		}
		if entry.Notes != "" {
			notes := entry.Notes
			item.Notes = &notes
		}
		if product, ok := products[entry.ProductID]; ok {
			item.ProductName = product.Name
			if product.CategoryName != nil {
				item.CategoryName = *product.CategoryName
			}
		}
		if item.TotalPrice == 0 {
			item.TotalPrice = float64(item.Quantity) * item.UnitPrice
		}
		items = append(items, item)
	}
	return items
}

// resolveBooking prefers the order's own booking reference, then the
// session's.
func (l *orderLoader) resolveBooking(tableSessionID string, orderBookingID *string) *models.Booking {
	if booking := l.resolveBookingRef(orderBookingID); booking != nil {
		return booking
	}
	session, err := l.sessionRepo.GetSessionByID(tableSessionID)
	if err != nil {
		return nil
	}
	return l.resolveBookingRef(session.BookingID)
}

// resolveBookingRef follows a booking reference, tolerating lookup failure:
// booking context becomes absent, never fatal.
func (l *orderLoader) resolveBookingRef(bookingID *string) *models.Booking {
	if bookingID == nil || *bookingID == "" {
		return nil
	}
	booking, err := l.bookingRepo.GetBookingByID(*bookingID)
	if err != nil {
		utils.LogError(err, "order loader: booking lookup failed, continuing without attribution")
		return nil
	}
	return booking
}

func sumLineItems(items []models.OrderLineItem) float64 {
	var total float64
	for _, item := range items {
		if item.TotalPrice != 0 {
			total += item.TotalPrice
			continue
		}
		total += float64(item.Quantity) * item.UnitPrice
	}
	return total
}
