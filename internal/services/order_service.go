package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"luxe/internal/apperror"
	"luxe/internal/idgen"
	"luxe/internal/models"
	"luxe/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	// FreeShippingThreshold is the subtotal from which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(999)
	// FlatShippingCost applies below FreeShippingThreshold.
	FlatShippingCost = decimal.NewFromInt(99)
	// TaxRate is the GST applied to the subtotal.
	TaxRate = decimal.RequireFromString("0.18")
)

// Totals are the computed money fields of an order.
type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
}

// ComputeTotals applies the pricing rules to a list of line snapshots.
// Tax is rounded to a whole unit, half away from zero.
func ComputeTotals(items []models.OrderItem) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	shipping := FlatShippingCost
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(TaxRate).Round(0)
	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Total:        subtotal.Add(shipping).Add(tax),
	}
}

// OrderService handles checkout and the order lifecycle.
type OrderService struct {
	store   repositories.Store
	numbers *idgen.OrderNumbers
	events  EventPublisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(store repositories.Store, numbers *idgen.OrderNumbers, events EventPublisher) *OrderService {
	if events == nil {
		events = NopPublisher{}
	}
	return &OrderService{
		store:   store,
		numbers: numbers,
		events:  events,
	}
}

func validateCart(lines []models.CartLine) error {
	if len(lines) == 0 {
		return apperror.Validation("Order must contain at least one item")
	}
	for _, line := range lines {
		if line.ProductID == "" {
			return apperror.Validation("Product id is required for every item")
		}
		if line.Quantity < 1 {
			return apperror.Validation("Quantity must be at least 1")
		}
	}
	return nil
}

func snapshot(p *models.Product, line models.CartLine) models.OrderItem {
	return models.OrderItem{
		ProductID:     p.ID,
		Name:          p.Name,
		Price:         p.Price,
		Quantity:      line.Quantity,
		SelectedSize:  line.SelectedSize,
		SelectedColor: line.SelectedColor,
		Image:         p.Image,
	}
}

func checkStock(p *models.Product, qty int) error {
	if !p.InStock || p.StockQuantity < qty {
		return apperror.InsufficientStock("Insufficient stock for: %s", p.Name)
	}
	return nil
}

// Quote prices a cart against the live catalog without reserving stock.
func (s *OrderService) Quote(ctx context.Context, lines []models.CartLine) ([]models.OrderItem, Totals, error) {
	if err := validateCart(lines); err != nil {
		return nil, Totals{}, err
	}
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		product, err := s.store.Products().GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, Totals{}, err
		}
		if err := checkStock(product, line.Quantity); err != nil {
			return nil, Totals{}, err
		}
		items = append(items, snapshot(product, line))
	}
	return items, ComputeTotals(items), nil
}

// placeInStore validates every line, takes the stock and writes the order
// through tx. Any error leaves the caller's transaction to roll back.
func (s *OrderService) placeInStore(ctx context.Context, tx repositories.Store, userID string, req models.CheckoutRequest, payment paymentRef) (*models.Order, error) {
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		product, err := tx.Products().GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if err := checkStock(product, line.Quantity); err != nil {
			return nil, err
		}
		items = append(items, snapshot(product, line))

		if err := tx.Products().DecrementStock(ctx, product.ID, line.Quantity); err != nil {
			if apperror.Is(err, apperror.KindInsufficientStock) {
				return nil, apperror.InsufficientStock("Insufficient stock for: %s", product.Name)
			}
			return nil, err
		}
	}

	totals := ComputeTotals(items)
	order := &models.Order{
		OrderNumber:     s.numbers.Next(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   payment.status,
		PaymentIntentID: payment.intentID,
		PaymentID:       payment.paymentID,
		OrderStatus:     models.OrderStatusConfirmed,
		Subtotal:        totals.Subtotal,
		ShippingCost:    totals.ShippingCost,
		Tax:             totals.Tax,
		Total:           totals.Total,
		Notes:           req.Notes,
	}
	if err := tx.Orders().Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// paymentRef is the payment state an order starts with.
type paymentRef struct {
	status    models.PaymentStatus
	intentID  string
	paymentID string
}

func validatePaymentMethod(m models.PaymentMethod) error {
	switch m {
	case models.PaymentMethodCOD, models.PaymentMethodCard, models.PaymentMethodUPI:
		return nil
	}
	return apperror.Validation("Invalid payment method: %s", m)
}

// PlaceOrder creates an order directly from a cart. Stock for every line is
// taken inside one transaction, so a failing line leaves no partial
// decrement behind. Online methods are recorded as paid on this path.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, req models.CheckoutRequest) (*models.Order, error) {
	if err := validateCart(req.Items); err != nil {
		return nil, err
	}
	if err := validatePaymentMethod(req.PaymentMethod); err != nil {
		return nil, err
	}

	paymentStatus := models.PaymentStatusPaid
	if req.PaymentMethod == models.PaymentMethodCOD {
		paymentStatus = models.PaymentStatusPending
	}

	var order *models.Order
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		order, err = s.placeInStore(ctx, tx, userID, req, paymentRef{status: paymentStatus})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Order %s placed by user %s, total %s", order.OrderNumber, userID, order.Total)
	publish(s.events, EventOrderCreated, order)
	return order, nil
}

// PlaceVerifiedOrder turns a checkout intent whose payment was verified
// into a paid order. Earlier failed attempts on the same gateway order do
// not block it. Repeated calls return the order created the first time.
func (s *OrderService) PlaceVerifiedOrder(ctx context.Context, gatewayOrderID, paymentID string) (*models.Order, error) {
	var (
		order   *models.Order
		created bool
	)
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		intent, err := tx.CheckoutIntents().GetByGatewayOrderID(ctx, gatewayOrderID)
		if err != nil {
			return err
		}
		if intent.Status == models.IntentStatusCompleted {
			order, err = tx.Orders().GetByPaymentIntent(ctx, gatewayOrderID)
			return err
		}

		order, err = s.placeInStore(ctx, tx, intent.UserID, intent.Request, paymentRef{
			status:    models.PaymentStatusPaid,
			intentID:  gatewayOrderID,
			paymentID: paymentID,
		})
		if err != nil {
			return err
		}

		intent.Status = models.IntentStatusCompleted
		intent.OrderID = order.ID
		created = true
		return tx.CheckoutIntents().Update(ctx, intent)
	})
	if err != nil {
		return nil, err
	}

	if created {
		log.Printf("Order %s placed for verified payment %s", order.OrderNumber, paymentID)
		publish(s.events, EventOrderCreated, order)
	}
	return order, nil
}

// restoreStock gives the snapshot quantities back to their products.
// Products that no longer exist are skipped.
func restoreStock(ctx context.Context, tx repositories.Store, order *models.Order) error {
	for _, item := range order.Items {
		err := tx.Products().IncrementStock(ctx, item.ProductID, item.Quantity)
		if apperror.Is(err, apperror.KindNotFound) {
			log.Printf("Skipping stock restore for removed product %s on order %s", item.ProductID, order.OrderNumber)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func markCancelled(order *models.Order) {
	order.OrderStatus = models.OrderStatusCancelled
	if order.PaymentStatus == models.PaymentStatusPaid {
		order.PaymentStatus = models.PaymentStatusRefunded
	} else {
		order.PaymentStatus = models.PaymentStatusPending
	}
}

// CancelOrder cancels the requester's own order and restores its stock.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, requesterID string) (*models.Order, error) {
	var order *models.Order
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		order, err = tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != requesterID {
			return apperror.Forbidden("Not authorized to cancel this order")
		}
		if !order.OrderStatus.Cancellable() {
			return apperror.InvalidState("Order cannot be cancelled at this stage")
		}
		if err := restoreStock(ctx, tx, order); err != nil {
			return err
		}
		markCancelled(order)
		return tx.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Order %s cancelled by user %s", order.OrderNumber, requesterID)
	publish(s.events, EventOrderCancelled, order)
	return order, nil
}

// UpdateOrderStatus moves an order along its lifecycle. Re-sending the
// current status is accepted and only updates the tracking number.
// deliveredAt is stamped once, on the first move to delivered.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, trackingNumber string) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperror.Validation("Invalid order status: %s", status)
	}

	var order *models.Order
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		order, err = tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}

		if status != order.OrderStatus {
			if !order.OrderStatus.CanTransitionTo(status) {
				return apperror.InvalidState("Cannot change order status from %s to %s", order.OrderStatus, status)
			}
			if status == models.OrderStatusCancelled {
				if err := restoreStock(ctx, tx, order); err != nil {
					return err
				}
				markCancelled(order)
			}
			order.OrderStatus = status
		}
		if status == models.OrderStatusDelivered && order.DeliveredAt == nil {
			now := time.Now()
			order.DeliveredAt = &now
		}
		if trackingNumber != "" {
			order.TrackingNumber = trackingNumber
		}
		return tx.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Order %s status set to %s", order.OrderNumber, order.OrderStatus)
	if status == models.OrderStatusCancelled {
		publish(s.events, EventOrderCancelled, order)
	} else {
		publish(s.events, EventOrderStatusUpdated, order)
	}
	return order, nil
}

// ListOrders is the admin listing: optional status filter, newest first.
func (s *OrderService) ListOrders(ctx context.Context, status models.OrderStatus, page, limit int) ([]models.Order, Pagination, error) {
	if status != "" && !status.Valid() {
		return nil, Pagination{}, apperror.Validation("Invalid order status: %s", status)
	}
	page, limit = normalizePage(page, limit, 20)
	orders, total, err := s.store.Orders().List(ctx, repositories.OrderFilter{
		Status: status,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, Pagination{}, err
	}
	return orders, newPagination(total, page, limit), nil
}

// ListUserOrders returns every order of one user, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders, _, err := s.store.Orders().List(ctx, repositories.OrderFilter{UserID: userID})
	return orders, err
}

// GetOrder returns an order visible to requester: its owner or an admin.
func (s *OrderService) GetOrder(ctx context.Context, orderID string, requester *models.User) (*models.Order, error) {
	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requester.ID && !requester.IsAdmin() {
		return nil, apperror.Forbidden("Not authorized to view this order")
	}
	return order, nil
}

// MarkPaymentCaptured records a captured payment on the order created for
// gatewayOrderID.
func (s *OrderService) MarkPaymentCaptured(ctx context.Context, gatewayOrderID, paymentID string) (*models.Order, error) {
	var (
		order   *models.Order
		changed bool
	)
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		order, err = tx.Orders().GetByPaymentIntent(ctx, gatewayOrderID)
		if err != nil {
			return err
		}
		if order.PaymentStatus == models.PaymentStatusPaid || order.PaymentStatus == models.PaymentStatusRefunded {
			return nil
		}
		order.PaymentStatus = models.PaymentStatusPaid
		if paymentID != "" {
			order.PaymentID = paymentID
		}
		changed = true
		return tx.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		publish(s.events, EventPaymentCaptured, order)
	}
	return order, nil
}

// MarkPaymentFailed records a failed payment attempt. The checkout intent
// stays open because the customer may retry on the same gateway order. An
// order is only touched when its recorded payment is the one that failed:
// a paid order is left alone, an unpaid one that can still be cancelled is
// cancelled and its stock restored.
func (s *OrderService) MarkPaymentFailed(ctx context.Context, gatewayOrderID, paymentID string) (*models.Order, error) {
	var (
		order   *models.Order
		changed bool
	)
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		order, err = tx.Orders().GetByPaymentIntent(ctx, gatewayOrderID)
		if apperror.Is(err, apperror.KindNotFound) {
			order = nil
			return nil
		}
		if err != nil {
			return err
		}
		if paymentID == "" || order.PaymentID != paymentID {
			log.Printf("Failed payment %s is not the payment of order %s, ignoring", paymentID, order.OrderNumber)
			return nil
		}
		if order.PaymentStatus == models.PaymentStatusPaid || order.PaymentStatus == models.PaymentStatusRefunded {
			return nil
		}
		if order.OrderStatus.Cancellable() {
			if err := restoreStock(ctx, tx, order); err != nil {
				return err
			}
			order.OrderStatus = models.OrderStatusCancelled
		}
		order.PaymentStatus = models.PaymentStatusFailed
		changed = true
		return tx.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record payment failure for %s: %w", gatewayOrderID, err)
	}
	if changed {
		publish(s.events, EventPaymentFailed, order)
	}
	return order, nil
}
