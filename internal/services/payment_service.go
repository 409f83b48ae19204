package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"luxe/internal/apperror"
	"luxe/internal/models"
	"luxe/internal/repositories"
	"luxe/pkg/payments"

	"github.com/shopspring/decimal"
)

// Currency is the only currency the storefront charges in.
const Currency = "INR"

var hundred = decimal.NewFromInt(100)

// PaymentOrder is the result of starting a checkout. For cash on delivery
// Order is set; for online methods the gateway fields are set and the order
// is created once the payment is verified.
type PaymentOrder struct {
	PaymentMethod   models.PaymentMethod `json:"paymentMethod"`
	Order           *models.Order        `json:"order,omitempty"`
	RazorpayOrderID string               `json:"razorpayOrderId,omitempty"`
	Amount          int64                `json:"amount,omitempty"`
	Currency        string               `json:"currency,omitempty"`
	KeyID           string               `json:"keyId,omitempty"`
	Items           []models.OrderItem   `json:"items,omitempty"`
	Totals          *Totals              `json:"totals,omitempty"`
}

// PaymentInfo is the gateway status of one payment.
type PaymentInfo struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Method    string          `json:"method"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PaymentService bridges checkout and the payment gateway.
type PaymentService struct {
	orders        *OrderService
	store         repositories.Store
	gateway       payments.Gateway
	keySecret     string
	webhookSecret string
}

// NewPaymentService creates a new PaymentService. A nil gateway disables
// online payments; cash on delivery keeps working.
func NewPaymentService(orders *OrderService, store repositories.Store, gateway payments.Gateway, keySecret, webhookSecret string) *PaymentService {
	return &PaymentService{
		orders:        orders,
		store:         store,
		gateway:       gateway,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

func (s *PaymentService) requireGateway(message string) error {
	if s.gateway == nil {
		return apperror.Unavailable(payments.ErrNotConfigured, "%s", message)
	}
	return nil
}

// CreatePaymentOrder starts a checkout. Cash on delivery places the order
// immediately. Online methods create a gateway order for the server-side
// total and keep the cart as a checkout intent until verification.
func (s *PaymentService) CreatePaymentOrder(ctx context.Context, userID string, req models.CheckoutRequest) (*PaymentOrder, error) {
	if err := validateCart(req.Items); err != nil {
		return nil, err
	}
	if err := validatePaymentMethod(req.PaymentMethod); err != nil {
		return nil, err
	}

	if req.PaymentMethod == models.PaymentMethodCOD {
		order, err := s.orders.PlaceOrder(ctx, userID, req)
		if err != nil {
			return nil, err
		}
		return &PaymentOrder{PaymentMethod: models.PaymentMethodCOD, Order: order}, nil
	}

	if err := s.requireGateway("Online payments are not configured. Please use Cash on Delivery or contact support."); err != nil {
		return nil, err
	}

	items, totals, err := s.orders.Quote(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	amount := toMinorUnits(totals.Total)
	receipt := fmt.Sprintf("order_%d", time.Now().UnixMilli())
	gwOrder, err := s.gateway.CreateOrder(amount, Currency, receipt, map[string]string{
		"userId":    userID,
		"itemCount": strconv.Itoa(len(req.Items)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment order: %w", err)
	}

	intent := &models.CheckoutIntent{
		GatewayOrderID: gwOrder.ID,
		UserID:         userID,
		Request:        req,
		Amount:         totals.Total,
		Currency:       Currency,
		Status:         models.IntentStatusCreated,
	}
	if err := s.store.CheckoutIntents().Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to store checkout for %s: %w", gwOrder.ID, err)
	}

	log.Printf("Payment order %s created for user %s, amount %d", gwOrder.ID, userID, amount)
	return &PaymentOrder{
		PaymentMethod:   req.PaymentMethod,
		RazorpayOrderID: gwOrder.ID,
		Amount:          gwOrder.Amount,
		Currency:        gwOrder.Currency,
		KeyID:           s.gateway.KeyID(),
		Items:           items,
		Totals:          &totals,
	}, nil
}

// VerifyPayment checks the checkout signature and turns the stored intent
// into a paid order.
func (s *PaymentService) VerifyPayment(ctx context.Context, userID, gatewayOrderID, paymentID, signature string) (*models.Order, error) {
	if !payments.VerifyPaymentSignature(gatewayOrderID, paymentID, signature, s.keySecret) {
		log.Printf("Payment signature mismatch for %s", gatewayOrderID)
		return nil, apperror.Validation("Payment verification failed - Invalid signature")
	}

	intent, err := s.store.CheckoutIntents().GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	if intent.UserID != userID {
		return nil, apperror.Forbidden("Not authorized to verify this payment")
	}

	return s.orders.PlaceVerifiedOrder(ctx, gatewayOrderID, paymentID)
}

// HandleWebhook authenticates and applies a gateway webhook. Business
// failures are logged and acknowledged so the gateway does not retry them.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !payments.VerifyWebhookSignature(body, signature, s.webhookSecret) {
		log.Println("Webhook signature verification failed")
		return apperror.Validation("Invalid signature")
	}
	event, err := payments.ParseWebhook(body)
	if err != nil {
		return apperror.Validation("Invalid webhook payload")
	}
	log.Printf("Payment webhook event: %s", event.Event)

	payment := event.Payload.Payment.Entity
	switch event.Event {
	case payments.EventPaymentCaptured:
		err = s.paymentCaptured(ctx, payment)
	case payments.EventPaymentFailed:
		if payment.OrderID == "" {
			log.Printf("Payment failed: %s (no gateway order)", payment.ID)
			return nil
		}
		_, err = s.orders.MarkPaymentFailed(ctx, payment.OrderID, payment.ID)
	case payments.EventRefundCreated:
		log.Printf("Refund created: %s for payment %s", event.Payload.Refund.Entity.ID, event.Payload.Refund.Entity.PaymentID)
	default:
		log.Printf("Unhandled webhook event: %s", event.Event)
	}

	if err != nil && apperror.KindOf(err) != apperror.KindUnknown {
		log.Printf("Webhook %s for payment %s not applied: %v", event.Event, payment.ID, err)
		return nil
	}
	return err
}

// paymentCaptured marks the matching order paid. When the customer never
// returned to verify, the stored checkout intent is placed instead.
func (s *PaymentService) paymentCaptured(ctx context.Context, payment payments.Payment) error {
	if payment.OrderID == "" {
		log.Printf("Payment captured: %s (no gateway order)", payment.ID)
		return nil
	}
	log.Printf("Payment captured: %s for order: %s", payment.ID, payment.OrderID)

	_, err := s.orders.MarkPaymentCaptured(ctx, payment.OrderID, payment.ID)
	if !apperror.Is(err, apperror.KindNotFound) {
		return err
	}
	_, err = s.orders.PlaceVerifiedOrder(ctx, payment.OrderID, payment.ID)
	return err
}

// PaymentStatus fetches a payment from the gateway.
func (s *PaymentService) PaymentStatus(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	if err := s.requireGateway("Payment service is not configured"); err != nil {
		return nil, err
	}
	p, err := s.gateway.FetchPayment(paymentID)
	if err != nil {
		return nil, err
	}
	return &PaymentInfo{
		ID:        p.ID,
		Status:    p.Status,
		Amount:    decimal.NewFromInt(p.Amount).Div(hundred),
		Currency:  p.Currency,
		Method:    p.Method,
		CreatedAt: time.Unix(p.CreatedAt, 0).UTC(),
	}, nil
}

// CreateGatewayOrder creates a bare gateway order for amount, with no cart
// attached.
func (s *PaymentService) CreateGatewayOrder(ctx context.Context, amount decimal.Decimal) (*payments.Order, error) {
	if !amount.IsPositive() {
		return nil, apperror.Validation("Amount is required")
	}
	if err := s.requireGateway("Online payments are not configured"); err != nil {
		return nil, err
	}
	order, err := s.gateway.CreateOrder(toMinorUnits(amount), Currency, fmt.Sprintf("receipt_%d", time.Now().UnixMilli()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Razorpay order: %w", err)
	}
	return order, nil
}
