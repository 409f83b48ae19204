package payments

import (
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// ErrNotConfigured is returned when no gateway credentials were supplied.
var ErrNotConfigured = errors.New("payment gateway is not configured")

// Order is a gateway-side order created before the customer pays.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Payment is the gateway view of one payment attempt.
type Payment struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Method    string `json:"method"`
	CreatedAt int64  `json:"created_at"`
}

// Gateway is the subset of the payment provider API the storefront uses.
type Gateway interface {
	KeyID() string
	CreateOrder(amount int64, currency, receipt string, notes map[string]string) (*Order, error)
	FetchPayment(paymentID string) (*Payment, error)
}

// RazorpayGateway implements Gateway with the Razorpay SDK.
type RazorpayGateway struct {
	client *razorpay.Client
	keyID  string
}

// NewRazorpayGateway builds a gateway client from API credentials.
func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
		keyID:  keyID,
	}
}

func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

// CreateOrder creates an order for amount in the smallest currency unit.
func (g *RazorpayGateway) CreateOrder(amount int64, currency, receipt string, notes map[string]string) (*Order, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}
	return &Order{
		ID:       str(body["id"]),
		Amount:   num(body["amount"]),
		Currency: str(body["currency"]),
		Receipt:  str(body["receipt"]),
		Status:   str(body["status"]),
	}, nil
}

// FetchPayment loads a payment by id.
func (g *RazorpayGateway) FetchPayment(paymentID string) (*Payment, error) {
	body, err := g.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment %s: %w", paymentID, err)
	}
	return paymentFromMap(body), nil
}

func paymentFromMap(body map[string]interface{}) *Payment {
	return &Payment{
		ID:        str(body["id"]),
		OrderID:   str(body["order_id"]),
		Amount:    num(body["amount"]),
		Currency:  str(body["currency"]),
		Status:    str(body["status"]),
		Method:    str(body["method"]),
		CreatedAt: num(body["created_at"]),
	}
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func num(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
