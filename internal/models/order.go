package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCOD  PaymentMethod = "cod"
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodUPI  PaymentMethod = "upi"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// orderFlow is the forward path an order follows; cancellation is allowed
// from any state that is not terminal.
var orderFlow = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusConfirmed,
	OrderStatusConfirmed:  OrderStatusProcessing,
	OrderStatusProcessing: OrderStatusShipped,
	OrderStatusShipped:    OrderStatusDelivered,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return orderFlow[s] == next
}

// Cancellable reports whether the owner may still cancel the order.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// ShippingAddress is copied into every order so later profile edits do not
// change historical orders.
type ShippingAddress struct {
	Name    string `json:"name" bson:"name" validate:"required"`
	Phone   string `json:"phone" bson:"phone" validate:"required,numeric,len=10"`
	Street  string `json:"street" bson:"street" validate:"required"`
	City    string `json:"city" bson:"city" validate:"required"`
	State   string `json:"state" bson:"state" validate:"required"`
	Pincode string `json:"pincode" bson:"pincode" validate:"required,numeric,len=6"`
}

// OrderItem is a frozen snapshot of a product at order time.
type OrderItem struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"id"`
	OrderID       string          `json:"-" gorm:"type:varchar(36);index" bson:"-"`
	Position      int             `json:"-" bson:"-"`
	ProductID     string          `json:"product" gorm:"type:varchar(36)" bson:"product"`
	Name          string          `json:"name" bson:"name"`
	Price         decimal.Decimal `json:"price" gorm:"type:numeric(12,2)" bson:"price"`
	Quantity      int             `json:"quantity" bson:"quantity"`
	SelectedSize  string          `json:"selectedSize" bson:"selectedSize"`
	SelectedColor string          `json:"selectedColor" bson:"selectedColor"`
	Image         string          `json:"image" bson:"image"`
}

// LineTotal returns price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a placed customer order.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	OrderNumber     string          `json:"orderNumber" gorm:"uniqueIndex;type:varchar(40);not null" bson:"orderNumber"`
	UserID          string          `json:"user" gorm:"type:varchar(36);index;not null" bson:"user"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" bson:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress" gorm:"embedded;embeddedPrefix:shipping_" bson:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" gorm:"type:varchar(10)" bson:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus" gorm:"type:varchar(10);index" bson:"paymentStatus"`
	OrderStatus     OrderStatus     `json:"orderStatus" gorm:"type:varchar(12);index" bson:"orderStatus"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2)" bson:"subtotal"`
	ShippingCost    decimal.Decimal `json:"shippingCost" gorm:"type:numeric(12,2)" bson:"shippingCost"`
	Tax             decimal.Decimal `json:"tax" gorm:"type:numeric(12,2)" bson:"tax"`
	Total           decimal.Decimal `json:"total" gorm:"type:numeric(12,2)" bson:"total"`
	Notes           string          `json:"notes,omitempty" gorm:"type:varchar(500)" bson:"notes,omitempty"`
	TrackingNumber  string          `json:"trackingNumber,omitempty" bson:"trackingNumber,omitempty"`
	PaymentIntentID string          `json:"paymentIntentId,omitempty" gorm:"type:varchar(64);index" bson:"paymentIntentId,omitempty"`
	PaymentID       string          `json:"paymentId,omitempty" gorm:"type:varchar(64)" bson:"paymentId,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt" gorm:"index" bson:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// CartLine is one line of a client-submitted cart.
type CartLine struct {
	ProductID     string `json:"productId" bson:"productId" validate:"required"`
	Quantity      int    `json:"quantity" bson:"quantity" validate:"required,min=1"`
	SelectedSize  string `json:"selectedSize" bson:"selectedSize"`
	SelectedColor string `json:"selectedColor" bson:"selectedColor"`
}

// CheckoutRequest is the input to order placement.
type CheckoutRequest struct {
	Items           []CartLine      `json:"items" bson:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" bson:"paymentMethod" validate:"required,oneof=cod card upi"`
	Notes           string          `json:"notes,omitempty" bson:"notes,omitempty" validate:"max=500"`
}
