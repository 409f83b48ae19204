package services

import (
	"log"

	"luxe/internal/models"

	"github.com/shopspring/decimal"
)

// Domain event names.
const (
	EventOrderCreated       = "order.created"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusUpdated = "order.status_updated"
	EventPaymentCaptured    = "payment.captured"
	EventPaymentFailed      = "payment.failed"
)

// EventPublisher delivers domain events to a broker. *rabbitmq.Client
// implements it.
type EventPublisher interface {
	PublishOrderEvent(eventType string, data interface{}) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(string, interface{}) error { return nil }

// OrderEvent is the payload of every order and payment event.
type OrderEvent struct {
	OrderID        string               `json:"orderId"`
	OrderNumber    string               `json:"orderNumber"`
	UserID         string               `json:"userId"`
	OrderStatus    models.OrderStatus   `json:"orderStatus"`
	PaymentStatus  models.PaymentStatus `json:"paymentStatus"`
	PaymentMethod  models.PaymentMethod `json:"paymentMethod"`
	Total          decimal.Decimal      `json:"total"`
	TrackingNumber string               `json:"trackingNumber,omitempty"`
	ItemCount      int                  `json:"itemCount"`
}

func newOrderEvent(o *models.Order) OrderEvent {
	return OrderEvent{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		OrderStatus:    o.OrderStatus,
		PaymentStatus:  o.PaymentStatus,
		PaymentMethod:  o.PaymentMethod,
		Total:          o.Total,
		TrackingNumber: o.TrackingNumber,
		ItemCount:      len(o.Items),
	}
}

// publish sends an event and only logs failures; the order is already durable.
func publish(p EventPublisher, eventType string, o *models.Order) {
	if p == nil {
		return
	}
	if err := p.PublishOrderEvent(eventType, newOrderEvent(o)); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", eventType, o.OrderNumber, err)
	}
}
