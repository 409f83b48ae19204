package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
		OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
		OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
		OrderStatusDelivered:  nil,
		OrderStatusCancelled:  nil,
	}
	all := []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
	}

	for from, targets := range allowed {
		for _, to := range all {
			want := false
			for _, ok := range targets {
				if ok == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatusHelpers(t *testing.T) {
	assert.True(t, OrderStatusPending.Cancellable())
	assert.True(t, OrderStatusConfirmed.Cancellable())
	assert.False(t, OrderStatusProcessing.Cancellable())
	assert.False(t, OrderStatusShipped.Cancellable())

	assert.True(t, OrderStatusDelivered.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.False(t, OrderStatusShipped.Terminal())

	assert.True(t, OrderStatusShipped.Valid())
	assert.False(t, OrderStatus("lost").Valid())
}

func TestLineTotal(t *testing.T) {
	item := OrderItem{Price: decimal.RequireFromString("199.99"), Quantity: 3}
	assert.Equal(t, "599.97", item.LineTotal().String())
}
