package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type IntentStatus string

const (
	IntentStatusCreated   IntentStatus = "created"
	IntentStatusCompleted IntentStatus = "completed"
)

// CheckoutIntent holds an online checkout between gateway order creation
// and payment verification. The cart is kept server side so the verify
// step never trusts totals sent back by the client.
type CheckoutIntent struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	GatewayOrderID string          `json:"gatewayOrderId" gorm:"uniqueIndex;type:varchar(64)" bson:"gatewayOrderId"`
	UserID         string          `json:"userId" gorm:"type:varchar(36);index" bson:"userId"`
	Request        CheckoutRequest `json:"request" gorm:"serializer:json" bson:"request"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:numeric(12,2)" bson:"amount"`
	Currency       string          `json:"currency" gorm:"type:varchar(3)" bson:"currency"`
	Status         IntentStatus    `json:"status" gorm:"type:varchar(10)" bson:"status"`
	OrderID        string          `json:"orderId,omitempty" gorm:"type:varchar(36)" bson:"orderId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt" bson:"updatedAt"`
}
