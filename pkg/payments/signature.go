package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/razorpay/razorpay-go/utils"
)

// Sign returns the hex HMAC-SHA256 of payload under secret, the form the
// gateway uses for callback and webhook signatures.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature checks the checkout callback signature, computed
// over "<orderId>|<paymentId>" with the key secret.
func VerifyPaymentSignature(orderID, paymentID, signature, keySecret string) bool {
	if keySecret == "" || signature == "" {
		return false
	}
	return utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}, signature, keySecret)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw request body.
func VerifyWebhookSignature(body []byte, signature, webhookSecret string) bool {
	if webhookSecret == "" || signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, webhookSecret)
}

// Webhook event names handled by the storefront.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventRefundCreated   = "refund.created"
)

// WebhookEvent is the subset of a gateway webhook body the storefront reads.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity Payment `json:"entity"`
		} `json:"payment"`
		Refund struct {
			Entity struct {
				ID        string `json:"id"`
				PaymentID string `json:"payment_id"`
				Amount    int64  `json:"amount"`
			} `json:"entity"`
		} `json:"refund"`
	} `json:"payload"`
}

// ParseWebhook decodes a webhook body.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook body: %w", err)
	}
	return &event, nil
}
