package processor

import (
	"encoding/json"
	"fmt"
)

// Webhook headers
const (
	SignatureHeader = "X-Razorpay-Signature"
	EventIDHeader   = "X-Razorpay-Event-Id"
)

// Webhook event types
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

// WebhookEvent is the subset of the processor notification checkout reads
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// PaymentEntity identifies the captured payment and its order
type PaymentEntity struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// ParseWebhook decodes a verified webhook body
func ParseWebhook(rawBody []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("failed to decode webhook: %w", err)
	}
	if event.Event == "" {
		return nil, fmt.Errorf("webhook has no event type")
	}
	return &event, nil
}

// IsCapture reports whether the event confirms a payment. order.paid is
// delivered alongside payment.captured and is not acted on.
func (e *WebhookEvent) IsCapture() bool {
	return e.Event == EventPaymentCaptured
}
