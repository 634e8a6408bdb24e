package command

import (
	"context"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/internal/checkout/processor"
	"github.com/tair/course-checkout/pkg/logger"
	"github.com/tair/course-checkout/pkg/metrics"
)

// VerifyPaymentCommand carries the hosted checkout's callback
type VerifyPaymentCommand struct {
	OrderID   string
	PaymentID string
	Signature string
}

// VerifyPaymentResult reports a successful verification
type VerifyPaymentResult struct {
	Success       bool   `json:"success"`
	PaymentID     uint   `json:"payment_id"`
	InvoiceNumber string `json:"invoice_number"`
}

// VerifyPaymentHandler handles the client-side payment callback
type VerifyPaymentHandler struct {
	keySecret string
	confirm   *ConfirmPaymentHandler
	metrics   *metrics.Checkout
}

// NewVerifyPaymentHandler creates a new verify payment handler. keySecret is
// the API key secret the processor signs callbacks with.
func NewVerifyPaymentHandler(keySecret string, confirm *ConfirmPaymentHandler, m *metrics.Checkout) *VerifyPaymentHandler {
	return &VerifyPaymentHandler{keySecret: keySecret, confirm: confirm, metrics: m}
}

// Handle executes the verify payment command
func (h *VerifyPaymentHandler) Handle(ctx context.Context, cmd VerifyPaymentCommand) (*VerifyPaymentResult, error) {
	if cmd.OrderID == "" || cmd.PaymentID == "" || cmd.Signature == "" {
		return nil, domain.ErrInvalidInput
	}

	if !processor.VerifyCallback(h.keySecret, cmd.OrderID, cmd.PaymentID, cmd.Signature) {
		h.metrics.SignatureFailed.WithLabelValues(domain.SourceVerifier).Inc()
		logger.Warn(ctx).Str("order_id", cmd.OrderID).Msg("Rejected callback signature")
		return nil, domain.ErrInvalidSignature
	}

	result, err := h.confirm.Handle(ctx, ConfirmPaymentCommand{
		OrderID:   cmd.OrderID,
		PaymentID: cmd.PaymentID,
		Signature: cmd.Signature,
		Source:    domain.SourceVerifier,
	})
	if err != nil {
		return nil, err
	}

	return &VerifyPaymentResult{
		Success:       true,
		PaymentID:     result.Payment.ID,
		InvoiceNumber: result.Invoice.InvoiceNumber,
	}, nil
}
