package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/pkg/logger"
	"github.com/tair/course-checkout/pkg/metrics"
)

// ConfirmPaymentCommand represents a proven capture for a processor order
type ConfirmPaymentCommand struct {
	OrderID   string
	PaymentID string
	Signature string
	Source    string
}

// ConfirmPaymentHandler is the single path that completes a payment. Both the
// client callback and the processor webhook go through it.
type ConfirmPaymentHandler struct {
	repo      domain.PaymentRepository
	publisher domain.EventPublisher
	cache     domain.AccessCache
	metrics   *metrics.Checkout
	now       func() time.Time
}

// NewConfirmPaymentHandler creates a new confirm payment handler. publisher
// and cache are optional.
func NewConfirmPaymentHandler(
	repo domain.PaymentRepository,
	publisher domain.EventPublisher,
	cache domain.AccessCache,
	m *metrics.Checkout,
) *ConfirmPaymentHandler {
	return &ConfirmPaymentHandler{
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		metrics:   m,
		now:       time.Now,
	}
}

// Handle executes the confirm payment command
func (h *ConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*domain.ConfirmResult, error) {
	if cmd.OrderID == "" || cmd.PaymentID == "" {
		return nil, domain.ErrInvalidInput
	}

	result, err := h.repo.ConfirmPayment(ctx, domain.ConfirmRequest{
		ProcessorOrderID:   cmd.OrderID,
		ProcessorPaymentID: cmd.PaymentID,
		Signature:          cmd.Signature,
		Source:             cmd.Source,
	}, h.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPaymentExpired):
			h.metrics.Confirmations.WithLabelValues(cmd.Source, "expired").Inc()
			logger.Error(ctx).
				Str("order_id", cmd.OrderID).
				Str("processor_payment_id", cmd.PaymentID).
				Str("source", cmd.Source).
				Msg("captured payment on expired checkout")
			return nil, err
		case errors.Is(err, domain.ErrPaymentNotFound):
			h.metrics.Confirmations.WithLabelValues(cmd.Source, "not_found").Inc()
			logger.Warn(ctx).
				Str("order_id", cmd.OrderID).
				Str("source", cmd.Source).
				Msg("Confirmation for unknown order")
			return nil, err
		}
		h.metrics.Confirmations.WithLabelValues(cmd.Source, "error").Inc()
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}

	if !result.Transitioned {
		h.metrics.Confirmations.WithLabelValues(cmd.Source, "noop").Inc()
		logger.Info(ctx).
			Uint("payment_id", result.Payment.ID).
			Str("order_id", cmd.OrderID).
			Str("source", cmd.Source).
			Str("confirmed_by", result.Payment.ConfirmedBy).
			Msg("Payment already completed")
		return result, nil
	}

	h.metrics.Confirmations.WithLabelValues(cmd.Source, "completed").Inc()
	logger.Info(ctx).
		Uint("payment_id", result.Payment.ID).
		Str("order_id", cmd.OrderID).
		Str("source", cmd.Source).
		Str("invoice_number", result.Invoice.InvoiceNumber).
		Int64("amount", result.Payment.Amount).
		Msg("Payment completed")

	h.afterCompletion(ctx, result)
	return result, nil
}

// afterCompletion runs side effects that must never undo a committed confirmation
func (h *ConfirmPaymentHandler) afterCompletion(ctx context.Context, result *domain.ConfirmResult) {
	payment := result.Payment

	if h.cache != nil {
		if err := h.cache.SetPaid(ctx, payment.UserID, payment.CourseID); err != nil {
			logger.Warn(ctx).Err(err).Uint("payment_id", payment.ID).Msg("Failed to warm access cache")
		}
	}

	if h.publisher != nil {
		event := domain.PaymentCompleted{
			PaymentID:     payment.ID,
			OrderID:       payment.ProcessorOrderID,
			UserID:        payment.UserID,
			CourseID:      payment.CourseID,
			InvoiceID:     result.Invoice.ID,
			InvoiceNumber: result.Invoice.InvoiceNumber,
			Amount:        payment.Amount,
			Currency:      payment.Currency,
			Source:        payment.ConfirmedBy,
			CompletedAt:   result.Invoice.IssuedAt,
		}
		if err := h.publisher.PublishPaymentCompleted(ctx, event); err != nil {
			logger.Error(ctx).Err(err).Uint("payment_id", payment.ID).Msg("Failed to publish payment completed event")
		}
	}
}
