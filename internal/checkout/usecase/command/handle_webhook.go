package command

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/internal/checkout/processor"
	"github.com/tair/course-checkout/pkg/logger"
	"github.com/tair/course-checkout/pkg/metrics"
)

// Webhook dispositions
const (
	WebhookProcessed = "processed"
	WebhookIgnored   = "ignored"
	WebhookDuplicate = "duplicate"
	WebhookExpired   = "expired"
)

// HandleWebhookCommand carries an unparsed processor notification
type HandleWebhookCommand struct {
	RawBody   []byte
	Signature string
	EventID   string
}

// HandleWebhookResult says what was done with an acknowledged delivery
type HandleWebhookResult struct {
	Event       string
	Disposition string
	PaymentID   uint
}

// HandleWebhookHandler reconciles payments from server-to-server notifications.
// Any returned error means the delivery must not be acknowledged.
type HandleWebhookHandler struct {
	webhookSecret string
	confirm       *ConfirmPaymentHandler
	events        domain.WebhookEventRepository
	metrics       *metrics.Checkout
}

// NewHandleWebhookHandler creates a new webhook handler
func NewHandleWebhookHandler(
	webhookSecret string,
	confirm *ConfirmPaymentHandler,
	events domain.WebhookEventRepository,
	m *metrics.Checkout,
) *HandleWebhookHandler {
	return &HandleWebhookHandler{
		webhookSecret: webhookSecret,
		confirm:       confirm,
		events:        events,
		metrics:       m,
	}
}

// Handle executes the webhook command
func (h *HandleWebhookHandler) Handle(ctx context.Context, cmd HandleWebhookCommand) (*HandleWebhookResult, error) {
	if !processor.VerifyWebhook(h.webhookSecret, cmd.RawBody, cmd.Signature) {
		h.metrics.SignatureFailed.WithLabelValues(domain.SourceWebhook).Inc()
		logger.Warn(ctx).Str("event_id", cmd.EventID).Msg("Rejected webhook signature")
		return nil, domain.ErrInvalidSignature
	}

	event, err := processor.ParseWebhook(cmd.RawBody)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("event_id", cmd.EventID).Msg("Malformed webhook")
		return nil, domain.ErrInvalidInput
	}
	entity := event.Payload.Payment.Entity
	result := &HandleWebhookResult{Event: event.Event}

	if cmd.EventID != "" {
		seen, err := h.events.Exists(ctx, cmd.EventID)
		if err != nil {
			return nil, err
		}
		if seen {
			result.Disposition = WebhookDuplicate
			h.metrics.WebhookEvents.WithLabelValues(event.Event, result.Disposition).Inc()
			logger.Info(ctx).Str("event_id", cmd.EventID).Str("event", event.Event).Msg("Duplicate webhook delivery")
			return result, nil
		}
	}

	if !event.IsCapture() {
		result.Disposition = WebhookIgnored
		h.record(ctx, cmd, event.Event, entity.OrderID)
		h.metrics.WebhookEvents.WithLabelValues(event.Event, result.Disposition).Inc()
		logger.Info(ctx).Str("event", event.Event).Str("order_id", entity.OrderID).Msg("Ignoring webhook event")
		return result, nil
	}

	if entity.OrderID == "" || entity.ID == "" {
		logger.Warn(ctx).Str("event_id", cmd.EventID).Msg("Capture webhook without order or payment id")
		return nil, domain.ErrInvalidInput
	}

	confirmed, err := h.confirm.Handle(ctx, ConfirmPaymentCommand{
		OrderID:   entity.OrderID,
		PaymentID: entity.ID,
		Source:    domain.SourceWebhook,
	})
	switch {
	case errors.Is(err, domain.ErrPaymentExpired):
		// Retrying cannot complete a failed payment; the capture is refunded by hand
		result.Disposition = WebhookExpired
	case err != nil:
		h.metrics.WebhookEvents.WithLabelValues(event.Event, "error").Inc()
		return nil, err
	default:
		result.Disposition = WebhookProcessed
		result.PaymentID = confirmed.Payment.ID
	}

	h.record(ctx, cmd, event.Event, entity.OrderID)
	h.metrics.WebhookEvents.WithLabelValues(event.Event, result.Disposition).Inc()
	return result, nil
}

// record stores the delivery for audit and dedup. Failing to record only
// costs a redundant, idempotent redelivery.
func (h *HandleWebhookHandler) record(ctx context.Context, cmd HandleWebhookCommand, eventType, orderID string) {
	entry := &domain.WebhookEvent{
		EventType:   eventType,
		OrderID:     orderID,
		Payload:     datatypes.JSON(cmd.RawBody),
		ProcessedAt: time.Now().UTC(),
	}
	if cmd.EventID != "" {
		id := cmd.EventID
		entry.EventID = &id
	}
	if err := h.events.Record(ctx, entry); err != nil {
		logger.Warn(ctx).Err(err).Str("event_id", cmd.EventID).Msg("Failed to record webhook event")
	}
}
