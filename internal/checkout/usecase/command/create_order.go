package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/internal/checkout/processor"
	"github.com/tair/course-checkout/pkg/logger"
	"github.com/tair/course-checkout/pkg/metrics"
)

// CreateOrderCommand represents the command to start a checkout
type CreateOrderCommand struct {
	UserID   uint
	CourseID uint
}

// CreateOrderResult is what the browser needs to open the hosted checkout
type CreateOrderResult struct {
	ProcessorOrderID string `json:"processor_order_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	LocalPaymentID   uint   `json:"local_payment_id"`
	Receipt          string `json:"receipt"`
	KeyID            string `json:"key_id"`
}

// CreateOrderHandler handles create order command
type CreateOrderHandler struct {
	payments  domain.PaymentRepository
	catalog   domain.CatalogRepository
	processor domain.PaymentProcessor
	metrics   *metrics.Checkout
	currency  string
	keyID     string
	now       func() time.Time
}

// NewCreateOrderHandler creates a new create order handler
func NewCreateOrderHandler(
	payments domain.PaymentRepository,
	catalog domain.CatalogRepository,
	proc domain.PaymentProcessor,
	m *metrics.Checkout,
	currency, keyID string,
) *CreateOrderHandler {
	return &CreateOrderHandler{
		payments:  payments,
		catalog:   catalog,
		processor: proc,
		metrics:   m,
		currency:  currency,
		keyID:     keyID,
		now:       time.Now,
	}
}

// Handle executes the create order command
func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*CreateOrderResult, error) {
	if cmd.UserID == 0 || cmd.CourseID == 0 {
		return nil, domain.ErrInvalidInput
	}

	existing, err := h.payments.FindEnrollment(ctx, cmd.UserID, cmd.CourseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		h.metrics.OrdersCreated.WithLabelValues("already_enrolled").Inc()
		return nil, domain.ErrAlreadyEnrolled
	}

	if _, err := h.catalog.FindUser(ctx, cmd.UserID); err != nil {
		return nil, err
	}
	course, err := h.catalog.FindCourse(ctx, cmd.CourseID)
	if err != nil {
		return nil, err
	}

	amount, err := processor.ToMinorUnits(course.Price, h.currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: course %d has no price", domain.ErrInvalidInput, course.ID)
	}

	now := h.now()
	receipt := processor.BuildReceipt(course.ID, cmd.UserID, now)

	order, err := h.processor.CreateOrder(ctx, domain.OrderRequest{
		Amount:   amount,
		Currency: h.currency,
		Receipt:  receipt,
		Notes: map[string]string{
			"user_id":   strconv.FormatUint(uint64(cmd.UserID), 10),
			"course_id": strconv.FormatUint(uint64(course.ID), 10),
		},
	})
	if err != nil {
		h.metrics.OrdersCreated.WithLabelValues("upstream_failed").Inc()
		logger.Error(ctx).
			Err(err).
			Uint("user_id", cmd.UserID).
			Uint("course_id", course.ID).
			Int64("amount", amount).
			Str("receipt", receipt).
			Msg("Processor order creation failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrOrderCreationFailed, err)
	}

	enrollment := &domain.Enrollment{UserID: cmd.UserID, CourseID: course.ID}
	payment := &domain.Payment{
		UserID:           cmd.UserID,
		CourseID:         course.ID,
		Amount:           amount,
		Currency:         h.currency,
		ProcessorOrderID: order.ID,
		Receipt:          receipt,
	}
	if err := h.payments.CreateCheckout(ctx, enrollment, payment); err != nil {
		h.metrics.OrphanedOrders.Inc()
		logger.Error(ctx).
			Err(err).
			Str("order_id", order.ID).
			Uint("user_id", cmd.UserID).
			Uint("course_id", course.ID).
			Msgf("orphaned remote order: %s", order.ID)
		if errors.Is(err, domain.ErrAlreadyEnrolled) {
			h.metrics.OrdersCreated.WithLabelValues("already_enrolled").Inc()
			return nil, err
		}
		h.metrics.OrdersCreated.WithLabelValues("local_failed").Inc()
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}

	h.metrics.OrdersCreated.WithLabelValues("created").Inc()
	logger.Info(ctx).
		Uint("payment_id", payment.ID).
		Str("order_id", order.ID).
		Uint("user_id", cmd.UserID).
		Uint("course_id", course.ID).
		Int64("amount", amount).
		Str("currency", h.currency).
		Msg("Checkout started")

	return &CreateOrderResult{
		ProcessorOrderID: order.ID,
		Amount:           amount,
		Currency:         h.currency,
		LocalPaymentID:   payment.ID,
		Receipt:          receipt,
		KeyID:            h.keyID,
	}, nil
}
