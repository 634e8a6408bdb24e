package query

import (
	"context"
	"errors"

	"github.com/tair/course-checkout/internal/checkout/domain"
)

// GetPaymentQuery represents the query to get a payment
type GetPaymentQuery struct {
	ID uint
}

// PaymentDetail is a payment with its invoice, if one was issued
type PaymentDetail struct {
	Payment *domain.Payment `json:"payment"`
	Invoice *domain.Invoice `json:"invoice,omitempty"`
}

// GetPaymentHandler handles get payment query
type GetPaymentHandler struct {
	payments domain.PaymentRepository
	invoices domain.InvoiceRepository
}

// NewGetPaymentHandler creates a new get payment handler
func NewGetPaymentHandler(payments domain.PaymentRepository, invoices domain.InvoiceRepository) *GetPaymentHandler {
	return &GetPaymentHandler{payments: payments, invoices: invoices}
}

// Handle executes the get payment query
func (h *GetPaymentHandler) Handle(ctx context.Context, query GetPaymentQuery) (*PaymentDetail, error) {
	if query.ID == 0 {
		return nil, domain.ErrInvalidInput
	}

	payment, err := h.payments.FindByID(ctx, query.ID)
	if err != nil {
		return nil, err
	}

	detail := &PaymentDetail{Payment: payment}
	if payment.IsCompleted() {
		invoice, err := h.invoices.FindByPaymentID(ctx, payment.ID)
		if err != nil && !errors.Is(err, domain.ErrInvoiceNotFound) {
			return nil, err
		}
		detail.Invoice = invoice
	}
	return detail, nil
}
