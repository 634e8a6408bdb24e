package query

import (
	"context"

	"github.com/tair/course-checkout/internal/checkout/domain"
)

// GetInvoiceQuery represents the query to read one invoice
type GetInvoiceQuery struct {
	ID          uint
	RequesterID uint
	IsAdmin     bool
}

// GetInvoiceHandler handles get invoice query
type GetInvoiceHandler struct {
	repo domain.InvoiceRepository
}

// NewGetInvoiceHandler creates a new get invoice handler
func NewGetInvoiceHandler(repo domain.InvoiceRepository) *GetInvoiceHandler {
	return &GetInvoiceHandler{repo: repo}
}

// Handle executes the get invoice query. Only the owner or an admin may read it.
func (h *GetInvoiceHandler) Handle(ctx context.Context, query GetInvoiceQuery) (*domain.Invoice, error) {
	if query.ID == 0 {
		return nil, domain.ErrInvalidInput
	}

	invoice, err := h.repo.FindByID(ctx, query.ID)
	if err != nil {
		return nil, err
	}
	if !query.IsAdmin && invoice.UserID != query.RequesterID {
		// Indistinguishable from a missing invoice
		return nil, domain.ErrInvoiceNotFound
	}
	return invoice, nil
}
