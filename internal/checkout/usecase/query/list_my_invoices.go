package query

import (
	"context"
	"fmt"

	"github.com/tair/course-checkout/internal/checkout/domain"
)

// ListMyInvoicesQuery represents the query to list a user's invoices
type ListMyInvoicesQuery struct {
	UserID uint
	Limit  int
	Offset int
}

// ListMyInvoicesHandler handles list my invoices query
type ListMyInvoicesHandler struct {
	repo domain.InvoiceRepository
}

// NewListMyInvoicesHandler creates a new list my invoices handler
func NewListMyInvoicesHandler(repo domain.InvoiceRepository) *ListMyInvoicesHandler {
	return &ListMyInvoicesHandler{repo: repo}
}

// Handle executes the list my invoices query
func (h *ListMyInvoicesHandler) Handle(ctx context.Context, query ListMyInvoicesQuery) ([]domain.Invoice, error) {
	if query.UserID == 0 {
		return nil, domain.ErrInvalidInput
	}
	limit, offset := page(query.Limit, query.Offset)

	invoices, err := h.repo.FindByUserID(ctx, query.UserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}
