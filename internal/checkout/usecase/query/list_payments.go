package query

import (
	"context"
	"fmt"

	"github.com/tair/course-checkout/internal/checkout/domain"
)

// ListPaymentsQuery represents the admin query to list payments
type ListPaymentsQuery struct {
	Status string
	UserID uint
	Limit  int
	Offset int
}

// PaymentPage is one page of payments with the total match count
type PaymentPage struct {
	Payments []domain.Payment `json:"payments"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ListPaymentsHandler handles list payments query
type ListPaymentsHandler struct {
	repo domain.PaymentRepository
}

// NewListPaymentsHandler creates a new list payments handler
func NewListPaymentsHandler(repo domain.PaymentRepository) *ListPaymentsHandler {
	return &ListPaymentsHandler{repo: repo}
}

// Handle executes the list payments query
func (h *ListPaymentsHandler) Handle(ctx context.Context, query ListPaymentsQuery) (*PaymentPage, error) {
	switch query.Status {
	case "", domain.StatusPending, domain.StatusCompleted, domain.StatusFailed:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, query.Status)
	}
	limit, offset := page(query.Limit, query.Offset)

	payments, total, err := h.repo.FindAll(ctx, domain.PaymentFilter{
		Status: query.Status,
		UserID: query.UserID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return &PaymentPage{Payments: payments, Total: total, Limit: limit, Offset: offset}, nil
}
