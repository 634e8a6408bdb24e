package query

import (
	"context"
	"fmt"

	"github.com/tair/course-checkout/internal/checkout/domain"
)

// GetMyPaymentsQuery represents the query to get user's own payments
type GetMyPaymentsQuery struct {
	UserID uint
	Limit  int
	Offset int
}

// GetMyPaymentsHandler handles get my payments query
type GetMyPaymentsHandler struct {
	repo domain.PaymentRepository
}

// NewGetMyPaymentsHandler creates a new get my payments handler
func NewGetMyPaymentsHandler(repo domain.PaymentRepository) *GetMyPaymentsHandler {
	return &GetMyPaymentsHandler{repo: repo}
}

// Handle executes the get my payments query
func (h *GetMyPaymentsHandler) Handle(ctx context.Context, query GetMyPaymentsQuery) ([]domain.Payment, error) {
	if query.UserID == 0 {
		return nil, domain.ErrInvalidInput
	}
	limit, offset := page(query.Limit, query.Offset)

	payments, err := h.repo.FindByUserID(ctx, query.UserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get user payments: %w", err)
	}
	return payments, nil
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
