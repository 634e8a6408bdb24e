package query

import (
	"context"
	"fmt"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/pkg/logger"
)

// CheckAccessQuery asks whether a user may open a course
type CheckAccessQuery struct {
	UserID   uint
	CourseID uint
}

// CheckAccessHandler answers isPaidAndEnrolled. Content must be gated on this,
// never on enrollment existence, since enrollments are created before payment.
type CheckAccessHandler struct {
	repo  domain.PaymentRepository
	cache domain.AccessCache
}

// NewCheckAccessHandler creates a new check access handler. cache is optional.
func NewCheckAccessHandler(repo domain.PaymentRepository, cache domain.AccessCache) *CheckAccessHandler {
	return &CheckAccessHandler{repo: repo, cache: cache}
}

// Handle executes the check access query
func (h *CheckAccessHandler) Handle(ctx context.Context, query CheckAccessQuery) (bool, error) {
	if query.UserID == 0 || query.CourseID == 0 {
		return false, domain.ErrInvalidInput
	}

	if h.cache != nil {
		paid, err := h.cache.Get(ctx, query.UserID, query.CourseID)
		if err != nil {
			logger.Warn(ctx).Err(err).Msg("Access cache unavailable")
		} else if paid {
			return true, nil
		}
	}

	paid, err := h.repo.IsPaidAndEnrolled(ctx, query.UserID, query.CourseID)
	if err != nil {
		return false, fmt.Errorf("failed to check access: %w", err)
	}

	// Completed payments never revert, so only positives are cached
	if paid && h.cache != nil {
		if err := h.cache.SetPaid(ctx, query.UserID, query.CourseID); err != nil {
			logger.Warn(ctx).Err(err).Msg("Failed to cache course access")
		}
	}
	return paid, nil
}
