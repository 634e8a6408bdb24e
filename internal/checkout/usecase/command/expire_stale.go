package command

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/pkg/logger"
	"github.com/tair/course-checkout/pkg/metrics"
)

const defaultExpireBatch = 100

// ExpireStaleCheckoutsHandler fails pending payments that outlived their TTL
// and releases their provisional enrollments.
type ExpireStaleCheckoutsHandler struct {
	repo    domain.PaymentRepository
	ttl     time.Duration
	batch   int
	metrics *metrics.Checkout
	now     func() time.Time
}

// NewExpireStaleCheckoutsHandler creates a new sweeper command
func NewExpireStaleCheckoutsHandler(repo domain.PaymentRepository, ttl time.Duration, m *metrics.Checkout) *ExpireStaleCheckoutsHandler {
	return &ExpireStaleCheckoutsHandler{
		repo:    repo,
		ttl:     ttl,
		batch:   defaultExpireBatch,
		metrics: m,
		now:     time.Now,
	}
}

// Handle expires every stale checkout and returns how many were expired
func (h *ExpireStaleCheckoutsHandler) Handle(ctx context.Context) (int, error) {
	if h.ttl <= 0 {
		return 0, fmt.Errorf("pending ttl must be positive")
	}
	cutoff := h.now().Add(-h.ttl)

	total := 0
	for {
		expired, err := h.repo.ExpirePending(ctx, cutoff, h.batch)
		for _, p := range expired {
			logger.Info(ctx).
				Uint("payment_id", p.ID).
				Str("order_id", p.ProcessorOrderID).
				Uint("user_id", p.UserID).
				Uint("course_id", p.CourseID).
				Msg("Expired stale checkout")
		}
		total += len(expired)
		h.metrics.ExpiredPayments.Add(float64(len(expired)))
		if err != nil {
			return total, fmt.Errorf("failed to expire stale checkouts: %w", err)
		}
		if len(expired) < h.batch {
			return total, nil
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}
