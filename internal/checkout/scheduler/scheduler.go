package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tair/course-checkout/pkg/logger"
)

// Sweeper expires abandoned checkouts and reports how many it released
type Sweeper interface {
	Handle(ctx context.Context) (int, error)
}

// Scheduler runs the stale checkout sweep on a cron schedule
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	timeout time.Duration
}

// New registers the sweep under schedule. Overlapping runs are skipped.
func New(schedule string, sweeper Sweeper) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s := &Scheduler{cron: c, sweeper: sweeper, timeout: 5 * time.Minute}

	if _, err := c.AddFunc(schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Logger.Info().Int("jobs", len(s.cron.Entries())).Msg("Checkout sweeper started")
}

// Stop waits for a running sweep to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		logger.Logger.Info().Msg("Checkout sweeper stopped")
	case <-ctx.Done():
		logger.Logger.Warn().Msg("Checkout sweeper stop timed out")
	}
}

// RunOnce performs a single sweep
func (s *Scheduler) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	expired, err := s.sweeper.Handle(ctx)
	if err != nil {
		logger.Error(ctx).Err(err).Int("expired", expired).Msg("Stale checkout sweep failed")
		return expired
	}
	logger.Info(ctx).
		Int("expired", expired).
		Dur("duration", time.Since(start)).
		Msg("Stale checkout sweep completed")
	return expired
}
