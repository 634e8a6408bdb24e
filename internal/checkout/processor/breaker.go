package processor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/pkg/logger"
)

// ErrCircuitOpen is returned without calling the processor while it is failing
var ErrCircuitOpen = errors.New("processor circuit breaker is open")

// CircuitState represents the state of a circuit breaker
type CircuitState string

const (
	StateClosed   CircuitState = "closed"
	StateOpen     CircuitState = "open"
	StateHalfOpen CircuitState = "half-open"
)

// CircuitBreaker stops order creation after consecutive processor failures
type CircuitBreaker struct {
	next            domain.PaymentProcessor
	maxFailures     int
	openFor         time.Duration
	trialCalls      int
	state           CircuitState
	failures        int
	successes       int
	inFlight        int
	lastStateChange time.Time
	now             func() time.Time
	mu              sync.Mutex
}

// NewCircuitBreaker wraps next. After maxFailures consecutive failures calls
// are rejected for openFor, then a few trial calls decide whether to close again.
func NewCircuitBreaker(next domain.PaymentProcessor, maxFailures int, openFor time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	return &CircuitBreaker{
		next:            next,
		maxFailures:     maxFailures,
		openFor:         openFor,
		trialCalls:      3,
		state:           StateClosed,
		lastStateChange: time.Now(),
		now:             time.Now,
	}
}

// CreateOrder implements domain.PaymentProcessor
func (cb *CircuitBreaker) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.ProcessorOrder, error) {
	allowed, trial := cb.allow(ctx)
	if !allowed {
		return nil, ErrCircuitOpen
	}

	order, err := cb.next.CreateOrder(ctx, req)
	cb.record(ctx, err, trial)
	return order, err
}

// State returns the current state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// allow reports whether a call may proceed and whether it is one of the
// limited half-open trial calls.
func (cb *CircuitBreaker) allow(ctx context.Context) (allowed, trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.lastStateChange) >= cb.openFor {
		cb.transition(ctx, StateHalfOpen)
	}
	switch cb.state {
	case StateOpen:
		return false, false
	case StateHalfOpen:
		if cb.inFlight >= cb.trialCalls {
			return false, false
		}
		cb.inFlight++
		return true, true
	}
	return true, false
}

func (cb *CircuitBreaker) record(ctx context.Context, err error, trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if trial && cb.inFlight > 0 {
		cb.inFlight--
	}

	// A rejected request says nothing about processor health either way
	if isClientError(err) {
		return
	}

	if err != nil {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
			cb.transition(ctx, StateOpen)
		}
		return
	}

	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.trialCalls {
			cb.transition(ctx, StateClosed)
		}
	case StateClosed:
		cb.failures = 0
	}
}

// transition must be called with mu held
func (cb *CircuitBreaker) transition(ctx context.Context, to CircuitState) {
	from := cb.state
	cb.state = to
	cb.lastStateChange = cb.now()
	cb.successes = 0
	cb.inFlight = 0
	if to == StateClosed {
		cb.failures = 0
	}

	var event *zerolog.Event
	if to == StateOpen {
		event = logger.Error(ctx).Int("failures", cb.failures)
	} else {
		event = logger.Info(ctx)
	}
	event.
		Str("circuit", "processor").
		Str("from", string(from)).
		Msgf("Circuit breaker %s", to)
}

// A 4xx from the processor means the request was wrong, not that the
// processor is down.
func isClientError(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream) && upstream.StatusCode >= 400 && upstream.StatusCode < 500
}
