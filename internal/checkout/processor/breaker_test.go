package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tair/course-checkout/internal/checkout/domain"
)

type scriptedProcessor struct {
	errs  []error
	calls int
}

func (p *scriptedProcessor) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.ProcessorOrder, error) {
	var err error
	if p.calls < len(p.errs) {
		err = p.errs[p.calls]
	}
	p.calls++
	if err != nil {
		return nil, err
	}
	return &domain.ProcessorOrder{ID: "order_ok"}, nil
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	down := errors.New("connection refused")
	next := &scriptedProcessor{errs: []error{down, down}}
	cb := NewCircuitBreaker(next, 2, time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return clock }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cb.CreateOrder(ctx, domain.OrderRequest{}); !errors.Is(err, down) {
			t.Fatalf("call %d error = %v", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	if _, err := cb.CreateOrder(ctx, domain.OrderRequest{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("error = %v, want ErrCircuitOpen", err)
	}
	if next.calls != 2 {
		t.Fatalf("processor called %d times while open", next.calls)
	}

	clock = clock.Add(time.Minute)
	for i := 0; i < 3; i++ {
		if _, err := cb.CreateOrder(ctx, domain.OrderRequest{}); err != nil {
			t.Fatalf("trial call %d error = %v", i, err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	down := errors.New("timeout")
	next := &scriptedProcessor{errs: []error{down, down}}
	cb := NewCircuitBreaker(next, 1, time.Second)
	clock := time.Now()
	cb.now = func() time.Time { return clock }
	ctx := context.Background()

	_, _ = cb.CreateOrder(ctx, domain.OrderRequest{})
	clock = clock.Add(2 * time.Second)
	_, _ = cb.CreateOrder(ctx, domain.OrderRequest{})
	if cb.State() != StateOpen {
		t.Errorf("state = %s, want open after failed trial call", cb.State())
	}
}

func TestCircuitBreakerIgnoresClientErrors(t *testing.T) {
	bad := &UpstreamError{StatusCode: 400, Code: "BAD_REQUEST_ERROR"}
	next := &scriptedProcessor{errs: []error{bad, bad, bad}}
	cb := NewCircuitBreaker(next, 2, time.Minute)

	for i := 0; i < 3; i++ {
		_, _ = cb.CreateOrder(context.Background(), domain.OrderRequest{})
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
}

type blockingProcessor struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (p *blockingProcessor) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.ProcessorOrder, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	p.entered <- struct{}{}
	<-p.release
	return &domain.ProcessorOrder{ID: "order_ok"}, nil
}

func TestCircuitBreakerLimitsHalfOpenConcurrency(t *testing.T) {
	next := &blockingProcessor{entered: make(chan struct{}, 8), release: make(chan struct{})}
	cb := NewCircuitBreaker(next, 1, time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return clock }
	cb.state = StateOpen
	cb.lastStateChange = clock.Add(-time.Minute)

	const callers = 5
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, err := cb.CreateOrder(context.Background(), domain.OrderRequest{})
			errs <- err
		}()
	}

	// Three calls reach the processor and block, the rest are turned away
	for i := 0; i < cb.trialCalls; i++ {
		<-next.entered
	}
	for i := 0; i < callers-cb.trialCalls; i++ {
		if err := <-errs; !errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("extra half-open call error = %v, want ErrCircuitOpen", err)
		}
	}

	close(next.release)
	for i := 0; i < cb.trialCalls; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("trial call error = %v", err)
		}
	}
	if next.calls != cb.trialCalls {
		t.Errorf("processor calls = %d, want %d", next.calls, cb.trialCalls)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
}

func TestCircuitBreakerHalfOpenSlotFreedAfterCall(t *testing.T) {
	cb := NewCircuitBreaker(&scriptedProcessor{}, 1, time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return clock }
	cb.state = StateOpen
	cb.lastStateChange = clock.Add(-time.Minute)
	ctx := context.Background()

	for i := 0; i < cb.trialCalls; i++ {
		if ok, trial := cb.allow(ctx); !ok || !trial {
			t.Fatalf("allow() %d = %v, %v; want true, true", i, ok, trial)
		}
	}
	if ok, _ := cb.allow(ctx); ok {
		t.Fatal("allow() admitted a call beyond the half-open limit")
	}

	cb.record(ctx, nil, true)
	if ok, _ := cb.allow(ctx); !ok {
		t.Error("allow() rejected a call after a trial slot was freed")
	}
}

func TestCircuitBreakerHalfOpenClientErrorIsNeutral(t *testing.T) {
	bad := &UpstreamError{StatusCode: 400, Code: "BAD_REQUEST_ERROR"}
	next := &scriptedProcessor{errs: []error{bad, bad, bad, bad}}
	cb := NewCircuitBreaker(next, 1, time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return clock }
	cb.state = StateOpen
	cb.lastStateChange = clock.Add(-time.Minute)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := cb.CreateOrder(ctx, domain.OrderRequest{}); !errors.As(err, new(*UpstreamError)) {
			t.Fatalf("call %d error = %v, want the upstream 400", i, err)
		}
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("state = %s, want half-open after client errors", cb.State())
	}

	for i := 0; i < cb.trialCalls; i++ {
		if _, err := cb.CreateOrder(ctx, domain.OrderRequest{}); err != nil {
			t.Fatalf("trial call %d error = %v", i, err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed after successful trial calls", cb.State())
	}
}
