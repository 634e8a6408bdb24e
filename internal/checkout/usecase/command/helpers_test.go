package command

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/internal/checkout/processor"
	"github.com/tair/course-checkout/internal/checkout/repository"
	"github.com/tair/course-checkout/internal/checkout/testutil"
	"github.com/tair/course-checkout/pkg/logger"
	"github.com/tair/course-checkout/pkg/metrics"
)

const (
	testKeySecret     = "key_secret"
	testWebhookSecret = "webhook_secret"
)

type fakeProcessor struct {
	createOrder func(ctx context.Context, req domain.OrderRequest) (*domain.ProcessorOrder, error)
	calls       int
}

func (f *fakeProcessor) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.ProcessorOrder, error) {
	f.calls++
	return f.createOrder(ctx, req)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.PaymentCompleted
	err    error
}

func (f *fakePublisher) PublishPaymentCompleted(ctx context.Context, event domain.PaymentCompleted) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeCache struct {
	mu   sync.Mutex
	paid map[[2]uint]bool
}

func (f *fakeCache) Get(ctx context.Context, userID, courseID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paid[[2]uint{userID, courseID}], nil
}

func (f *fakeCache) SetPaid(ctx context.Context, userID, courseID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paid == nil {
		f.paid = map[[2]uint]bool{}
	}
	f.paid[[2]uint{userID, courseID}] = true
	return nil
}

type fixture struct {
	db        *gorm.DB
	payments  *repository.GormPaymentRepository
	publisher *fakePublisher
	cache     *fakeCache
	metrics   *metrics.Checkout
	confirm   *ConfirmPaymentHandler
	verify    *VerifyPaymentHandler
	webhook   *HandleWebhookHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:        db,
		payments:  repository.NewGormPaymentRepository(db),
		publisher: &fakePublisher{},
		cache:     &fakeCache{},
		metrics:   metrics.NewCheckout(nil),
	}
	f.confirm = NewConfirmPaymentHandler(f.payments, f.publisher, f.cache, f.metrics)
	f.verify = NewVerifyPaymentHandler(testKeySecret, f.confirm, f.metrics)
	f.webhook = NewHandleWebhookHandler(testWebhookSecret, f.confirm, repository.NewGormWebhookEventRepository(db), f.metrics)
	return f
}

// captureLogs redirects the global logger for the duration of the test
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := logger.Logger
	logger.Logger = zerolog.New(&buf)
	t.Cleanup(func() { logger.Logger = previous })
	return &buf
}

func callbackSignature(orderID, paymentID string) string {
	return processor.Sign(testKeySecret, processor.CallbackPayload(orderID, paymentID))
}

func webhookBody(event, orderID, paymentID string) []byte {
	return []byte(`{"entity":"event","event":"` + event + `","payload":{"payment":{"entity":{"id":"` +
		paymentID + `","order_id":"` + orderID + `","amount":49900,"currency":"INR","status":"captured"}}}}`)
}
