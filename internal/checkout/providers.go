package checkout

import (
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tair/course-checkout/internal/checkout/cache"
	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/internal/checkout/handler"
	"github.com/tair/course-checkout/internal/checkout/processor"
	"github.com/tair/course-checkout/internal/checkout/repository"
	"github.com/tair/course-checkout/internal/checkout/usecase/command"
	"github.com/tair/course-checkout/internal/checkout/usecase/query"
	"github.com/tair/course-checkout/pkg/config"
	"github.com/tair/course-checkout/pkg/metrics"
)

// Redis is the client surface shared by the access cache and the rate limiter
type Redis = redis.Cmdable

// Service groups what cmd/checkout runs
type Service struct {
	Handler *handler.CheckoutHandler
	Sweeper *command.ExpireStaleCheckoutsHandler
}

// ProvidePaymentRepository provides the traced payment repository
func ProvidePaymentRepository(db *gorm.DB) domain.PaymentRepository {
	return repository.NewTracingPaymentRepository(repository.NewGormPaymentRepository(db))
}

// ProvideCatalogRepository provides read access to courses and users
func ProvideCatalogRepository(db *gorm.DB) domain.CatalogRepository {
	return repository.NewGormCatalogRepository(db)
}

func ProvideInvoiceRepository(db *gorm.DB) domain.InvoiceRepository {
	return repository.NewGormInvoiceRepository(db)
}

func ProvideWebhookEventRepository(db *gorm.DB) domain.WebhookEventRepository {
	return repository.NewGormWebhookEventRepository(db)
}

// ProvidePaymentProcessor provides the Razorpay client behind a circuit breaker
func ProvidePaymentProcessor(cfg *config.Config) domain.PaymentProcessor {
	client := processor.NewRazorpayClient(processor.Config{
		BaseURL:   cfg.Processor.BaseURL,
		KeyID:     cfg.Processor.KeyID,
		KeySecret: cfg.Processor.KeySecret,
		Timeout:   cfg.Processor.Timeout,
	})
	return processor.NewCircuitBreaker(client, 5, 30*time.Second)
}

// ProvideAccessCache returns nil when Redis is not configured
func ProvideAccessCache(rdb Redis) domain.AccessCache {
	if rdb == nil {
		return nil
	}
	return cache.NewRedisAccessCache(rdb, cache.DefaultAccessTTL)
}

// ProvideRateLimiter limits order creation per user
func ProvideRateLimiter(rdb Redis, cfg *config.Config) *handler.RateLimiter {
	if rdb == nil {
		return nil
	}
	return handler.NewRateLimiter(rdb, "ratelimit:orders", cfg.OrderRateLimit, cfg.RateLimitWindow)
}

// Command Handlers Providers
func ProvideConfirmPaymentHandler(
	repo domain.PaymentRepository,
	publisher domain.EventPublisher,
	access domain.AccessCache,
	m *metrics.Checkout,
) *command.ConfirmPaymentHandler {
	return command.NewConfirmPaymentHandler(repo, publisher, access, m)
}

func ProvideCreateOrderHandler(
	payments domain.PaymentRepository,
	catalog domain.CatalogRepository,
	proc domain.PaymentProcessor,
	m *metrics.Checkout,
	cfg *config.Config,
) *command.CreateOrderHandler {
	return command.NewCreateOrderHandler(payments, catalog, proc, m, cfg.Processor.Currency, cfg.Processor.KeyID)
}

func ProvideVerifyPaymentHandler(cfg *config.Config, confirm *command.ConfirmPaymentHandler, m *metrics.Checkout) *command.VerifyPaymentHandler {
	return command.NewVerifyPaymentHandler(cfg.Processor.KeySecret, confirm, m)
}

func ProvideHandleWebhookHandler(
	cfg *config.Config,
	confirm *command.ConfirmPaymentHandler,
	events domain.WebhookEventRepository,
	m *metrics.Checkout,
) *command.HandleWebhookHandler {
	return command.NewHandleWebhookHandler(cfg.Processor.WebhookSecret, confirm, events, m)
}

func ProvideExpireStaleCheckoutsHandler(repo domain.PaymentRepository, cfg *config.Config, m *metrics.Checkout) *command.ExpireStaleCheckoutsHandler {
	return command.NewExpireStaleCheckoutsHandler(repo, cfg.PendingTTL, m)
}

// Query Handlers Providers
func ProvideCheckAccessHandler(repo domain.PaymentRepository, access domain.AccessCache) *query.CheckAccessHandler {
	return query.NewCheckAccessHandler(repo, access)
}

func ProvideListMyCoursesHandler(repo domain.PaymentRepository) *query.ListMyCoursesHandler {
	return query.NewListMyCoursesHandler(repo)
}

func ProvideGetMyPaymentsHandler(repo domain.PaymentRepository) *query.GetMyPaymentsHandler {
	return query.NewGetMyPaymentsHandler(repo)
}

func ProvideListPaymentsHandler(repo domain.PaymentRepository) *query.ListPaymentsHandler {
	return query.NewListPaymentsHandler(repo)
}

func ProvideGetPaymentHandler(payments domain.PaymentRepository, invoices domain.InvoiceRepository) *query.GetPaymentHandler {
	return query.NewGetPaymentHandler(payments, invoices)
}

func ProvideGetInvoiceHandler(repo domain.InvoiceRepository) *query.GetInvoiceHandler {
	return query.NewGetInvoiceHandler(repo)
}

func ProvideListMyInvoicesHandler(repo domain.InvoiceRepository) *query.ListMyInvoicesHandler {
	return query.NewListMyInvoicesHandler(repo)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvidePaymentRepository,
	ProvideCatalogRepository,
	ProvideInvoiceRepository,
	ProvideWebhookEventRepository,
)

var InfrastructureSet = wire.NewSet(
	ProvidePaymentProcessor,
	ProvideAccessCache,
	ProvideRateLimiter,
	handler.DefaultMiddlewareConfig,
)

var CommandHandlerSet = wire.NewSet(
	ProvideConfirmPaymentHandler,
	ProvideCreateOrderHandler,
	ProvideVerifyPaymentHandler,
	ProvideHandleWebhookHandler,
	ProvideExpireStaleCheckoutsHandler,
)

var QueryHandlerSet = wire.NewSet(
	ProvideCheckAccessHandler,
	ProvideListMyCoursesHandler,
	ProvideGetMyPaymentsHandler,
	ProvideListPaymentsHandler,
	ProvideGetPaymentHandler,
	ProvideGetInvoiceHandler,
	ProvideListMyInvoicesHandler,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	InfrastructureSet,
	CommandHandlerSet,
	QueryHandlerSet,
)
