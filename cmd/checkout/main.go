package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"gorm.io/gorm"

	"github.com/tair/course-checkout/docs"
	"github.com/tair/course-checkout/internal/checkout"
	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/internal/checkout/handler"
	"github.com/tair/course-checkout/internal/checkout/notifier"
	"github.com/tair/course-checkout/internal/checkout/repository"
	"github.com/tair/course-checkout/internal/checkout/scheduler"
	"github.com/tair/course-checkout/kafka"
	"github.com/tair/course-checkout/pkg/auth"
	"github.com/tair/course-checkout/pkg/config"
	"github.com/tair/course-checkout/pkg/database"
	"github.com/tair/course-checkout/pkg/logger"
	"github.com/tair/course-checkout/pkg/mail"
	"github.com/tair/course-checkout/pkg/metrics"
	"github.com/tair/course-checkout/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet
		logger.Init(logger.Options{Service: "checkout-service", Environment: "production", Level: "info"})
		logger.Logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger.Init(logger.Options{
		Service:     cfg.ServiceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Msg("Starting checkout service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize tracer
	tp, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    cfg.ServiceName,
		Environment:    cfg.Environment,
		JaegerEndpoint: cfg.JaegerEndpoint,
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Connect to database
	sqlDB, err := database.NewPostgresConnection(ctx, cfg.Database)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer sqlDB.Close()

	db, err := database.NewGormConnection(sqlDB)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize GORM")
	}
	if err := repository.Migrate(db); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Logger.Info().Msg("Database initialized successfully")

	// Redis backs the access cache and the order rate limiter
	var rdb checkout.Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, access cache and rate limiting disabled")
		redisClient.Close()
	} else {
		rdb = redisClient
		defer redisClient.Close()
	}

	// Kafka carries payment completed events to the invoice mailer
	var publisher domain.EventPublisher
	kafkaPublisher, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Kafka unavailable, payment events will not be published")
	} else {
		publisher = kafkaPublisher
		defer kafkaPublisher.Close()
	}

	m := metrics.NewCheckout(prometheus.DefaultRegisterer)
	tokens := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)

	svc, err := checkout.InitializeService(db, cfg, rdb, publisher, m, tokens)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize checkout service")
	}

	startNotifier(ctx, cfg, db)

	sweeper, err := scheduler.New(cfg.SweepSchedule, svc.Sweeper)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to schedule checkout sweeper")
	}
	sweeper.Start()

	server := newHTTPServer(svc.Handler, sqlDB, cfg.HTTPPort)
	go func() {
		logger.Logger.Info().
			Str("port", cfg.HTTPPort).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	<-ctx.Done()
	logger.Logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	sweeper.Stop(shutdownCtx)
}

// startNotifier mails invoices for payment completed events. It is skipped
// when mail is not configured.
func startNotifier(ctx context.Context, cfg *config.Config, db *gorm.DB) {
	if cfg.SendGridAPIKey == "" || cfg.MailFrom == "" {
		logger.Logger.Warn().Msg("SendGrid not configured, invoice mail disabled")
		return
	}

	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.ServiceName+"-invoice-mailer", []string{cfg.KafkaTopic})
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Kafka consumer unavailable, invoice mail disabled")
		return
	}

	mailer := mail.NewSendGridClient(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)
	invoices := notifier.NewInvoiceNotifier(repository.NewGormCatalogRepository(db), mailer)
	consumer.RegisterHandler(kafka.EventTypePaymentCompleted, invoices.HandlePaymentCompleted)

	if err := consumer.Start(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to start invoice mailer")
		consumer.Close()
		return
	}
	go func() {
		<-ctx.Done()
		if err := consumer.Close(); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to close Kafka consumer")
		}
	}()
}

func newHTTPServer(checkoutHandler *handler.CheckoutHandler, db handler.Pinger, port string) *http.Server {
	router := mux.NewRouter()

	handler.RegisterMiddlewares(router, checkoutHandler.GetMiddlewareConfig())
	checkoutHandler.RegisterRoutes(router)
	checkoutHandler.RegisterHealthCheck(router, db)

	docs.SwaggerInfo.Host = "localhost:" + port
	handler.RegisterSwaggerDocs(router, httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return &http.Server{
		Addr:              ":" + port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
