package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tair/course-checkout/pkg/database"
)

// ProcessorConfig holds payment processor credentials
type ProcessorConfig struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
}

// Config holds the checkout service configuration
type Config struct {
	HTTPPort       string
	Environment    string
	LogLevel       string
	ServiceName    string
	JaegerEndpoint string

	Database  database.Config
	Processor ProcessorConfig

	JWTSecret string
	JWTIssuer string

	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string

	SendGridAPIKey string
	MailFrom       string
	MailFromName   string

	PendingTTL      time.Duration
	SweepSchedule   string
	OrderRateLimit  int
	RateLimitWindow time.Duration
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8084"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "checkout-service"),
		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "checkoutdb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Processor: ProcessorConfig{
			BaseURL:       getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
			KeyID:         os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
			WebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
			Currency:      strings.ToUpper(getEnv("CHECKOUT_CURRENCY", "INR")),
		},
		JWTSecret:      os.Getenv("AUTH_JWT_SECRET"),
		JWTIssuer:      os.Getenv("AUTH_JWT_ISSUER"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:   splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:     getEnv("KAFKA_PAYMENT_TOPIC", "payment.completed"),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       os.Getenv("MAIL_FROM"),
		MailFromName:   getEnv("MAIL_FROM_NAME", "Course Marketplace"),
		SweepSchedule:  getEnv("CHECKOUT_SWEEP_SCHEDULE", "@every 15m"),
	}

	var err error
	if cfg.Database.MaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.Processor.Timeout, err = getDuration("RAZORPAY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.PendingTTL, err = getDuration("CHECKOUT_PENDING_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OrderRateLimit, err = getInt("CHECKOUT_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	cfg.RateLimitWindow = time.Minute

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run safely with
func (c *Config) Validate() error {
	var errs []error
	if c.Processor.KeyID == "" {
		errs = append(errs, errors.New("RAZORPAY_KEY_ID is required"))
	}
	if c.Processor.KeySecret == "" {
		errs = append(errs, errors.New("RAZORPAY_KEY_SECRET is required"))
	}
	if c.Processor.WebhookSecret == "" {
		errs = append(errs, errors.New("RAZORPAY_WEBHOOK_SECRET is required"))
	}
	if c.Processor.KeySecret != "" && c.Processor.KeySecret == c.Processor.WebhookSecret {
		errs = append(errs, errors.New("RAZORPAY_WEBHOOK_SECRET must differ from RAZORPAY_KEY_SECRET"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	}
	if c.PendingTTL <= 0 {
		errs = append(errs, errors.New("CHECKOUT_PENDING_TTL must be positive"))
	}
	if c.OrderRateLimit < 0 {
		errs = append(errs, errors.New("CHECKOUT_RATE_LIMIT must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
