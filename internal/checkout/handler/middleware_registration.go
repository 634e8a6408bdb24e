package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/course-checkout/pkg/metrics"
)

// MiddlewareConfig holds middleware configuration
type MiddlewareConfig struct {
	EnableLogging bool
	EnableTracing bool
	Tokens        TokenValidator
	Metrics       *metrics.Checkout
	RateLimiter   *RateLimiter
}

// DefaultMiddlewareConfig returns default middleware configuration
func DefaultMiddlewareConfig(tokens TokenValidator, m *metrics.Checkout, limiter *RateLimiter) MiddlewareConfig {
	return MiddlewareConfig{
		EnableLogging: true,
		EnableTracing: true,
		Tokens:        tokens,
		Metrics:       m,
		RateLimiter:   limiter,
	}
}

// RegisterMiddlewares registers all middlewares to the router
func RegisterMiddlewares(router *mux.Router, config MiddlewareConfig) {
	// Tracing first so the log lines carry the trace id
	if config.EnableTracing {
		router.Use(TracingMiddleware)
	}

	if config.EnableLogging {
		router.Use(LoggingMiddleware)
	}

	if config.Metrics != nil {
		router.Use(func(next http.Handler) http.Handler {
			return MetricsMiddleware(config.Metrics)(next)
		})
	}
}

// GetAuthMiddleware returns the auth middleware
func (config MiddlewareConfig) GetAuthMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return AuthMiddleware(config.Tokens)
}

// GetAdminMiddleware returns the admin middleware
func (config MiddlewareConfig) GetAdminMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return AdminMiddleware(config.Tokens)
}
