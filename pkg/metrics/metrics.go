package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Checkout holds the service's Prometheus collectors
type Checkout struct {
	RequestCounter  *prometheus.CounterVec
	RequestLatency  *prometheus.HistogramVec
	OrdersCreated   *prometheus.CounterVec
	Confirmations   *prometheus.CounterVec
	SignatureFailed *prometheus.CounterVec
	WebhookEvents   *prometheus.CounterVec
	ExpiredPayments prometheus.Counter
	OrphanedOrders  prometheus.Counter
}

// NewCheckout creates the collectors and registers them with reg
func NewCheckout(reg prometheus.Registerer) *Checkout {
	m := &Checkout{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_service_requests_total",
				Help: "Total number of requests to checkout service",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "checkout_service_request_duration_seconds",
				Help:    "Duration of checkout service requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		OrdersCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_orders_total",
				Help: "Checkout order attempts by outcome",
			},
			[]string{"outcome"},
		),
		Confirmations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_confirmations_total",
				Help: "Payment confirmations by source and whether state changed",
			},
			[]string{"source", "result"},
		),
		SignatureFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_signature_failures_total",
				Help: "Rejected processor signatures by source",
			},
			[]string{"source"},
		),
		WebhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_webhook_events_total",
				Help: "Processor webhook deliveries by event type and disposition",
			},
			[]string{"event", "disposition"},
		),
		ExpiredPayments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "checkout_expired_payments_total",
				Help: "Pending payments failed by the stale checkout sweeper",
			},
		),
		OrphanedOrders: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "checkout_orphaned_orders_total",
				Help: "Remote orders created without a matching local payment",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.RequestCounter,
			m.RequestLatency,
			m.OrdersCreated,
			m.Confirmations,
			m.SignatureFailed,
			m.WebhookEvents,
			m.ExpiredPayments,
			m.OrphanedOrders,
		)
	}
	return m
}
