package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tair/course-checkout/pkg/metrics"
)

// MetricsMiddleware records request counts and latency per route
func MetricsMiddleware(m *metrics.Checkout) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := newStatusRecorder(w)

			next.ServeHTTP(ww, r)

			endpoint := routeTemplate(r)
			m.RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(ww.statusCode)).Inc()
			m.RequestLatency.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		})
	}
}
