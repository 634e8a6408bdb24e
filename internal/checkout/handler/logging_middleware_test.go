package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tair/course-checkout/pkg/logger"
)

func TestLoggingMiddlewarePropagatesRequestID(t *testing.T) {
	var seen string
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	req.Header.Set(requestIDHeader, "req-abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if seen != "req-abc" {
		t.Errorf("request id in handler ctx = %q, want req-abc", seen)
	}
	if got := rr.Header().Get(requestIDHeader); got != "req-abc" {
		t.Errorf("%s = %q, want req-abc", requestIDHeader, got)
	}
	if rr.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusAccepted)
	}
}

func TestLoggingMiddlewareGeneratesRequestID(t *testing.T) {
	var seen string
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFrom(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if seen == "" {
		t.Fatal("no request id in handler ctx")
	}
	if got := rr.Header().Get(requestIDHeader); got != seen {
		t.Errorf("%s = %q, want %q", requestIDHeader, got, seen)
	}
}
