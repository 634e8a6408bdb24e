package processor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tair/course-checkout/internal/checkout/domain"
)

func TestRazorpayClientCreateOrder(t *testing.T) {
	var got createOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_key" || pass != "rzp_secret" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_abc","entity":"order","amount":49900,"currency":"INR","receipt":"rcpt_c1_u2_3","status":"created"}`))
	}))
	defer server.Close()

	client := NewRazorpayClient(Config{BaseURL: server.URL, KeyID: "rzp_key", KeySecret: "rzp_secret"})
	order, err := client.CreateOrder(context.Background(), domain.OrderRequest{
		Amount:   49900,
		Currency: "INR",
		Receipt:  "rcpt_c1_u2_3",
		Notes:    map[string]string{"course_id": "1"},
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if order.ID != "order_abc" || order.Amount != 49900 || order.Status != "created" {
		t.Errorf("CreateOrder() = %+v", order)
	}
	if got.Amount != 49900 || got.Currency != "INR" || got.Receipt != "rcpt_c1_u2_3" || got.Notes["course_id"] != "1" {
		t.Errorf("request body = %+v", got)
	}
}

func TestRazorpayClientCreateOrderUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The amount must be atleast INR 1.00"}}`))
	}))
	defer server.Close()

	client := NewRazorpayClient(Config{BaseURL: server.URL, KeyID: "k", KeySecret: "s"})
	_, err := client.CreateOrder(context.Background(), domain.OrderRequest{Amount: 10, Currency: "INR"})

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("CreateOrder() error = %v, want *UpstreamError", err)
	}
	if upstream.StatusCode != http.StatusBadRequest || upstream.Code != "BAD_REQUEST_ERROR" {
		t.Errorf("UpstreamError = %+v", upstream)
	}
}

func TestRazorpayClientCreateOrderMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entity":"order"}`))
	}))
	defer server.Close()

	client := NewRazorpayClient(Config{BaseURL: server.URL})
	if _, err := client.CreateOrder(context.Background(), domain.OrderRequest{Amount: 100, Currency: "INR"}); err == nil {
		t.Fatal("CreateOrder() expected error for missing order id")
	}
}
