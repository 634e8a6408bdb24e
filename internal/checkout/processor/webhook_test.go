package processor

import "testing"

func TestParseWebhook(t *testing.T) {
	event, err := ParseWebhook([]byte(`{
		"entity": "event",
		"event": "payment.captured",
		"payload": {"payment": {"entity": {"id": "pay_1", "order_id": "order_1", "amount": 49900, "currency": "INR", "status": "captured"}}}
	}`))
	if err != nil {
		t.Fatalf("ParseWebhook() error = %v", err)
	}
	if !event.IsCapture() {
		t.Error("IsCapture() = false for payment.captured")
	}
	entity := event.Payload.Payment.Entity
	if entity.ID != "pay_1" || entity.OrderID != "order_1" || entity.Amount != 49900 {
		t.Errorf("entity = %+v", entity)
	}
}

func TestParseWebhookNonCapture(t *testing.T) {
	for _, name := range []string{EventPaymentFailed, EventOrderPaid, "refund.created"} {
		event, err := ParseWebhook([]byte(`{"event":"` + name + `"}`))
		if err != nil {
			t.Fatalf("ParseWebhook(%s) error = %v", name, err)
		}
		if event.IsCapture() {
			t.Errorf("IsCapture() = true for %s", name)
		}
	}
}

func TestParseWebhookInvalid(t *testing.T) {
	for _, body := range []string{``, `not json`, `{}`, `{"payload":{}}`} {
		if _, err := ParseWebhook([]byte(body)); err == nil {
			t.Errorf("ParseWebhook(%q) expected error", body)
		}
	}
}
