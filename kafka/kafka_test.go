package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"github.com/tair/course-checkout/internal/checkout/domain"
)

func sampleCompleted() domain.PaymentCompleted {
	return domain.PaymentCompleted{
		PaymentID:     7,
		OrderID:       "order_abc",
		UserID:        3,
		CourseID:      11,
		InvoiceID:     5,
		InvoiceNumber: "INV-2026-00005",
		Amount:        49900,
		Currency:      "INR",
		Source:        domain.SourceWebhook,
		CompletedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func newMockProducer(t *testing.T) *mocks.SyncProducer {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	return mocks.NewSyncProducer(t, cfg)
}

func header(msg *sarama.ProducerMessage, key string) string {
	for _, h := range msg.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishPaymentCompleted(t *testing.T) {
	producer := newMockProducer(t)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "payments" {
			return fmt.Errorf("topic = %q", msg.Topic)
		}
		if got := header(msg, "event_type"); got != EventTypePaymentCompleted {
			return fmt.Errorf("event_type header = %q", got)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "payment_7" {
			return fmt.Errorf("key = %q", key)
		}
		raw, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var event PaymentCompletedEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			return err
		}
		if event.EventID == "" || event.EventID != header(msg, "event_id") {
			return fmt.Errorf("event id %q does not match header", event.EventID)
		}
		if event.InvoiceNumber != "INV-2026-00005" || event.Amount != 49900 {
			return fmt.Errorf("unexpected event %+v", event)
		}
		return nil
	})

	publisher := NewPublisherWithProducer(producer, "payments")
	if err := publisher.PublishPaymentCompleted(context.Background(), sampleCompleted()); err != nil {
		t.Fatalf("PublishPaymentCompleted() error = %v", err)
	}
	if err := publisher.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestPublishPaymentCompletedSendFailure(t *testing.T) {
	producer := newMockProducer(t)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewPublisherWithProducer(producer, "")
	err := publisher.PublishPaymentCompleted(context.Background(), sampleCompleted())
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("error = %v, want ErrOutOfBrokers", err)
	}
	if publisher.topic != TopicPaymentCompleted {
		t.Errorf("default topic = %q", publisher.topic)
	}
	_ = publisher.Close()
}

func consumerMessage(t *testing.T, eventType string, event PaymentCompletedEvent) *sarama.ConsumerMessage {
	t.Helper()
	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	msg := &sarama.ConsumerMessage{Topic: TopicPaymentCompleted, Value: raw}
	if eventType != "" {
		msg.Headers = append(msg.Headers,
			&sarama.RecordHeader{Key: []byte("event_type"), Value: []byte(eventType)},
			&sarama.RecordHeader{Key: []byte("event_id"), Value: []byte(event.EventID)},
		)
	}
	return msg
}

func TestHandleMessageDispatches(t *testing.T) {
	c := newConsumer("notifier", []string{TopicPaymentCompleted})
	var got PaymentCompletedEvent
	c.RegisterHandler(EventTypePaymentCompleted, func(ctx context.Context, event PaymentCompletedEvent) error {
		got = event
		return nil
	})

	sent := PaymentCompletedEvent{EventID: "evt-1", EventType: EventTypePaymentCompleted, PaymentID: 7, InvoiceNumber: "INV-2026-00001"}
	if err := c.HandleMessage(context.Background(), consumerMessage(t, EventTypePaymentCompleted, sent)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if got.EventID != "evt-1" || got.PaymentID != 7 {
		t.Errorf("handler received %+v", got)
	}
}

func TestHandleMessageRejects(t *testing.T) {
	handlerErr := errors.New("mail down")
	c := newConsumer("notifier", nil)
	c.RegisterHandler(EventTypePaymentCompleted, func(ctx context.Context, event PaymentCompletedEvent) error {
		return handlerErr
	})

	tests := []struct {
		name string
		msg  *sarama.ConsumerMessage
		want error
	}{
		{"missing event type", consumerMessage(t, "", PaymentCompletedEvent{}), ErrMissingEventType},
		{"unknown event type", consumerMessage(t, "payment.refunded", PaymentCompletedEvent{}), ErrNoHandler},
		{"handler failure", consumerMessage(t, EventTypePaymentCompleted, PaymentCompletedEvent{EventID: "e"}), handlerErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.HandleMessage(context.Background(), tt.msg); !errors.Is(err, tt.want) {
				t.Errorf("HandleMessage() error = %v, want %v", err, tt.want)
			}
		})
	}

	bad := &sarama.ConsumerMessage{
		Value:   []byte("{"),
		Headers: []*sarama.RecordHeader{{Key: []byte("event_type"), Value: []byte(EventTypePaymentCompleted)}},
	}
	if err := c.HandleMessage(context.Background(), bad); err == nil {
		t.Error("HandleMessage() expected error for malformed body")
	}
}
