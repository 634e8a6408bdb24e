package kafka

import "time"

// PaymentCompletedEvent is published once per payment, after the
// confirmation transaction that moved it to completed has committed.
type PaymentCompletedEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	PaymentID     uint      `json:"payment_id"`
	OrderID       string    `json:"order_id"`
	UserID        uint      `json:"user_id"`
	CourseID      uint      `json:"course_id"`
	InvoiceID     uint      `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Source        string    `json:"source"`
	CompletedAt   time.Time `json:"completed_at"`
	Timestamp     time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypePaymentCompleted = "payment.completed"
)

// Kafka topics
const (
	TopicPaymentCompleted = "payment.completed"
)
