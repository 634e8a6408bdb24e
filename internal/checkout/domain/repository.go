package domain

import (
	"context"
	"time"
)

// CatalogRepository gives read access to courses and users
type CatalogRepository interface {
	FindCourse(ctx context.Context, id uint) (*Course, error)
	FindUser(ctx context.Context, id uint) (*User, error)
}

// PaymentFilter narrows admin payment listings
type PaymentFilter struct {
	Status string
	UserID uint
	Limit  int
	Offset int
}

// ConfirmRequest carries the processor's proof of payment
type ConfirmRequest struct {
	ProcessorOrderID   string
	ProcessorPaymentID string
	Signature          string
	Source             string
}

// ConfirmResult describes the outcome of a confirmation attempt.
// Transitioned is false when the payment was already completed.
type ConfirmResult struct {
	Payment      *Payment
	Invoice      *Invoice
	Transitioned bool
}

// PaymentRepository defines the contract for checkout persistence
type PaymentRepository interface {
	// FindEnrollment returns nil, nil when the user has no enrollment for the course
	FindEnrollment(ctx context.Context, userID, courseID uint) (*Enrollment, error)
	// CreateCheckout inserts the enrollment and its pending payment atomically
	CreateCheckout(ctx context.Context, enrollment *Enrollment, payment *Payment) error
	FindByID(ctx context.Context, id uint) (*Payment, error)
	FindByOrderID(ctx context.Context, orderID string) (*Payment, error)
	FindByUserID(ctx context.Context, userID uint, limit, offset int) ([]Payment, error)
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, int64, error)
	// ConfirmPayment flips a pending payment to completed and issues its invoice in one transaction
	ConfirmPayment(ctx context.Context, req ConfirmRequest, now time.Time) (*ConfirmResult, error)
	// ExpirePending fails pending payments created before cutoff and releases their enrollments
	ExpirePending(ctx context.Context, cutoff time.Time, limit int) ([]Payment, error)
	IsPaidAndEnrolled(ctx context.Context, userID, courseID uint) (bool, error)
	FindPaidCourses(ctx context.Context, userID uint) ([]Course, error)
}

// InvoiceRepository defines read access to invoices
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uint) (*Invoice, error)
	FindByPaymentID(ctx context.Context, paymentID uint) (*Invoice, error)
	FindByUserID(ctx context.Context, userID uint, limit, offset int) ([]Invoice, error)
}

// WebhookEventRepository stores processed webhook deliveries
type WebhookEventRepository interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, event *WebhookEvent) error
}

// OrderRequest is what the processor needs to open a remote order
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// ProcessorOrder is the processor-side payment intent
type ProcessorOrder struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}

// PaymentProcessor is the outbound side of the payment gateway
type PaymentProcessor interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*ProcessorOrder, error)
}

// PaymentCompleted is emitted after a confirmation that changed state
type PaymentCompleted struct {
	PaymentID     uint
	OrderID       string
	UserID        uint
	CourseID      uint
	InvoiceID     uint
	InvoiceNumber string
	Amount        int64
	Currency      string
	Source        string
	CompletedAt   time.Time
}

// EventPublisher publishes checkout domain events
type EventPublisher interface {
	PublishPaymentCompleted(ctx context.Context, event PaymentCompleted) error
}

// AccessCache remembers positive access decisions
type AccessCache interface {
	Get(ctx context.Context, userID, courseID uint) (bool, error)
	SetPaid(ctx context.Context, userID, courseID uint) error
}
