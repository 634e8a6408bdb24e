package domain

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Payment statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Invoice statuses
const (
	InvoicePaid    = "paid"
	InvoicePending = "pending"
)

// Confirmation sources. Used for logging and auditing only.
const (
	SourceVerifier = "verifier"
	SourceWebhook  = "webhook"
)

// Enrollment exists from checkout start. Its existence alone never grants access.
type Enrollment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course,priority:1"`
	CourseID  uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course,priority:2;index"`
	User      *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Course    *Course   `json:"course,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (Enrollment) TableName() string {
	return "enrollments"
}

// Payment represents one checkout attempt against the processor.
// Amount is in the currency's minor unit.
type Payment struct {
	ID                 uint        `json:"id" gorm:"primaryKey"`
	UserID             uint        `json:"user_id" gorm:"not null;index"`
	CourseID           uint        `json:"course_id" gorm:"not null;index"`
	EnrollmentID       *uint       `json:"enrollment_id" gorm:"uniqueIndex"`
	Amount             int64       `json:"amount" gorm:"not null"`
	Currency           string      `json:"currency" gorm:"type:varchar(3);not null"`
	Status             string      `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	ProcessorOrderID   string      `json:"processor_order_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	ProcessorPaymentID *string     `json:"processor_payment_id" gorm:"type:varchar(64)"`
	ProcessorSignature *string     `json:"-" gorm:"type:varchar(128)"`
	Receipt            string      `json:"receipt" gorm:"type:varchar(40)"`
	ConfirmedBy        string      `json:"confirmed_by,omitempty" gorm:"type:varchar(16)"`
	CompletedAt        *time.Time  `json:"completed_at,omitempty"`
	FailedAt           *time.Time  `json:"failed_at,omitempty"`
	User               *User       `json:"-" gorm:"foreignKey:UserID"`
	Course             *Course     `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Enrollment         *Enrollment `json:"-" gorm:"foreignKey:EnrollmentID;constraint:OnDelete:SET NULL"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// TableName specifies the table name
func (Payment) TableName() string {
	return "payments"
}

// IsCompleted reports whether the payment has been confirmed
func (p *Payment) IsCompleted() bool {
	return p.Status == StatusCompleted
}

// Invoice is issued exactly once, when its payment completes
type Invoice struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	InvoiceNumber string    `json:"invoice_number" gorm:"type:varchar(32);not null;uniqueIndex"`
	PaymentID     uint      `json:"payment_id" gorm:"not null;uniqueIndex"`
	UserID        uint      `json:"user_id" gorm:"not null;index"`
	Amount        int64     `json:"amount" gorm:"not null"`
	Currency      string    `json:"currency" gorm:"type:varchar(3);not null"`
	Status        string    `json:"status" gorm:"type:varchar(16);not null"`
	Payment       *Payment  `json:"payment,omitempty" gorm:"foreignKey:PaymentID"`
	IssuedAt      time.Time `json:"issued_at"`
}

// TableName specifies the table name
func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceSequenceName is the counter row used for invoice numbers
const InvoiceSequenceName = "invoice"

// InvoiceSequence is a row-locked counter. Incremented inside the
// confirmation transaction so numbers never skip or repeat.
type InvoiceSequence struct {
	Name      string `gorm:"primaryKey;type:varchar(32)"`
	LastValue int64  `gorm:"not null;default:0"`
}

// TableName specifies the table name
func (InvoiceSequence) TableName() string {
	return "invoice_sequences"
}

// FormatInvoiceNumber renders a sequence value as INV-<year>-<00001>
func FormatInvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("INV-%d-%05d", year, seq)
}

// WebhookEvent records processed processor notifications
type WebhookEvent struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	EventID     *string        `json:"event_id" gorm:"type:varchar(64);uniqueIndex"`
	EventType   string         `json:"event_type" gorm:"type:varchar(64);not null;index"`
	OrderID     string         `json:"order_id" gorm:"type:varchar(64);index"`
	Payload     datatypes.JSON `json:"payload"`
	ProcessedAt time.Time      `json:"processed_at"`
}

// TableName specifies the table name
func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// Models lists every table owned by the service, in migration order
func Models() []interface{} {
	return []interface{}{
		&Category{},
		&Course{},
		&User{},
		&Enrollment{},
		&Payment{},
		&Invoice{},
		&InvoiceSequence{},
		&WebhookEvent{},
	}
}
