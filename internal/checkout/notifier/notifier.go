package notifier

import (
	"context"
	"fmt"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/internal/checkout/processor"
	"github.com/tair/course-checkout/kafka"
	"github.com/tair/course-checkout/pkg/logger"
	"github.com/tair/course-checkout/pkg/mail"
)

// Mailer delivers a single message
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// InvoiceNotifier mails the buyer their invoice once a payment completes
type InvoiceNotifier struct {
	catalog domain.CatalogRepository
	mailer  Mailer
}

// NewInvoiceNotifier creates a new notifier
func NewInvoiceNotifier(catalog domain.CatalogRepository, mailer Mailer) *InvoiceNotifier {
	return &InvoiceNotifier{catalog: catalog, mailer: mailer}
}

// HandlePaymentCompleted is registered as the consumer's event handler
func (n *InvoiceNotifier) HandlePaymentCompleted(ctx context.Context, event kafka.PaymentCompletedEvent) error {
	user, err := n.catalog.FindUser(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("failed to load buyer %d: %w", event.UserID, err)
	}

	title := fmt.Sprintf("course #%d", event.CourseID)
	if course, err := n.catalog.FindCourse(ctx, event.CourseID); err == nil {
		title = course.Title
	} else {
		logger.Warn(ctx).Err(err).Uint("course_id", event.CourseID).Msg("Course lookup failed, mailing without title")
	}

	msg := mail.Message{
		To:      user.Email,
		ToName:  user.Name,
		Subject: fmt.Sprintf("Your invoice %s", event.InvoiceNumber),
		Text: fmt.Sprintf(
			"Thanks for enrolling in %s.\n\nInvoice: %s\nAmount: %s %s\nPayment reference: %s\n",
			title,
			event.InvoiceNumber,
			processor.FormatMinorUnits(event.Amount, event.Currency),
			event.Currency,
			event.OrderID,
		),
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to mail invoice %s: %w", event.InvoiceNumber, err)
	}

	logger.Info(ctx).
		Str("invoice_number", event.InvoiceNumber).
		Uint("user_id", event.UserID).
		Msg("Invoice mailed")
	return nil
}
