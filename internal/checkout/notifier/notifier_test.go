package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/kafka"
	"github.com/tair/course-checkout/pkg/mail"
)

type stubCatalog struct {
	users   map[uint]*domain.User
	courses map[uint]*domain.Course
}

func (s *stubCatalog) FindCourse(ctx context.Context, id uint) (*domain.Course, error) {
	if c, ok := s.courses[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCourseNotFound
}

func (s *stubCatalog) FindUser(ctx context.Context, id uint) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

type recordingMailer struct {
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

func newCatalog() *stubCatalog {
	return &stubCatalog{
		users:   map[uint]*domain.User{3: {ID: 3, Email: "ada@example.com", Name: "Ada"}},
		courses: map[uint]*domain.Course{11: {ID: 11, Title: "Go in Production"}},
	}
}

func event() kafka.PaymentCompletedEvent {
	return kafka.PaymentCompletedEvent{
		EventID:       "evt-1",
		OrderID:       "order_abc",
		UserID:        3,
		CourseID:      11,
		InvoiceNumber: "INV-2026-00001",
		Amount:        49900,
		Currency:      "INR",
	}
}

func TestHandlePaymentCompletedMailsInvoice(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewInvoiceNotifier(newCatalog(), mailer)

	if err := n.HandlePaymentCompleted(context.Background(), event()); err != nil {
		t.Fatalf("HandlePaymentCompleted() error = %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "ada@example.com" || !strings.Contains(msg.Subject, "INV-2026-00001") {
		t.Errorf("unexpected message %+v", msg)
	}
	for _, want := range []string{"Go in Production", "499.00 INR", "order_abc"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("body %q missing %q", msg.Text, want)
		}
	}
}

func TestHandlePaymentCompletedUnknownCourseStillMails(t *testing.T) {
	mailer := &recordingMailer{}
	ev := event()
	ev.CourseID = 99

	if err := NewInvoiceNotifier(newCatalog(), mailer).HandlePaymentCompleted(context.Background(), ev); err != nil {
		t.Fatalf("HandlePaymentCompleted() error = %v", err)
	}
	if len(mailer.sent) != 1 || !strings.Contains(mailer.sent[0].Text, "course #99") {
		t.Errorf("sent = %+v", mailer.sent)
	}
}

func TestHandlePaymentCompletedErrors(t *testing.T) {
	ev := event()
	ev.UserID = 42
	mailer := &recordingMailer{}
	err := NewInvoiceNotifier(newCatalog(), mailer).HandlePaymentCompleted(context.Background(), ev)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("mail sent for unknown user")
	}

	sendErr := errors.New("sendgrid down")
	failing := &recordingMailer{err: sendErr}
	if err := NewInvoiceNotifier(newCatalog(), failing).HandlePaymentCompleted(context.Background(), event()); !errors.Is(err, sendErr) {
		t.Errorf("error = %v, want send failure", err)
	}
}
