package command

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/internal/checkout/processor"
	"github.com/tair/course-checkout/internal/checkout/repository"
	"github.com/tair/course-checkout/internal/checkout/testutil"
	"github.com/tair/course-checkout/pkg/metrics"
)

func newCreateOrder(t *testing.T, proc *fakeProcessor) (*CreateOrderHandler, *fixture) {
	t.Helper()
	f := newFixture(t)
	h := NewCreateOrderHandler(f.payments, repository.NewGormCatalogRepository(f.db), proc, metrics.NewCheckout(nil), "INR", "rzp_test_key")
	return h, f
}

func echoOrder(id string) *fakeProcessor {
	return &fakeProcessor{createOrder: func(ctx context.Context, req domain.OrderRequest) (*domain.ProcessorOrder, error) {
		return &domain.ProcessorOrder{ID: id, Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"}, nil
	}}
}

func TestCreateOrder(t *testing.T) {
	var sent domain.OrderRequest
	proc := &fakeProcessor{createOrder: func(ctx context.Context, req domain.OrderRequest) (*domain.ProcessorOrder, error) {
		sent = req
		return &domain.ProcessorOrder{ID: "order_1", Amount: req.Amount, Currency: req.Currency}, nil
	}}
	h, f := newCreateOrder(t, proc)
	user := testutil.SeedUser(t, f.db, "a@example.com", false)
	course := testutil.SeedCourse(t, f.db, "Go", "499.00")

	result, err := h.Handle(context.Background(), CreateOrderCommand{UserID: user.ID, CourseID: course.ID})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if result.Amount != 49900 || sent.Amount != 49900 {
		t.Errorf("amount = %d (sent %d), want 49900", result.Amount, sent.Amount)
	}
	if result.ProcessorOrderID != "order_1" || result.Currency != "INR" || result.KeyID != "rzp_test_key" {
		t.Errorf("result = %+v", result)
	}
	if len(sent.Receipt) == 0 || len(sent.Receipt) > processor.MaxReceiptLength {
		t.Errorf("receipt %q has length %d", sent.Receipt, len(sent.Receipt))
	}

	payment := testutil.ReloadPayment(t, f.db, result.LocalPaymentID)
	if payment.Status != domain.StatusPending || payment.Amount != 49900 || payment.EnrollmentID == nil {
		t.Errorf("payment = %+v", payment)
	}
}

func TestCreateOrderAlreadyEnrolled(t *testing.T) {
	proc := echoOrder("order_1")
	h, f := newCreateOrder(t, proc)
	user := testutil.SeedUser(t, f.db, "a@example.com", false)
	course := testutil.SeedCourse(t, f.db, "Go", "499.00")
	cmd := CreateOrderCommand{UserID: user.ID, CourseID: course.ID}

	if _, err := h.Handle(context.Background(), cmd); err != nil {
		t.Fatalf("first Handle() error = %v", err)
	}
	_, err := h.Handle(context.Background(), cmd)
	if !errors.Is(err, domain.ErrAlreadyEnrolled) {
		t.Fatalf("second Handle() error = %v, want ErrAlreadyEnrolled", err)
	}
	if domain.CodeOf(err) != "ALREADY_ENROLLED" {
		t.Errorf("CodeOf() = %q", domain.CodeOf(err))
	}
	if proc.calls != 1 {
		t.Errorf("processor calls = %d, want 1", proc.calls)
	}

	var payments, enrollments int64
	f.db.Model(&domain.Payment{}).Count(&payments)
	f.db.Model(&domain.Enrollment{}).Count(&enrollments)
	if payments != 1 || enrollments != 1 {
		t.Errorf("payments = %d, enrollments = %d; want 1, 1", payments, enrollments)
	}
}

func TestCreateOrderUpstreamFailure(t *testing.T) {
	proc := &fakeProcessor{createOrder: func(ctx context.Context, req domain.OrderRequest) (*domain.ProcessorOrder, error) {
		return nil, &processor.UpstreamError{StatusCode: 502, Code: "SERVER_ERROR", Description: "gateway down"}
	}}
	h, f := newCreateOrder(t, proc)
	logs := captureLogs(t)
	user := testutil.SeedUser(t, f.db, "a@example.com", false)
	course := testutil.SeedCourse(t, f.db, "Go", "499.00")

	_, err := h.Handle(context.Background(), CreateOrderCommand{UserID: user.ID, CourseID: course.ID})
	if !errors.Is(err, domain.ErrOrderCreationFailed) {
		t.Fatalf("Handle() error = %v, want ErrOrderCreationFailed", err)
	}
	if domain.KindOf(err) != domain.KindUpstream {
		t.Errorf("KindOf() = %s", domain.KindOf(err))
	}
	if strings.Contains(domain.PublicMessage(err), "gateway down") {
		t.Error("public message leaks upstream detail")
	}
	if !strings.Contains(logs.String(), "gateway down") {
		t.Error("upstream detail was not logged")
	}

	var payments, enrollments int64
	f.db.Model(&domain.Payment{}).Count(&payments)
	f.db.Model(&domain.Enrollment{}).Count(&enrollments)
	if payments != 0 || enrollments != 0 {
		t.Errorf("local state created after upstream failure: payments = %d, enrollments = %d", payments, enrollments)
	}
}

func TestCreateOrderOrphanedRemoteOrder(t *testing.T) {
	h, f := newCreateOrder(t, echoOrder("order_taken"))
	logs := captureLogs(t)
	user := testutil.SeedUser(t, f.db, "a@example.com", false)
	other := testutil.SeedUser(t, f.db, "b@example.com", false)
	course := testutil.SeedCourse(t, f.db, "Go", "499.00")
	testutil.SeedPending(t, f.db, other, course, "order_taken", 49900)

	_, err := h.Handle(context.Background(), CreateOrderCommand{UserID: user.ID, CourseID: course.ID})
	if err == nil {
		t.Fatal("Handle() expected error when the local transaction fails")
	}
	if domain.KindOf(err) != domain.KindInternal {
		t.Errorf("KindOf() = %s, want INTERNAL", domain.KindOf(err))
	}
	if !strings.Contains(logs.String(), "orphaned remote order: order_taken") {
		t.Errorf("missing orphaned order log, got %s", logs.String())
	}
	if enrollment, _ := f.payments.FindEnrollment(context.Background(), user.ID, course.ID); enrollment != nil {
		t.Error("enrollment committed without its payment")
	}
}

func TestCreateOrderValidation(t *testing.T) {
	h, f := newCreateOrder(t, echoOrder("order_1"))
	user := testutil.SeedUser(t, f.db, "a@example.com", false)
	free := testutil.SeedCourse(t, f.db, "Free", "0.00")

	tests := []struct {
		name string
		cmd  CreateOrderCommand
		want error
	}{
		{"missing user", CreateOrderCommand{CourseID: free.ID}, domain.ErrInvalidInput},
		{"missing course", CreateOrderCommand{UserID: user.ID}, domain.ErrInvalidInput},
		{"unknown course", CreateOrderCommand{UserID: user.ID, CourseID: 9999}, domain.ErrCourseNotFound},
		{"unknown user", CreateOrderCommand{UserID: 9999, CourseID: free.ID}, domain.ErrUserNotFound},
		{"free course", CreateOrderCommand{UserID: user.ID, CourseID: free.ID}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(context.Background(), tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Errorf("Handle() error = %v, want %v", err, tt.want)
			}
		})
	}
}
