package repository

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/course-checkout/internal/checkout/domain"
)

var tracer = otel.Tracer("checkout-repository")

// TracingPaymentRepository wraps a PaymentRepository with spans
type TracingPaymentRepository struct {
	next domain.PaymentRepository
}

// NewTracingPaymentRepository creates a new repository with tracing
func NewTracingPaymentRepository(next domain.PaymentRepository) *TracingPaymentRepository {
	return &TracingPaymentRepository{next: next}
}

func (r *TracingPaymentRepository) FindEnrollment(ctx context.Context, userID, courseID uint) (*domain.Enrollment, error) {
	ctx, span := tracer.Start(ctx, "repository.FindEnrollment",
		trace.WithAttributes(
			attribute.Int("user.id", int(userID)),
			attribute.Int("course.id", int(courseID)),
		),
	)
	defer span.End()

	enrollment, err := r.next.FindEnrollment(ctx, userID, courseID)
	recordError(span, err)
	span.SetAttributes(attribute.Bool("enrollment.exists", enrollment != nil))
	return enrollment, err
}

func (r *TracingPaymentRepository) CreateCheckout(ctx context.Context, enrollment *domain.Enrollment, payment *domain.Payment) error {
	ctx, span := tracer.Start(ctx, "repository.CreateCheckout",
		trace.WithAttributes(
			attribute.Int("user.id", int(payment.UserID)),
			attribute.Int("course.id", int(payment.CourseID)),
			attribute.String("payment.order_id", payment.ProcessorOrderID),
			attribute.Int64("payment.amount", payment.Amount),
		),
	)
	defer span.End()

	err := r.next.CreateCheckout(ctx, enrollment, payment)
	if err != nil {
		recordError(span, err)
		return err
	}

	span.SetAttributes(
		attribute.Int("payment.id", int(payment.ID)),
		attribute.Int("enrollment.id", int(enrollment.ID)),
	)
	return nil
}

func (r *TracingPaymentRepository) FindByID(ctx context.Context, id uint) (*domain.Payment, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByID",
		trace.WithAttributes(attribute.Int("payment.id", int(id))),
	)
	defer span.End()

	payment, err := r.next.FindByID(ctx, id)
	recordError(span, err)
	return payment, err
}

func (r *TracingPaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByOrderID",
		trace.WithAttributes(attribute.String("payment.order_id", orderID)),
	)
	defer span.End()

	payment, err := r.next.FindByOrderID(ctx, orderID)
	recordError(span, err)
	return payment, err
}

func (r *TracingPaymentRepository) FindByUserID(ctx context.Context, userID uint, limit, offset int) ([]domain.Payment, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByUserID",
		trace.WithAttributes(
			attribute.Int("user.id", int(userID)),
			attribute.Int("query.limit", limit),
			attribute.Int("query.offset", offset),
		),
	)
	defer span.End()

	payments, err := r.next.FindByUserID(ctx, userID, limit, offset)
	recordError(span, err)
	span.SetAttributes(attribute.Int("result.count", len(payments)))
	return payments, err
}

func (r *TracingPaymentRepository) FindAll(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, int64, error) {
	ctx, span := tracer.Start(ctx, "repository.FindAll",
		trace.WithAttributes(
			attribute.String("query.status", filter.Status),
			attribute.Int("query.limit", filter.Limit),
			attribute.Int("query.offset", filter.Offset),
		),
	)
	defer span.End()

	payments, total, err := r.next.FindAll(ctx, filter)
	recordError(span, err)
	span.SetAttributes(attribute.Int64("result.total", total))
	return payments, total, err
}

func (r *TracingPaymentRepository) ConfirmPayment(ctx context.Context, req domain.ConfirmRequest, now time.Time) (*domain.ConfirmResult, error) {
	ctx, span := tracer.Start(ctx, "repository.ConfirmPayment",
		trace.WithAttributes(
			attribute.String("payment.order_id", req.ProcessorOrderID),
			attribute.String("confirm.source", req.Source),
		),
	)
	defer span.End()

	result, err := r.next.ConfirmPayment(ctx, req, now)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("payment.id", int(result.Payment.ID)),
		attribute.Bool("confirm.transitioned", result.Transitioned),
		attribute.String("invoice.number", result.Invoice.InvoiceNumber),
	)
	return result, nil
}

func (r *TracingPaymentRepository) ExpirePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Payment, error) {
	ctx, span := tracer.Start(ctx, "repository.ExpirePending",
		trace.WithAttributes(
			attribute.String("query.cutoff", cutoff.Format(time.RFC3339)),
			attribute.Int("query.limit", limit),
		),
	)
	defer span.End()

	expired, err := r.next.ExpirePending(ctx, cutoff, limit)
	recordError(span, err)
	span.SetAttributes(attribute.Int("result.count", len(expired)))
	return expired, err
}

func (r *TracingPaymentRepository) IsPaidAndEnrolled(ctx context.Context, userID, courseID uint) (bool, error) {
	ctx, span := tracer.Start(ctx, "repository.IsPaidAndEnrolled",
		trace.WithAttributes(
			attribute.Int("user.id", int(userID)),
			attribute.Int("course.id", int(courseID)),
		),
	)
	defer span.End()

	ok, err := r.next.IsPaidAndEnrolled(ctx, userID, courseID)
	recordError(span, err)
	span.SetAttributes(attribute.Bool("access.granted", ok))
	return ok, err
}

func (r *TracingPaymentRepository) FindPaidCourses(ctx context.Context, userID uint) ([]domain.Course, error) {
	ctx, span := tracer.Start(ctx, "repository.FindPaidCourses",
		trace.WithAttributes(attribute.Int("user.id", int(userID))),
	)
	defer span.End()

	courses, err := r.next.FindPaidCourses(ctx, userID)
	recordError(span, err)
	span.SetAttributes(attribute.Int("result.count", len(courses)))
	return courses, err
}

// recordError marks the span failed. Classified not-found and conflict
// outcomes are expected business results and leave the span OK.
func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	switch domain.KindOf(err) {
	case domain.KindNotFound, domain.KindConflict:
		span.SetAttributes(attribute.String("error.code", domain.CodeOf(err)))
	default:
		span.SetStatus(codes.Error, err.Error())
	}
}
