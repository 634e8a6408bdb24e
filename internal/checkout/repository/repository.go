package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/course-checkout/internal/checkout/domain"
)

// GormPaymentRepository implements domain.PaymentRepository on GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GORM payment repository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Migrate creates the checkout tables and seeds the invoice counter
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("failed to migrate checkout tables: %w", err)
	}

	seq := domain.InvoiceSequence{Name: domain.InvoiceSequenceName}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return fmt.Errorf("failed to seed invoice sequence: %w", err)
	}
	return nil
}

// FindEnrollment looks up the enrollment for a user and course
func (r *GormPaymentRepository) FindEnrollment(ctx context.Context, userID, courseID uint) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find enrollment: %w", err)
	}
	return &enrollment, nil
}

// CreateCheckout inserts the enrollment and the pending payment linked to it.
// Both rows commit together or not at all.
func (r *GormPaymentRepository) CreateCheckout(ctx context.Context, enrollment *domain.Enrollment, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(enrollment).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyEnrolled
			}
			return fmt.Errorf("failed to create enrollment: %w", err)
		}

		payment.EnrollmentID = &enrollment.ID
		payment.Status = domain.StatusPending
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		return nil
	})
}

// FindByID retrieves a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uint) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).Preload("Course").First(&payment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return &payment, nil
}

// FindByOrderID retrieves a payment by the processor order id
func (r *GormPaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).Where("processor_order_id = ?", orderID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return &payment, nil
}

// FindByUserID lists a user's payments, newest first
func (r *GormPaymentRepository) FindByUserID(ctx context.Context, userID uint, limit, offset int) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Limit(limit).Offset(offset).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find user payments: %w", err)
	}
	return payments, nil
}

// FindAll lists payments matching filter together with the total match count
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Payment{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	var payments []domain.Payment
	err := query.
		Preload("Course").
		Limit(filter.Limit).Offset(filter.Offset).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, total, nil
}

// ConfirmPayment is the only path from pending to completed. The status flip
// is a conditional update, so concurrent confirmations of the same order
// serialize on the payment row and only the first one issues an invoice.
func (r *GormPaymentRepository) ConfirmPayment(ctx context.Context, req domain.ConfirmRequest, now time.Time) (*domain.ConfirmResult, error) {
	var result domain.ConfirmResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment domain.Payment
		if err := tx.Where("processor_order_id = ?", req.ProcessorOrderID).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPaymentNotFound
			}
			return fmt.Errorf("failed to load payment: %w", err)
		}

		switch payment.Status {
		case domain.StatusCompleted:
			return loadCompleted(tx, &payment, &result)
		case domain.StatusFailed:
			return domain.ErrPaymentExpired
		}

		updates := map[string]interface{}{
			"status":               domain.StatusCompleted,
			"processor_payment_id": req.ProcessorPaymentID,
			"confirmed_by":         req.Source,
			"completed_at":         now,
			"updated_at":           now,
		}
		if req.Signature != "" {
			updates["processor_signature"] = req.Signature
		}

		res := tx.Model(&domain.Payment{}).
			Where("id = ? AND status = ?", payment.ID, domain.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to complete payment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Someone else moved the row between our read and the update
			if err := tx.First(&payment, payment.ID).Error; err != nil {
				return fmt.Errorf("failed to reload payment: %w", err)
			}
			if payment.Status == domain.StatusCompleted {
				return loadCompleted(tx, &payment, &result)
			}
			return domain.ErrPaymentExpired
		}

		seq, err := nextInvoiceSequence(tx)
		if err != nil {
			return err
		}

		invoice := &domain.Invoice{
			InvoiceNumber: domain.FormatInvoiceNumber(now.Year(), seq),
			PaymentID:     payment.ID,
			UserID:        payment.UserID,
			Amount:        payment.Amount,
			Currency:      payment.Currency,
			Status:        domain.InvoicePaid,
			IssuedAt:      now,
		}
		if err := tx.Create(invoice).Error; err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		paymentID := req.ProcessorPaymentID
		payment.Status = domain.StatusCompleted
		payment.ProcessorPaymentID = &paymentID
		if req.Signature != "" {
			signature := req.Signature
			payment.ProcessorSignature = &signature
		}
		payment.ConfirmedBy = req.Source
		payment.CompletedAt = &now
		payment.UpdatedAt = now

		result = domain.ConfirmResult{Payment: &payment, Invoice: invoice, Transitioned: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ExpirePending fails pending payments older than cutoff and deletes their
// provisional enrollments so the user can start a new checkout.
func (r *GormPaymentRepository) ExpirePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Payment, error) {
	var stale []domain.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.StatusPending, cutoff).
		Order("id").
		Limit(limit).
		Find(&stale).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find stale payments: %w", err)
	}

	expired := make([]domain.Payment, 0, len(stale))
	for _, payment := range stale {
		payment := payment
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			now := time.Now()
			res := tx.Model(&domain.Payment{}).
				Where("id = ? AND status = ?", payment.ID, domain.StatusPending).
				Updates(map[string]interface{}{
					"status":        domain.StatusFailed,
					"failed_at":     now,
					"enrollment_id": nil,
					"updated_at":    now,
				})
			if res.Error != nil {
				return fmt.Errorf("failed to expire payment %d: %w", payment.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				return nil
			}

			if payment.EnrollmentID != nil {
				if err := tx.Delete(&domain.Enrollment{}, *payment.EnrollmentID).Error; err != nil {
					return fmt.Errorf("failed to release enrollment %d: %w", *payment.EnrollmentID, err)
				}
			}

			payment.Status = domain.StatusFailed
			payment.FailedAt = &now
			payment.EnrollmentID = nil
			expired = append(expired, payment)
			return nil
		})
		if err != nil {
			return expired, err
		}
	}
	return expired, nil
}

// IsPaidAndEnrolled reports whether the user holds an enrollment backed by a completed payment
func (r *GormPaymentRepository) IsPaidAndEnrolled(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Enrollment{}).
		Joins("JOIN payments ON payments.enrollment_id = enrollments.id").
		Where("enrollments.user_id = ? AND enrollments.course_id = ? AND payments.status = ?",
			userID, courseID, domain.StatusCompleted).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check course access: %w", err)
	}
	return count > 0, nil
}

// FindPaidCourses lists the courses a user has paid for
func (r *GormPaymentRepository) FindPaidCourses(ctx context.Context, userID uint) ([]domain.Course, error) {
	var courses []domain.Course
	err := r.db.WithContext(ctx).
		Model(&domain.Course{}).
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Joins("JOIN payments ON payments.enrollment_id = enrollments.id").
		Where("enrollments.user_id = ? AND payments.status = ?", userID, domain.StatusCompleted).
		Order("enrollments.created_at DESC").
		Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find paid courses: %w", err)
	}
	return courses, nil
}

func loadCompleted(tx *gorm.DB, payment *domain.Payment, result *domain.ConfirmResult) error {
	var invoice domain.Invoice
	if err := tx.Where("payment_id = ?", payment.ID).First(&invoice).Error; err != nil {
		return fmt.Errorf("completed payment %d has no invoice: %w", payment.ID, err)
	}
	*result = domain.ConfirmResult{Payment: payment, Invoice: &invoice, Transitioned: false}
	return nil
}

// nextInvoiceSequence increments the counter row. The update takes a row
// lock that is held until the surrounding transaction ends.
func nextInvoiceSequence(tx *gorm.DB) (int64, error) {
	res := tx.Model(&domain.InvoiceSequence{}).
		Where("name = ?", domain.InvoiceSequenceName).
		Update("last_value", gorm.Expr("last_value + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to allocate invoice number: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		seq := domain.InvoiceSequence{Name: domain.InvoiceSequenceName, LastValue: 1}
		if err := tx.Create(&seq).Error; err != nil {
			return 0, fmt.Errorf("failed to seed invoice sequence: %w", err)
		}
		return seq.LastValue, nil
	}

	var seq domain.InvoiceSequence
	if err := tx.Where("name = ?", domain.InvoiceSequenceName).First(&seq).Error; err != nil {
		return 0, fmt.Errorf("failed to read invoice sequence: %w", err)
	}
	return seq.LastValue, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
