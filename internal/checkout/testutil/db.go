// Package testutil provides an in-memory checkout database for tests.
package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/internal/checkout/repository"
)

// NewDB opens a migrated in-memory SQLite database. The pool is limited to
// one connection so concurrent transactions serialize.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := repository.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// SeedUser inserts a user
func SeedUser(t testing.TB, db *gorm.DB, email string, admin bool) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, Name: email, IsAdmin: admin}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// SeedCourse inserts a course priced in major units
func SeedCourse(t testing.TB, db *gorm.DB, title, price string) *domain.Course {
	t.Helper()
	course := &domain.Course{Title: title, Price: decimal.RequireFromString(price)}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("failed to seed course: %v", err)
	}
	return course
}

// SeedPending inserts an enrollment and its pending payment
func SeedPending(t testing.TB, db *gorm.DB, user *domain.User, course *domain.Course, orderID string, amount int64) *domain.Payment {
	t.Helper()
	enrollment := &domain.Enrollment{UserID: user.ID, CourseID: course.ID}
	if err := db.Create(enrollment).Error; err != nil {
		t.Fatalf("failed to seed enrollment: %v", err)
	}
	payment := &domain.Payment{
		UserID:           user.ID,
		CourseID:         course.ID,
		EnrollmentID:     &enrollment.ID,
		Amount:           amount,
		Currency:         "INR",
		Status:           domain.StatusPending,
		ProcessorOrderID: orderID,
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("failed to seed payment: %v", err)
	}
	return payment
}

// CountInvoices returns the number of invoices for a payment
func CountInvoices(t testing.TB, db *gorm.DB, paymentID uint) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.Invoice{}).Where("payment_id = ?", paymentID).Count(&n).Error; err != nil {
		t.Fatalf("failed to count invoices: %v", err)
	}
	return n
}

// ReloadPayment reads a payment back from the database
func ReloadPayment(t testing.TB, db *gorm.DB, id uint) *domain.Payment {
	t.Helper()
	var payment domain.Payment
	if err := db.First(&payment, id).Error; err != nil {
		t.Fatalf("failed to reload payment %d: %v", id, err)
	}
	return &payment
}
