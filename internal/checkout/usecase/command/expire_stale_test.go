package command

import (
	"context"
	"testing"
	"time"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/internal/checkout/testutil"
)

func TestExpireStaleCheckouts(t *testing.T) {
	f := newFixture(t)
	user := testutil.SeedUser(t, f.db, "a@example.com", false)

	var stale []uint
	for i, title := range []string{"A", "B", "C", "D", "E"} {
		p := testutil.SeedPending(t, f.db, user, testutil.SeedCourse(t, f.db, title, "10.00"), "order_"+title, 1000)
		if i < 3 {
			stale = append(stale, p.ID)
		}
	}
	f.db.Model(&domain.Payment{}).Where("id IN ?", stale).Update("created_at", time.Now().Add(-25*time.Hour))

	h := NewExpireStaleCheckoutsHandler(f.payments, 24*time.Hour, f.metrics)
	h.batch = 2

	n, err := h.Handle(context.Background())
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if n != 3 {
		t.Errorf("expired = %d, want 3", n)
	}

	var pending int64
	f.db.Model(&domain.Payment{}).Where("status = ?", domain.StatusPending).Count(&pending)
	if pending != 2 {
		t.Errorf("pending = %d, want 2", pending)
	}

	// The user can start over for an expired course
	enrollment, err := f.payments.FindEnrollment(context.Background(), user.ID, testutil.ReloadPayment(t, f.db, stale[0]).CourseID)
	if err != nil || enrollment != nil {
		t.Errorf("FindEnrollment() = %v, %v; want nil", enrollment, err)
	}
}

func TestExpireStaleCheckoutsRequiresTTL(t *testing.T) {
	f := newFixture(t)
	h := NewExpireStaleCheckoutsHandler(f.payments, 0, f.metrics)
	if _, err := h.Handle(context.Background()); err == nil {
		t.Fatal("Handle() expected error for zero ttl")
	}
}
