package query

import (
	"context"
	"fmt"

	"github.com/tair/course-checkout/internal/checkout/domain"
)

// ListMyCoursesQuery represents the query to list a user's paid courses
type ListMyCoursesQuery struct {
	UserID uint
}

// ListMyCoursesHandler handles list my courses query
type ListMyCoursesHandler struct {
	repo domain.PaymentRepository
}

// NewListMyCoursesHandler creates a new list my courses handler
func NewListMyCoursesHandler(repo domain.PaymentRepository) *ListMyCoursesHandler {
	return &ListMyCoursesHandler{repo: repo}
}

// Handle executes the list my courses query
func (h *ListMyCoursesHandler) Handle(ctx context.Context, query ListMyCoursesQuery) ([]domain.Course, error) {
	if query.UserID == 0 {
		return nil, domain.ErrInvalidInput
	}

	courses, err := h.repo.FindPaidCourses(ctx, query.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}
