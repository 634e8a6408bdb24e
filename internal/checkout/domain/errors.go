package domain

import "errors"

// Kind classifies an error for propagation to callers
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindForbidden  Kind = "FORBIDDEN"
	KindUpstream   Kind = "UPSTREAM_FAILURE"
	KindInternal   Kind = "INTERNAL"
)

// Error is a classified checkout error. Message is safe to show to end users.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrInvalidInput        = &Error{Kind: KindValidation, Code: "INVALID_INPUT", Message: "invalid input"}
	ErrCourseNotFound      = &Error{Kind: KindNotFound, Code: "COURSE_NOT_FOUND", Message: "course not found"}
	ErrPaymentNotFound     = &Error{Kind: KindNotFound, Code: "PAYMENT_NOT_FOUND", Message: "payment not found"}
	ErrInvoiceNotFound     = &Error{Kind: KindNotFound, Code: "INVOICE_NOT_FOUND", Message: "invoice not found"}
	ErrUserNotFound        = &Error{Kind: KindNotFound, Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrAlreadyEnrolled     = &Error{Kind: KindConflict, Code: "ALREADY_ENROLLED", Message: "already enrolled in this course"}
	ErrInvalidSignature    = &Error{Kind: KindConflict, Code: "INVALID_SIGNATURE", Message: "invalid signature"}
	ErrPaymentExpired      = &Error{Kind: KindConflict, Code: "PAYMENT_EXPIRED", Message: "checkout expired, please contact support"}
	ErrForbidden           = &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: "not allowed"}
	ErrOrderCreationFailed = &Error{Kind: KindUpstream, Code: "ORDER_CREATION_FAILED", Message: "unable to start checkout, please try again"}
)

// KindOf returns the kind of the first classified error in err's chain.
// Anything unclassified is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first classified error in err's chain
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}

// PublicMessage returns a message that can be shown to the caller
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
