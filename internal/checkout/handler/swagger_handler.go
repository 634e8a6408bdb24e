package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// CreateOrder godoc
// @Summary Start a checkout
// @Description Create a processor order and a pending payment for a course (Authenticated users)
// @Tags Checkout
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{course_id=int} true "Course to buy"
// @Success 201 {object} object{success=bool,message=string,data=object{processor_order_id=string,amount=int,currency=string,local_payment_id=int,receipt=string,key_id=string}}
// @Failure 400 {object} object{success=bool,error=string,code=string}
// @Failure 401 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string,code=string}
// @Failure 409 {object} object{success=bool,error=string,code=string} "ALREADY_ENROLLED"
// @Failure 429 {object} object{success=bool,error=string}
// @Failure 502 {object} object{success=bool,error=string,code=string} "ORDER_CREATION_FAILED"
// @Router /api/checkout/orders [post]
func (h *CheckoutHandler) CreateOrderDoc() {}

// VerifyPayment godoc
// @Summary Verify a checkout callback
// @Description Verify the processor signature and complete the payment (Authenticated users)
// @Tags Checkout
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{razorpay_order_id=string,razorpay_payment_id=string,razorpay_signature=string} true "Hosted checkout result"
// @Success 200 {object} object{success=bool,message=string,data=object{success=bool,payment_id=int,invoice_number=string}}
// @Failure 400 {object} object{success=bool,error=string,code=string} "invalid signature"
// @Failure 404 {object} object{success=bool,error=string,code=string}
// @Failure 409 {object} object{success=bool,error=string,code=string} "PAYMENT_EXPIRED"
// @Router /api/checkout/verify [post]
func (h *CheckoutHandler) VerifyPaymentDoc() {}

// Webhook godoc
// @Summary Processor webhook
// @Description Server-to-server payment notification signed with the webhook secret
// @Tags Checkout
// @Accept json
// @Produce json
// @Param X-Razorpay-Signature header string true "HMAC-SHA256 of the raw body"
// @Param X-Razorpay-Event-Id header string false "Delivery id used for dedup"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 400 {object} object{success=bool,error=string,code=string}
// @Router /api/checkout/webhook [post]
func (h *CheckoutHandler) WebhookDoc() {}

// CheckAccess godoc
// @Summary Check course access
// @Description True only when the user holds an enrollment backed by a completed payment
// @Tags Access
// @Security BearerAuth
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} object{success=bool,data=object{course_id=int,has_access=bool}}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 401 {object} object{success=bool,error=string}
// @Router /api/courses/{id}/access [get]
func (h *CheckoutHandler) CheckAccessDoc() {}

// ListMyCourses godoc
// @Summary List my courses
// @Description Courses the authenticated user has paid for
// @Tags Access
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{success=bool,data=object{courses=array,total=int}}
// @Failure 401 {object} object{success=bool,error=string}
// @Router /api/my-courses [get]
func (h *CheckoutHandler) ListMyCoursesDoc() {}

// GetMyPayments godoc
// @Summary Get my payments
// @Description Get payments for the authenticated user
// @Tags Payments
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=object{payments=array,total=int}}
// @Failure 401 {object} object{success=bool,error=string}
// @Failure 500 {object} object{success=bool,error=string}
// @Router /api/payments/my [get]
func (h *CheckoutHandler) GetMyPaymentsDoc() {}

// ListMyInvoices godoc
// @Summary Get my invoices
// @Description Get invoices for the authenticated user
// @Tags Invoices
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=object{invoices=array,total=int}}
// @Failure 401 {object} object{success=bool,error=string}
// @Router /api/invoices/my [get]
func (h *CheckoutHandler) ListMyInvoicesDoc() {}

// GetInvoice godoc
// @Summary Get invoice by ID
// @Description Get an invoice (owner or admin)
// @Tags Invoices
// @Security BearerAuth
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/invoices/{id} [get]
func (h *CheckoutHandler) GetInvoiceDoc() {}

// ListPayments godoc
// @Summary List all payments
// @Description List payments with optional status and user filters (Admin only)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param status query string false "pending, completed or failed"
// @Param user_id query int false "User ID"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=object{payments=array,total=int,limit=int,offset=int}}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/admin/payments [get]
func (h *CheckoutHandler) ListPaymentsDoc() {}

// GetPayment godoc
// @Summary Get payment by ID
// @Description Get a payment and its invoice (Admin only)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} object{success=bool,data=object{payment=object,invoice=object}}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/admin/payments/{id} [get]
func (h *CheckoutHandler) GetPaymentDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Description Check service health and database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /health [get]
func (h *CheckoutHandler) HealthCheckDoc() {}
