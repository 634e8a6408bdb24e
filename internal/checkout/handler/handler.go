package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tair/course-checkout/internal/checkout/domain"
	"github.com/tair/course-checkout/internal/checkout/processor"
	"github.com/tair/course-checkout/internal/checkout/usecase/command"
	"github.com/tair/course-checkout/internal/checkout/usecase/query"
	"github.com/tair/course-checkout/pkg/logger"
)

const maxWebhookBody = 1 << 20

// CheckoutHandler handles HTTP requests for checkout using CQRS pattern
type CheckoutHandler struct {
	// Command handlers
	createOrderHandler   *command.CreateOrderHandler
	verifyPaymentHandler *command.VerifyPaymentHandler
	webhookHandler       *command.HandleWebhookHandler

	// Query handlers
	checkAccessHandler    *query.CheckAccessHandler
	listMyCoursesHandler  *query.ListMyCoursesHandler
	getMyPaymentsHandler  *query.GetMyPaymentsHandler
	listPaymentsHandler   *query.ListPaymentsHandler
	getPaymentHandler     *query.GetPaymentHandler
	getInvoiceHandler     *query.GetInvoiceHandler
	listMyInvoicesHandler *query.ListMyInvoicesHandler

	middleware MiddlewareConfig
}

// NewCheckoutHandlerWithDI creates a new checkout handler using dependency injection
func NewCheckoutHandlerWithDI(
	createOrderHandler *command.CreateOrderHandler,
	verifyPaymentHandler *command.VerifyPaymentHandler,
	webhookHandler *command.HandleWebhookHandler,
	checkAccessHandler *query.CheckAccessHandler,
	listMyCoursesHandler *query.ListMyCoursesHandler,
	getMyPaymentsHandler *query.GetMyPaymentsHandler,
	listPaymentsHandler *query.ListPaymentsHandler,
	getPaymentHandler *query.GetPaymentHandler,
	getInvoiceHandler *query.GetInvoiceHandler,
	listMyInvoicesHandler *query.ListMyInvoicesHandler,
	middleware MiddlewareConfig,
) *CheckoutHandler {
	return &CheckoutHandler{
		createOrderHandler:    createOrderHandler,
		verifyPaymentHandler:  verifyPaymentHandler,
		webhookHandler:        webhookHandler,
		checkAccessHandler:    checkAccessHandler,
		listMyCoursesHandler:  listMyCoursesHandler,
		getMyPaymentsHandler:  getMyPaymentsHandler,
		listPaymentsHandler:   listPaymentsHandler,
		getPaymentHandler:     getPaymentHandler,
		getInvoiceHandler:     getInvoiceHandler,
		listMyInvoicesHandler: listMyInvoicesHandler,
		middleware:            middleware,
	}
}

// GetMiddlewareConfig returns the middleware configuration
func (h *CheckoutHandler) GetMiddlewareConfig() MiddlewareConfig {
	return h.middleware
}

// Response is the JSON envelope of every endpoint
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// CreateOrder handles POST /api/checkout/orders
func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "User not found in context"})
		return
	}

	var req CreateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}

	result, err := h.createOrderHandler.Handle(r.Context(), command.CreateOrderCommand{
		UserID:   claims.UserID,
		CourseID: req.CourseID,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Checkout started",
		Data:    result,
	})
}

// VerifyPayment handles POST /api/checkout/verify
func (h *CheckoutHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}

	result, err := h.verifyPaymentHandler.Handle(r.Context(), command.VerifyPaymentCommand{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Payment verified",
		Data:    result,
	})
}

// Webhook handles POST /api/checkout/webhook. The body is read verbatim
// before any parsing since the signature covers the exact bytes.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	result, err := h.webhookHandler.Handle(r.Context(), command.HandleWebhookCommand{
		RawBody:   rawBody,
		Signature: r.Header.Get(processor.SignatureHeader),
		EventID:   r.Header.Get(processor.EventIDHeader),
	})
	if err != nil {
		// Anything but 2xx makes the processor redeliver
		if domain.KindOf(err) == domain.KindInternal {
			logger.Error(r.Context()).Err(err).Msg("Webhook processing failed")
		}
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   domain.PublicMessage(err),
			Code:    domain.CodeOf(err),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: result.Disposition,
	})
}

// CheckAccess handles GET /api/courses/{id}/access
func (h *CheckoutHandler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "User not found in context"})
		return
	}
	courseID, ok := pathID(w, r, "Invalid course ID")
	if !ok {
		return
	}

	paid, err := h.checkAccessHandler.Handle(r.Context(), query.CheckAccessQuery{UserID: claims.UserID, CourseID: courseID})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"course_id":  courseID,
			"has_access": paid,
		},
	})
}

// ListMyCourses handles GET /api/my-courses
func (h *CheckoutHandler) ListMyCourses(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "User not found in context"})
		return
	}

	courses, err := h.listMyCoursesHandler.Handle(r.Context(), query.ListMyCoursesQuery{UserID: claims.UserID})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"courses": courses,
			"total":   len(courses),
		},
	})
}

// GetMyPayments handles GET /api/payments/my (authenticated user)
func (h *CheckoutHandler) GetMyPayments(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "User not found in context"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	payments, err := h.getMyPaymentsHandler.Handle(r.Context(), query.GetMyPaymentsQuery{
		UserID: claims.UserID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"payments": payments,
			"total":    len(payments),
		},
	})
}

// ListMyInvoices handles GET /api/invoices/my
func (h *CheckoutHandler) ListMyInvoices(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "User not found in context"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	invoices, err := h.listMyInvoicesHandler.Handle(r.Context(), query.ListMyInvoicesQuery{
		UserID: claims.UserID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"invoices": invoices,
			"total":    len(invoices),
		},
	})
}

// GetInvoice handles GET /api/invoices/{id}
func (h *CheckoutHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "User not found in context"})
		return
	}
	id, ok := pathID(w, r, "Invalid invoice ID")
	if !ok {
		return
	}

	invoice, err := h.getInvoiceHandler.Handle(r.Context(), query.GetInvoiceQuery{
		ID:          id,
		RequesterID: claims.UserID,
		IsAdmin:     claims.IsAdmin,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: invoice})
}

// ListPayments handles GET /api/admin/payments
func (h *CheckoutHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	userID, _ := strconv.ParseUint(q.Get("user_id"), 10, 32)

	page, err := h.listPaymentsHandler.Handle(r.Context(), query.ListPaymentsQuery{
		Status: q.Get("status"),
		UserID: uint(userID),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: page})
}

// GetPayment handles GET /api/admin/payments/{id}
func (h *CheckoutHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Invalid payment ID")
	if !ok {
		return
	}

	detail, err := h.getPaymentHandler.Handle(r.Context(), query.GetPaymentQuery{ID: id})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: detail})
}

// RegisterRoutes registers all checkout routes
func (h *CheckoutHandler) RegisterRoutes(router *mux.Router) {
	authed := h.middleware.GetAuthMiddleware()
	admin := h.middleware.GetAdminMiddleware()
	limited := h.middleware.RateLimiter.Middleware

	// Processor callbacks
	router.HandleFunc("/api/checkout/webhook", h.Webhook).Methods("POST")

	// Authenticated user routes
	router.HandleFunc("/api/checkout/orders", authed(limited(h.CreateOrder))).Methods("POST")
	router.HandleFunc("/api/checkout/verify", authed(h.VerifyPayment)).Methods("POST")
	router.HandleFunc("/api/courses/{id:[0-9]+}/access", authed(h.CheckAccess)).Methods("GET")
	router.HandleFunc("/api/my-courses", authed(h.ListMyCourses)).Methods("GET")
	router.HandleFunc("/api/payments/my", authed(h.GetMyPayments)).Methods("GET")
	router.HandleFunc("/api/invoices/my", authed(h.ListMyInvoices)).Methods("GET")
	router.HandleFunc("/api/invoices/{id:[0-9]+}", authed(h.GetInvoice)).Methods("GET")

	// Admin routes
	router.HandleFunc("/api/admin/payments", admin(h.ListPayments)).Methods("GET")
	router.HandleFunc("/api/admin/payments/{id:[0-9]+}", admin(h.GetPayment)).Methods("GET")
}

// Pinger reports database reachability
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RegisterHealthCheck registers health check and metrics endpoints
func (h *CheckoutHandler) RegisterHealthCheck(router *mux.Router, db Pinger) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Checkout service is healthy",
		})
	}).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	if errors.Is(err, domain.ErrInvalidSignature) {
		return http.StatusBadRequest
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the public form of err. Internal detail only goes to the log.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(ctx).Err(err).Int("status", status).Msg("Request failed")
	}
	respondJSON(w, status, Response{
		Success: false,
		Error:   domain.PublicMessage(err),
		Code:    domain.CodeOf(err),
	})
}

func pathID(w http.ResponseWriter, r *http.Request, message string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: message, Code: "INVALID_INPUT"})
		return 0, false
	}
	return uint(id), true
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
