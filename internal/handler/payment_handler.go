package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hartley-studio/service-billing/internal/application"
	"github.com/hartley-studio/service-billing/pkg/auth"
	"github.com/hartley-studio/service-billing/pkg/middleware"
	"github.com/hartley-studio/service-billing/pkg/response"
)

// PaymentHandler handles HTTP requests for payment and refund operations.
type PaymentHandler struct {
	payments *application.PaymentService
	refunds  *application.RefundService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *application.PaymentService, refunds *application.RefundService) *PaymentHandler {
	return &PaymentHandler{payments: payments, refunds: refunds}
}

// RegisterRoutes registers all payment routes on the given router group.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	payments := r.Group("/payments")
	payments.Use(middleware.AuthMiddleware(jwtManager))
	{
		payments.POST("", middleware.RequireRole(auth.RoleStaff), h.RecordPayment)
		payments.GET("/:id", h.GetPayment)
		payments.POST("/:id/refund", middleware.RequireRole(auth.RoleStaff), h.RefundPayment)
	}

	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager))
	{
		bookings.GET("/:id/balance", h.GetBookingBalance)
	}
}

// RecordPayment handles POST /api/v1/payments
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.payments.RecordPayment(c.Request.Context(), actorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment ID")
		return
	}

	dto, err := h.payments.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// RefundPayment handles POST /api/v1/payments/:id/refund
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment ID")
		return
	}

	var req struct {
		AmountCents int64  `json:"amount_cents" binding:"required"`
		Reason      string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.refunds.ProcessRefund(c.Request.Context(), actorID, paymentID, req.AmountCents, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// GetBookingBalance handles GET /api/v1/bookings/:id/balance
func (h *PaymentHandler) GetBookingBalance(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	dto, err := h.payments.GetBookingBalance(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}
