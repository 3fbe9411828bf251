package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hartley-studio/service-billing/internal/application"
	"github.com/hartley-studio/service-billing/pkg/auth"
	"github.com/hartley-studio/service-billing/pkg/middleware"
	"github.com/hartley-studio/service-billing/pkg/response"
)

// PaymentLinkHandler handles HTTP requests for hosted checkout links.
type PaymentLinkHandler struct {
	service *application.PaymentLinkService
}

// NewPaymentLinkHandler creates a new PaymentLinkHandler.
func NewPaymentLinkHandler(service *application.PaymentLinkService) *PaymentLinkHandler {
	return &PaymentLinkHandler{service: service}
}

// RegisterRoutes registers the payment link routes on the given router group.
func (h *PaymentLinkHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager))
	{
		bookings.POST("/:id/payment-link", middleware.RequireRole(auth.RoleStaff), h.CreatePaymentLink)
	}
}

// CreatePaymentLink handles POST /api/v1/bookings/:id/payment-link
func (h *PaymentLinkHandler) CreatePaymentLink(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req struct {
		AmountCents int64  `json:"amount_cents" binding:"required"`
		LinkType    string `json:"link_type" binding:"required,oneof=deposit balance"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.service.CreatePaymentLink(c.Request.Context(), bookingID, req.AmountCents, req.LinkType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
