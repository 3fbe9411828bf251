package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hartley-studio/service-billing/internal/application"
	"github.com/hartley-studio/service-billing/pkg/auth"
	"github.com/hartley-studio/service-billing/pkg/middleware"
	"github.com/hartley-studio/service-billing/pkg/response"
)

// GiftCardHandler handles HTTP requests for gift card operations.
type GiftCardHandler struct {
	service *application.GiftCardService
}

// NewGiftCardHandler creates a new GiftCardHandler.
func NewGiftCardHandler(service *application.GiftCardService) *GiftCardHandler {
	return &GiftCardHandler{service: service}
}

// RegisterRoutes registers all gift card routes on the given router group.
func (h *GiftCardHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	cards := r.Group("/gift-cards")
	cards.Use(middleware.AuthMiddleware(jwtManager))
	{
		cards.POST("", middleware.RequireRole(auth.RoleStaff), h.CreateGiftCard)
		cards.GET("/:id", h.GetGiftCard)
		cards.GET("/code/:code", h.GetGiftCardByCode)
		cards.POST("/:id/redeem", middleware.RequireRole(auth.RoleStaff), h.RedeemGiftCard)
	}
}

// CreateGiftCard handles POST /api/v1/gift-cards
func (h *GiftCardHandler) CreateGiftCard(c *gin.Context) {
	var req application.CreateGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.CreateGiftCard(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// GetGiftCard handles GET /api/v1/gift-cards/:id
func (h *GiftCardHandler) GetGiftCard(c *gin.Context) {
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid gift card ID")
		return
	}

	dto, err := h.service.GetGiftCard(c.Request.Context(), cardID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// GetGiftCardByCode handles GET /api/v1/gift-cards/code/:code
func (h *GiftCardHandler) GetGiftCardByCode(c *gin.Context) {
	dto, err := h.service.GetGiftCardByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// RedeemGiftCard handles POST /api/v1/gift-cards/:id/redeem
func (h *GiftCardHandler) RedeemGiftCard(c *gin.Context) {
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid gift card ID")
		return
	}

	var req struct {
		BookingID   uuid.UUID `json:"booking_id" binding:"required"`
		AmountCents int64     `json:"amount_cents" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.service.RedeemGiftCard(c.Request.Context(), req.BookingID, cardID, req.AmountCents)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
