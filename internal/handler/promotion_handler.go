package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hartley-studio/service-billing/internal/application"
	"github.com/hartley-studio/service-billing/pkg/auth"
	"github.com/hartley-studio/service-billing/pkg/middleware"
	"github.com/hartley-studio/service-billing/pkg/response"
)

// PromotionHandler handles HTTP requests for promo code operations.
type PromotionHandler struct {
	service *application.PromotionService
}

// NewPromotionHandler creates a new PromotionHandler.
func NewPromotionHandler(service *application.PromotionService) *PromotionHandler {
	return &PromotionHandler{service: service}
}

// RegisterRoutes registers all promotion routes on the given router group.
func (h *PromotionHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	promos := r.Group("/promotions")
	promos.Use(middleware.AuthMiddleware(jwtManager))
	{
		promos.POST("", middleware.RequireRole(auth.RoleAdmin), h.CreatePromotion)
		promos.POST("/validate", h.ValidatePromoCode)
		promos.DELETE("/:id", middleware.RequireRole(auth.RoleAdmin), h.DeactivatePromotion)
	}

	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager))
	{
		bookings.POST("/:id/promotion", middleware.RequireRole(auth.RoleStaff), h.ApplyPromoCode)
	}
}

// CreatePromotion handles POST /api/v1/promotions
func (h *PromotionHandler) CreatePromotion(c *gin.Context) {
	var req application.CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.CreatePromotion(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// ValidatePromoCode handles POST /api/v1/promotions/validate
func (h *PromotionHandler) ValidatePromoCode(c *gin.Context) {
	var req struct {
		Code            string `json:"code" binding:"required"`
		ServiceCategory string `json:"service_category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	verdict, err := h.service.ValidatePromoCode(c.Request.Context(), req.Code, req.ServiceCategory)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, verdict)
}

// DeactivatePromotion handles DELETE /api/v1/promotions/:id
func (h *PromotionHandler) DeactivatePromotion(c *gin.Context) {
	promoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid promotion ID")
		return
	}

	if err := h.service.DeactivatePromotion(c.Request.Context(), promoID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deactivated": true})
}

// ApplyPromoCode handles POST /api/v1/bookings/:id/promotion
func (h *PromotionHandler) ApplyPromoCode(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.service.ApplyPromoCode(c.Request.Context(), bookingID, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
