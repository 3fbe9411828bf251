package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hartley-studio/service-billing/internal/application"
	"github.com/hartley-studio/service-billing/pkg/auth"
	"github.com/hartley-studio/service-billing/pkg/middleware"
	"github.com/hartley-studio/service-billing/pkg/response"
)

// AdminHandler handles admin HTTP requests for payment and audit inspection.
type AdminHandler struct {
	paymentService *application.PaymentService
	syncLogService *application.SyncLogService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(paymentService *application.PaymentService, syncLogService *application.SyncLogService) *AdminHandler {
	return &AdminHandler{
		paymentService: paymentService,
		syncLogService: syncLogService,
	}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/payments", h.ListPayments)
		admin.GET("/sync-log", h.ListSyncLog)
	}
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// ListPayments handles GET /api/v1/admin/payments.
func (h *AdminHandler) ListPayments(c *gin.Context) {
	page, limit := pagination(c)

	payments, total, err := h.paymentService.ListAllPayments(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, payments, total, page, limit)
}

// ListSyncLog handles GET /api/v1/admin/sync-log.
func (h *AdminHandler) ListSyncLog(c *gin.Context) {
	page, limit := pagination(c)

	entries, total, err := h.syncLogService.ListSyncLog(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, entries, total, page, limit)
}
