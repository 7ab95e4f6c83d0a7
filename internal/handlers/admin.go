// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/bricolage-backend/internal/services"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /menu/dashboard
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /menu/auditoria
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	filter := services.AuditLogFilter{
		PaginationParams: utils.GetPaginationParams(c),
		Username:         c.Query("username"),
		ResourceType:     c.Query("resourceType"),
	}

	logs, total, err := h.adminService.ListAuditLogs(c.Request.Context(), filter)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, filter.PaginationParams))
}
