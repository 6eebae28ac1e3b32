package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/caseeval/internal/services"
	"github.com/huangang/caseeval/pkg/response"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: services.NewDashboardService(db),
	}
}

// GetStats returns dashboard statistics
// GET /api/dashboard/stats
func (h *DashboardHandler) GetStats(c *gin.Context) {
	var req services.DashboardStatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	stats, err := h.dashboardService.GetStats(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
