package handlers

import (
	"github.com/gin-gonic/gin"

	"cms-panel/internal/services"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetStats returns content counts and recent activity
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboardService.GetStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{"stats": stats})
}
