package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"cms-panel/internal/models"
)

type HealthHandler struct {
	gw *models.Gateway
}

func NewHealthHandler(gw *models.Gateway) *HealthHandler {
	return &HealthHandler{gw: gw}
}

// Health reports liveness. It never initialises the database; an
// uninitialised gateway is reported as such.
func (h *HealthHandler) Health(c *gin.Context) {
	database := "not_initialized"
	if h.gw.Initialized() {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		database = "up"
		if err := h.gw.Ping(ctx); err != nil {
			database = "down"
		}
	}

	c.JSON(200, gin.H{
		"status":    "ok",
		"message":   "CMS API is running",
		"database":  database,
		"timestamp": time.Now().UTC(),
	})
}
