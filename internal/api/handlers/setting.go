package handlers

import (
	"github.com/gin-gonic/gin"

	"cms-panel/internal/services"
)

type SettingHandler struct {
	settingService *services.SettingService
	auditService   *services.AuditService
}

func NewSettingHandler(settingService *services.SettingService, auditService *services.AuditService) *SettingHandler {
	return &SettingHandler{
		settingService: settingService,
		auditService:   auditService,
	}
}

// GetSettings returns the site settings, or defaults when none were saved
func (h *SettingHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingService.GetSettings(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{"settings": settings})
}

// UpdateSettings merges the request into the stored settings
func (h *SettingHandler) UpdateSettings(c *gin.Context) {
	var req services.UpdateSettingsInput
	if !bindJSON(c, &req) {
		return
	}

	settings, err := h.settingService.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, currentUserID(c), services.ActionUpdate, "settings", 0, "")

	c.JSON(200, gin.H{"settings": settings})
}
