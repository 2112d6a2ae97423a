package handlers

import (
	"github.com/gin-gonic/gin"

	"cms-panel/internal/services"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// GetLogs returns audit entries, filtered by user_id and resource
func (h *AuditHandler) GetLogs(c *gin.Context) {
	opts := listOptions(c)
	if opts.PerPage == 0 {
		opts.PerPage = 50
	}

	logs, total, err := h.auditService.GetLogs(c.Request.Context(), services.AuditFilter{
		ListOptions: opts,
		UserID:      queryUint(c, "user_id"),
		Resource:    c.Query("resource"),
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{"logs": logs, "total": total})
}
