package handlers

import (
	"github.com/gin-gonic/gin"

	"cms-panel/internal/services"
)

type PageHandler struct {
	pageService  *services.PageService
	auditService *services.AuditService
}

func NewPageHandler(pageService *services.PageService, auditService *services.AuditService) *PageHandler {
	return &PageHandler{
		pageService:  pageService,
		auditService: auditService,
	}
}

// GetPages returns pages, filtered by q and status
func (h *PageHandler) GetPages(c *gin.Context) {
	pages, total, err := h.pageService.GetPages(c.Request.Context(), services.PageFilter{
		ListOptions: listOptions(c),
		Status:      c.Query("status"),
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{"pages": pages, "total": total})
}

func (h *PageHandler) GetPage(c *gin.Context) {
	id, ok := parseID(c, "page")
	if !ok {
		return
	}

	page, err := h.pageService.GetPage(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{"page": page})
}

func (h *PageHandler) CreatePage(c *gin.Context) {
	var req services.CreatePageInput
	if !bindJSON(c, &req) {
		return
	}

	page, err := h.pageService.CreatePage(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, currentUserID(c), services.ActionCreate, "page", page.ID, page.Slug)

	c.JSON(201, gin.H{"page": page})
}

func (h *PageHandler) UpdatePage(c *gin.Context) {
	id, ok := parseID(c, "page")
	if !ok {
		return
	}

	var req services.UpdatePageInput
	if !bindJSON(c, &req) {
		return
	}

	page, err := h.pageService.UpdatePage(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, currentUserID(c), services.ActionUpdate, "page", page.ID, page.Slug)

	c.JSON(200, gin.H{"page": page})
}

func (h *PageHandler) DeletePage(c *gin.Context) {
	id, ok := parseID(c, "page")
	if !ok {
		return
	}

	if err := h.pageService.DeletePage(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, currentUserID(c), services.ActionDelete, "page", id, "")

	c.JSON(200, gin.H{"message": "Page deleted successfully"})
}
