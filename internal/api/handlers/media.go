package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"cms-panel/internal/services"
)

// multipartOverhead is the allowance for multipart framing on top of the file size limit.
const multipartOverhead = 1 << 20

type MediaHandler struct {
	mediaService *services.MediaService
	auditService *services.AuditService
	maxSize      int64
}

func NewMediaHandler(mediaService *services.MediaService, auditService *services.AuditService, maxSize int64) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		auditService: auditService,
		maxSize:      maxSize,
	}
}

// GetMedia returns media, filtered by q and mime prefix
func (h *MediaHandler) GetMedia(c *gin.Context) {
	media, total, err := h.mediaService.GetMedia(c.Request.Context(), services.MediaFilter{
		ListOptions: listOptions(c),
		MimePrefix:  c.Query("mime"),
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{"media": media, "total": total})
}

func (h *MediaHandler) GetMediaAsset(c *gin.Context) {
	id, ok := parseID(c, "media")
	if !ok {
		return
	}

	asset, err := h.mediaService.GetMediaAsset(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{"media": asset})
}

// UploadMedia stores the multipart "file" field
func (h *MediaHandler) UploadMedia(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, services.NewValidationError("file", fmt.Sprintf("exceeds the maximum size of %d bytes", h.maxSize)))
			return
		}
		fail(c, services.NewValidationError("file", "is required"))
		return
	}

	file, err := header.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer file.Close()

	userID := currentUserID(c)
	asset, err := h.mediaService.Upload(c.Request.Context(), userID, header.Filename, file)
	if err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, userID, services.ActionUpload, "media", asset.ID, asset.OriginalName)

	c.JSON(201, gin.H{"media": asset})
}

func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	id, ok := parseID(c, "media")
	if !ok {
		return
	}

	if err := h.mediaService.DeleteMedia(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, currentUserID(c), services.ActionDelete, "media", id, "")

	c.JSON(200, gin.H{"message": "Media deleted successfully"})
}
