package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cms-panel/internal/api/middleware"
	"cms-panel/internal/models"
	"cms-panel/internal/services"
)

// fail hands err to the error middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// parseID reads the :id path parameter.
func parseID(c *gin.Context, resource string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		fail(c, services.NewValidationError("id", "invalid "+resource+" ID"))
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the request body into req, reporting malformed input as a validation error.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		fail(c, services.NewValidationError(typeErr.Field, "must be of type "+typeErr.Type.String()))
	case errors.Is(err, io.EOF):
		fail(c, services.NewValidationError("body", "request body is required"))
	default:
		fail(c, services.NewValidationError("body", "invalid JSON: "+err.Error()))
	}
	return false
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func queryUint(c *gin.Context, key string) uint {
	n, err := strconv.ParseUint(c.Query(key), 10, 32)
	if err != nil {
		return 0
	}
	return uint(n)
}

// listOptions reads the q, page and per_page query parameters.
func listOptions(c *gin.Context) services.ListOptions {
	return services.ListOptions{
		Query:   strings.TrimSpace(c.Query("q")),
		Page:    queryInt(c, "page"),
		PerPage: queryInt(c, "per_page"),
	}
}

// currentUserID returns the authenticated caller's id.
func currentUserID(c *gin.Context) uint {
	if identity := middleware.CurrentIdentity(c); identity != nil {
		return identity.UserID
	}
	return 0
}

// logAudit records an audit entry for the current request
func logAudit(c *gin.Context, audit *services.AuditService, userID uint, action, resource string, resourceID uint, details string) {
	if audit == nil {
		return
	}
	entry := models.AuditLog{
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		Details:   details,
		IPAddress: c.ClientIP(),
		UserAgent: truncate(c.GetHeader("User-Agent"), 500),
	}
	if resourceID != 0 {
		entry.ResourceID = strconv.FormatUint(uint64(resourceID), 10)
	}
	audit.Record(c.Request.Context(), entry)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
