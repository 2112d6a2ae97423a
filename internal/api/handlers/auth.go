package handlers

import (
	"github.com/gin-gonic/gin"

	"cms-panel/internal/api/middleware"
	"cms-panel/internal/services"
)

type AuthHandler struct {
	authService  *services.AuthService
	auditService *services.AuditService
}

func NewAuthHandler(authService *services.AuthService, auditService *services.AuditService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		auditService: auditService,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, result.User.ID, services.ActionLogin, "user", result.User.ID, "")

	c.JSON(200, result)
}

// Logout records the logout. Tokens are stateless, so the client discards its copy.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := currentUserID(c)
	logAudit(c, h.auditService, userID, services.ActionLogout, "user", userID, "")

	c.JSON(200, gin.H{"message": "Logged out successfully"})
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, err := h.authService.CurrentUser(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{"user": user})
}

// ChangePassword changes the caller's own password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordInput
	if !bindJSON(c, &req) {
		return
	}

	userID := currentUserID(c)
	if err := h.authService.ChangePassword(c.Request.Context(), userID, req); err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, userID, services.ActionPasswordChange, "user", userID, "")

	c.JSON(200, gin.H{"message": "Password updated successfully"})
}
