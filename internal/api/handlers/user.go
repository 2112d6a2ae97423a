package handlers

import (
	"github.com/gin-gonic/gin"

	"cms-panel/internal/api/middleware"
	"cms-panel/internal/models"
	"cms-panel/internal/services"
)

type UserHandler struct {
	userService  *services.UserService
	auditService *services.AuditService
}

func NewUserHandler(userService *services.UserService, auditService *services.AuditService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		auditService: auditService,
	}
}

type UpdatePasswordRequest struct {
	Password string `json:"password"`
}

// GetUsers returns users, filtered by q and role
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, total, err := h.userService.GetUsers(c.Request.Context(), services.UserFilter{
		ListOptions: listOptions(c),
		Role:        c.Query("role"),
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{"users": users, "total": total})
}

// GetUser returns a specific user
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "user")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{"user": user})
}

// CreateUser creates a new user
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, currentUserID(c), services.ActionCreate, "user", user.ID, user.Email)

	c.JSON(201, gin.H{"user": user})
}

// UpdateUser updates a user. Non-admins may only edit their own profile
// and cannot change roles.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "user")
	if !ok {
		return
	}

	var req services.UpdateUserInput
	if !bindJSON(c, &req) {
		return
	}

	identity := middleware.CurrentIdentity(c)
	if !identity.HasRole(models.RoleAdmin) && (identity.UserID != id || req.Role != nil) {
		fail(c, services.ErrInsufficientRole)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, identity.UserID, services.ActionUpdate, "user", user.ID, "")

	c.JSON(200, gin.H{"user": user})
}

// UpdatePassword sets another user's password
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	id, ok := parseID(c, "user")
	if !ok {
		return
	}

	var req UpdatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.ResetPassword(c.Request.Context(), id, req.Password); err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, currentUserID(c), services.ActionPasswordChange, "user", id, "")

	c.JSON(200, gin.H{"message": "Password updated successfully"})
}

// DeleteUser deletes a user
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "user")
	if !ok {
		return
	}

	actorID := currentUserID(c)
	if err := h.userService.DeleteUser(c.Request.Context(), actorID, id); err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, actorID, services.ActionDelete, "user", id, "")

	c.JSON(200, gin.H{"message": "User deleted successfully"})
}
