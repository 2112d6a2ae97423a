package handlers

import (
	"github.com/gin-gonic/gin"

	"cms-panel/internal/services"
)

type PostHandler struct {
	postService  *services.PostService
	auditService *services.AuditService
}

func NewPostHandler(postService *services.PostService, auditService *services.AuditService) *PostHandler {
	return &PostHandler{
		postService:  postService,
		auditService: auditService,
	}
}

// GetPosts returns blog posts, filtered by q, status, author_id and tag
func (h *PostHandler) GetPosts(c *gin.Context) {
	posts, total, err := h.postService.GetPosts(c.Request.Context(), services.PostFilter{
		ListOptions: listOptions(c),
		Status:      c.Query("status"),
		AuthorID:    queryUint(c, "author_id"),
		Tag:         c.Query("tag"),
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{"posts": posts, "total": total})
}

// GetPost returns a specific post
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := parseID(c, "post")
	if !ok {
		return
	}

	post, err := h.postService.GetPost(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{"post": post})
}

// CreatePost creates a post authored by the caller
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req services.CreatePostInput
	if !bindJSON(c, &req) {
		return
	}

	userID := currentUserID(c)
	post, err := h.postService.CreatePost(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, userID, services.ActionCreate, "post", post.ID, post.Slug)

	c.JSON(201, gin.H{"post": post})
}

// UpdatePost updates a post
func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, ok := parseID(c, "post")
	if !ok {
		return
	}

	var req services.UpdatePostInput
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.postService.UpdatePost(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, currentUserID(c), services.ActionUpdate, "post", post.ID, post.Slug)

	c.JSON(200, gin.H{"post": post})
}

// DeletePost deletes a post
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := parseID(c, "post")
	if !ok {
		return
	}

	if err := h.postService.DeletePost(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, currentUserID(c), services.ActionDelete, "post", id, "")

	c.JSON(200, gin.H{"message": "Post deleted successfully"})
}
