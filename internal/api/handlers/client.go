package handlers

import (
	"github.com/gin-gonic/gin"

	"cms-panel/internal/services"
)

type ClientHandler struct {
	clientService *services.ClientService
	auditService  *services.AuditService
}

func NewClientHandler(clientService *services.ClientService, auditService *services.AuditService) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
		auditService:  auditService,
	}
}

// GetClients returns all clients
func (h *ClientHandler) GetClients(c *gin.Context) {
	clients, total, err := h.clientService.GetClients(c.Request.Context(), listOptions(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{"clients": clients, "total": total})
}

// GetClient returns a specific client
func (h *ClientHandler) GetClient(c *gin.Context) {
	id, ok := parseID(c, "client")
	if !ok {
		return
	}

	client, err := h.clientService.GetClient(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(200, gin.H{"client": client})
}

// CreateClient creates a new client
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req services.CreateClientInput
	if !bindJSON(c, &req) {
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, currentUserID(c), services.ActionCreate, "client", client.ID, client.Email)

	c.JSON(201, gin.H{"client": client})
}

// UpdateClient updates the fields present in the request
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	id, ok := parseID(c, "client")
	if !ok {
		return
	}

	var req services.UpdateClientInput
	if !bindJSON(c, &req) {
		return
	}

	client, err := h.clientService.UpdateClient(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, currentUserID(c), services.ActionUpdate, "client", client.ID, "")

	c.JSON(200, gin.H{"client": client})
}

// DeleteClient deletes a client
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	id, ok := parseID(c, "client")
	if !ok {
		return
	}

	if err := h.clientService.DeleteClient(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	logAudit(c, h.auditService, currentUserID(c), services.ActionDelete, "client", id, "")

	c.JSON(200, gin.H{"message": "Client deleted successfully"})
}
