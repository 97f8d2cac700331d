package api

import (
	"net/http"
	"strconv"

	"devforge/backend/internal/models"
	"devforge/backend/internal/service"
	"devforge/backend/pkg/logger"
	"devforge/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// MessageHandler serves a project's historical message list
type MessageHandler struct {
	messages *service.MessageService
	projects *service.ProjectService
	aiSender models.MessageSender
	logger   *logger.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *service.MessageService, projects *service.ProjectService, aiSender models.MessageSender, logger *logger.Logger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		projects: projects,
		aiSender: aiSender,
		logger:   logger,
	}
}

// RegisterRoutes registers message routes on an authenticated group
func (h *MessageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/projects/:id/messages", h.History)
}

// History returns a project's messages oldest-first, sender populated,
// shaped identically to the realtime broadcast payload.
func (h *MessageHandler) History(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || projectID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing project ID"})
		return
	}

	claims := middleware.Claims(c)
	if _, err := h.projects.Get(c.Request.Context(), uint(projectID), claims.UserID); err != nil {
		switch err {
		case service.ErrProjectNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		case service.ErrNotProjectMember:
			c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to view this project"})
		default:
			h.logger.Error("Error authorizing history fetch", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	messages, err := h.messages.History(c.Request.Context(), uint(projectID), h.aiSender)
	if err != nil {
		h.logger.Error("Error fetching messages", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
