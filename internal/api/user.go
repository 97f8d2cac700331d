package api

import (
	"net/http"

	"devforge/backend/internal/service"
	"devforge/backend/pkg/logger"
	"devforge/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// UserHandler handles user listing for the project invite picker
type UserHandler struct {
	service *service.UserService
	logger  *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(service *service.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

// RegisterRoutes registers user routes on an authenticated group
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users", h.List)
}

// List returns every user except the caller
func (h *UserHandler) List(c *gin.Context) {
	claims := middleware.Claims(c)

	users, err := h.service.ListOtherUsers(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("Error retrieving users", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "All users retrieved successfully",
		"users":   users,
	})
}
