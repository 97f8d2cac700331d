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

// ProjectHandler handles project CRUD and membership requests
type ProjectHandler struct {
	service *service.ProjectService
	logger  *logger.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(service *service.ProjectService, logger *logger.Logger) *ProjectHandler {
	return &ProjectHandler{service: service, logger: logger}
}

// RegisterRoutes registers project routes on an authenticated group
func (h *ProjectHandler) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	{
		projects.POST("", h.Create)
		projects.GET("", h.List)
		projects.GET("/:id", h.Get)
		projects.PUT("/:id/users", h.AddUsers)
		projects.DELETE("/:id", h.Delete)
	}
}

// Create creates a project with the caller as first member
func (h *ProjectHandler) Create(c *gin.Context) {
	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project name must be 3 to 50 characters"})
		return
	}

	claims := middleware.Claims(c)
	project, err := h.service.Create(c.Request.Context(), req.Name, claims.UserID)
	if err != nil {
		switch err {
		case service.ErrProjectAlreadyExists:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Project already exists"})
		default:
			h.logger.Error("Error creating project", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating project"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Project created successfully",
		"project": project.ToResponse(),
	})
}

// List returns the caller's projects with members populated
func (h *ProjectHandler) List(c *gin.Context) {
	claims := middleware.Claims(c)

	projects, err := h.service.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("Error fetching projects", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching projects"})
		return
	}

	out := make([]models.ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, projects[i].ToResponse())
	}

	c.JSON(http.StatusOK, out)
}

// Get returns one project, member-only
func (h *ProjectHandler) Get(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	claims := middleware.Claims(c)
	project, err := h.service.Get(c.Request.Context(), projectID, claims.UserID)
	if err != nil {
		h.respondServiceError(c, err, "Error fetching project")
		return
	}

	c.JSON(http.StatusOK, project.ToResponse())
}

// AddUsers invites users into a project
func (h *ProjectHandler) AddUsers(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	var req models.AddUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Users are required and must be a non-empty array"})
		return
	}

	claims := middleware.Claims(c)
	project, err := h.service.AddUsers(c.Request.Context(), projectID, claims.UserID, req.Users)
	if err != nil {
		switch err {
		case service.ErrAlreadyMember:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Some users are already in the project"})
		case service.ErrUserNotFound:
			c.JSON(http.StatusBadRequest, gin.H{"error": "One or more user IDs are invalid"})
		default:
			h.respondServiceError(c, err, "Error adding users to project")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Users added to project successfully",
		"project": project.ToResponse(),
	})
}

// Delete removes a project, member-only
func (h *ProjectHandler) Delete(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	claims := middleware.Claims(c)
	if err := h.service.Delete(c.Request.Context(), projectID, claims.UserID); err != nil {
		h.respondServiceError(c, err, "Error deleting project")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func (h *ProjectHandler) projectID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing project ID"})
		return 0, false
	}
	return uint(id), true
}

func (h *ProjectHandler) respondServiceError(c *gin.Context, err error, fallback string) {
	switch err {
	case service.ErrProjectNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
	case service.ErrNotProjectMember:
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this project"})
	default:
		h.logger.Error(fallback, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
