package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"obralink-backend/internal/cache"
	"obralink-backend/internal/config"
	"obralink-backend/internal/models"
)

// ProjectBlobStore is the storage surface project deletion needs.
type ProjectBlobStore interface {
	DeleteProjectFiles(projectID uuid.UUID) error
}

type ProjectsHandler struct {
	cfg     *config.Config
	db      ProjectStore
	storage ProjectBlobStore
	cache   *cache.Cache
}

func NewProjectsHandler(cfg *config.Config, db ProjectStore, storage ProjectBlobStore, c *cache.Cache) *ProjectsHandler {
	return &ProjectsHandler{
		cfg:     cfg,
		db:      db,
		storage: storage,
		cache:   c,
	}
}

func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid start_date",
			Message: fmt.Sprintf("expected %s", dateLayout),
		})
		return
	}

	project := &models.Project{
		Name:       req.Name,
		Address:    req.Address,
		ClientName: req.ClientName,
		StartDate:  startDate,
		Status:     models.StatusActive,
	}
	if req.EndDate != "" {
		endDate, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid end_date",
				Message: fmt.Sprintf("expected %s", dateLayout),
			})
			return
		}
		project.EndDate = sql.NullTime{Time: endDate, Valid: true}
	}
	if req.Status != "" {
		if !models.IsValidStatus(req.Status) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid status"})
			return
		}
		project.Status = req.Status
	}
	if req.SharePassword != "" {
		project.SharePassword = sql.NullString{String: req.SharePassword, Valid: true}
	}

	created, err := h.db.CreateProject(project)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create project",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, toProjectResponse(created))
}

func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	projects, err := h.db.ListProjects()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list projects",
			Message: err.Error(),
		})
		return
	}

	responses := make([]models.ProjectResponse, len(projects))
	for i := range projects {
		responses[i] = toProjectResponse(&projects[i])
	}

	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: responses})
}

func (h *ProjectsHandler) GetProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	cacheKey := cache.Key("project", projectID.String())
	if data, ok := h.cache.Get(cacheKey); ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)
		return
	}

	project, err := h.db.GetProject(projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}

	response := toProjectResponse(project)
	if data, err := json.Marshal(response); err == nil {
		h.cache.Set(cacheKey, data)
	}

	c.JSON(http.StatusOK, response)
}

func (h *ProjectsHandler) UpdateProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	project, err := h.db.GetProject(projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Address != nil {
		project.Address = *req.Address
	}
	if req.ClientName != nil {
		project.ClientName = *req.ClientName
	}
	if req.StartDate != nil {
		startDate, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid start_date"})
			return
		}
		project.StartDate = startDate
	}
	if req.EndDate != nil {
		if *req.EndDate == "" {
			project.EndDate = sql.NullTime{}
		} else {
			endDate, err := time.Parse(dateLayout, *req.EndDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid end_date"})
				return
			}
			project.EndDate = sql.NullTime{Time: endDate, Valid: true}
		}
	}
	if req.Status != nil {
		if !models.IsValidStatus(*req.Status) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid status"})
			return
		}
		project.Status = *req.Status
	}
	if req.SharePassword != nil {
		if *req.SharePassword == "" {
			project.SharePassword = sql.NullString{}
		} else {
			project.SharePassword = sql.NullString{String: *req.SharePassword, Valid: true}
		}
	}

	if err := h.db.UpdateProject(project); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update project",
			Message: err.Error(),
		})
		return
	}

	h.cache.Invalidate(projectID.String())
	c.JSON(http.StatusOK, toProjectResponse(project))
}

// IssueShareToken godoc
// @Summary     Issue a share token
// @Description Generates the project's share token on first call and returns the same token on every later call. Tokens are never rotated.
// @Tags        projects
// @Produce     json
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.ShareTokenResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/share-token [post]
func (h *ProjectsHandler) IssueShareToken(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	project, err := h.db.GetProject(projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}

	if !project.ShareToken.Valid {
		token := uuid.NewString()
		set, err := h.db.SetProjectShareToken(projectID, token)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to issue share token",
				Message: err.Error(),
			})
			return
		}
		if set {
			project.ShareToken = sql.NullString{String: token, Valid: true}
		} else {
			// Lost a race with a concurrent issue; the stored token wins.
			project, err = h.db.GetProject(projectID)
			if err != nil || !project.ShareToken.Valid {
				c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to issue share token"})
				return
			}
		}
		h.cache.Invalidate(projectID.String())
	}

	c.JSON(http.StatusOK, models.ShareTokenResponse{
		ShareToken: project.ShareToken.String,
		ShareURL:   fmt.Sprintf("%s/share/%s", h.cfg.BaseURL, project.ShareToken.String),
	})
}

func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	if _, err := h.db.GetProject(projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete project",
			Message: err.Error(),
		})
		return
	}

	if err := h.storage.DeleteProjectFiles(projectID); err != nil {
		log.Printf("Failed to delete project files for %s: %v", projectID, err)
	}

	// The FK cascade removes the project's progress updates with it.
	if err := h.db.DeleteProject(projectID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete project",
			Message: err.Error(),
		})
		return
	}

	h.cache.Invalidate(projectID.String())
	c.JSON(http.StatusOK, gin.H{"message": "project deleted successfully"})
}
