package handlers

import (
	"database/sql"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"obralink-backend/internal/models"
	"obralink-backend/internal/services"
	"obralink-backend/internal/supabase"
	"obralink-backend/internal/uploader"
)

// MsgMissingFields is the user-facing validation message, kept verbatim from
// the contractor-facing form.
const MsgMissingFields = "Faltan campos obligatorios"

const msgPersistenceFailed = "Error al guardar en base de datos"

type UpdatesHandler struct {
	service  *services.UpdateService
	db       UpdateStore
	projects ProjectStore
}

func NewUpdatesHandler(service *services.UpdateService, db UpdateStore, projects ProjectStore) *UpdatesHandler {
	return &UpdatesHandler{
		service:  service,
		db:       db,
		projects: projects,
	}
}

// CreateUpdate godoc
// @Summary     Record a progress update
// @Description Creates a dated milestone update for a project. Accepts pre-uploaded blob URLs (image_urls) plus raw files as a server-side fallback; fallback files are uploaded before the record is written and any upload failure aborts the whole submission.
// @Tags        updates
// @Accept      multipart/form-data
// @Produce     json
// @Param       project_id path string true "Project ID (UUID)"
// @Param       title formData string true "Update title"
// @Param       date formData string true "Milestone date (YYYY-MM-DD)"
// @Param       stage formData string true "Construction stage"
// @Param       description formData string false "Details"
// @Param       image_urls formData string false "Already-uploaded blob URLs (repeatable)"
// @Param       files formData file false "Fallback files (repeatable)"
// @Success     201 {object} models.UpdateResponse
// @Failure     400 {object} models.MessageResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.MessageResponse
// @Router      /projects/{project_id}/updates [post]
func (h *UpdatesHandler) CreateUpdate(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: err.Error(),
		})
		return
	}

	input := services.CreateUpdateInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Date:        c.PostForm("date"),
		Stage:       c.PostForm("stage"),
		ImageURLs:   c.PostFormArray("image_urls"),
	}

	var headers []*multipart.FileHeader
	if form := c.Request.MultipartForm; form != nil {
		for _, fieldName := range []string{"files", "file", "images", "image"} {
			if f := form.File[fieldName]; len(f) > 0 {
				headers = f
				break
			}
		}
	}

	files := make([]uploader.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "failed to read uploaded file",
				Message: err.Error(),
			})
			return
		}
		defer f.Close()
		files = append(files, uploader.File{
			Path: supabase.ObjectPath(projectID, supabase.NewObjectKey(fh.Filename)),
			Size: fh.Size,
			Data: f,
		})
	}
	input.Files = files

	update, err := h.service.Create(c.Request.Context(), projectID, input, nil)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			c.JSON(http.StatusBadRequest, models.MessageResponse{Message: MsgMissingFields})
		case errors.Is(err, services.ErrProjectNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		case errors.Is(err, services.ErrUpload):
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to upload files",
				Message: err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, models.MessageResponse{Message: msgPersistenceFailed})
		}
		return
	}

	c.JSON(http.StatusCreated, toUpdateResponse(update))
}

func (h *UpdatesHandler) ListUpdates(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	if _, err := h.projects.GetProject(projectID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}

	updates, err := h.db.ListUpdatesByProject(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list updates",
			Message: err.Error(),
		})
		return
	}

	responses := make([]models.UpdateResponse, len(updates))
	for i := range updates {
		responses[i] = toUpdateResponse(&updates[i])
	}

	c.JSON(http.StatusOK, models.UpdateListResponse{Updates: responses})
}

func (h *UpdatesHandler) GetUpdate(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}
	updateID, err := uuid.Parse(c.Param("update_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid update id"})
		return
	}

	update, project, err := h.db.GetUpdate(updateID)
	if err != nil || update.ProjectID != projectID {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "update not found"})
		return
	}

	c.JSON(http.StatusOK, models.UpdateDetailResponse{
		Update:  toUpdateResponse(update),
		Project: toProjectResponse(project),
	})
}

func (h *UpdatesHandler) DeleteUpdate(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}
	updateID, err := uuid.Parse(c.Param("update_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid update id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), projectID, updateID); err != nil {
		if errors.Is(err, services.ErrUpdateNotFound) || errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "update not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete update",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "update deleted successfully"})
}

func (h *UpdatesHandler) DeleteAttachment(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}
	updateID, err := uuid.Parse(c.Param("update_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid update id"})
		return
	}

	var req models.DeleteAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	if err := h.service.RemoveAttachment(c.Request.Context(), projectID, updateID, req.URL); err != nil {
		if errors.Is(err, services.ErrUpdateNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "attachment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete attachment",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "attachment deleted successfully"})
}
