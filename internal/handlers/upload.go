package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"obralink-backend/internal/config"
	"obralink-backend/internal/middleware"
	"obralink-backend/internal/models"
	"obralink-backend/internal/supabase"
)

type UploadHandler struct {
	cfg     *config.Config
	db      ProjectStore
	storage *supabase.StorageClient
}

func NewUploadHandler(cfg *config.Config, db ProjectStore, storage *supabase.StorageClient) *UploadHandler {
	return &UploadHandler{
		cfg:     cfg,
		db:      db,
		storage: storage,
	}
}

// AuthorizeUpload godoc
// @Summary     Authorize a direct browser upload
// @Description Mints a collision-resistant object path and a short-lived grant so the browser can push payload bytes straight to the blob store, bypassing this server.
// @Tags        upload
// @Accept      json
// @Produce     json
// @Param       request body models.AuthorizeUploadRequest true "File to authorize"
// @Success     200 {object} models.AuthorizeUploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /uploads/authorize [post]
func (h *UploadHandler) AuthorizeUpload(c *gin.Context) {
	var req models.AuthorizeUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	if _, err := h.db.GetProject(projectID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "project not found"})
		return
	}

	path := supabase.ObjectPath(projectID, supabase.NewObjectKey(req.Filename))
	token, err := middleware.NewUploadGrant(h.cfg, path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to authorize upload",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.AuthorizeUploadResponse{
		Path:      path,
		UploadURL: h.storage.UploadEndpoint(path),
		Token:     token,
		ExpiresIn: int(middleware.UploadGrantTTL.Seconds()),
	})
}
