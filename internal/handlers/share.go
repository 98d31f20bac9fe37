package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"obralink-backend/internal/cache"
	"obralink-backend/internal/config"
	"obralink-backend/internal/middleware"
	"obralink-backend/internal/models"
)

// MsgWrongPassword is returned for both a wrong password and an unknown
// token, so error text cannot be used to enumerate tokens.
const MsgWrongPassword = "Contraseña incorrecta"

type ShareHandler struct {
	cfg     *config.Config
	db      ProjectStore
	updates UpdateStore
	cache   *cache.Cache
}

func NewShareHandler(cfg *config.Config, db ProjectStore, updates UpdateStore, c *cache.Cache) *ShareHandler {
	return &ShareHandler{
		cfg:     cfg,
		db:      db,
		updates: updates,
		cache:   c,
	}
}

// Access godoc
// @Summary     Unlock a shared timeline
// @Description Compares the submitted password against the project's share secret and sets the scoped access cookie on match.
// @Tags        share
// @Accept      json
// @Produce     json
// @Param       token path string true "Share token"
// @Param       request body models.ShareAccessRequest true "Access password"
// @Success     200 {object} models.MessageResponse
// @Failure     401 {object} models.MessageResponse
// @Router      /share/{token}/access [post]
func (h *ShareHandler) Access(c *gin.Context) {
	token := c.Param("token")

	var req models.ShareAccessRequest
	if err := c.ShouldBind(&req); err != nil || req.Password == "" {
		c.JSON(http.StatusUnauthorized, models.MessageResponse{Message: MsgWrongPassword})
		return
	}

	// The deployment-wide secret applies unless the project carries its own.
	// An unknown token still runs the comparison and fails with the same
	// message as a wrong password.
	expected := h.cfg.SharePassword
	project, err := h.db.GetProjectByShareToken(token)
	if err == nil && project.SharePassword.Valid {
		expected = project.SharePassword.String
	}

	match := subtle.ConstantTimeCompare([]byte(req.Password), []byte(expected)) == 1
	if err != nil || !match {
		c.JSON(http.StatusUnauthorized, models.MessageResponse{Message: MsgWrongPassword})
		return
	}

	if err := middleware.SetShareCookie(c, h.cfg, token); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to grant access"})
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "access granted"})
}

// Timeline godoc
// @Summary     Read-only project timeline
// @Description Resolves the project by share token. Without a valid access cookie the response is a password prompt; with one, the full update timeline ordered most recent first.
// @Tags        share
// @Produce     json
// @Param       token path string true "Share token"
// @Success     200 {object} models.TimelineResponse
// @Failure     401 {object} models.PasswordPromptResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /share/{token} [get]
func (h *ShareHandler) Timeline(c *gin.Context) {
	token := c.Param("token")

	project, err := h.db.GetProjectByShareToken(token)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
		return
	}

	if !middleware.HasShareAccess(c, h.cfg, token) {
		c.JSON(http.StatusUnauthorized, models.PasswordPromptResponse{
			PasswordRequired: true,
			ProjectName:      project.Name,
		})
		return
	}

	cacheKey := cache.Key("timeline", project.ID.String())
	if data, ok := h.cache.Get(cacheKey); ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)
		return
	}

	updates, err := h.updates.ListUpdatesByProject(project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load timeline",
			Message: err.Error(),
		})
		return
	}

	responses := make([]models.UpdateResponse, len(updates))
	for i := range updates {
		responses[i] = toUpdateResponse(&updates[i])
	}

	response := models.TimelineResponse{
		Project: toPublicProjectResponse(project),
		Updates: responses,
	}
	if data, err := json.Marshal(response); err == nil {
		h.cache.Set(cacheKey, data)
	}

	c.JSON(http.StatusOK, response)
}
