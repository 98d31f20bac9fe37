package handlers

import (
	"github.com/google/uuid"
	"obralink-backend/internal/models"
)

const dateLayout = "2006-01-02"

// ProjectStore is the persistence surface the project handlers depend on.
// *supabase.DatabaseClient satisfies it; tests use an in-memory fake.
type ProjectStore interface {
	CreateProject(p *models.Project) (*models.Project, error)
	GetProject(projectID uuid.UUID) (*models.Project, error)
	GetProjectByShareToken(token string) (*models.Project, error)
	ListProjects() ([]models.Project, error)
	UpdateProject(p *models.Project) error
	SetProjectShareToken(projectID uuid.UUID, token string) (bool, error)
	DeleteProject(projectID uuid.UUID) error
}

type UpdateStore interface {
	ListUpdatesByProject(projectID uuid.UUID) ([]models.ProgressUpdate, error)
	GetUpdate(updateID uuid.UUID) (*models.ProgressUpdate, *models.Project, error)
}

func toProjectResponse(p *models.Project) models.ProjectResponse {
	resp := models.ProjectResponse{
		ID:         p.ID.String(),
		Name:       p.Name,
		Address:    p.Address,
		ClientName: p.ClientName,
		StartDate:  p.StartDate.Format(dateLayout),
		Status:     p.Status,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.EndDate.Valid {
		resp.EndDate = p.EndDate.Time.Format(dateLayout)
	}
	if p.ShareToken.Valid {
		resp.ShareToken = p.ShareToken.String
	}
	return resp
}

// toPublicProjectResponse is the share-view shape: no share token echoed back.
func toPublicProjectResponse(p *models.Project) models.ProjectResponse {
	resp := toProjectResponse(p)
	resp.ShareToken = ""
	return resp
}

func toUpdateResponse(u *models.ProgressUpdate) models.UpdateResponse {
	attachments := u.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	return models.UpdateResponse{
		ID:            u.ID.String(),
		ProjectID:     u.ProjectID.String(),
		Title:         u.Title,
		Description:   u.Description,
		Date:          u.Date.Format(dateLayout),
		Stage:         string(u.Stage),
		Images:        attachments,
		ResponsableID: u.ResponsableID,
		CreatedAt:     u.CreatedAt,
	}
}
