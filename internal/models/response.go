package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MessageResponse carries user-facing form feedback, e.g.
// "Faltan campos obligatorios".
type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ProjectResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	ClientName string    `json:"client_name"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date,omitempty"`
	Status     string    `json:"status"`
	ShareToken string    `json:"share_token,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type ShareTokenResponse struct {
	ShareToken string `json:"share_token"`
	ShareURL   string `json:"share_url"`
}

// UpdateResponse keeps the legacy "images" field name even though entries may
// reference non-image files.
type UpdateResponse struct {
	ID            string       `json:"id"`
	ProjectID     string       `json:"project_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Date          string       `json:"date"`
	Stage         string       `json:"stage"`
	Images        []Attachment `json:"images"`
	ResponsableID string       `json:"responsable_id"`
	CreatedAt     time.Time    `json:"created_at"`
}

type UpdateListResponse struct {
	Updates []UpdateResponse `json:"updates"`
}

type UpdateDetailResponse struct {
	Update  UpdateResponse  `json:"update"`
	Project ProjectResponse `json:"project"`
}

type AuthorizeUploadResponse struct {
	Path      string `json:"path"`
	UploadURL string `json:"upload_url"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type PasswordPromptResponse struct {
	PasswordRequired bool   `json:"password_required"`
	ProjectName      string `json:"project_name"`
}

type TimelineResponse struct {
	Project ProjectResponse  `json:"project"`
	Updates []UpdateResponse `json:"updates"`
}
