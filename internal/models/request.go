package models

type CreateProjectRequest struct {
	Name          string `json:"name" binding:"required"`
	Address       string `json:"address" binding:"required"`
	ClientName    string `json:"client_name" binding:"required"`
	StartDate     string `json:"start_date" binding:"required"`
	EndDate       string `json:"end_date"`
	Status        string `json:"status"`
	SharePassword string `json:"share_password"`
}

type UpdateProjectRequest struct {
	Name          *string `json:"name"`
	Address       *string `json:"address"`
	ClientName    *string `json:"client_name"`
	StartDate     *string `json:"start_date"`
	EndDate       *string `json:"end_date"`
	Status        *string `json:"status"`
	SharePassword *string `json:"share_password"`
}

type AuthorizeUploadRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
	Filename  string `json:"filename" binding:"required"`
	Size      int64  `json:"size"`
}

type ShareAccessRequest struct {
	Password string `json:"password" form:"password"`
}

type DeleteAttachmentRequest struct {
	URL string `json:"url" binding:"required"`
}
