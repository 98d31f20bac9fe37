package supabase

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"obralink-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

const projectColumns = `id, name, address, client_name, start_date, end_date, status, share_token, share_password, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.Name, &p.Address, &p.ClientName, &p.StartDate, &p.EndDate,
		&p.Status, &p.ShareToken, &p.SharePassword, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DatabaseClient) CreateProject(p *models.Project) (*models.Project, error) {
	row := d.db.QueryRow(`
		INSERT INTO projects (name, address, client_name, start_date, end_date, status, share_password)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+projectColumns+`
	`, p.Name, p.Address, p.ClientName, p.StartDate, p.EndDate, p.Status, p.SharePassword)

	project, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

func (d *DatabaseClient) GetProject(projectID uuid.UUID) (*models.Project, error) {
	row := d.db.QueryRow(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1
	`, projectID)

	project, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func (d *DatabaseClient) GetProjectByShareToken(token string) (*models.Project, error) {
	row := d.db.QueryRow(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE share_token = $1
	`, token)

	project, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get project by share token: %w", err)
	}
	return project, nil
}

// FindOrCreateProjectByName returns the existing project with the given name
// or inserts defaults when none exists.
func (d *DatabaseClient) FindOrCreateProjectByName(defaults *models.Project) (*models.Project, error) {
	row := d.db.QueryRow(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE name = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, defaults.Name)

	project, err := scanProject(row)
	if err == nil {
		return project, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to find project by name: %w", err)
	}

	return d.CreateProject(defaults)
}

func (d *DatabaseClient) ListProjects() ([]models.Project, error) {
	rows, err := d.db.Query(`
		SELECT ` + projectColumns + `
		FROM projects
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *project)
	}

	return projects, nil
}

func (d *DatabaseClient) UpdateProject(p *models.Project) error {
	_, err := d.db.Exec(`
		UPDATE projects
		SET name = $1, address = $2, client_name = $3, start_date = $4,
		    end_date = $5, status = $6, share_password = $7, updated_at = NOW()
		WHERE id = $8
	`, p.Name, p.Address, p.ClientName, p.StartDate, p.EndDate, p.Status, p.SharePassword, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

// SetProjectShareToken stores a share token on a project that does not have
// one yet. Tokens are issued once and never rotated.
func (d *DatabaseClient) SetProjectShareToken(projectID uuid.UUID, token string) (bool, error) {
	result, err := d.db.Exec(`
		UPDATE projects
		SET share_token = $1, updated_at = NOW()
		WHERE id = $2 AND share_token IS NULL
	`, token, projectID)
	if err != nil {
		return false, fmt.Errorf("failed to set share token: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to set share token: %w", err)
	}
	return affected == 1, nil
}

func (d *DatabaseClient) DeleteProject(projectID uuid.UUID) error {
	// progress_updates rows go with the project via ON DELETE CASCADE
	_, err := d.db.Exec(`
		DELETE FROM projects
		WHERE id = $1
	`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

const updateColumns = `id, project_id, title, description, date, stage, attachments, responsable_id, created_at`

func scanUpdate(row interface{ Scan(...any) error }) (*models.ProgressUpdate, error) {
	var u models.ProgressUpdate
	var stage string
	var attachmentsJSON []byte
	err := row.Scan(
		&u.ID, &u.ProjectID, &u.Title, &u.Description, &u.Date, &stage,
		&attachmentsJSON, &u.ResponsableID, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Stage = models.Stage(stage)
	u.Attachments = []models.Attachment{}
	if len(attachmentsJSON) > 0 {
		if err := json.Unmarshal(attachmentsJSON, &u.Attachments); err != nil {
			return nil, fmt.Errorf("failed to decode attachments: %w", err)
		}
	}
	return &u, nil
}

func (d *DatabaseClient) CreateUpdate(u *models.ProgressUpdate) (*models.ProgressUpdate, error) {
	attachments := u.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attachments: %w", err)
	}

	row := d.db.QueryRow(`
		INSERT INTO progress_updates (project_id, title, description, date, stage, attachments, responsable_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+updateColumns+`
	`, u.ProjectID, u.Title, u.Description, u.Date, string(u.Stage), attachmentsJSON, u.ResponsableID)

	update, err := scanUpdate(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress update: %w", err)
	}
	return update, nil
}

// ListUpdatesByProject returns a project's updates ordered most recent
// milestone first.
func (d *DatabaseClient) ListUpdatesByProject(projectID uuid.UUID) ([]models.ProgressUpdate, error) {
	rows, err := d.db.Query(`
		SELECT `+updateColumns+`
		FROM progress_updates
		WHERE project_id = $1
		ORDER BY date DESC, created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress updates: %w", err)
	}
	defer rows.Close()

	var updates []models.ProgressUpdate
	for rows.Next() {
		update, err := scanUpdate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress update: %w", err)
		}
		updates = append(updates, *update)
	}

	return updates, nil
}

// GetUpdate fetches one update together with its parent project.
func (d *DatabaseClient) GetUpdate(updateID uuid.UUID) (*models.ProgressUpdate, *models.Project, error) {
	update, err := scanUpdate(d.db.QueryRow(`
		SELECT `+updateColumns+`
		FROM progress_updates
		WHERE id = $1
	`, updateID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get progress update: %w", err)
	}

	project, err := d.GetProject(update.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return update, project, nil
}

func (d *DatabaseClient) SetUpdateAttachments(updateID uuid.UUID, attachments []models.Attachment) error {
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		return fmt.Errorf("failed to encode attachments: %w", err)
	}

	_, err = d.db.Exec(`
		UPDATE progress_updates
		SET attachments = $1
		WHERE id = $2
	`, attachmentsJSON, updateID)
	if err != nil {
		return fmt.Errorf("failed to update attachments: %w", err)
	}
	return nil
}

func (d *DatabaseClient) DeleteUpdate(updateID, projectID uuid.UUID) error {
	_, err := d.db.Exec(`
		DELETE FROM progress_updates
		WHERE id = $1 AND project_id = $2
	`, updateID, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete progress update: %w", err)
	}
	return nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
