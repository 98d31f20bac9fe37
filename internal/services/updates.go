package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"obralink-backend/internal/cache"
	"obralink-backend/internal/models"
	"obralink-backend/internal/uploader"
)

var (
	ErrValidation      = errors.New("missing required fields")
	ErrProjectNotFound = errors.New("project not found")
	ErrUpdateNotFound  = errors.New("progress update not found")
	ErrUpload          = errors.New("file upload failed")
)

type ProjectStore interface {
	GetProject(projectID uuid.UUID) (*models.Project, error)
}

type UpdateStore interface {
	CreateUpdate(u *models.ProgressUpdate) (*models.ProgressUpdate, error)
	GetUpdate(updateID uuid.UUID) (*models.ProgressUpdate, *models.Project, error)
	SetUpdateAttachments(updateID uuid.UUID, attachments []models.Attachment) error
	DeleteUpdate(updateID, projectID uuid.UUID) error
}

// BlobStore extends the uploader's write surface with the delete side needed
// for compensating cleanup.
type BlobStore interface {
	uploader.BlobStore
	Delete(storagePath string) error
	PathFromPublicURL(publicURL string) (string, bool)
}

// UpdateService implements the progress-update lifecycle: validated creation
// with attachment upload, deletion, and single-attachment removal. Every
// write invalidates the owning project's cached views.
type UpdateService struct {
	projects ProjectStore
	updates  UpdateStore
	blobs    BlobStore
	cache    *cache.Cache
}

func NewUpdateService(projects ProjectStore, updates UpdateStore, blobs BlobStore, c *cache.Cache) *UpdateService {
	return &UpdateService{
		projects: projects,
		updates:  updates,
		blobs:    blobs,
		cache:    c,
	}
}

type CreateUpdateInput struct {
	Title       string
	Description string
	Date        string
	Stage       string

	// ImageURLs were already uploaded by the browser; Files is the
	// server-side fallback payload. The final attachment list keeps client
	// URLs first, in submission order.
	ImageURLs []string
	Files     []uploader.File
}

// Create validates the submission, uploads any fallback files, and persists
// one new progress update. A single upload failure aborts the whole
// submission and already-transferred blobs are reclaimed, so a record is
// never written with a partial attachment set.
func (s *UpdateService) Create(ctx context.Context, projectID uuid.UUID, in CreateUpdateInput, onProgress uploader.ProgressFunc) (*models.ProgressUpdate, error) {
	if in.Title == "" || in.Date == "" || in.Stage == "" {
		return nil, ErrValidation
	}
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrValidation, in.Date)
	}
	stage, err := models.ParseStage(in.Stage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if _, err := s.projects.GetProject(projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	results, err := uploader.UploadAll(ctx, s.blobs, in.Files, onProgress)
	if err != nil {
		s.reclaim(results)
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	attachments := make([]models.Attachment, 0, len(in.ImageURLs)+len(results))
	for _, url := range in.ImageURLs {
		attachments = append(attachments, models.ClassifyAttachment(url))
	}
	for _, r := range results {
		attachments = append(attachments, models.ClassifyAttachment(r.URL))
	}

	update, err := s.updates.CreateUpdate(&models.ProgressUpdate{
		ProjectID:     projectID,
		Title:         in.Title,
		Description:   in.Description,
		Date:          date,
		Stage:         stage,
		Attachments:   attachments,
		ResponsableID: models.DefaultResponsableID,
	})
	if err != nil {
		// The blobs uploaded for this submission would be orphaned.
		s.reclaim(results)
		return nil, err
	}

	s.cache.Invalidate(projectID.String())
	return update, nil
}

// Delete removes an update and best-effort deletes its blobs. Blob cleanup
// failures are logged, not surfaced: the record removal already happened.
func (s *UpdateService) Delete(ctx context.Context, projectID, updateID uuid.UUID) error {
	update, _, err := s.updates.GetUpdate(updateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUpdateNotFound
		}
		return err
	}
	if update.ProjectID != projectID {
		return ErrUpdateNotFound
	}

	if err := s.updates.DeleteUpdate(updateID, projectID); err != nil {
		return err
	}

	for _, a := range update.Attachments {
		s.deleteBlobByURL(a.URL)
	}

	s.cache.Invalidate(projectID.String())
	return nil
}

// RemoveAttachment drops one URL from an update's attachment list and
// best-effort deletes the backing blob.
func (s *UpdateService) RemoveAttachment(ctx context.Context, projectID, updateID uuid.UUID, url string) error {
	update, _, err := s.updates.GetUpdate(updateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUpdateNotFound
		}
		return err
	}
	if update.ProjectID != projectID {
		return ErrUpdateNotFound
	}

	remaining := make([]models.Attachment, 0, len(update.Attachments))
	found := false
	for _, a := range update.Attachments {
		if a.URL == url {
			found = true
			continue
		}
		remaining = append(remaining, a)
	}
	if !found {
		return ErrUpdateNotFound
	}

	if err := s.updates.SetUpdateAttachments(updateID, remaining); err != nil {
		return err
	}

	s.deleteBlobByURL(url)
	s.cache.Invalidate(projectID.String())
	return nil
}

func (s *UpdateService) reclaim(uploaded []uploader.Result) {
	for _, r := range uploaded {
		if err := s.blobs.Delete(r.Path); err != nil {
			log.Printf("Failed to reclaim orphaned blob %s: %v", r.Path, err)
		}
	}
}

func (s *UpdateService) deleteBlobByURL(url string) {
	path, ok := s.blobs.PathFromPublicURL(url)
	if !ok {
		return
	}
	if err := s.blobs.Delete(path); err != nil {
		log.Printf("Failed to delete blob %s: %v", path, err)
	}
}
