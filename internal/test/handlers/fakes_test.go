package handlers_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"obralink-backend/internal/models"
)

// fakeStore is an in-memory stand-in for *supabase.DatabaseClient.
type fakeStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*models.Project
	updates  map[uuid.UUID]*models.ProgressUpdate
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: make(map[uuid.UUID]*models.Project),
		updates:  make(map[uuid.UUID]*models.ProgressUpdate),
	}
}

func (s *fakeStore) addProject(p models.Project) *models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.projects[p.ID] = &p
	return &p
}

func (s *fakeStore) CreateProject(p *models.Project) (*models.Project, error) {
	return s.addProject(*p), nil
}

func (s *fakeStore) GetProject(projectID uuid.UUID) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("failed to get project: %w", sql.ErrNoRows)
	}
	copied := *p
	return &copied, nil
}

func (s *fakeStore) GetProjectByShareToken(token string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ShareToken.Valid && p.ShareToken.String == token {
			copied := *p
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("failed to get project by share token: %w", sql.ErrNoRows)
}

func (s *fakeStore) ListProjects() ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Project
	for _, p := range s.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeStore) UpdateProject(p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return fmt.Errorf("failed to update project: %w", sql.ErrNoRows)
	}
	copied := *p
	s.projects[p.ID] = &copied
	return nil
}

func (s *fakeStore) SetProjectShareToken(projectID uuid.UUID, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok || p.ShareToken.Valid {
		return false, nil
	}
	p.ShareToken = sql.NullString{String: token, Valid: true}
	return true, nil
}

func (s *fakeStore) DeleteProject(projectID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, projectID)
	for id, u := range s.updates {
		if u.ProjectID == projectID {
			delete(s.updates, id)
		}
	}
	return nil
}

func (s *fakeStore) CreateUpdate(u *models.ProgressUpdate) (*models.ProgressUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *u
	copied.ID = uuid.New()
	copied.CreatedAt = time.Now()
	s.updates[copied.ID] = &copied
	result := copied
	return &result, nil
}

func (s *fakeStore) ListUpdatesByProject(projectID uuid.UUID) ([]models.ProgressUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ProgressUpdate
	for _, u := range s.updates {
		if u.ProjectID == projectID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *fakeStore) GetUpdate(updateID uuid.UUID) (*models.ProgressUpdate, *models.Project, error) {
	s.mu.Lock()
	u, ok := s.updates[updateID]
	s.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("failed to get progress update: %w", sql.ErrNoRows)
	}
	copied := *u
	project, err := s.GetProject(copied.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return &copied, project, nil
}

func (s *fakeStore) SetUpdateAttachments(updateID uuid.UUID, attachments []models.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.updates[updateID]
	if !ok {
		return fmt.Errorf("failed to update attachments: %w", sql.ErrNoRows)
	}
	u.Attachments = attachments
	return nil
}

func (s *fakeStore) DeleteUpdate(updateID, projectID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.updates, updateID)
	return nil
}

func (s *fakeStore) updateCount(projectID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.updates {
		if u.ProjectID == projectID {
			n++
		}
	}
	return n
}

const fakeBlobBase = "https://blob.test/public/"

// fakeBlobStore records uploads and deletes; failSubstring makes uploads of
// matching paths fail.
type fakeBlobStore struct {
	mu            sync.Mutex
	objects       map[string][]byte
	deleted       []string
	failSubstring string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (b *fakeBlobStore) Upload(ctx context.Context, path string, data io.Reader) (string, error) {
	if b.failSubstring != "" && strings.Contains(path, b.failSubstring) {
		return "", fmt.Errorf("transfer refused for %s", path)
	}
	payload, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[path] = payload
	return fakeBlobBase + path, nil
}

func (b *fakeBlobStore) Delete(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, path)
	b.deleted = append(b.deleted, path)
	return nil
}

func (b *fakeBlobStore) PathFromPublicURL(publicURL string) (string, bool) {
	if !strings.HasPrefix(publicURL, fakeBlobBase) {
		return "", false
	}
	return strings.TrimPrefix(publicURL, fakeBlobBase), true
}

func (b *fakeBlobStore) DeleteProjectFiles(projectID uuid.UUID) error {
	prefix := "projects/" + projectID.String() + "/"
	b.mu.Lock()
	defer b.mu.Unlock()
	for path := range b.objects {
		if strings.HasPrefix(path, prefix) {
			delete(b.objects, path)
			b.deleted = append(b.deleted, path)
		}
	}
	return nil
}
