package supabase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// NewObjectKey builds a collision-resistant object name from the original
// filename: unix-millis timestamp plus a random suffix.
func NewObjectKey(filename string) string {
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix), sanitizeFilename(filename))
}

func sanitizeFilename(filename string) string {
	base := path.Base(filename)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}

// ObjectPath places an object under its owning project's prefix so a project
// delete can clear everything with one prefix listing.
func ObjectPath(projectID uuid.UUID, key string) string {
	return fmt.Sprintf("projects/%s/%s", projectID.String(), key)
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".pdf":
		return "application/pdf"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// Upload stores an object and returns its public URL. The supabase client has
// no context support, so cancellation is only checked before the transfer
// starts.
func (s *StorageClient) Upload(ctx context.Context, storagePath string, data io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	contentType := contentTypeFor(storagePath)
	upsert := false
	_, err := s.client.UploadFile(s.bucket, storagePath, data, storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return s.PublicURL(storagePath), nil
}

func (s *StorageClient) PublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, storagePath)
}

// UploadEndpoint is the raw object endpoint a browser client targets when it
// uploads directly with a short-lived grant.
func (s *StorageClient) UploadEndpoint(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, storagePath)
}

// PathFromPublicURL maps a public URL back to its bucket path. Returns false
// for URLs that do not belong to this bucket.
func (s *StorageClient) PathFromPublicURL(publicURL string) (string, bool) {
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", s.baseURL, s.bucket)
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	return strings.TrimPrefix(publicURL, prefix), true
}

func (s *StorageClient) Delete(storagePath string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{storagePath})
	return err
}

func (s *StorageClient) DeleteProjectFiles(projectID uuid.UUID) error {
	prefix := fmt.Sprintf("projects/%s/", projectID.String())

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) > 0 {
		filePaths := make([]string, len(files))
		for i, file := range files {
			filePaths[i] = file.Name
		}
		_, err = s.client.RemoveFile(s.bucket, filePaths)
		if err != nil {
			return fmt.Errorf("failed to delete files: %w", err)
		}
	}

	return nil
}
