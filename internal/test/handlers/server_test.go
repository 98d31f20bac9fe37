package handlers_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"obralink-backend/internal/cache"
	"obralink-backend/internal/config"
	"obralink-backend/internal/handlers"
	"obralink-backend/internal/services"
	"obralink-backend/internal/supabase"
)

type testServer struct {
	router *gin.Engine
	store  *fakeStore
	blob   *fakeBlobStore
	cache  *cache.Cache
	cfg    *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		SupabaseURL:            "https://example.supabase.co",
		SupabasePublishableKey: "test-publishable-key",
		SupabaseJWTSecret:      "test-supabase-jwt-secret",
		SupabaseStorageBucket:  "progress-evidence",
		SharePassword:          "123",
		ShareCookieSecret:      "test-share-cookie-secret",
		DatabaseURL:            "postgres://unused",
		Port:                   "8080",
		Environment:            "test",
		BaseURL:                "http://localhost:8080",
	}

	store := newFakeStore()
	blob := newFakeBlobStore()
	viewCache := cache.New()

	updateService := services.NewUpdateService(store, store, blob, viewCache)

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		t.Fatalf("failed to build storage client: %v", err)
	}

	projectsHandler := handlers.NewProjectsHandler(cfg, store, blob, viewCache)
	updatesHandler := handlers.NewUpdatesHandler(updateService, store, store)
	uploadHandler := handlers.NewUploadHandler(cfg, store, storageClient)
	shareHandler := handlers.NewShareHandler(cfg, store, store, viewCache)

	router := gin.New()
	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api/v1")
	api.POST("/projects", projectsHandler.CreateProject)
	api.GET("/projects", projectsHandler.ListProjects)
	api.GET("/projects/:project_id", projectsHandler.GetProject)
	api.PATCH("/projects/:project_id", projectsHandler.UpdateProject)
	api.DELETE("/projects/:project_id", projectsHandler.DeleteProject)
	api.POST("/projects/:project_id/share-token", projectsHandler.IssueShareToken)
	api.POST("/projects/:project_id/updates", updatesHandler.CreateUpdate)
	api.GET("/projects/:project_id/updates", updatesHandler.ListUpdates)
	api.GET("/projects/:project_id/updates/:update_id", updatesHandler.GetUpdate)
	api.DELETE("/projects/:project_id/updates/:update_id", updatesHandler.DeleteUpdate)
	api.DELETE("/projects/:project_id/updates/:update_id/attachments", updatesHandler.DeleteAttachment)
	api.POST("/uploads/authorize", uploadHandler.AuthorizeUpload)

	router.GET("/share/:token", shareHandler.Timeline)
	router.POST("/share/:token/access", shareHandler.Access)

	return &testServer{
		router: router,
		store:  store,
		blob:   blob,
		cache:  viewCache,
		cfg:    cfg,
	}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

type formFile struct {
	field    string
	filename string
	content  []byte
}

// multipartRequest builds the update-submission form the dashboard posts.
func multipartRequest(t *testing.T, url string, fields map[string][]string, files []formFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, values := range fields {
		for _, value := range values {
			if err := writer.WriteField(name, value); err != nil {
				t.Fatalf("failed to write field %s: %v", name, err)
			}
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(f.content)); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req, _ := http.NewRequest("POST", url, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
