// @title           ObraLink Backend API
// @version         1.0.0
// @description     Backend API for sharing construction progress. Contractors record dated milestone updates with photo evidence; clients follow a password-gated, read-only timeline through a share link.

// @contact.name   API Support
// @contact.email  support@example.com

// @host      localhost:8080
// @BasePath  /api/v1

package main

import (
	"log"
	"net/http"
	"net/url"

	"obralink-backend/docs"
	"obralink-backend/internal/cache"
	"obralink-backend/internal/config"
	"obralink-backend/internal/database"
	"obralink-backend/internal/handlers"
	"obralink-backend/internal/services"
	"obralink-backend/internal/supabase"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required. Set it to your Supabase PostgreSQL connection string.")
	}

	// Database client for direct queries
	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database client: %v", err)
	}
	defer dbClient.Close()

	// Run migrations
	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Run(); err != nil {
		migrator.Close()
		log.Fatalf("Migration failed: %v", err)
	}
	migrator.Close()
	log.Println("Migrations completed successfully")

	// Blob storage client
	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	// Cached project views, invalidated by the write path
	viewCache := cache.New()

	updateService := services.NewUpdateService(dbClient, dbClient, storageClient, viewCache)

	projectsHandler := handlers.NewProjectsHandler(cfg, dbClient, storageClient, viewCache)
	updatesHandler := handlers.NewUpdatesHandler(updateService, dbClient, dbClient)
	uploadHandler := handlers.NewUploadHandler(cfg, dbClient, storageClient)
	shareHandler := handlers.NewShareHandler(cfg, dbClient, dbClient, viewCache)

	// Setup router
	router := gin.Default()

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")

	// Project routes
	api.POST("/projects", projectsHandler.CreateProject)
	api.GET("/projects", projectsHandler.ListProjects)
	api.GET("/projects/:project_id", projectsHandler.GetProject)
	api.PATCH("/projects/:project_id", projectsHandler.UpdateProject)
	api.DELETE("/projects/:project_id", projectsHandler.DeleteProject)
	api.POST("/projects/:project_id/share-token", projectsHandler.IssueShareToken)

	// Progress updates
	api.POST("/projects/:project_id/updates", updatesHandler.CreateUpdate)
	api.GET("/projects/:project_id/updates", updatesHandler.ListUpdates)
	api.GET("/projects/:project_id/updates/:update_id", updatesHandler.GetUpdate)
	api.DELETE("/projects/:project_id/updates/:update_id", updatesHandler.DeleteUpdate)
	api.DELETE("/projects/:project_id/updates/:update_id/attachments", updatesHandler.DeleteAttachment)

	// Direct browser upload authorization
	api.POST("/uploads/authorize", uploadHandler.AuthorizeUpload)

	// Public share view (password gated, no API auth)
	router.GET("/share/:token", shareHandler.Timeline)
	router.POST("/share/:token/access", shareHandler.Access)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
