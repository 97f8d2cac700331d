package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devforge/backend/internal/models"
	"devforge/backend/pkg/config"
	"devforge/backend/pkg/di"
	"devforge/backend/pkg/logger"
	"devforge/backend/pkg/router"
	"devforge/backend/pkg/secrets"
	"devforge/backend/shared/observability"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	cfg := config.New()

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	if cfg.Logging.Level != "" {
		logConfig.Level = cfg.Logging.Level
	}
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", os.Getenv("APP_VERSION"), "env", cfg.Server.Env)

	// Pull sensitive values from Vault when available, env values otherwise
	if err := secrets.Init(log); err != nil {
		log.Warn("Secrets manager unavailable, using environment values", "error", err)
	} else {
		ctx := context.Background()
		cfg.JWT.Secret = secrets.GetSecretWithDefault(ctx, "jwt_secret", cfg.JWT.Secret)
		cfg.AI.APIKey = secrets.GetSecretWithDefault(ctx, "ai_api_key", cfg.AI.APIKey)
		cfg.Payment.KeySecret = secrets.GetSecretWithDefault(ctx, "payment_key_secret", cfg.Payment.KeySecret)
		cfg.OAuth.GoogleClientSecret = secrets.GetSecretWithDefault(ctx, "google_client_secret", cfg.OAuth.GoogleClientSecret)
		cfg.OAuth.GithubClientSecret = secrets.GetSecretWithDefault(ctx, "github_client_secret", cfg.OAuth.GithubClientSecret)
	}

	// Tracing and metrics
	shutdownTracing := observability.SetupTracing("devforge-backend")
	defer shutdownTracing()
	observability.SetupPrometheusMetrics()

	// Initialize database
	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(&models.User{}, &models.Project{}, &models.Message{}, &models.Payment{}); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// Covering index for the history query
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_messages_project_created ON messages(project_id, created_at)").Error; err != nil {
		log.LogError(err, "Failed to create message index", "index", "idx_messages_project_created")
	}

	// Initialize dependency injection container
	container, err := di.New(db, cfg, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	defer container.Redis.Close()

	// Initialize and setup router
	r := router.New(container)
	r.SetupRoutes()

	// Add OpenAPI validation if schema file is available
	schemaPath := os.Getenv("OPENAPI_SCHEMA_PATH")
	if schemaPath != "" {
		r.AddOpenAPIValidation(schemaPath)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	// Start the server in a goroutine
	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal
	<-quit
	log.Info("Shutting down server...")

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited gracefully")
}
