package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/mehedimath/backend/docs"
	"github.com/mehedimath/backend/internal/auth"
	"github.com/mehedimath/backend/internal/config"
	"github.com/mehedimath/backend/internal/handlers"
	"github.com/mehedimath/backend/internal/logger"
	"github.com/mehedimath/backend/internal/middlewares"
	"github.com/mehedimath/backend/internal/repositories"
	"github.com/mehedimath/backend/internal/services"
	"github.com/mehedimath/backend/internal/storage"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title MehediMath Course Portal API
// @version 1.0
// @description API for the course catalog and course access management portal

// @contact.name API Support
// @contact.email admin@mehedimath.com

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name session_token
// @description Session cookie set by /auth/login and /auth/signup.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting MehediMath Course Portal")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	sessionRepo := repositories.NewSessionRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	requestRepo := repositories.NewAccessRequestRepository(db)

	// Initialize file storage
	fileStorage := storage.NewLocalStorage(cfg.Uploads.BasePath)

	// Initialize services
	authService := services.NewAuthService(userRepo, sessionRepo, logger.Logger, cfg.Session.Expiry)
	courseService := services.NewCourseService(courseRepo, logger.Logger)
	requestService := services.NewAccessRequestService(requestRepo, courseRepo, logger.Logger)
	adminService := services.NewAdminService(userRepo, logger.Logger, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name)
	mediaService := services.NewMediaService(fileStorage, "/api/v1/uploads")

	// Seed the admin account
	if err := adminService.EnsureAdmin(context.Background()); err != nil {
		logger.Logger.Fatal("Failed to seed admin account", zap.Error(err))
	}

	// Periodically drop expired sessions
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				deleted, err := sessionRepo.DeleteExpired(cleanupCtx, time.Now())
				if err != nil {
					logger.Logger.Error("Failed to delete expired sessions", zap.Error(err))
					continue
				}
				if deleted > 0 {
					logger.Logger.Info("Deleted expired sessions", zap.Int("count", deleted))
				}
			}
		}
	}()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger.Logger, cfg.Session.Expiry)
	courseHandler := handlers.NewCourseHandler(courseService, logger.Logger)
	requestHandler := handlers.NewAccessRequestHandler(requestService, logger.Logger)
	adminHandler := handlers.NewAdminHandler(adminService, logger.Logger)
	mediaHandler := handlers.NewMediaHandler(mediaService, logger.Logger)

	// Initialize session middleware
	sessionMiddleware := auth.Middleware(authService)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(middlewares.LoggerMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(10 * 1024 * 1024)) // 10MB

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		authHandler.RegisterRoutes(r)
		courseHandler.RegisterPublicRoutes(r)
		mediaHandler.RegisterPublicRoutes(r)

		// Session-gated routes
		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware)
			authHandler.RegisterProtectedRoutes(r)
			requestHandler.RegisterRoutes(r)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				courseHandler.RegisterAdminRoutes(r)
				requestHandler.RegisterAdminRoutes(r)
				mediaHandler.RegisterAdminRoutes(r)
				adminHandler.RegisterRoutes(r)
			})
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "portal_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
