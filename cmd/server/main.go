package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	httpapi "book-network-backend/internal/api/http"
	"book-network-backend/internal/config"
	"book-network-backend/internal/jobs"
	"book-network-backend/internal/logger"
	"book-network-backend/internal/migrations"
	"book-network-backend/internal/repository"
	"book-network-backend/internal/repository/memory"
	"book-network-backend/internal/repository/postgres"
	"book-network-backend/internal/scheduler"
	"book-network-backend/internal/security"
	"book-network-backend/internal/service"
	"book-network-backend/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	migrate := flag.Bool("migrate", false, "Apply pending database migrations before serving")
	withScheduler := flag.Bool("with-scheduler", false, "Run the token purge scheduler in process")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Book Network Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Email configuration", "provider", cfg.Email.Provider, "from", cfg.Email.From)

	// Initialize Repositories
	var registry repository.Registry
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("Using in-memory store, data is lost on restart")
		registry = memory.NewStore().Registry()
	default:
		logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err := sqlx.Connect("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Database.MaxConns)
		logger.Info("Database connection established")

		if *migrate {
			if err := migrations.Up(db.DB); err != nil {
				logger.Error("Failed to apply migrations", "error", err)
				log.Fatalf("Failed to apply migrations: %v", err)
			}
			logger.Info("Database migrations applied")
		}
		registry = postgres.NewStore(db).Registry()
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	// Initialize Storage Service
	covers, err := storage.NewLocalStorage(cfg.Storage.UploadDir)
	if err != nil {
		logger.Error("Failed to initialize cover storage", "error", err)
		log.Fatalf("Failed to initialize cover storage: %v", err)
	}
	coverCfg := storage.Config{MaxBytes: cfg.MaxUploadBytes(), AllowedTypes: cfg.Storage.AllowedTypes}
	logger.Info("Cover storage initialized", "upload_dir", cfg.Storage.UploadDir, "max_bytes", coverCfg.MaxBytes)

	// Initialize Email Service
	var emailSvc service.EmailService
	if cfg.Email.Provider == "sendgrid" {
		emailSvc = service.NewSendGridEmailService(cfg.Email.APIKey, cfg.Email.From, cfg.Email.FromName)
	} else {
		emailSvc = service.NewLogEmailService()
	}

	// Initialize Services
	authSvc := service.NewAuthService(
		registry.Users,
		registry.Tokens,
		emailSvc,
		tokenManager,
		security.NewCodeGenerator(),
		cfg.ActivationTokenTTL(),
		cfg.Email.ActivationURL,
	)
	bookSvc := service.NewBookService(
		registry.Tx,
		registry.Books,
		registry.Users,
		registry.Feedback,
		covers,
		coverCfg,
		cfg.Lending.RetryAttempts,
		cfg.RetryBaseDelay(),
	)
	lendingSvc := service.NewLendingService(
		registry.Tx,
		registry.Books,
		registry.Loans,
		registry.Feedback,
		cfg.Lending.RetryAttempts,
		cfg.RetryBaseDelay(),
	)
	feedbackSvc := service.NewFeedbackService(registry.Books, registry.Feedback)

	if *withScheduler {
		cronScheduler, err := scheduler.NewScheduler(jobs.NewJobRunner(&jobs.Services{Auth: authSvc}, cfg))
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	router := httpapi.NewRouter(httpapi.Services{
		Auth:     authSvc,
		Books:    bookSvc,
		Lending:  lendingSvc,
		Feedback: feedbackSvc,
	}, tokenManager, coverCfg.MaxBytes)

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
