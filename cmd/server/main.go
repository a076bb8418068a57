package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/audiomint/audiomint-backend/internal/analytics"
	"github.com/audiomint/audiomint-backend/internal/apps"
	"github.com/audiomint/audiomint-backend/internal/apps/dubbing"
	"github.com/audiomint/audiomint-backend/internal/apps/soundfx"
	"github.com/audiomint/audiomint-backend/internal/apps/transcribe"
	"github.com/audiomint/audiomint-backend/internal/apps/tts"
	"github.com/audiomint/audiomint-backend/internal/apps/voicechanger"
	"github.com/audiomint/audiomint-backend/internal/apps/voices"
	"github.com/audiomint/audiomint-backend/internal/config"
	"github.com/audiomint/audiomint-backend/internal/database"
	"github.com/audiomint/audiomint-backend/internal/handlers"
	"github.com/audiomint/audiomint-backend/internal/logging"
	"github.com/audiomint/audiomint-backend/internal/middleware"
	"github.com/audiomint/audiomint-backend/internal/provider/elevenlabs"
	"github.com/audiomint/audiomint-backend/internal/quota"
	"github.com/audiomint/audiomint-backend/internal/routes"
	"github.com/audiomint/audiomint-backend/internal/services"
	"github.com/audiomint/audiomint-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.ElevenLabsAPIKey == "" {
		slog.Error("ELEVENLABS_API_KEY environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	// Migrate shared models
	if err := database.MigrateShared(); err != nil {
		slog.Error("shared migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Blob store
	store, err := storage.NewS3Store(context.Background(), cfg)
	if err != nil {
		slog.Error("blob store init failed", "error", err)
		os.Exit(1)
	}

	// Shared collaborators
	deps := &apps.Deps{
		DB:       database.DB,
		Cfg:      cfg,
		Store:    store,
		Events:   analytics.FromConfig(cfg.AnalyticsEndpoint, cfg.AnalyticsAPIKey),
		Provider: elevenlabs.NewClient(cfg),
	}
	deps.Gate = quota.NewGate(database.DB, deps.Events)

	subscriptionService := services.NewSubscriptionService(database.DB)

	// Register feature plugins
	plugins := []apps.Plugin{
		tts.New(),
		dubbing.New(),
		soundfx.New(),
		voicechanger.New(),
		transcribe.New(),
		voices.New(),
	}

	// Migrate plugin models
	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(models); err != nil {
				slog.Error("plugin migration failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}

	// Handlers
	healthHandler := handlers.NewHealthHandler(len(plugins))
	webhookHandler := handlers.NewWebhookHandler(subscriptionService, cfg)
	usageHandler := handlers.NewUsageHandler(deps.Gate, subscriptionService)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.MaxUploadBytes) + 1024*1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, deps, healthHandler, webhookHandler, usageHandler, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
