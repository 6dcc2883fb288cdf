package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/ahmetcoskunkizilkaya/user-directory/internal/analytics"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/config"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/database"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/dto"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/logging"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/routes"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/sequence"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/services"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/store"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/telemetry"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, "user-directory", cfg.OTelEndpoint)
	if err != nil {
		slog.Error("tracing setup failed", "error", err)
	}

	// Record store
	var (
		userStore    store.UserStore
		pgLogHandler *logging.PGHandler
		cleanupDone  = make(chan struct{})
	)
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if err := database.Connect(cfg); err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		if err := database.Migrate(); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}

		// PostgreSQL log handler (ERROR+ async batch)
		pgLogHandler = logging.NewPGHandler(database.DB)
		logging.WithPostgres(pgLogHandler)
		logging.StartCleanup(database.DB, cfg.LogRetention, cleanupDone)

		userStore = store.NewPostgresStore(database.DB)
	default:
		slog.Warn("using in-memory store; data is lost on restart")
		userStore = store.NewMemoryStore()
	}

	// Identity sequence
	guardian := sequence.NewGuardian(userStore)
	if cfg.SequenceSyncOnStartup {
		if err := guardian.SyncOnStartup(ctx); err != nil {
			slog.Warn("identity sequence sync failed", "error", err)
		}
	}

	// Services
	userService := services.NewUserService(userStore, guardian, cfg.MaxPageLimit)
	aggregator := analytics.NewAggregator(userStore)

	// Handlers
	debug := cfg.IsDevelopment()
	userHandler := handlers.NewUserHandler(userService, debug)
	analyticsHandler := handlers.NewAnalyticsHandler(aggregator, debug)
	healthHandler := handlers.NewHealthHandler(userStore, cfg.StoreDriver)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: errorHandler(debug),
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.Tracing())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, userHandler, analyticsHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	if pgLogHandler != nil {
		pgLogHandler.Stop()
	}
	sentry.Flush(2 * time.Second)

	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		slog.Error("tracing shutdown error", "error", err)
	}

	if database.DB != nil {
		if err := database.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

// errorHandler answers errors that escape handlers (unknown routes, body
// limit, panics) with the same envelope the handlers use.
func errorHandler(debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		}

		// Only expose error details for client errors (4xx), not server errors (5xx)
		if code >= 500 {
			return handlers.InternalError(c, err, debug)
		}
		return c.Status(code).JSON(dto.Fail(message))
	}
}
