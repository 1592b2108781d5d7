package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/ticket-validator/backend/internal/api/events"
	"github.com/ticket-validator/backend/internal/api/handlers"
	"github.com/ticket-validator/backend/internal/cache"
	"github.com/ticket-validator/backend/internal/cache/memory"
	rediscache "github.com/ticket-validator/backend/internal/cache/redis"
	"github.com/ticket-validator/backend/internal/metrics"
	"github.com/ticket-validator/backend/internal/middleware/ratelimit"
	"github.com/ticket-validator/backend/internal/middleware/security"
	"github.com/ticket-validator/backend/internal/middleware/validation"
	"github.com/ticket-validator/backend/internal/pipeline"
	"github.com/ticket-validator/backend/internal/storage/sqlite"
	"github.com/ticket-validator/backend/pkg/config"
	appLogger "github.com/ticket-validator/backend/pkg/logger"
	"github.com/ticket-validator/backend/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(appLogger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Ticket Validation API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	resultStore := newResultStore(cfg)
	defer resultStore.Close()

	hub := events.NewHub()

	processor := pipeline.NewProcessor(
		sqliteClient,
		resultStore,
		hub,
		time.Duration(cfg.Cache.TTLMinutes)*time.Minute,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Server.MaxRequestsPerMinute,
		Logger:               appLogger.Log,
	})
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware())
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		MaxUploadBytes: cfg.Pipeline.MaxUploadBytes,
		Logger:         appLogger.Log,
	}))

	validateHandler := handlers.NewValidateHandler(processor, cfg.Pipeline.PreviewRows)
	runsHandler := handlers.NewRunsHandler(processor, sqliteClient, cfg.Pipeline.RunHistoryMax)

	api := app.Group("/api/v1")

	api.Post("/validate", validateHandler.HandleValidate)
	api.Get("/runs", runsHandler.ListRuns)
	api.Get("/runs/:id", runsHandler.GetRun)
	api.Get("/runs/:id/summary", runsHandler.GetSummary)
	api.Get("/runs/:id/chart", runsHandler.GetChart)
	api.Get("/runs/:id/export", runsHandler.ExportRun)
	api.Delete("/runs/:id", runsHandler.DeleteRun)

	api.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(hub.Handle))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

// newResultStore picks the memoization backend: Redis when enabled (with a
// few connection attempts), otherwise the in-process store. A Redis that
// never comes up degrades to the in-process store instead of failing boot.
func newResultStore(cfg *config.Config) cache.Store {
	if !cfg.Redis.Enabled {
		appLogger.Info("Using in-memory result cache")
		return memory.NewStore()
	}

	var client *rediscache.Client
	retryCfg := retry.DefaultConfig()
	retryCfg.Logger = appLogger.Log

	err := retry.Do(context.Background(), retryCfg, func() error {
		var connErr error
		client, connErr = rediscache.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
		return connErr
	})
	if err != nil {
		appLogger.Warn("Redis unavailable, falling back to in-memory result cache", zap.Error(err))
		return memory.NewStore()
	}

	return client
}
