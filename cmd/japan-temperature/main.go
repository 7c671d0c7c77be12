package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/japan-temperature/internal/api/http"
	"github.com/i474232898/japan-temperature/internal/config"
	"github.com/i474232898/japan-temperature/internal/observability"
	"github.com/i474232898/japan-temperature/internal/scheduler"
	"github.com/i474232898/japan-temperature/internal/store"
	"github.com/i474232898/japan-temperature/internal/temperature"
	"github.com/i474232898/japan-temperature/internal/temperature/sources"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("info", "json").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var source temperature.DataSource
	switch cfg.DataSource {
	case config.SourceFile:
		source = sources.NewFileSource(cfg.DataPath)
	case config.SourceExcel:
		source = sources.NewExcelSource(cfg.DataPath, cfg.ExcelSheet)
	case config.SourcePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		source = sources.NewPostgresSource(pool, cfg.DatabaseTable)
	default:
		// Shared HTTP client for outbound feed calls.
		source = sources.NewHTTPSource(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.DataURL)
	}

	service := temperature.NewService(source, store.NewMemoryStore(),
		temperature.WithLogger(log),
		temperature.WithMetrics(metrics),
	)

	// The store must be published before any query is served.
	if err := service.LoadStore(ctx); err != nil {
		log.Error("failed to load temperature data", "error", err)
		os.Exit(1)
	}

	// Scheduler that periodically refreshes the store from the feed.
	sched := scheduler.New(service, cfg.RefreshInterval, 5*cfg.HTTPTimeout, log)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "japan-temperature",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "japan-temperature",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		log.Info("http server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	log.Info("shutdown complete")
}
