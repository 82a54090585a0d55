package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fenilmodi00/stock-api/config"
	"github.com/fenilmodi00/stock-api/database"
	"github.com/fenilmodi00/stock-api/handlers"
	"github.com/fenilmodi00/stock-api/jobs"
	"github.com/fenilmodi00/stock-api/services"
	"github.com/fenilmodi00/stock-api/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config; the API key is mandatory
	cfg, err := config.LoadConfig()
	if err != nil {
		var serviceErr *shared.ServiceError
		if errors.As(err, &serviceErr) {
			serviceErr.LogError()
		}
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	cfg.ConfigureLogging()

	store := services.NewCacheStore()
	metrics := shared.NewRefreshMetrics()

	clientFactory := shared.NewHTTPClientFactory(cfg.UpstreamTimeout)
	defer clientFactory.CloseIdleConnections()
	fmpClient := services.NewFMPClient(cfg.FMPBaseURL, cfg.FMPAPIKey, clientFactory.Client(cfg.UpstreamTimeout))

	// Optional refresh event log
	var sinks []jobs.RefreshEventSink
	var dbHealth handlers.HealthChecker
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL, cfg.Database)
		if err != nil {
			logrus.Warnf("Refresh event log disabled: %v", err)
		} else {
			defer db.Close()
			if err := database.Migrate(context.Background(), db); err != nil {
				logrus.Warnf("Migration warning: %v", err)
			}
			eventStore := database.NewRefreshEventStore(db)
			sinks = append(sinks, eventStore)
			dbHealth = eventStore
		}
	}

	refresher := jobs.NewRefresher(fmpClient, store, metrics, sinks...)
	moversJob := jobs.NewMoversRefreshJob(refresher)
	newsJob := jobs.NewNewsRefreshJob(refresher, cfg.NewsFetchLimit)

	summaryService := services.NewMarketSummaryService(store, services.NewYahooIndexHistory(), cfg.UpstreamTimeout)
	queryService := services.NewQueryService(store, summaryService)

	// Initial refreshes run synchronously; an error here means we cannot reach upstream at all
	scheduler := jobs.NewScheduler()
	if err := scheduler.Schedule(moversJob.Task(cfg.MoversInterval)); err != nil {
		logrus.Fatalf("Failed to start movers refresh: %v", err)
	}
	if err := scheduler.Schedule(newsJob.Task(cfg.NewsInterval)); err != nil {
		logrus.Fatalf("Failed to start news refresh: %v", err)
	}
	if err := scheduler.Schedule(jobs.PeriodicTask{
		Name:     "metrics-summary",
		Interval: time.Hour,
		Work: func(context.Context) error {
			metrics.LogSummary()
			return nil
		},
	}); err != nil {
		logrus.Fatalf("Failed to schedule metrics summary: %v", err)
	}
	scheduler.Start()

	stockHandler := handlers.NewStockHandler(queryService, cfg.NewsDefaultLimit)
	healthHandler := handlers.NewHealthHandler(store, metrics, dbHealth)

	// Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      "stock-api",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowCredentials: true,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS",
		AllowHeaders:     "*",
	}))

	app.Get("/health", healthHandler.GetHealth)
	stockHandler.Register(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logrus.Info("Shutting down")
		scheduler.Stop()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logrus.Errorf("Server shutdown failed: %v", err)
		}
	}()

	// Start server
	logrus.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logrus.Fatalf("Server failed to start: %v", err)
	}
}
