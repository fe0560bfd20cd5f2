package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/trevnoctilla/campaigns-api/internal/auth"
	"github.com/trevnoctilla/campaigns-api/internal/backend"
	"github.com/trevnoctilla/campaigns-api/internal/browser"
	"github.com/trevnoctilla/campaigns-api/internal/config"
	"github.com/trevnoctilla/campaigns-api/internal/database"
	"github.com/trevnoctilla/campaigns-api/internal/engine"
	"github.com/trevnoctilla/campaigns-api/internal/events"
	"github.com/trevnoctilla/campaigns-api/internal/handler"
	middlewarepkg "github.com/trevnoctilla/campaigns-api/internal/middleware"
	"github.com/trevnoctilla/campaigns-api/internal/repository"
	"github.com/trevnoctilla/campaigns-api/internal/router"
	"github.com/trevnoctilla/campaigns-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Without DATABASE_URL campaigns live in process memory. Useful for
	// local runs and demos; restarts drop all state.
	var repo repository.CampaignsRepository
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect database: %v", err)
		}
		defer pool.Close()

		pgRepo := repository.NewPGXCampaignsRepository(pool)
		migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := pgRepo.EnsureSchema(migrateCtx); err != nil {
			migrateCancel()
			log.Fatalf("failed to ensure schema: %v", err)
		}
		migrateCancel()
		repo = pgRepo
	} else {
		log.Printf("DATABASE_URL not set, using in-memory storage")
		repo = repository.NewMemoryCampaignsRepository()
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	browserManager := browser.NewManager(context.Background(), cfg.Engine)
	defer browserManager.Close()

	runner := engine.NewRunner(cfg.Engine, browserManager.NewSession)
	pool := engine.NewPool(cfg.Engine.PoolSize)
	broker := events.NewBroker()

	diskScreenshots, err := service.NewDiskScreenshots(cfg.Engine.ScreenshotDir)
	if err != nil {
		log.Fatalf("failed to prepare screenshot dir: %v", err)
	}
	var screenshots service.ScreenshotStore
	if diskScreenshots != nil {
		screenshots = diskScreenshots
	}

	var notifier service.Notifier
	if cfg.BackendBaseURL != "" {
		notifier = backend.NewClient(nil, cfg.BackendBaseURL)
	}

	campaignsService := service.NewCampaignsService(repo, runner, pool, broker, screenshots, notifier, cfg.PhoneRegion)

	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(jwtManager, cfg.OperatorKey),
		Campaigns: handler.NewCampaignsHandler(campaignsService),
		Import:    handler.NewImportHandler(campaignsService),
		Export:    handler.NewExportHandler(campaignsService),
		Events:    handler.NewEventsHandler(campaignsService, broker),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()
	log.Printf("listening on :%s", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
