package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trevnoctilla/campaigns-api/internal/auth"
	"github.com/trevnoctilla/campaigns-api/internal/config"
	"github.com/trevnoctilla/campaigns-api/internal/handler"
	middlewarepkg "github.com/trevnoctilla/campaigns-api/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth      *handler.AuthHandler
	Campaigns *handler.CampaignsHandler
	Import    *handler.ImportHandler
	Export    *handler.ExportHandler
	Events    *handler.EventsHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/auth/login", handlers.Auth.Login)

	if cfg.Engine.ScreenshotDir != "" {
		e.Static("/screenshots", cfg.Engine.ScreenshotDir)
	}

	secured := e.Group("", middlewarepkg.JWT(jwtManager), middlewarepkg.RequireRole("operator"))

	secured.POST("/campaigns", handlers.Campaigns.Create)
	secured.POST("/campaigns/import", handlers.Import.ImportCSV)
	secured.GET("/campaigns", handlers.Campaigns.List)
	secured.GET("/campaigns/:id", handlers.Campaigns.Get)
	secured.GET("/campaigns/:id/companies", handlers.Campaigns.ListCompanies)
	secured.GET("/campaigns/:id/export", handlers.Export.Export)
	secured.GET("/campaigns/:id/events", handlers.Events.Stream)

	startLimiter := middlewarepkg.StartRateLimiter(cfg.RateLimitStart)
	secured.POST("/campaigns/:id/start", handlers.Campaigns.Start, startLimiter)
	secured.POST("/campaigns/:id/stop", handlers.Campaigns.Stop)
	secured.POST("/campaigns/:id/companies/:companyID/start", handlers.Campaigns.StartCompany, startLimiter)
	secured.POST("/campaigns/:id/companies/:companyID/requeue", handlers.Campaigns.RequeueCompany)
}
