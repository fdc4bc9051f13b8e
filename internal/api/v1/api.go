// Package api serves the consolidation engine and its read models over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mantamatcher/catalogcore/internal/conf"
	"github.com/mantamatcher/catalogcore/internal/consolidation"
	"github.com/mantamatcher/catalogcore/internal/datastore/repository"
	"github.com/mantamatcher/catalogcore/internal/logger"
)

// HealthCheck probes the store.
type HealthCheck func(ctx context.Context) error

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Engine   *consolidation.Engine
	Settings *conf.Settings

	repos          *repository.Repositories
	log            logger.Logger
	health         HealthCheck
	requestTimeout time.Duration
	startTime      time.Time
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithLogger sets the API logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithHealthCheck replaces the default store probe.
func WithHealthCheck(fn HealthCheck) Option {
	return func(c *Controller) {
		c.health = fn
	}
}

// New registers the v1 routes on e.
func New(e *echo.Echo, engine *consolidation.Engine, settings *conf.Settings, opts ...Option) *Controller {
	c := &Controller{
		Echo:           e,
		Engine:         engine,
		Settings:       settings,
		repos:          engine.Repositories(),
		log:            logger.NewDiscardLogger(),
		requestTimeout: settings.WebServer.RequestTimeout,
		startTime:      time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.health == nil {
		c.health = func(ctx context.Context) error {
			_, err := c.repos.Catalogs.Exists(ctx, 1)
			return err
		}
	}

	c.Group = e.Group("/api/v1")
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	// Consolidation
	c.Group.POST("/catalog/merge", c.MergeCatalogs)
	c.Group.POST("/best-photo", c.SetBestPhoto)
	c.Group.POST("/merge-catalogs", c.DispatchAction)

	// Read models for re-fetching after a mutation
	c.Group.GET("/catalog", c.ListCatalog)
	c.Group.GET("/catalog/:id", c.GetCatalog)
	c.Group.GET("/catalog/:id/photos", c.GetCatalogPhotos)
	c.Group.GET("/manta/:id/photos", c.GetMantaPhotos)

	c.Group.GET("/diagnostics", c.GetDiagnostics)
	c.Group.GET("/audit", c.ListAudit)
}

// requestContext bounds a handler's work by the configured request timeout.
func (c *Controller) requestContext(ctx echo.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return context.WithCancel(ctx.Request().Context())
	}
	return context.WithTimeout(ctx.Request().Context(), c.requestTimeout)
}

// HealthCheck reports service and store status.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	uptime := time.Since(c.startTime)
	response := map[string]any{
		"status":          "healthy",
		"database_status": "connected",
		"uptime":          uptime.String(),
		"uptime_seconds":  uptime.Seconds(),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}

	if err := c.health(reqCtx); err != nil {
		c.log.WithContext(reqCtx).Warn("health check failed", logger.Error(err))
		response["status"] = "degraded"
		response["database_status"] = "disconnected"
		return ctx.JSON(http.StatusServiceUnavailable, response)
	}
	return ctx.JSON(http.StatusOK, response)
}
