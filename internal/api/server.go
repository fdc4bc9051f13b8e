package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/mantamatcher/catalogcore/internal/api/middleware"
	v1 "github.com/mantamatcher/catalogcore/internal/api/v1"
	"github.com/mantamatcher/catalogcore/internal/conf"
	"github.com/mantamatcher/catalogcore/internal/consolidation"
	"github.com/mantamatcher/catalogcore/internal/logger"
	"github.com/mantamatcher/catalogcore/internal/observability"
)

// Server is the HTTP front of the consolidation engine.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	log      logger.Logger

	engine  *consolidation.Engine
	metrics *observability.Metrics

	apiController *v1.Controller

	wg        sync.WaitGroup
	startTime time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// WithMetrics exposes m on the configured metrics path.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a new HTTP server with the given settings and options.
func New(settings *conf.Settings, engine *consolidation.Engine, opts ...ServerOption) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("consolidation engine is required")
	}
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		settings:  settings,
		engine:    engine,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.NewDiscardLogger()
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.log.Info("HTTP server initialized",
		logger.String("address", config.Listen),
		logger.Bool("metrics", s.metricsEnabled()))
	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery first
	s.echo.Use(echomw.Recover())
	s.echo.Use(mw.NewRequestID())
	s.echo.Use(mw.NewRequestLoggerWithSkipper(s.log, s.skipMetrics))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.NewRateLimiter(s.config.RateLimit, s.config.RateBurst))
}

func (s *Server) skipMetrics(c echo.Context) bool {
	return s.metricsEnabled() && strings.HasPrefix(c.Path(), s.config.MetricsPath)
}

func (s *Server) metricsEnabled() bool {
	return s.config.MetricsEnabled && s.metrics != nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	if s.metricsEnabled() {
		s.echo.GET(s.config.MetricsPath, echo.WrapHandler(s.metrics.Handler()))
	}

	s.apiController = v1.New(s.echo, s.engine, s.settings, v1.WithLogger(s.log.Module("v1")))
}

// Start begins serving HTTP requests in a background goroutine and returns
// immediately. Use Shutdown to stop the server.
func (s *Server) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.startBlocking(); err != nil {
			s.log.Error("server error", logger.Error(err))
		}
	}()
}

// startBlocking serves until the server is shut down.
func (s *Server) startBlocking() error {
	s.log.Info("starting HTTP server", logger.String("address", s.config.Listen))
	if err := s.echo.Start(s.config.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartWithGracefulShutdown serves until ctx is done or SIGINT/SIGTERM
// arrives, then shuts down.
func (s *Server) StartWithGracefulShutdown(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		errCh <- s.startBlocking()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutdown signal received, initiating graceful shutdown")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.wg.Wait()

	s.log.Info("server shutdown complete", logger.Duration("uptime", time.Since(s.startTime)))
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// APIController returns the v1 controller.
func (s *Server) APIController() *v1.Controller {
	return s.apiController
}
