// Package runtime wires configuration, logging, telemetry, storage and the
// consolidation engine into one set of services shared by every command.
package runtime

import (
	"fmt"
	"io"

	"github.com/mantamatcher/catalogcore/internal/buildinfo"
	"github.com/mantamatcher/catalogcore/internal/conf"
	"github.com/mantamatcher/catalogcore/internal/consolidation"
	"github.com/mantamatcher/catalogcore/internal/datastore"
	"github.com/mantamatcher/catalogcore/internal/logger"
	"github.com/mantamatcher/catalogcore/internal/observability"
	"github.com/mantamatcher/catalogcore/internal/telemetry"
)

// Services holds everything a command needs after startup.
type Services struct {
	Settings *conf.Settings
	Build    buildinfo.BuildInfo

	Logs    *logger.CentralLogger
	Log     logger.Logger
	Store   datastore.Manager
	Metrics *observability.Metrics
	Engine  *consolidation.Engine
}

// Option customises Open.
type Option func(*options)

type options struct {
	console io.Writer
	migrate bool
}

// WithConsole redirects console log output.
func WithConsole(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// WithoutMigration skips schema migration on open.
func WithoutMigration() Option {
	return func(o *options) { o.migrate = false }
}

// Open starts the services described by settings. Close must be called
// when Open succeeds.
func Open(settings *conf.Settings, build buildinfo.BuildInfo, opts ...Option) (*Services, error) {
	o := options{migrate: true}
	for _, opt := range opts {
		opt(&o)
	}
	if build == nil {
		build = buildinfo.NewContext("", "")
	}

	var logOpts []logger.CentralLoggerOption
	if o.console != nil {
		logOpts = append(logOpts, logger.WithConsoleWriter(o.console))
	}
	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
	}
	logs, err := logger.NewCentralLogger(&settings.Logging, logOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	s := &Services{
		Settings: settings,
		Build:    build,
		Logs:     logs,
		Log:      logs.Module("main"),
	}

	if err := telemetry.InitSentry(&settings.Sentry, build, logs.Module("telemetry")); err != nil {
		s.Log.Warn("sentry disabled", logger.Error(err))
	}

	store, err := datastore.NewManager(&settings.Database, logs.Module("datastore"))
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s.Store = store
	if o.migrate {
		if err := store.Initialize(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Metrics = metrics
	if sqlDB, err := store.DB().DB(); err == nil {
		if err := metrics.RegisterDBStats(sqlDB, store.Dialect()); err != nil {
			s.Log.Warn("failed to register connection pool metrics", logger.Error(err))
		}
	}

	s.Engine = consolidation.New(store.DB(),
		consolidation.WithLogger(logs.Module("consolidation")),
		consolidation.WithAuditLogger(logs.Module("audit")),
		consolidation.WithMetrics(metrics.Consolidation),
		consolidation.WithStrictAudit(settings.Audit.Strict),
		consolidation.WithRetry(settings.Database.MaxRetries, settings.Database.RetryBackoff),
		consolidation.WithDiagnosticsTTL(settings.Diagnostics.CacheTTL),
	)

	s.Log.Info("services started",
		logger.String("version", build.GetVersion()),
		logger.String("driver", store.Dialect()),
		logger.String("database", store.Path()),
		logger.Bool("strict_audit", settings.Audit.Strict))
	return s, nil
}

// Close releases the database, flushes telemetry and closes log files.
func (s *Services) Close() error {
	var firstErr error
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			firstErr = err
		}
	}
	telemetry.Flush()
	if s.Logs != nil {
		if err := s.Logs.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
