package api

import (
	"fmt"
	"time"

	"github.com/mantamatcher/catalogcore/internal/conf"
)

// Server defaults
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBodyLimit       = "1M"
)

// Config holds HTTP server settings derived from conf.Settings.
type Config struct {
	Listen string // host:port to bind

	ReadTimeout     time.Duration // Maximum duration for reading request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum time to wait for next request
	ShutdownTimeout time.Duration // Maximum time to wait for graceful shutdown

	BodyLimit string // Maximum request body size (e.g., "1M")

	RateLimit float64 // requests per second per client, 0 disables
	RateBurst int

	MetricsEnabled bool
	MetricsPath    string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:          ":8080",
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		BodyLimit:       DefaultBodyLimit,
		MetricsPath:     "/metrics",
	}
}

// ConfigFromSettings maps application settings onto a Config.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()
	if settings.WebServer.Listen != "" {
		cfg.Listen = settings.WebServer.Listen
	}
	if settings.WebServer.ShutdownTimeout > 0 {
		cfg.ShutdownTimeout = settings.WebServer.ShutdownTimeout
	}
	if settings.WebServer.RequestTimeout > 0 {
		cfg.ReadTimeout = settings.WebServer.RequestTimeout
		cfg.WriteTimeout = settings.WebServer.RequestTimeout
	}
	cfg.RateLimit = settings.WebServer.RateLimit
	cfg.RateBurst = settings.WebServer.RateBurst
	cfg.MetricsEnabled = settings.Metrics.Enabled
	if settings.Metrics.Path != "" {
		cfg.MetricsPath = settings.Metrics.Path
	}
	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit)
	}
	if c.RateBurst < 0 {
		return fmt.Errorf("rate burst must not be negative, got %d", c.RateBurst)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}
