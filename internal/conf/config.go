// config.go: settings struct for catalogcore and the functions that load it.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mantamatcher/catalogcore/internal/errors"
	"github.com/mantamatcher/catalogcore/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// SQLiteSettings configures the embedded SQLite store
type SQLiteSettings struct {
	Path string // database file path
}

// MySQLSettings configures a MySQL/MariaDB store
type MySQLSettings struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// PostgresSettings configures a PostgreSQL store
type PostgresSettings struct {
	DSN string // e.g. "host=db user=catalog password=... dbname=catalog sslmode=disable"
}

// DatabaseSettings selects and tunes the relational store
type DatabaseSettings struct {
	Driver             string // sqlite, mysql or postgres
	SQLite             SQLiteSettings
	MySQL              MySQLSettings
	Postgres           PostgresSettings
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	SlowQueryThreshold time.Duration // queries slower than this are logged as warnings
	MaxRetries         int           // retries of a whole transaction after busy or deadlock errors
	RetryBackoff       time.Duration // base backoff, doubled per attempt
}

// WebServerSettings configures the HTTP API
type WebServerSettings struct {
	Listen          string
	RateLimit       float64 // requests per second per client, 0 disables
	RateBurst       int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// AuditSettings controls how audit append failures are treated
type AuditSettings struct {
	Strict bool // true aborts the operation when the audit row cannot be written
}

// MetricsSettings controls the prometheus endpoint
type MetricsSettings struct {
	Enabled bool
	Path    string
}

// SentrySettings enables error telemetry
type SentrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64
}

// DiagnosticsSettings tunes the invariant report
type DiagnosticsSettings struct {
	CacheTTL time.Duration
}

// Settings contains all configuration options for catalogcore.
type Settings struct {
	Debug       bool
	Database    DatabaseSettings
	WebServer   WebServerSettings
	Logging     logger.LoggingConfig
	Audit       AuditSettings
	Metrics     MetricsSettings
	Sentry      SentrySettings
	Diagnostics DiagnosticsSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables. An empty
// configFile searches the default config paths and writes the embedded
// default config when none exists.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	v := viper.New()
	if err := initViper(v, configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error validating settings: %w", err)).
			Component("configuration").
			Category(errors.CategoryValidation).
			Build()
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper sets defaults, binds environment variables and reads the config file.
func initViper(v *viper.Viper, configFile string) error {
	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		return err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("fatal error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	err = v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(v, configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config into dir and reads it
func createDefaultConfig(v *viper.Viper, dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(getDefaultConfig()), 0o644); err != nil { //nolint:gosec // config is not secret by default
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return v.ReadInConfig()
}

// getDefaultConfig returns the embedded default config.yaml.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		// embedded at build time; unreachable unless the embed directive is removed
		panic(fmt.Sprintf("reading embedded config: %v", err))
	}
	return string(data)
}

// GetDefaultConfigPaths returns the config search path, most specific first.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}
	return []string{
		".",
		filepath.Join(homeDir, ".config", "catalogcore"),
		"/etc/catalogcore",
	}, nil
}

// GetSettings returns the settings loaded by the last successful Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// RedactedYAML renders settings for `catalogcore config` with secrets masked.
func (s *Settings) RedactedYAML() ([]byte, error) {
	clone := *s
	if clone.Database.MySQL.Password != "" {
		clone.Database.MySQL.Password = "********"
	}
	if clone.Database.Postgres.DSN != "" {
		clone.Database.Postgres.DSN = "********"
	}
	if clone.Sentry.DSN != "" {
		clone.Sentry.DSN = "********"
	}
	return yaml.Marshal(&clone)
}
