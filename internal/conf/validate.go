// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateDatabaseSettings(&settings.Database); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateMetricsSettings(&settings.Metrics); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry is enabled but sentry.dsn is empty")
	}

	if settings.Diagnostics.CacheTTL < 0 {
		ve.Errors = append(ve.Errors, "diagnostics.cachettl must not be negative")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateDatabaseSettings checks the selected driver has what it needs
func validateDatabaseSettings(settings *DatabaseSettings) error {
	var problems []string

	switch strings.ToLower(settings.Driver) {
	case DriverSQLite:
		if settings.SQLite.Path == "" {
			problems = append(problems, "database.sqlite.path is required")
		}
	case DriverMySQL:
		if settings.MySQL.Host == "" || settings.MySQL.Database == "" || settings.MySQL.Username == "" {
			problems = append(problems, "database.mysql host, username and database are required")
		}
		if port, err := strconv.Atoi(settings.MySQL.Port); err != nil || port < 1 || port > 65535 {
			problems = append(problems, fmt.Sprintf("database.mysql.port %q is not a valid port", settings.MySQL.Port))
		}
	case DriverPostgres:
		if settings.Postgres.DSN == "" {
			problems = append(problems, "database.postgres.dsn is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported database.driver %q", settings.Driver))
	}

	if settings.MaxRetries < 0 {
		problems = append(problems, "database.maxretries must not be negative")
	}
	if settings.MaxOpenConns < 0 || settings.MaxIdleConns < 0 {
		problems = append(problems, "database connection pool sizes must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("database settings: %s", strings.Join(problems, "; "))
	}
	return nil
}

// validateWebServerSettings validates the listen address and limits
func validateWebServerSettings(settings *WebServerSettings) error {
	if _, port, err := net.SplitHostPort(settings.Listen); err != nil {
		return fmt.Errorf("webserver.listen %q: %w", settings.Listen, err)
	} else if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("webserver.listen %q has an invalid port", settings.Listen)
	}
	if settings.RateLimit < 0 {
		return fmt.Errorf("webserver.ratelimit must not be negative")
	}
	if settings.RateLimit > 0 && settings.RateBurst < 1 {
		return fmt.Errorf("webserver.rateburst must be at least 1 when rate limiting is enabled")
	}
	return nil
}

func validateMetricsSettings(settings *MetricsSettings) error {
	if settings.Enabled && !strings.HasPrefix(settings.Path, "/") {
		return fmt.Errorf("metrics.path %q must start with /", settings.Path)
	}
	return nil
}
