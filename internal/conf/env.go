// env.go - environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. CATALOGCORE_DATABASE_DRIVER
const EnvPrefix = "CATALOGCORE"

// envBinding holds metadata for environment variable bindings
type envBinding struct {
	ConfigKey string
	EnvVar    string
	Validate  func(string) error
}

// getEnvBindings returns the explicitly validated environment variables. Any
// other key is still reachable through AutomaticEnv.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"database.driver", "CATALOGCORE_DATABASE_DRIVER", validateEnvDriver},
		{"database.sqlite.path", "CATALOGCORE_DATABASE_SQLITE_PATH", nil},
		{"database.mysql.password", "CATALOGCORE_DATABASE_MYSQL_PASSWORD", nil},
		{"database.mysql.port", "CATALOGCORE_DATABASE_MYSQL_PORT", validateEnvPort},
		{"database.postgres.dsn", "CATALOGCORE_DATABASE_POSTGRES_DSN", nil},
		{"database.maxretries", "CATALOGCORE_DATABASE_MAXRETRIES", validateEnvNonNegativeInt},
		{"audit.strict", "CATALOGCORE_AUDIT_STRICT", validateEnvBool},
		{"sentry.dsn", "CATALOGCORE_SENTRY_DSN", nil},
		{"debug", "CATALOGCORE_DEBUG", validateEnvBool},
	}
}

// bindEnvVars sets up environment variable bindings with validation
func bindEnvVars(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var warnings []string
	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}
		if binding.Validate == nil {
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("Invalid %s value: %v", binding.EnvVar, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s'", value)
	}
	return nil
}

func validateEnvDriver(value string) error {
	if !slices.Contains([]string{DriverSQLite, DriverMySQL, DriverPostgres}, strings.ToLower(value)) {
		return fmt.Errorf("driver must be one of sqlite, mysql, postgres, got '%s'", value)
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("port must be 1-65535, got '%s'", value)
	}
	return nil
}

func validateEnvNonNegativeInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("expected a non-negative integer, got '%s'", value)
	}
	return nil
}
