package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	path := writeConfig(t, getDefaultConfig())

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, settings.Database.Driver)
	assert.Equal(t, "data/catalog.db", settings.Database.SQLite.Path)
	assert.Equal(t, 200*time.Millisecond, settings.Database.SlowQueryThreshold)
	assert.Equal(t, 3, settings.Database.MaxRetries)
	assert.Equal(t, ":8080", settings.WebServer.Listen)
	assert.False(t, settings.Audit.Strict)
	assert.Equal(t, 30*time.Second, settings.Diagnostics.CacheTTL)
	require.NotNil(t, settings.Logging.Console)
	assert.True(t, settings.Logging.Console.Enabled)
	assert.Equal(t, "logs/audit.log", settings.Logging.ModuleOutputs["audit"].FilePath)
	assert.Same(t, settings, GetSettings())
}

func TestLoadAppliesDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: sqlite\n")

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/metrics", settings.Metrics.Path)
	assert.Equal(t, 50*time.Millisecond, settings.Database.RetryBackoff)
	assert.Equal(t, 40, settings.WebServer.RateBurst)
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, getDefaultConfig())
	t.Setenv("CATALOGCORE_AUDIT_STRICT", "true")
	t.Setenv("CATALOGCORE_DATABASE_SQLITE_PATH", "/tmp/override.db")
	t.Setenv("CATALOGCORE_WEBSERVER_LISTEN", "127.0.0.1:9000")

	settings, err := Load(path)
	require.NoError(t, err)

	assert.True(t, settings.Audit.Strict)
	assert.Equal(t, "/tmp/override.db", settings.Database.SQLite.Path)
	assert.Equal(t, "127.0.0.1:9000", settings.WebServer.Listen)
}

func TestInvalidEnvironmentValue(t *testing.T) {
	path := writeConfig(t, getDefaultConfig())
	t.Setenv("CATALOGCORE_DATABASE_DRIVER", "oracle")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATALOGCORE_DATABASE_DRIVER")
}

func TestValidateSettings(t *testing.T) {
	valid := func() *Settings {
		return &Settings{
			Database: DatabaseSettings{
				Driver: DriverSQLite,
				SQLite: SQLiteSettings{Path: "catalog.db"},
			},
			WebServer: WebServerSettings{Listen: ":8080", RateLimit: 10, RateBurst: 20},
			Metrics:   MetricsSettings{Enabled: true, Path: "/metrics"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid sqlite", func(*Settings) {}, ""},
		{"unknown driver", func(s *Settings) { s.Database.Driver = "oracle" }, "unsupported database.driver"},
		{"mysql without host", func(s *Settings) {
			s.Database.Driver = DriverMySQL
			s.Database.MySQL = MySQLSettings{Port: "3306", Username: "u", Database: "catalog"}
		}, "host, username and database are required"},
		{"mysql bad port", func(s *Settings) {
			s.Database.Driver = DriverMySQL
			s.Database.MySQL = MySQLSettings{Host: "db", Port: "x", Username: "u", Database: "catalog"}
		}, "not a valid port"},
		{"postgres without dsn", func(s *Settings) { s.Database.Driver = DriverPostgres }, "database.postgres.dsn is required"},
		{"negative retries", func(s *Settings) { s.Database.MaxRetries = -1 }, "maxretries"},
		{"bad listen", func(s *Settings) { s.WebServer.Listen = "8080" }, "webserver.listen"},
		{"rate limit without burst", func(s *Settings) { s.WebServer.RateBurst = 0 }, "rateburst"},
		{"metrics path", func(s *Settings) { s.Metrics.Path = "metrics" }, "metrics.path"},
		{"sentry without dsn", func(s *Settings) { s.Sentry.Enabled = true }, "sentry.dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := ValidateSettings(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRedactedYAMLMasksSecrets(t *testing.T) {
	s := &Settings{
		Database: DatabaseSettings{
			Driver: DriverMySQL,
			MySQL:  MySQLSettings{Host: "db", Password: "hunter2"},
		},
		Sentry: SentrySettings{DSN: "https://key@sentry.example/1"},
	}

	out, err := s.RedactedYAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")
	assert.NotContains(t, string(out), "sentry.example")
	assert.Equal(t, "hunter2", s.Database.MySQL.Password, "original settings must be untouched")

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Contains(t, decoded, "database")
}
