// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig registers a default for every key so that environment
// overrides resolve even when the key is absent from the file.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.sqlite.path", "data/catalog.db")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", "3306")
	v.SetDefault("database.mysql.username", "")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.database", "catalog")
	v.SetDefault("database.postgres.dsn", "")
	v.SetDefault("database.maxopenconns", 10)
	v.SetDefault("database.maxidleconns", 5)
	v.SetDefault("database.connmaxlifetime", time.Hour)
	v.SetDefault("database.slowquerythreshold", 200*time.Millisecond)
	v.SetDefault("database.maxretries", 3)
	v.SetDefault("database.retrybackoff", 50*time.Millisecond)

	v.SetDefault("webserver.listen", ":8080")
	v.SetDefault("webserver.ratelimit", 20.0)
	v.SetDefault("webserver.rateburst", 40)
	v.SetDefault("webserver.requesttimeout", 30*time.Second)
	v.SetDefault("webserver.shutdowntimeout", 10*time.Second)

	v.SetDefault("logging.defaultlevel", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.console.format", "text")
	v.SetDefault("logging.fileoutput.enabled", false)
	v.SetDefault("logging.fileoutput.path", "logs/catalogcore.log")
	v.SetDefault("logging.fileoutput.level", "info")

	v.SetDefault("audit.strict", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
	v.SetDefault("sentry.samplerate", 1.0)

	v.SetDefault("diagnostics.cachettl", 30*time.Second)
}
