package logger

import (
	"log/slog"
	"strings"
)

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	DefaultLevel  string                  `yaml:"defaultlevel" mapstructure:"defaultlevel"` // default log level for all modules
	Timezone      string                  `yaml:"timezone"`                                 // "Local", "UTC", or IANA name
	Console       *ConsoleOutput          `yaml:"console"`
	FileOutput    *FileOutput             `yaml:"fileoutput" mapstructure:"fileoutput"`
	ModuleOutputs map[string]ModuleOutput `yaml:"modules" mapstructure:"modules"`           // per-module file routing
	ModuleLevels  map[string]string       `yaml:"modulelevels" mapstructure:"modulelevels"` // per-module log levels
}

// ConsoleOutput represents console logging configuration.
type ConsoleOutput struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // text or json
}

// FileOutput represents file logging configuration. File output is always JSON.
type FileOutput struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Level   string `yaml:"level"`
}

// ModuleOutput routes one module to a dedicated file in addition to, or
// instead of, the base handler.
type ModuleOutput struct {
	Enabled     bool   `yaml:"enabled"`
	FilePath    string `yaml:"filepath" mapstructure:"filepath"`
	Level       string `yaml:"level"`
	ConsoleAlso bool   `yaml:"consolealso" mapstructure:"consolealso"`
}

// Default values for logging configuration.
const (
	DefaultLogLevel     = "info"
	DefaultLogPath      = "logs/catalogcore.log"
	DefaultAuditLogPath = "logs/audit.log"
	FormatText          = "text"
	FormatJSON          = "json"
)

// applyConfigDefaults fills nil sections so a partial config still logs to
// the console.
func applyConfigDefaults(cfg *LoggingConfig) {
	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = DefaultLogLevel
	}
	if cfg.Console == nil {
		cfg.Console = &ConsoleOutput{Enabled: true, Level: cfg.DefaultLevel, Format: FormatText}
	}
	if cfg.Console.Format == "" {
		cfg.Console.Format = FormatText
	}
	if cfg.FileOutput == nil {
		cfg.FileOutput = &FileOutput{Enabled: false, Path: DefaultLogPath, Level: cfg.DefaultLevel}
	}
	if cfg.ModuleOutputs == nil {
		cfg.ModuleOutputs = make(map[string]ModuleOutput)
	}
}

// traceLevelValue is slog.Level for TRACE level (below Debug which is -4)
const traceLevelValue = slog.Level(-8)

// parseLogLevel converts a config string into a slog level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return traceLevelValue
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseSlogLevel(level LogLevel) slog.Level {
	return parseLogLevel(string(level))
}

func levelName(level slog.Level) string {
	switch {
	case level <= traceLevelValue:
		return "TRACE"
	case level <= slog.LevelDebug:
		return "DEBUG"
	case level <= slog.LevelInfo:
		return "INFO"
	case level <= slog.LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}
