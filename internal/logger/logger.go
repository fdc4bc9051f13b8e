// Package logger provides the structured, module-aware logging used across
// catalogcore. It is built on log/slog.
//
// A CentralLogger is created once from LoggingConfig and hands out module
// loggers:
//
//	central, err := logger.NewCentralLogger(&cfg.Logging)
//	if err != nil {
//	    return err
//	}
//	defer central.Close()
//
//	log := central.Module("consolidation")
//	log.Info("merge committed",
//	    logger.Int64("primary_id", 12),
//	    logger.Int64("secondary_id", 47))
//
// Module loggers nest ("consolidation.merger"), accumulate fields with With,
// and pick up the request trace id from a context prepared with WithTraceID.
//
// Console output is human readable text, file output is JSON. SQL traffic from
// GORM is routed through GormLoggerAdapter and only appears at trace level.
//
// For tests use NewSlogLogger with a bytes.Buffer or io.Discard.
package logger

import (
	"context"
	"time"
	"unique"
)

// LogLevel represents log severity levels
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Field represents a structured log field. Keys are interned.
type Field struct {
	Key   string
	Value any
}

func internKey(key string) string {
	return unique.Make(key).Value()
}

var errorKey = internKey("error")

// Logger is the centralized logging interface for dependency injection
type Logger interface {
	// Module returns a logger scoped to a specific module
	Module(name string) Logger

	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Logger
	WithContext(ctx context.Context) Logger

	// Log with explicit level
	Log(level LogLevel, msg string, fields ...Field)

	// Flush ensures all buffered logs are written
	Flush() error
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: internKey(key), Value: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: internKey(key), Value: value}
}

// Int64 creates a 64-bit integer field. Entity identifiers are logged with it.
func Int64(key string, value int64) Field {
	return Field{Key: internKey(key), Value: value}
}

// Uint64 creates an unsigned 64-bit integer field.
func Uint64(key string, value uint64) Field {
	return Field{Key: internKey(key), Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: internKey(key), Value: value}
}

// Bool creates a boolean field.
func Bool(key string, value bool) Field {
	return Field{Key: internKey(key), Value: value}
}

// Error creates an error field. The key is always "error"; a nil error yields
// a nil value.
//
//	if err := repo.Delete(ctx, id); err != nil {
//	    log.Error("delete failed", logger.Error(err), logger.Int64("catalog_id", id))
//	}
func Error(err error) Field {
	if err == nil {
		return Field{Key: errorKey, Value: nil}
	}
	return Field{Key: errorKey, Value: err.Error()}
}

// Duration creates a duration field rendered as a string ("1.5s", "200ms").
func Duration(key string, value time.Duration) Field {
	return Field{Key: internKey(key), Value: value}
}

// Time creates a time field.
func Time(key string, value time.Time) Field {
	return Field{Key: internKey(key), Value: value}
}

// Any creates a field with an arbitrary value. The value should be JSON
// serializable; prefer the typed constructors for scalars.
func Any(key string, value any) Field {
	return Field{Key: internKey(key), Value: value}
}

// OptionalInt64 logs a nullable identifier, rendering nil as null.
func OptionalInt64(key string, value *int64) Field {
	if value == nil {
		return Field{Key: internKey(key), Value: nil}
	}
	return Field{Key: internKey(key), Value: *value}
}
