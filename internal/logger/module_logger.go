package logger

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"strings"
	"time"
)

// floatPrecisionRatio rounds floats to 3 decimal places in log output
const floatPrecisionRatio = 1000.0

// loggerContextKey is a typed key for context values
type loggerContextKey struct{ name string }

// TraceIDKey is the context key for trace IDs. Use WithTraceID to set values.
var TraceIDKey = loggerContextKey{"trace_id"}

// WithTraceID returns a new context with the trace ID set
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// TraceIDFromContext extracts the trace ID set by WithTraceID.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// moduleLogger implements Logger on top of a slog.Logger
type moduleLogger struct {
	module string
	logger *slog.Logger
	level  slog.Level
	fields []Field
}

// NewSlogLogger creates a standalone Logger writing JSON records to w. A nil
// writer logs text to stderr.
func NewSlogLogger(w io.Writer, level LogLevel, tz *time.Location) Logger {
	slogLevel := parseSlogLevel(level)
	var handler slog.Handler
	if w == nil {
		handler = newTextHandler(os.Stderr, slogLevel, tz)
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel, ReplaceAttr: replaceLevelAttr})
	}
	return &moduleLogger{logger: slog.New(handler), level: slogLevel}
}

// NewDiscardLogger returns a Logger that drops everything.
func NewDiscardLogger() Logger {
	return &moduleLogger{logger: slog.New(slog.NewJSONHandler(io.Discard, nil)), level: slog.LevelError + 1}
}

// Module creates a sub-module logger with its own copy of the fields
func (m *moduleLogger) Module(name string) Logger {
	module := name
	if m.module != "" {
		module = m.module + "." + name
	}
	return &moduleLogger{
		module: module,
		logger: m.logger,
		level:  m.level,
		fields: slices.Clone(m.fields),
	}
}

func (m *moduleLogger) Trace(msg string, fields ...Field) { m.logAt(traceLevelValue, msg, fields) }
func (m *moduleLogger) Debug(msg string, fields ...Field) { m.logAt(slog.LevelDebug, msg, fields) }
func (m *moduleLogger) Info(msg string, fields ...Field)  { m.logAt(slog.LevelInfo, msg, fields) }
func (m *moduleLogger) Warn(msg string, fields ...Field)  { m.logAt(slog.LevelWarn, msg, fields) }
func (m *moduleLogger) Error(msg string, fields ...Field) { m.logAt(slog.LevelError, msg, fields) }

// Log logs a message with explicit level
func (m *moduleLogger) Log(level LogLevel, msg string, fields ...Field) {
	m.logAt(parseSlogLevel(level), msg, fields)
}

// With returns a new logger with accumulated fields
func (m *moduleLogger) With(fields ...Field) Logger {
	return &moduleLogger{
		module: m.module,
		logger: m.logger,
		level:  m.level,
		fields: slices.Concat(m.fields, fields),
	}
}

// WithContext returns a logger carrying the trace id of ctx, if any
func (m *moduleLogger) WithContext(ctx context.Context) Logger {
	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		return m
	}
	return m.With(String(traceIDKey, traceID))
}

// Flush is a no-op; file writers are owned by CentralLogger
func (m *moduleLogger) Flush() error {
	return nil
}

func (m *moduleLogger) logAt(level slog.Level, msg string, fields []Field) {
	if m == nil || level < m.level {
		return
	}

	attrs := make([]slog.Attr, 0, len(m.fields)+len(fields)+1)
	if m.module != "" {
		attrs = append(attrs, slog.String(moduleKey, m.module))
	}
	for i := range m.fields {
		attrs = append(attrs, fieldToAttr(m.fields[i]))
	}
	for i := range fields {
		attrs = append(attrs, fieldToAttr(fields[i]))
	}

	m.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func roundFloat(val float64) float64 {
	return math.Round(val*floatPrecisionRatio) / floatPrecisionRatio
}

// fieldToAttr converts Field to slog.Attr, redacting values of sensitive keys
func fieldToAttr(f Field) slog.Attr {
	switch v := f.Value.(type) {
	case string:
		if isSensitiveKey(f.Key) && v != "" {
			return slog.String(f.Key, redacted)
		}
		return slog.String(f.Key, v)
	case int:
		return slog.Int(f.Key, v)
	case int64:
		return slog.Int64(f.Key, v)
	case uint64:
		return slog.Uint64(f.Key, v)
	case float64:
		return slog.Float64(f.Key, roundFloat(v))
	case bool:
		return slog.Bool(f.Key, v)
	case time.Time:
		return slog.Time(f.Key, v)
	case time.Duration:
		return slog.String(f.Key, v.Round(time.Millisecond).String())
	default:
		return slog.Any(f.Key, v)
	}
}

const redacted = "[REDACTED]"

var sensitiveKeywords = []string{"password", "passwd", "secret", "token", "dsn", "credential"}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// replaceLevelAttr renders the custom trace level by name in JSON output
func replaceLevelAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(levelName(level))
		}
	}
	return a
}
