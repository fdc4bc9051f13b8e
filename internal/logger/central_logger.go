package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	// Embedded zoneinfo keeps Timezone usable in minimal containers.
	_ "time/tzdata"
)

// CentralLogger manages module-aware logging with flexible routing
type CentralLogger struct {
	config        *LoggingConfig
	timezone      *time.Location
	console       io.Writer
	baseHandler   slog.Handler
	mainWriter    *BufferedFileWriter
	moduleWriters map[string]*BufferedFileWriter
	moduleLevels  map[string]slog.Level
	mu            sync.RWMutex
}

// CentralLoggerOption customises a CentralLogger
type CentralLoggerOption func(*CentralLogger)

// WithConsoleWriter redirects console output, mainly for tests.
func WithConsoleWriter(w io.Writer) CentralLoggerOption {
	return func(cl *CentralLogger) {
		cl.console = w
	}
}

// NewCentralLogger creates a centralized logger with module routing
func NewCentralLogger(cfg *LoggingConfig, opts ...CentralLoggerOption) (*CentralLogger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logging config cannot be nil")
	}
	applyConfigDefaults(cfg)

	var tz *time.Location
	switch cfg.Timezone {
	case "", "Local":
		tz = time.Local
	default:
		var err error
		tz, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", cfg.Timezone, err)
		}
	}

	cl := &CentralLogger{
		config:        cfg,
		timezone:      tz,
		console:       os.Stdout,
		moduleWriters: make(map[string]*BufferedFileWriter),
		moduleLevels:  make(map[string]slog.Level),
	}
	for _, opt := range opts {
		opt(cl)
	}

	for module, level := range cfg.ModuleLevels {
		cl.moduleLevels[module] = parseLogLevel(level)
	}

	if err := cl.createBaseHandler(); err != nil {
		return nil, fmt.Errorf("failed to create base handler: %w", err)
	}

	for module, out := range cfg.ModuleOutputs {
		if !out.Enabled || out.FilePath == "" {
			continue
		}
		writer, err := NewBufferedFileWriter(out.FilePath)
		if err != nil {
			_ = cl.Close()
			return nil, fmt.Errorf("failed to create log writer for module %s: %w", module, err)
		}
		cl.moduleWriters[module] = writer
	}

	return cl, nil
}

func (cl *CentralLogger) consoleHandler(level slog.Level) slog.Handler {
	if cl.config.Console.Format == FormatJSON {
		return slog.NewJSONHandler(cl.console, &slog.HandlerOptions{Level: level, ReplaceAttr: replaceLevelAttr})
	}
	return newTextHandler(cl.console, level, cl.timezone)
}

// createBaseHandler builds the default console and/or main file handler
func (cl *CentralLogger) createBaseHandler() error {
	var handlers []slog.Handler

	if cl.config.Console.Enabled {
		handlers = append(handlers, cl.consoleHandler(parseLogLevel(cl.config.Console.Level)))
	}

	if cl.config.FileOutput.Enabled {
		writer, err := NewBufferedFileWriter(cl.config.FileOutput.Path)
		if err != nil {
			return err
		}
		cl.mainWriter = writer
		handlers = append(handlers, jsonFileHandler(writer, parseLogLevel(cl.config.FileOutput.Level)))
	}

	switch len(handlers) {
	case 0:
		cl.baseHandler = cl.consoleHandler(parseLogLevel(cl.config.DefaultLevel))
	case 1:
		cl.baseHandler = handlers[0]
	default:
		cl.baseHandler = newMultiWriterHandler(handlers...)
	}
	return nil
}

func jsonFileHandler(writer *BufferedFileWriter, level slog.Level) slog.Handler {
	return &flushOnErrorHandler{
		Handler: slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level, ReplaceAttr: replaceLevelAttr}),
		writer:  writer,
	}
}

// Module returns a logger scoped to a specific module. A module with a
// dedicated output writes there, plus the base handler when ConsoleAlso is set.
func (cl *CentralLogger) Module(name string) Logger {
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	level := cl.levelForLocked(name)
	handler := cl.baseHandler

	if out, ok := cl.config.ModuleOutputs[name]; ok {
		if out.Level != "" {
			level = parseLogLevel(out.Level)
		}
		if writer, ok := cl.moduleWriters[name]; ok {
			fileHandler := jsonFileHandler(writer, level)
			if out.ConsoleAlso {
				handler = newMultiWriterHandler(fileHandler, cl.baseHandler)
			} else {
				handler = fileHandler
			}
		}
	}

	return &moduleLogger{
		module: name,
		logger: slog.New(handler),
		level:  level,
	}
}

func (cl *CentralLogger) levelForLocked(module string) slog.Level {
	if level, ok := cl.moduleLevels[module]; ok {
		return level
	}
	return parseLogLevel(cl.config.DefaultLevel)
}

// Flush writes buffered records of every file writer
func (cl *CentralLogger) Flush() error {
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	var errs []error
	if cl.mainWriter != nil {
		errs = append(errs, cl.mainWriter.Flush())
	}
	for _, w := range cl.moduleWriters {
		errs = append(errs, w.Flush())
	}
	return errors.Join(errs...)
}

// Close flushes and closes every file writer
func (cl *CentralLogger) Close() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	var errs []error
	if cl.mainWriter != nil {
		errs = append(errs, cl.mainWriter.Close())
	}
	for module, w := range cl.moduleWriters {
		errs = append(errs, w.Close())
		delete(cl.moduleWriters, module)
	}
	return errors.Join(errs...)
}
