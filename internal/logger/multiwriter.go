package logger

import (
	"context"
	"errors"
	"log/slog"
)

// multiWriterHandler writes to multiple slog handlers
type multiWriterHandler struct {
	handlers []slog.Handler
}

func newMultiWriterHandler(handlers ...slog.Handler) slog.Handler {
	return &multiWriterHandler{handlers: handlers}
}

// Enabled returns true if any handler is enabled for the level
func (h *multiWriterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to every handler enabled for its level
//
//nolint:gocritic // slog.Handler interface requires record by value
func (h *multiWriterHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *multiWriterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &multiWriterHandler{handlers: next}
}

func (h *multiWriterHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &multiWriterHandler{handlers: next}
}

// flushOnErrorHandler flushes a buffered writer after error records so that
// failures survive a crash.
type flushOnErrorHandler struct {
	slog.Handler
	writer *BufferedFileWriter
}

//nolint:gocritic // slog.Handler interface requires record by value
func (h *flushOnErrorHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.Handler.Handle(ctx, record)
	if record.Level >= slog.LevelError {
		err = errors.Join(err, h.writer.Flush())
	}
	return err
}

func (h *flushOnErrorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &flushOnErrorHandler{Handler: h.Handler.WithAttrs(attrs), writer: h.writer}
}

func (h *flushOnErrorHandler) WithGroup(name string) slog.Handler {
	return &flushOnErrorHandler{Handler: h.Handler.WithGroup(name), writer: h.writer}
}
