package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	moduleKey  = "module"
	traceIDKey = "trace_id"

	// maxLevelWidth pads level names so messages line up
	maxLevelWidth = 5
)

// textHandler renders records as a single human readable line:
//
//	2026-10-14 10:30:00 INFO  [consolidation] merge committed primary_id=12 secondary_id=47
type textHandler struct {
	mu       *sync.Mutex
	w        io.Writer
	level    slog.Leveler
	timezone *time.Location
	attrs    []slog.Attr
	prefix   string
}

func newTextHandler(w io.Writer, level slog.Leveler, tz *time.Location) *textHandler {
	if tz == nil {
		tz = time.Local
	}
	return &textHandler{mu: &sync.Mutex{}, w: w, level: level, timezone: tz}
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

//nolint:gocritic // slog.Handler interface requires record by value
func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	if !r.Time.IsZero() {
		buf.WriteString(r.Time.In(h.timezone).Format(time.DateTime))
		buf.WriteByte(' ')
	}
	name := levelName(r.Level)
	buf.WriteString(name)
	buf.WriteString(strings.Repeat(" ", max(0, maxLevelWidth-len(name))))
	buf.WriteByte(' ')

	var module string
	var rest []slog.Attr
	collect := func(a slog.Attr) bool {
		if a.Key == moduleKey && h.prefix == "" {
			module = a.Value.String()
			return true
		}
		rest = append(rest, a)
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	if module != "" {
		buf.WriteString("[" + module + "] ")
	}
	buf.WriteString(r.Message)
	for _, a := range rest {
		writeAttr(&buf, h.prefix, a)
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(buf, prefix+a.Key+".", ga)
		}
		return
	}
	buf.WriteByte(' ')
	buf.WriteString(prefix + a.Key)
	buf.WriteByte('=')
	var s string
	switch a.Value.Kind() {
	case slog.KindString:
		s = a.Value.String()
		if s == "" || strings.ContainsAny(s, " \t\"=") {
			s = strconv.Quote(s)
		}
	case slog.KindTime:
		s = a.Value.Time().Format(time.RFC3339)
	case slog.KindAny:
		if a.Value.Any() == nil {
			s = "null"
		} else {
			s = fmt.Sprintf("%+v", a.Value.Any())
		}
	default:
		s = a.Value.String()
	}
	buf.WriteString(s)
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}
