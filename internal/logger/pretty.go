package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiGray   = "\033[90m"
	ansiCyan   = "\033[36m"
	ansiBold   = "\033[1m"
)

// prettyHandler renders records as single colored lines:
// HH:MM:SS LEVEL message key=value ...
type prettyHandler struct {
	w     io.Writer
	level slog.Level
	mu    sync.Mutex
	group string
	attrs []slog.Attr
}

func newPrettyHandler(w io.Writer, level slog.Level) *prettyHandler {
	return &prettyHandler{w: w, level: level}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *prettyHandler) Handle(_ context.Context, rec slog.Record) error {
	buf := make([]byte, 0, 256)

	buf = append(buf, ansiGray...)
	buf = rec.Time.AppendFormat(buf, time.TimeOnly)
	buf = append(buf, ansiReset...)
	buf = append(buf, ' ')

	buf = append(buf, levelANSI(rec.Level)...)
	buf = append(buf, ansiBold...)
	buf = append(buf, rec.Level.String()...)
	buf = append(buf, ansiReset...)
	buf = append(buf, ' ')

	buf = append(buf, rec.Message...)

	total := len(h.attrs) + rec.NumAttrs()
	if total > 0 {
		buf = append(buf, ' ')
		buf = append(buf, ansiCyan...)
		first := true
		for _, a := range h.attrs {
			buf = h.appendAttr(buf, a, &first)
		}
		rec.Attrs(func(a slog.Attr) bool {
			buf = h.appendAttr(buf, a, &first)
			return true
		})
		buf = append(buf, ansiReset...)
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *prettyHandler) appendAttr(buf []byte, a slog.Attr, first *bool) []byte {
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if !*first {
		buf = append(buf, ' ')
	}
	*first = false

	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	buf = append(buf, key...)
	buf = append(buf, '=')

	switch a.Value.Kind() {
	case slog.KindString:
		buf = fmt.Appendf(buf, "%q", a.Value.String())
	case slog.KindTime:
		buf = a.Value.Time().AppendFormat(buf, time.RFC3339)
	case slog.KindDuration:
		buf = append(buf, a.Value.Duration().String()...)
	default:
		buf = fmt.Append(buf, a.Value.Any())
	}
	return buf
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &prettyHandler{w: h.w, level: h.level, group: h.group, attrs: merged}
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &prettyHandler{w: h.w, level: h.level, group: group, attrs: h.attrs}
}

func levelANSI(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiYellow
	case level >= slog.LevelInfo:
		return ansiBlue
	default:
		return ansiGray
	}
}
