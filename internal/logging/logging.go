// Package logging wires log/slog for focusflow: an in-memory ring of recent
// records for the interactive views, plus an optional JSON log file with
// size-based rotation.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// Options configures Setup.
type Options struct {
	// Level is the minimum level recorded everywhere.
	Level slog.Level
	// File, when set, receives JSON records.
	File       string
	MaxSizeMB  int
	MaxFiles   int
	BufferSize int
}

// Logger bundles the configured slog.Logger with its in-memory buffer.
type Logger struct {
	*slog.Logger
	Ring *RingHandler
	file io.Closer
}

// Setup builds a Logger from opts. The caller must Close it.
func Setup(opts Options) (*Logger, error) {
	ring := NewRingHandler(opts.BufferSize, opts.Level)
	l := &Logger{Ring: ring}
	handlers := []slog.Handler{ring}
	if opts.File != "" {
		w, err := NewRotatingFileWriter(opts.File, opts.MaxSizeMB, opts.MaxFiles)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		l.file = w
		handlers = append(handlers, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level}))
	}
	l.Logger = slog.New(newFanout(handlers...))
	return l, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel parses debug, info, warn (or warning) and error,
// case-insensitively. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func newFanout(handlers ...slog.Handler) slog.Handler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return fanout(handlers)
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
