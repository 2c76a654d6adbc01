package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Entry is one captured log record.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// String renders the entry as a single line, e.g. "09:30:00 INFO session started task=3".
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Time.Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(e.Level.String())
	b.WriteByte(' ')
	b.WriteString(e.Message)
	for _, k := range sortedKeys(e.Attrs) {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(e.Attrs[k])
	}
	return b.String()
}

type ring struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
}

// RingHandler is a slog.Handler that keeps the most recent records in
// memory, for the log pane of the interactive views.
type RingHandler struct {
	ring   *ring
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewRingHandler returns a handler keeping at most maxEntries records at or
// above level. A non-positive maxEntries means 1000.
func NewRingHandler(maxEntries int, level slog.Leveler) *RingHandler {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &RingHandler{
		ring:  &ring{entries: make([]Entry, 0, min(maxEntries, 64)), max: maxEntries},
		level: level,
	}
}

// Enabled implements slog.Handler.
func (h *RingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *RingHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]string, len(h.attrs)+record.NumAttrs())
	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		addAttr(attrs, "", a)
	}
	record.Attrs(func(a slog.Attr) bool {
		addAttr(attrs, prefix, a)
		return true
	})

	h.ring.mu.Lock()
	defer h.ring.mu.Unlock()
	h.ring.entries = append(h.ring.entries, Entry{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	})
	if over := len(h.ring.entries) - h.ring.max; over > 0 {
		h.ring.entries = append(h.ring.entries[:0], h.ring.entries[over:]...)
	}
	return nil
}

func addAttr(dst map[string]string, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addAttr(dst, key, ga)
		}
		return
	}
	dst[key] = a.Value.String()
}

// WithAttrs implements slog.Handler. The returned handler shares the buffer.
func (h *RingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	prefix := strings.Join(h.groups, ".")
	qualified := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		qualified = append(qualified, a)
	}
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), qualified...)
	return &clone
}

// WithGroup implements slog.Handler. The returned handler shares the buffer.
func (h *RingHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// Recent returns up to n of the newest entries, oldest first. n <= 0 returns
// all of them.
func (h *RingHandler) Recent(n int) []Entry {
	h.ring.mu.RLock()
	defer h.ring.mu.RUnlock()
	if n <= 0 || n > len(h.ring.entries) {
		n = len(h.ring.entries)
	}
	out := make([]Entry, n)
	copy(out, h.ring.entries[len(h.ring.entries)-n:])
	return out
}

// Search returns the entries whose message or attributes contain query,
// case-insensitively.
func (h *RingHandler) Search(query string) []Entry {
	h.ring.mu.RLock()
	defer h.ring.mu.RUnlock()
	query = strings.ToLower(query)
	var matches []Entry
	for _, e := range h.ring.entries {
		if strings.Contains(strings.ToLower(e.Message), query) {
			matches = append(matches, e)
			continue
		}
		for k, v := range e.Attrs {
			if strings.Contains(strings.ToLower(k), query) || strings.Contains(strings.ToLower(v), query) {
				matches = append(matches, e)
				break
			}
		}
	}
	return matches
}

// Clear drops every entry.
func (h *RingHandler) Clear() {
	h.ring.mu.Lock()
	defer h.ring.mu.Unlock()
	h.ring.entries = h.ring.entries[:0]
}
