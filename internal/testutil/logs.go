package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// LogEntry is one captured log record with its attributes flattened.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder is a slog.Handler that keeps every record in memory, so tests
// can assert on what a component logged.
//
// Thread-safety: LogRecorder is safe for concurrent use. Handlers derived
// with WithAttrs/WithGroup share the parent's storage.
type LogRecorder struct {
	store *logStore
	attrs []slog.Attr
	group string
}

type logStore struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewLogger returns a debug-level logger backed by a new LogRecorder.
func NewLogger() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{store: &logStore{}}
	return slog.New(rec), rec
}

// Enabled implements slog.Handler. Every level is recorded.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
func (r *LogRecorder) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]any, len(r.attrs)+record.NumAttrs())
	for _, a := range r.attrs {
		attrs[a.Key] = a.Value.Resolve().Any()
	}
	record.Attrs(func(a slog.Attr) bool {
		attrs[r.prefix(a.Key)] = a.Value.Resolve().Any()
		return true
	})

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.entries = append(r.store.entries, LogEntry{
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	})
	return nil
}

// WithAttrs implements slog.Handler.
func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &LogRecorder{store: r.store, group: r.group}
	next.attrs = append(append(next.attrs, r.attrs...), prefixed(r, attrs)...)
	return next
}

// WithGroup implements slog.Handler.
func (r *LogRecorder) WithGroup(name string) slog.Handler {
	if name == "" {
		return r
	}
	return &LogRecorder{store: r.store, attrs: r.attrs, group: r.prefix(name)}
}

func (r *LogRecorder) prefix(key string) string {
	if r.group == "" {
		return key
	}
	return r.group + "." + key
}

func prefixed(r *LogRecorder, attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: r.prefix(a.Key), Value: a.Value}
	}
	return out
}

// Entries returns a copy of every captured record.
func (r *LogRecorder) Entries() []LogEntry {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]LogEntry, len(r.store.entries))
	copy(out, r.store.entries)
	return out
}

// Messages returns the captured messages in order.
func (r *LogRecorder) Messages() []string {
	entries := r.Entries()
	msgs := make([]string, len(entries))
	for i, e := range entries {
		msgs[i] = e.Message
	}
	return msgs
}

// Find returns the entries with the given message.
func (r *LogRecorder) Find(msg string) []LogEntry {
	var out []LogEntry
	for _, e := range r.Entries() {
		if e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}
