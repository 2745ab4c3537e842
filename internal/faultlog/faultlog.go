package faultlog

import (
	"log/slog"
	"path/filepath"
	"sync"

	"webperch/internal/paths"
	"webperch/internal/sanitize"
)

// Package-level default store, used by the best-effort recording helpers.
// Recording never fails the caller: a missing or broken store logs a
// warning and drops the entry.
var (
	mu  sync.Mutex
	def Store
)

// OpenDefault opens the default store in the data directory: a flat log
// file for storage "file", SQLite for "sqlite". Errors fall back to the
// file store so diagnostics are never silently lost.
func OpenDefault(storage string) {
	mu.Lock()
	defer mu.Unlock()
	if def != nil {
		return
	}
	if storage == "sqlite" {
		s, err := NewSQLiteStore(filepath.Join(paths.DataDir(), paths.EventsDBName))
		if err == nil {
			def = s
			return
		}
		slog.Warn("faultlog: sqlite open failed, falling back to file store", "err", err)
	}
	def = NewFileStore(filepath.Join(paths.DataDir(), paths.EventsFileName))
}

// Close closes the default store.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if def != nil {
		def.Close()
		def = nil
	}
}

// Default returns the current default store, or nil if unopened.
func Default() Store {
	mu.Lock()
	defer mu.Unlock()
	return def
}

// SetDefault replaces the default store. Tests use it to observe records.
func SetDefault(s Store) {
	mu.Lock()
	defer mu.Unlock()
	def = s
}

func record(e Entry) {
	mu.Lock()
	s := def
	mu.Unlock()
	if s == nil {
		return
	}
	if err := s.Append(e); err != nil {
		slog.Warn("faultlog: append failed", "err", err)
	}
}

// Lifecycle records a window or process lifecycle transition.
func Lifecycle(session, event, detail string) {
	record(Entry{Kind: KindLifecycle, Session: session, Event: event, Detail: detail})
}

// Denial records a policy denial. event is "navigate" or "external".
func Denial(session, event, url string) {
	record(Entry{Kind: KindDenial, Session: session, Event: event, Detail: url})
}

// Injection records a failed request into the page context. The error is
// scrubbed before it is stored.
func Injection(session, op string, err error) {
	rec := sanitize.SanitizeDetail(err)
	record(Entry{Kind: KindInjection, Session: session, Event: op, Detail: rec.String()})
}

// Fault records a sanitized process-level fault.
func Fault(rec sanitize.Record) {
	record(Entry{Kind: KindFault, Event: rec.Kind, Detail: rec.SafeMessage})
}
