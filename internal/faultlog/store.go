// Package faultlog records the shell's diagnostic events: policy
// denials, page injection failures, lifecycle transitions, and sanitized
// fault records. Two backends exist: a flat log file and SQLite.
package faultlog

import "time"

// Kind classifies a diagnostic entry.
type Kind int

const (
	KindLifecycle Kind = iota
	KindDenial
	KindInjection
	KindFault
)

// KindString returns the stable text form used in log lines and the DB.
func KindString(k Kind) string {
	switch k {
	case KindLifecycle:
		return "lifecycle"
	case KindDenial:
		return "denial"
	case KindInjection:
		return "injection"
	case KindFault:
		return "fault"
	}
	return "unknown"
}

// KindFromString is the inverse of KindString. Unknown text maps to
// KindLifecycle so a corrupt line still parses.
func KindFromString(s string) Kind {
	switch s {
	case "denial":
		return KindDenial
	case "injection":
		return KindInjection
	case "fault":
		return KindFault
	}
	return KindLifecycle
}

// Entry is one diagnostic event.
type Entry struct {
	Time    time.Time
	Kind    Kind
	Session string // window session id, may be empty for process-level events
	Event   string // e.g. "ready", "hidden", "navigate", "install", "panic"
	Detail  string // free text; fault details arrive pre-sanitized
}

// Store abstracts diagnostic event storage.
type Store interface {
	Append(e Entry) error

	// Entries returns parsed entries, newest last. days limits to the
	// most recent N days; 0 means all.
	Entries(days int) ([]Entry, error)

	// Clean removes entries older than days and reports how many.
	Clean(days int) (int, error)

	// Clear deletes all data.
	Clear() error

	Path() string
	Close() error
}
