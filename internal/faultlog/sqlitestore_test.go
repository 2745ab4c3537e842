package faultlog

import (
	"path/filepath"
	"testing"
	"time"

	"webperch/internal/sanitize"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreAppendAndEntries(t *testing.T) {
	s := newTestSQLiteStore(t)

	entries := []Entry{
		{Kind: KindLifecycle, Session: "s1", Event: "ready", Detail: ""},
		{Kind: KindInjection, Session: "s1", Event: "teardown", Detail: "error: deadline exceeded"},
		{Kind: KindDenial, Session: "s2", Event: "external", Detail: "ftp://files.example"},
	}
	for _, e := range entries {
		if err := s.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Entries(0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got), len(entries))
	}
	for i, e := range entries {
		if got[i].Kind != e.Kind || got[i].Session != e.Session ||
			got[i].Event != e.Event || got[i].Detail != e.Detail {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], e)
		}
	}
}

func TestSQLiteStoreEntriesWindow(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.Append(Entry{Time: time.Now().AddDate(0, 0, -30), Kind: KindFault, Event: "error"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(Entry{Kind: KindFault, Event: "panic"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Entries(7)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(got) != 1 || got[0].Event != "panic" {
		t.Errorf("Entries(7) = %+v, want only the recent entry", got)
	}
}

func TestSQLiteStoreClean(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.Append(Entry{Time: time.Now().AddDate(0, 0, -10), Kind: KindLifecycle, Event: "ready"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(Entry{Kind: KindLifecycle, Event: "hidden"}); err != nil {
		t.Fatal(err)
	}

	removed, err := s.Clean(7)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	got, err := s.Entries(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Event != "hidden" {
		t.Errorf("after Clean got %+v", got)
	}
}

func TestSQLiteStoreClear(t *testing.T) {
	s := newTestSQLiteStore(t)
	if err := s.Append(Entry{Kind: KindFault, Event: "error"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err := s.Entries(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d entries after Clear, want 0", len(got))
	}
}

func TestDefaultStoreHelpers(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "events.log"))
	SetDefault(s)
	t.Cleanup(func() { SetDefault(nil) })

	Lifecycle("s1", "ready", "")
	Denial("s1", "navigate", "https://evil.example")
	Fault(sanitize.Record{Kind: "error", SafeMessage: "an internal error occurred"})

	got, err := s.Entries(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	if got[1].Kind != KindDenial || got[1].Detail != "https://evil.example" {
		t.Errorf("denial entry = %+v", got[1])
	}
}

func TestHelpersWithoutStore(t *testing.T) {
	SetDefault(nil)
	// Must not panic with no store open.
	Lifecycle("s1", "ready", "")
	Fault(sanitize.Record{Kind: "error", SafeMessage: "an internal error occurred"})
}
