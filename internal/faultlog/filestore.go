package faultlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"webperch/internal/paths"
)

// FileStore implements Store using a flat append-only log file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore that reads and writes the given file.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Close() error { return nil }

// Append writes one line:
//
//	2026-01-02T15:04:05Z  kind=denial  session=abc  event=navigate  detail="https://evil.example"
func (f *FileStore) Append(e Entry) error {
	if err := os.MkdirAll(filepath.Dir(f.path), paths.DirPerm); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, paths.FilePerm)
	if err != nil {
		return err
	}
	defer file.Close()

	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err = fmt.Fprintf(file, "%s  kind=%s  session=%s  event=%s  detail=%s\n",
		ts.Format(time.RFC3339), KindString(e.Kind), e.Session, e.Event, strconv.Quote(e.Detail))
	return err
}

func (f *FileStore) Entries(days int) ([]Entry, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var cutoff time.Time
	if days > 0 {
		cutoff = time.Now().AddDate(0, 0, -days)
	}

	var out []Entry
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		e, ok := parseLine(sc.Text())
		if !ok {
			continue // skip corrupt lines rather than failing the read
		}
		if days > 0 && e.Time.Before(cutoff) {
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

func (f *FileStore) Clean(days int) (int, error) {
	all, err := f.Entries(0)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	var keep []Entry
	for _, e := range all {
		if !e.Time.Before(cutoff) {
			keep = append(keep, e)
		}
	}
	removed := len(all) - len(keep)
	if removed == 0 {
		return 0, nil
	}

	var b strings.Builder
	for _, e := range keep {
		fmt.Fprintf(&b, "%s  kind=%s  session=%s  event=%s  detail=%s\n",
			e.Time.Format(time.RFC3339), KindString(e.Kind), e.Session, e.Event, strconv.Quote(e.Detail))
	}
	if err := paths.AtomicWrite(f.path, []byte(b.String())); err != nil {
		return 0, err
	}
	return removed, nil
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// parseLine reads one Append-formatted line back into an Entry.
func parseLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Entry{}, false
	}
	fields := strings.SplitN(line, "  ", 5)
	if len(fields) != 5 {
		return Entry{}, false
	}
	ts, err := time.Parse(time.RFC3339, fields[0])
	if err != nil {
		return Entry{}, false
	}
	e := Entry{Time: ts}
	for _, f := range fields[1:] {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			return Entry{}, false
		}
		switch k {
		case "kind":
			e.Kind = KindFromString(v)
		case "session":
			e.Session = v
		case "event":
			e.Event = v
		case "detail":
			d, err := strconv.Unquote(v)
			if err != nil {
				return Entry{}, false
			}
			e.Detail = d
		}
	}
	return e, true
}
