package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"webperch/internal/faultlog"
)

// runShowLog prints the last week of diagnostic events, truncated to the
// terminal width so a quick look stays one line per event.
func runShowLog(storage string) error {
	faultlog.OpenDefault(storage)
	defer faultlog.Close()

	entries, err := faultlog.Default().Entries(7)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no events in the last 7 days")
		return nil
	}

	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = w
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-9s  %-20s  %s",
			e.Time.Format("2006-01-02 15:04:05"),
			faultlog.KindString(e.Kind), e.Event, e.Detail)
		if e.Session != "" {
			line += "  [" + shortID(e.Session) + "]"
		}
		fmt.Println(truncate(line, width))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, width int) string {
	runes := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(runes) <= width {
		return string(runes)
	}
	return string(runes[:width-1]) + "…"
}
