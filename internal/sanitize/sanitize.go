// Package sanitize converts arbitrary failure values into disclosure-safe
// records for logging. Raw error text never leaves this package unscrubbed,
// and stack traces are never carried at all.
package sanitize

import (
	"fmt"
	"strings"
)

// GenericMessage replaces every error message in the non-scrubbing variant.
const GenericMessage = "an internal error occurred"

// UnknownKind marks inputs that do not expose a standard error shape.
const UnknownKind = "unknown"

// UnknownMessage is the constant marker returned for non-error inputs.
const UnknownMessage = "unknown error"

// mask replaces each disallowed rune in scrubbed output.
const mask = '*'

// Record is the sanitized form of a caught fault: a kind tag plus a
// message that is safe to log or surface. Never persisted with raw input.
type Record struct {
	Kind        string `json:"kind"`
	SafeMessage string `json:"safe_message"`
}

func (r Record) String() string {
	return r.Kind + ": " + r.SafeMessage
}

// Sanitize produces a Record for any input. Values implementing error keep
// a kind derived from their concrete type and get the fixed generic
// message; everything else maps to the unknown-error marker. Total and
// deterministic: never panics, never returns the original message.
func Sanitize(v any) Record {
	if err, ok := v.(error); ok && err != nil {
		return Record{Kind: kindOf(err), SafeMessage: GenericMessage}
	}
	return Record{Kind: UnknownKind, SafeMessage: UnknownMessage}
}

// SanitizeDetail is the scrubbing variant used for surfaced diagnostics:
// the error's own message is kept but masked character-by-character, so
// safe characters survive byte-identical while anything outside the
// allow-set is replaced. Non-error inputs map to the unknown-error marker.
func SanitizeDetail(v any) Record {
	if err, ok := v.(error); ok && err != nil {
		return Record{Kind: kindOf(err), SafeMessage: Scrub(err.Error())}
	}
	return Record{Kind: UnknownKind, SafeMessage: UnknownMessage}
}

// Scrub masks every rune outside the safe allow-set
// [A-Za-z0-9 .,!?@#$%^&*()\-+=_]. Safe input passes through unchanged.
func Scrub(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if safeRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(mask)
		}
	}
	return b.String()
}

func safeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	switch r {
	case ' ', '.', ',', '!', '?', '@', '#', '$', '%', '^', '&', '*', '(', ')', '-', '+', '=', '_':
		return true
	}
	return false
}

// kindOf derives a stable tag from the error's concrete type. The type
// name is structural, not user-controlled, so it is safe to forward.
func kindOf(err error) string {
	kind := fmt.Sprintf("%T", err)
	kind = strings.TrimPrefix(kind, "*")
	if kind == "errors.errorString" || kind == "fmt.wrapError" {
		return "error"
	}
	return kind
}
