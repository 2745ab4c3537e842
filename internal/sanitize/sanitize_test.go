package sanitize

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
)

func TestSanitizeErrorUsesGenericMessage(t *testing.T) {
	rec := Sanitize(errors.New("contains <script>alert(1)</script> payload"))
	if rec.SafeMessage != GenericMessage {
		t.Errorf("SafeMessage = %q, want %q", rec.SafeMessage, GenericMessage)
	}
	if strings.Contains(rec.SafeMessage, "script") {
		t.Error("sanitized output leaked the original message")
	}
	if rec.Kind != "error" {
		t.Errorf("Kind = %q, want %q", rec.Kind, "error")
	}
}

func TestSanitizeKeepsTypeKind(t *testing.T) {
	rec := Sanitize(&net.AddrError{Err: "bad", Addr: "x"})
	if rec.Kind != "net.AddrError" {
		t.Errorf("Kind = %q, want %q", rec.Kind, "net.AddrError")
	}
	if rec.SafeMessage != GenericMessage {
		t.Errorf("SafeMessage = %q, want the generic message", rec.SafeMessage)
	}
}

func TestSanitizeNonErrorInputs(t *testing.T) {
	for _, v := range []any{
		"just a string",
		42,
		3.14,
		map[string]string{"k": "v"},
		[]int{1, 2, 3},
		nil,
	} {
		rec := Sanitize(v)
		if rec.Kind != UnknownKind || rec.SafeMessage != UnknownMessage {
			t.Errorf("Sanitize(%v) = %+v, want unknown marker", v, rec)
		}
	}
}

func TestSanitizeNilErrorInterface(t *testing.T) {
	// A typed-nil error must not panic and must map to the unknown marker.
	var err error
	rec := Sanitize(err)
	if rec.SafeMessage != UnknownMessage {
		t.Errorf("SafeMessage = %q, want %q", rec.SafeMessage, UnknownMessage)
	}
}

func TestSanitizeDetailScrubsPayload(t *testing.T) {
	payload := "<script>alert('xss')</script>"
	rec := SanitizeDetail(fmt.Errorf("load failed: %s", payload))

	if strings.Contains(rec.SafeMessage, "<script>") {
		t.Errorf("scrubbed message still contains payload: %q", rec.SafeMessage)
	}
	if !strings.ContainsRune(rec.SafeMessage, '*') {
		t.Errorf("expected at least one mask character in %q", rec.SafeMessage)
	}
	// The safe part of the message survives verbatim.
	if !strings.HasPrefix(rec.SafeMessage, "load failed") {
		t.Errorf("safe prefix mangled: %q", rec.SafeMessage)
	}
}

func TestScrubSafeInputUnchanged(t *testing.T) {
	in := "All safe. Chars, 0-9 and symbols !?@#$%^&*()-+=_"
	if got := Scrub(in); got != in {
		t.Errorf("Scrub(%q) = %q, want input unchanged", in, got)
	}
}

func TestScrubMasksDisallowed(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<tag>", "*tag*"},
		{"a;b:c", "a*b*c"},
		{"line1\nline2", "line1*line2"},
		{"quote'quote\"", "quote*quote*"},
		{"unicode→arrow", "unicode*arrow"},
	}
	for _, tt := range tests {
		if got := Scrub(tt.in); got != tt.want {
			t.Errorf("Scrub(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeDeterministic(t *testing.T) {
	err := errors.New("some failure; with <details>")
	a := SanitizeDetail(err)
	b := SanitizeDetail(err)
	if a != b {
		t.Errorf("SanitizeDetail not deterministic: %+v vs %+v", a, b)
	}
}
