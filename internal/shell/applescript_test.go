//go:build darwin

package shell

import "testing"

func TestEscapeAppleScript(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{`say "hi"`, `say \"hi\"`},
		{`back\slash`, `back\\slash`},
		{`pre\"escaped`, `pre\\\"escaped`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := EscapeAppleScript(tt.in); got != tt.want {
			t.Errorf("EscapeAppleScript(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
