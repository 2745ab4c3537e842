package policy

import "testing"

func TestExternallyOpenableAllowedSchemes(t *testing.T) {
	for _, raw := range []string{
		"https://example.com/page",
		"HTTPS://EXAMPLE.COM",
		"mailto:someone@example.com",
		"tel:+15551234567",
	} {
		if !ExternallyOpenable(raw) {
			t.Errorf("ExternallyOpenable(%q) = false, want true", raw)
		}
	}
}

func TestExternallyOpenableDeniedSchemes(t *testing.T) {
	for _, raw := range []string{
		"http://example.com", // plain http is not in the allow-set
		"file:///etc/passwd",
		"ftp://example.com/pub",
		"javascript:alert(1)",
		"data:text/html,<script>alert(1)</script>",
		"blob:https://example.com/uuid",
		"vbscript:msgbox",
		"about:blank",
	} {
		if ExternallyOpenable(raw) {
			t.Errorf("ExternallyOpenable(%q) = true, want false", raw)
		}
	}
}

func TestExternallyOpenableUnparsable(t *testing.T) {
	for _, raw := range []string{
		"",
		"://missing-scheme",
		"https://exa mple.com",
		"%zz",
	} {
		if ExternallyOpenable(raw) {
			t.Errorf("ExternallyOpenable(%q) = true, want false", raw)
		}
	}
}

func TestInPlaceNavigationExactOrigin(t *testing.T) {
	home := "https://home.example"
	for _, raw := range []string{
		"https://home.example",
		"https://home.example/",
		"https://home.example/deep/path?q=1#frag",
		"https://HOME.EXAMPLE/page",
		"https://home.example:443/page", // default port elided
	} {
		if !InPlaceNavigationAllowed(raw, home) {
			t.Errorf("InPlaceNavigationAllowed(%q) = false, want true", raw)
		}
	}
}

func TestInPlaceNavigationDenied(t *testing.T) {
	home := "https://home.example"
	for _, raw := range []string{
		"http://home.example",            // scheme mismatch
		"https://evil.home.example",      // subdomain is not the home origin
		"https://home.example.evil.com",  // home domain as a prefix
		"https://home.example:8443/page", // non-default port
		"https://homе.example",           // Cyrillic е look-alike host
		"https://xn--hom-8cd.example",    // punycode form is a different host
		"javascript:alert(1)",
		"file:///home/user/index.html",
		"",
		"not a url",
	} {
		if InPlaceNavigationAllowed(raw, home) {
			t.Errorf("InPlaceNavigationAllowed(%q) = true, want false", raw)
		}
	}
}

func TestInPlaceNavigationBadHomeOrigin(t *testing.T) {
	// A misconfigured home origin must fail closed, never allow everything.
	if InPlaceNavigationAllowed("https://home.example", "") {
		t.Error("empty home origin must deny")
	}
	if InPlaceNavigationAllowed("https://home.example", "not a url") {
		t.Error("unparsable home origin must deny")
	}
}

func TestOriginNormalization(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"https://Home.Example/path", "https://home.example"},
		{"https://home.example:443", "https://home.example"},
		{"http://home.example:80", "http://home.example"},
		{"https://home.example:8443", "https://home.example:8443"},
		{"HTTPS://home.example", "https://home.example"},
	}
	for _, tt := range tests {
		got, err := Origin(tt.raw)
		if err != nil {
			t.Errorf("Origin(%q): %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Origin(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestOriginErrors(t *testing.T) {
	for _, raw := range []string{"", "mailto:a@b", "/relative/path", "host.only"} {
		if _, err := Origin(raw); err == nil {
			t.Errorf("Origin(%q) expected error", raw)
		}
	}
}
