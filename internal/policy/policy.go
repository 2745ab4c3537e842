// Package policy decides which outbound navigations and link-opens the
// shell permits. All checks are pure and fail closed: anything that does
// not parse, or is not explicitly allowed, is denied.
package policy

import (
	"fmt"
	"net/url"
	"strings"
)

// externalSchemes is the fixed allow-set for "open in the OS default
// application". Note plain http is deliberately absent.
var externalSchemes = map[string]bool{
	"https":  true,
	"mailto": true,
	"tel":    true,
}

// ExternallyOpenable reports whether raw may be handed to the OS default
// handler. True only for parseable URLs with an allow-listed scheme;
// javascript:, data:, blob:, file: and friends all return false, as does
// any string that fails to parse.
func ExternallyOpenable(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return externalSchemes[strings.ToLower(u.Scheme)]
}

// InPlaceNavigationAllowed reports whether raw may replace the hosted page
// in the window. Allowed only when raw's origin string-equals homeOrigin
// after normalization. There is no subdomain or substring matching:
// sub.home.tld is rejected even though it contains the home domain.
func InPlaceNavigationAllowed(raw, homeOrigin string) bool {
	got, err := Origin(raw)
	if err != nil {
		return false
	}
	want, err := Origin(homeOrigin)
	if err != nil {
		return false
	}
	return got == want
}

// Origin normalizes a URL to its scheme://host[:port] origin: scheme and
// host lowercased, default ports elided. URLs without a scheme or host
// have no origin and return an error.
func Origin(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("policy: parse %q: %w", raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if scheme == "" || host == "" {
		return "", fmt.Errorf("policy: %q has no origin", raw)
	}
	port := u.Port()
	if port == defaultPort(scheme) {
		port = ""
	}
	if port != "" {
		return scheme + "://" + host + ":" + port, nil
	}
	return scheme + "://" + host, nil
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http", "ws":
		return "80"
	case "https", "wss":
		return "443"
	}
	return ""
}
