// Package shell quotes values for the scripting hosts the toast layer
// shells out to. Titles and messages come from config and from page
// URLs, so they are untrusted for embedding.
package shell

import "strings"

// EscapePowerShell prepares s for a PowerShell single-quoted string.
// Inside single quotes the only special character is the quote itself,
// written doubled.
func EscapePowerShell(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
