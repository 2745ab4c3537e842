//go:build darwin

package shell

import "strings"

var appleScriptQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// EscapeAppleScript prepares s for an AppleScript double-quoted string.
// Backslashes go first so an existing escape in the input is not turned
// into a live one.
func EscapeAppleScript(s string) string {
	return appleScriptQuoter.Replace(s)
}
