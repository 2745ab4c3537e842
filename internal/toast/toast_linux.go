//go:build linux

package toast

import (
	"fmt"
	"os/exec"
)

// Show posts a desktop notification through notify-send. The app name
// keeps the entry attributed to webperch in the notification history.
func Show(title, message string) error {
	cmd := exec.Command("notify-send", "-a", "webperch", "--", title, message)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify-send: %w\n%s", err, out)
	}
	return nil
}
