//go:build !windows

package main

// Shift-held detection only exists on Windows; elsewhere the tray quit
// item is the explicit exit path.
func isShiftHeld() bool { return false }
