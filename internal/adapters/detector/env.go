// Package detector provides environment detection for output mode selection.
package detector

import (
	"os"

	"golang.org/x/term"
)

// OutputMode represents how the build attaches to the terminal.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeInteractive runs hooks in a pseudo-terminal and renders colour.
	ModeInteractive
	// ModePlain uses pipes for every process and plain text output.
	ModePlain
)

// DetectEnvironment returns the recommended output mode based on the environment.
// It checks if stdout is a TTY and if CI environment variables are set.
func DetectEnvironment() OutputMode {
	isTTY := term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec // file descriptors fit in int

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return ModePlain
	}
	return ModeInteractive
}

// ResolveMode applies user override flag to auto-detection.
// userFlag should be one of: "auto", "tty", "plain", "ci", or empty.
func ResolveMode(autoDetected OutputMode, userFlag string) OutputMode {
	switch userFlag {
	case "tty":
		return ModeInteractive
	case "plain", "ci":
		return ModePlain
	default:
		return autoDetected
	}
}

// Interactive reports whether the mode attaches hooks to a terminal.
func (m OutputMode) Interactive() bool {
	return m == ModeInteractive
}
