// Package style holds the colors and icons shared by the logger and the renderer.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/zen/internal/core/domain"
)

// Palette.
var (
	Accent = lipgloss.Color("#0EA5E9")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Skip    = "○"
	Arrow   = "→"
)

// ForState returns the icon and color used to report a terminal build state.
func ForState(s domain.State) (string, lipgloss.Color) {
	switch {
	case s == domain.StateFailed:
		return Cross, Red
	case s.IsSkipped():
		return Skip, Slate
	case s == domain.StateDone:
		return Check, Green
	default:
		return Arrow, Accent
	}
}
