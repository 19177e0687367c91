// Package tui holds the terminal presentation helpers shared by the CLI
// commands: TTY detection, colors, and the boxed notices shown before a run.
package tui

import "github.com/charmbracelet/lipgloss"

// Palette.
const (
	ColorWarning = lipgloss.Color("214")
	ColorValue   = lipgloss.Color("255")
	ColorMuted   = lipgloss.Color("240")
	ColorBorder  = lipgloss.Color("63")
)

//nolint:gochecknoglobals // Immutable styles.
var (
	// BoxStyle frames a notice.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)

	// WarningStyle highlights the line the user must not miss.
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)

	// ValueStyle highlights user-supplied values.
	ValueStyle = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)

	// MutedStyle is used for secondary text.
	MutedStyle = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
)
