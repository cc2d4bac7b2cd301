package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Box drawing characters
const (
	TopLeft     = "╭"
	TopRight    = "╮"
	BottomLeft  = "╰"
	BottomRight = "╯"
	Horizontal  = "─"
	Vertical    = "│"
	LeftT       = "├"
	RightT      = "┤"
	TopT        = "┬"
	BottomT     = "┴"
	Cross       = "┼"
)

// Color palette
const (
	ColorBorder  = "240"
	ColorHeader  = "252"
	ColorName    = "81"
	ColorGroup   = "252"
	ColorStream  = "214"
	ColorOK      = "82"
	ColorError   = "203"
	ColorWarning = "214"
	ColorMuted   = "240"
	ColorHint    = "245"

	// ColorDefaultSource is used for sources without a color
	ColorDefaultSource = "252"
)

// Shared styles
var (
	BorderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBorder))
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorHeader))
	NameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorName))
	GroupStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGroup))
	StreamStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorStream))
	OKStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorOK))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted))
	HintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHint))
)

// namedColors maps console color names onto the 256-color palette
var namedColors = map[string]string{
	"black":   "0",
	"red":     "9",
	"green":   "10",
	"yellow":  "11",
	"blue":    "12",
	"magenta": "13",
	"cyan":    "14",
	"white":   "15",
	"gray":    "245",
	"grey":    "245",
}

// SourceColor resolves a source color hint. Named colors, 256-color codes
// and hex values are accepted; an empty hint falls back to the default.
func SourceColor(hint string) lipgloss.Color {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return lipgloss.Color(ColorDefaultSource)
	}
	if c, ok := namedColors[hint]; ok {
		return lipgloss.Color(c)
	}
	return lipgloss.Color(hint)
}

// padRight pads a string to the specified display width using runewidth
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return runewidth.Truncate(s, width, "...")
	}
	return s + strings.Repeat(" ", width-sw)
}
