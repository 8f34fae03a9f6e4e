// Package theme holds the lipgloss styles used for ark's terminal output.
package theme

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultThemeName = "kanagawa"

// --- Kanagawa Dragon (dark) palette ---
const (
	kanagawaDarkGreen     = "#98BB6C"
	kanagawaDarkYellow    = "#FF9E3B"
	kanagawaDarkRed       = "#FF5D62"
	kanagawaDarkOrange    = "#FFA066"
	kanagawaDarkCyan      = "#7E9CD8"
	kanagawaDarkBlue      = "#7FB4CA"
	kanagawaDarkViolet    = "#957FB8"
	kanagawaDarkLightText = "#DCD7BA"
	kanagawaDarkMutedText = "#727169"
)

// --- Kanagawa Wave (light-inspired) palette ---
const (
	kanagawaLightGreen     = "#4E7C5A"
	kanagawaLightYellow    = "#A68A64"
	kanagawaLightRed       = "#C34043"
	kanagawaLightOrange    = "#CC6B4E"
	kanagawaLightCyan      = "#5B8BBE"
	kanagawaLightBlue      = "#4F7CAC"
	kanagawaLightViolet    = "#674D7A"
	kanagawaLightLightText = "#2B2F42"
	kanagawaLightMutedText = "#6C7086"
)

// --- Terminal (ANSI-friendly) palette ---
const (
	terminalGreen     = "2"
	terminalYellow    = "3"
	terminalRed       = "1"
	terminalOrange    = "208"
	terminalCyan      = "6"
	terminalBlue      = "4"
	terminalViolet    = "5"
	terminalLightText = "7"
	terminalMutedText = "8"
)

// Colors is the palette of a theme.
type Colors struct {
	Green     lipgloss.TerminalColor
	Yellow    lipgloss.TerminalColor
	Red       lipgloss.TerminalColor
	Orange    lipgloss.TerminalColor
	Cyan      lipgloss.TerminalColor
	Blue      lipgloss.TerminalColor
	Violet    lipgloss.TerminalColor
	LightText lipgloss.TerminalColor
	MutedText lipgloss.TerminalColor
}

// Theme is a set of styles built from a palette.
type Theme struct {
	Name   string
	Colors Colors

	Header  lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Italic  lipgloss.Style
	Accent  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// DefaultTheme is selected by ARK_THEME ("kanagawa" or "terminal").
var DefaultTheme = initDefaultTheme()

// NewTheme returns the default theme.
func NewTheme() *Theme {
	return NewThemeWithName(getThemeName())
}

// NewThemeWithName returns the named theme, falling back to the default.
func NewThemeWithName(name string) *Theme {
	name = normalizeThemeName(name)
	return newThemeFromColors(resolveThemeColors(name), name)
}

// RenderHeader renders a section header.
func RenderHeader(title string) string {
	return DefaultTheme.Header.Render(title)
}

// RenderStatus renders text in the style of a session status, heartbeat
// outcome or event kind.
func RenderStatus(status, text string) string {
	switch status {
	case "active", "updated", "start":
		return DefaultTheme.Success.Render(text)
	case "crashed", "crash":
		return DefaultTheme.Error.Render(text)
	case "stopped", "throttled", "stop", "heartbeat":
		return DefaultTheme.Muted.Render(text)
	default:
		return DefaultTheme.Warning.Render(text)
	}
}

func initDefaultTheme() *Theme {
	return NewTheme()
}

func newThemeFromColors(colors Colors, themeName string) *Theme {
	return &Theme{
		Name:   themeName,
		Colors: colors,

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Orange),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.LightText),
		Muted: lipgloss.NewStyle().
			Foreground(colors.MutedText),
		Italic: lipgloss.NewStyle().
			Italic(true),
		Accent: lipgloss.NewStyle().
			Foreground(colors.Cyan),
		Success: lipgloss.NewStyle().
			Foreground(colors.Green),
		Warning: lipgloss.NewStyle().
			Foreground(colors.Yellow),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red),
	}
}

func resolveThemeColors(name string) Colors {
	if name == "terminal" {
		return newTerminalColors()
	}
	return newKanagawaColors()
}

func normalizeThemeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "terminal" {
		return name
	}
	return defaultThemeName
}

func getThemeName() string {
	return os.Getenv("ARK_THEME")
}

func newKanagawaColors() Colors {
	return Colors{
		Green:     lipgloss.AdaptiveColor{Light: kanagawaLightGreen, Dark: kanagawaDarkGreen},
		Yellow:    lipgloss.AdaptiveColor{Light: kanagawaLightYellow, Dark: kanagawaDarkYellow},
		Red:       lipgloss.AdaptiveColor{Light: kanagawaLightRed, Dark: kanagawaDarkRed},
		Orange:    lipgloss.AdaptiveColor{Light: kanagawaLightOrange, Dark: kanagawaDarkOrange},
		Cyan:      lipgloss.AdaptiveColor{Light: kanagawaLightCyan, Dark: kanagawaDarkCyan},
		Blue:      lipgloss.AdaptiveColor{Light: kanagawaLightBlue, Dark: kanagawaDarkBlue},
		Violet:    lipgloss.AdaptiveColor{Light: kanagawaLightViolet, Dark: kanagawaDarkViolet},
		LightText: lipgloss.AdaptiveColor{Light: kanagawaLightLightText, Dark: kanagawaDarkLightText},
		MutedText: lipgloss.AdaptiveColor{Light: kanagawaLightMutedText, Dark: kanagawaDarkMutedText},
	}
}

func newTerminalColors() Colors {
	return Colors{
		Green:     lipgloss.Color(terminalGreen),
		Yellow:    lipgloss.Color(terminalYellow),
		Red:       lipgloss.Color(terminalRed),
		Orange:    lipgloss.Color(terminalOrange),
		Cyan:      lipgloss.Color(terminalCyan),
		Blue:      lipgloss.Color(terminalBlue),
		Violet:    lipgloss.Color(terminalViolet),
		LightText: lipgloss.Color(terminalLightText),
		MutedText: lipgloss.Color(terminalMutedText),
	}
}
