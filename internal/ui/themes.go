package ui

import (
	"os"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

// Theme pairs the ANSI escape codes used by plain-text output (headers,
// usage, the comparison table) with the lipgloss palette of the report
// panels.
type Theme struct {
	Name string

	Primary   string // operation names
	Secondary string // settings and values
	Success   string
	Warning   string // section titles, timeouts
	Error     string
	Info      string // sizes
	Bold      string
	Underline string
	Reset     string

	Palette Palette
}

// Palette holds the lipgloss colors used by Styles.
type Palette struct {
	Text    lipgloss.TerminalColor
	Border  lipgloss.TerminalColor
	Accent  lipgloss.TerminalColor
	Native  lipgloss.TerminalColor
	Success lipgloss.TerminalColor
	Warning lipgloss.TerminalColor
	Error   lipgloss.TerminalColor
	Dim     lipgloss.TerminalColor
}

var (
	// ColorTheme is the default 256-color theme.
	ColorTheme = Theme{
		Name:      "color",
		Primary:   "\033[38;5;39m",
		Secondary: "\033[38;5;245m",
		Success:   "\033[38;5;82m",
		Warning:   "\033[38;5;220m",
		Error:     "\033[38;5;196m",
		Info:      "\033[38;5;141m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
		Palette:   colorPalette,
	}

	// NoColorTheme emits no escape codes.
	NoColorTheme = Theme{Name: "none", Palette: NoColorPalette}

	colorPalette = Palette{
		Text:    lipgloss.Color("#E0E0E0"),
		Border:  lipgloss.Color("#3B82F6"),
		Accent:  lipgloss.Color("#00AFFF"),
		Native:  lipgloss.Color("#FF8C00"),
		Success: lipgloss.Color("#9ECE6A"),
		Warning: lipgloss.Color("#FFD75F"),
		Error:   lipgloss.Color("#FF4444"),
		Dim:     lipgloss.Color("#8A8A8A"),
	}

	// NoColorPalette renders with the terminal's default colors.
	NoColorPalette = Palette{
		Text:    lipgloss.NoColor{},
		Border:  lipgloss.NoColor{},
		Accent:  lipgloss.NoColor{},
		Native:  lipgloss.NoColor{},
		Success: lipgloss.NoColor{},
		Warning: lipgloss.NoColor{},
		Error:   lipgloss.NoColor{},
		Dim:     lipgloss.NoColor{},
	}
)

var current atomic.Pointer[Theme]

func init() { SetCurrentTheme(ColorTheme) }

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme { return *current.Load() }

// SetCurrentTheme replaces the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) { current.Store(&t) }

// GetCurrentPalette returns the palette of the active theme.
func GetCurrentPalette() Palette { return current.Load().Palette }

// InitTheme selects NoColorTheme when noColor is set or NO_COLOR is present
// in the environment with any value (https://no-color.org/), ColorTheme
// otherwise.
func InitTheme(noColor bool) {
	if _, ok := os.LookupEnv("NO_COLOR"); ok || noColor {
		SetCurrentTheme(NoColorTheme)
		return
	}
	SetCurrentTheme(ColorTheme)
}

func ColorReset() string { return current.Load().Reset }
func ColorRed() string { return current.Load().Error }
func ColorGreen() string { return current.Load().Success }
func ColorYellow() string { return current.Load().Warning }
func ColorBlue() string { return current.Load().Primary }
func ColorMagenta() string { return current.Load().Info }
func ColorCyan() string { return current.Load().Secondary }
func ColorBold() string { return current.Load().Bold }
func ColorUnderline() string { return current.Load().Underline }
