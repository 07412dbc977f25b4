package ui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by report output.
type Styles struct {
	Title lipgloss.Style
	Panel lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Dim   lipgloss.Style

	native      lipgloss.Style
	conditional lipgloss.Style
	fallback    lipgloss.Style
	ok          lipgloss.Style
	failed      lipgloss.Style
}

// NewStyles builds report styles from p.
func NewStyles(p Palette) Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Accent),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Foreground(p.Text).
			Padding(0, 1),
		Label: lipgloss.NewStyle().Foreground(p.Dim),
		Value: lipgloss.NewStyle().Bold(true).Foreground(p.Text),
		Dim:   lipgloss.NewStyle().Foreground(p.Dim),

		native:      lipgloss.NewStyle().Bold(true).Foreground(p.Native),
		conditional: lipgloss.NewStyle().Foreground(p.Warning),
		fallback:    lipgloss.NewStyle().Foreground(p.Dim),
		ok:          lipgloss.NewStyle().Foreground(p.Success),
		failed:      lipgloss.NewStyle().Bold(true).Foreground(p.Error),
	}
}

// CurrentStyles returns styles for the active theme.
func CurrentStyles() Styles {
	return NewStyles(GetCurrentPalette())
}

// Tier returns the style for a tier name as rendered by Tier.String.
func (s Styles) Tier(name string) lipgloss.Style {
	switch name {
	case "HighValue":
		return s.native
	case "Conditional":
		return s.conditional
	default:
		return s.fallback
	}
}

// Status returns the success or failure style.
func (s Styles) Status(ok bool) lipgloss.Style {
	if ok {
		return s.ok
	}
	return s.failed
}
