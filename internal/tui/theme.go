package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styles used by the view.
type Theme struct {
	Name string

	Title    lipgloss.Style
	Tip      lipgloss.Style
	Panel    lipgloss.Style
	Cursor   lipgloss.Style
	Row      lipgloss.Style
	Muted    lipgloss.Style
	Clock    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style

	Pending   lipgloss.Style
	Active    lipgloss.Style
	Completed lipgloss.Style

	BarFilled lipgloss.Style
	BarEmpty  lipgloss.Style

	// BarChars are the filled and empty cells of progress bars.
	BarChars [2]string
}

// DefaultTheme is the coloured theme.
func DefaultTheme() Theme {
	return Theme{
		Name:      "default",
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")),
		Tip:       lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("117")),
		Panel:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1),
		Cursor:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Row:       lipgloss.NewStyle(),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Clock:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("212")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Info:      lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		Pending:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Active:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		Completed: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		BarFilled: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		BarEmpty:  lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		BarChars:  [2]string{"█", "░"},
	}
}

// MonoTheme uses only text attributes, for terminals without colour.
func MonoTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name:      "mono",
		Title:     plain.Bold(true),
		Tip:       plain.Italic(true),
		Panel:     plain.Border(lipgloss.NormalBorder()).Padding(0, 1),
		Cursor:    plain.Bold(true),
		Row:       plain,
		Muted:     plain.Faint(true),
		Clock:     plain.Bold(true),
		Selected:  plain.Reverse(true),
		Error:     plain.Bold(true),
		Info:      plain,
		Pending:   plain,
		Active:    plain.Bold(true),
		Completed: plain.Faint(true),
		BarFilled: plain,
		BarEmpty:  plain.Faint(true),
		BarChars:  [2]string{"#", "-"},
	}
}

// ThemeByName returns the named theme.
func ThemeByName(name string) (Theme, error) {
	switch name {
	case "", "default":
		return DefaultTheme(), nil
	case "mono":
		return MonoTheme(), nil
	}
	return Theme{}, fmt.Errorf("unknown theme %q (want default or mono)", name)
}
