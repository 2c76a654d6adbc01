// Package progress provides a horizontal progress bar for Bubble Tea views.
package progress

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Model is the state of a progress bar.
type Model struct {
	// Width is the bar width in cells, excluding the percentage label.
	Width int
	// Fraction is the completed share, clamped to [0, 1] when rendering.
	Fraction float64

	FilledStyle lipgloss.Style
	EmptyStyle  lipgloss.Style
	LabelStyle  lipgloss.Style

	FilledChar string
	EmptyChar  string

	// ShowPercent appends " NN%" after the bar.
	ShowPercent bool
}

// Option is used to set options in New.
type Option func(*Model)

// New creates a progress bar with default settings.
func New(opts ...Option) Model {
	m := Model{
		Width:       30,
		FilledChar:  "█",
		EmptyChar:   "░",
		FilledStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		EmptyStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		LabelStyle:  lipgloss.NewStyle(),
		ShowPercent: true,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// WithWidth sets the bar width.
func WithWidth(w int) Option {
	return func(m *Model) { m.Width = w }
}

// WithStyles sets the filled and empty styles.
func WithStyles(filled, empty lipgloss.Style) Option {
	return func(m *Model) {
		m.FilledStyle = filled
		m.EmptyStyle = empty
	}
}

// WithChars sets the filled and empty characters.
func WithChars(filled, empty string) Option {
	return func(m *Model) {
		m.FilledChar = filled
		m.EmptyChar = empty
	}
}

// WithoutPercent hides the percentage label.
func WithoutPercent() Option {
	return func(m *Model) { m.ShowPercent = false }
}

// SetFraction returns a copy of m at fraction f.
func (m Model) SetFraction(f float64) Model {
	m.Fraction = f
	return m
}

// Filled returns how many cells are filled at the current fraction.
func (m Model) Filled() int {
	if m.Width <= 0 {
		return 0
	}
	return int(math.Round(clamp(m.Fraction) * float64(m.Width)))
}

// View renders the bar on one line.
func (m Model) View() string {
	if m.Width <= 0 {
		return ""
	}
	filled := m.Filled()

	// Spaces are swapped for non-breaking spaces so their background colour
	// is still emitted.
	fc, ec := m.FilledChar, m.EmptyChar
	if fc == " " {
		fc = "\u00A0"
	}
	if ec == " " {
		ec = "\u00A0"
	}

	var b strings.Builder
	if filled > 0 {
		b.WriteString(m.FilledStyle.Render(strings.Repeat(fc, filled)))
	}
	if filled < m.Width {
		b.WriteString(m.EmptyStyle.Render(strings.Repeat(ec, m.Width-filled)))
	}
	if m.ShowPercent {
		b.WriteString(m.LabelStyle.Render(fmt.Sprintf(" %3d%%", int(math.Round(clamp(m.Fraction)*100)))))
	}
	return b.String()
}

func clamp(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
