package progress

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func plain(opts ...Option) Model {
	return New(append([]Option{
		WithChars("#", "."),
		WithStyles(lipgloss.NewStyle(), lipgloss.NewStyle()),
	}, opts...)...)
}

func TestProgressFill(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		fraction float64
		want     string
	}{
		{"empty", 10, 0, "..........   0%"},
		{"half", 10, 0.5, "#####.....  50%"},
		{"full", 10, 1, "########## 100%"},
		{"rounds", 4, 0.3, "#...  30%"},
		{"clamps high", 5, 1.7, "##### 100%"},
		{"clamps low", 5, -1, ".....   0%"},
		{"nan", 5, math.NaN(), ".....   0%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := plain(WithWidth(tt.width)).SetFraction(tt.fraction)
			assert.Equal(t, tt.want, m.View())
		})
	}
}

func TestProgressWithoutPercent(t *testing.T) {
	m := plain(WithWidth(4), WithoutPercent()).SetFraction(0.5)
	assert.Equal(t, "##..", m.View())
	assert.Equal(t, 2, m.Filled())
}

func TestProgressZeroWidth(t *testing.T) {
	m := plain(WithWidth(0)).SetFraction(0.5)
	assert.Empty(t, m.View())
	assert.Zero(t, m.Filled())
}

func TestProgressOutput(t *testing.T) {
	{
		colorProfile := lipgloss.ColorProfile()
		t.Cleanup(func() {
			lipgloss.SetColorProfile(colorProfile)
		})
	}
	lipgloss.SetColorProfile(termenv.TrueColor)

	m := New(
		WithWidth(4),
		WithChars(" ", " "),
		WithStyles(
			lipgloss.NewStyle().Background(lipgloss.Color("#FF0000")),
			lipgloss.NewStyle().Background(lipgloss.Color("#000000")),
		),
		WithoutPercent(),
	).SetFraction(0.5)

	view := m.View()
	red := strings.Index(view, "\x1b[48;2;255;0;0m")
	black := strings.Index(view, "\x1b[48;2;0;0;0m")
	assert.GreaterOrEqual(t, red, 0, "filled cells use the filled style: %q", view)
	assert.Greater(t, black, red, "empty cells follow: %q", view)
}
