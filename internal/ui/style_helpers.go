package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle paints text on a fixed background. lipgloss resets the background
// after every styled segment, so bars built from several segments need the
// gaps between them painted too.
type BgStyle struct {
	fill  lipgloss.Style
	space string
}

// NewBgStyle creates a background painter for bgColor.
func NewBgStyle(bgColor string) BgStyle {
	fill := lipgloss.NewStyle().Background(lipgloss.Color(bgColor))
	return BgStyle{fill: fill, space: fill.Render(" ")}
}

// Render applies style on the background, painting the spaces inside text
// as well.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	styled := style.Background(b.fill.GetBackground())
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = styled.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Space returns a single painted space.
func (b BgStyle) Space() string {
	return b.space
}

// Spaces returns n painted spaces.
func (b BgStyle) Spaces(n int) string {
	return b.fill.Render(strings.Repeat(" ", max(n, 0)))
}

// Join joins parts with a painted separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.fill.Render(sep))
}

// FillLine pads content to width with the background color.
func (b BgStyle) FillLine(content string, width int) string {
	return b.fill.Width(width).Render(content)
}
