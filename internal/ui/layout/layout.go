package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/nalibo/nalibopath/internal/ui/theme"
)

const (
	MinWidth  = 72
	MinHeight = 22

	CompactWidthThreshold = 100
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// Stats are the learner counters shown in the header. A zero value
// hides them, e.g. before sign in.
type Stats struct {
	Username string
	XP       int
	Gems     int
	Lives    int
	Streak   int
}

// IsCompactWidth returns true if the terminal width is in compact range.
func IsCompactWidth(width int) bool {
	return width < CompactWidthThreshold
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage renders the "terminal too small" message.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Terminal too small!\n\nPlease resize to at\nleast %d x %d\n\nCurrent: %d x %d",
			MinWidth, MinHeight, width, height,
		))
}

// RenderStats renders the counters as a single line.
func RenderStats(s Stats) string {
	if s.Username == "" {
		return ""
	}
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	parts := []string{
		lipgloss.NewStyle().Foreground(theme.Secondary).Render(fmt.Sprintf("⚡ %d XP", s.XP)),
		lipgloss.NewStyle().Foreground(theme.Gem).Render(fmt.Sprintf("◆ %d", s.Gems)),
		lipgloss.NewStyle().Foreground(theme.Heart).Render(fmt.Sprintf("♥ %d", s.Lives)),
		lipgloss.NewStyle().Foreground(theme.Accent).Render(fmt.Sprintf("★ %d", s.Streak)),
	}
	return strings.Join(parts, dim.Render("  "))
}

// RenderHeader renders the application header bar.
func RenderHeader(title string, stats Stats, width int) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Render("  Nalibo Path")

	center := lipgloss.NewStyle().
		Foreground(theme.Text).
		Render(title)

	right := RenderStats(stats)

	leftLen := lipgloss.Width(left)
	centerLen := lipgloss.Width(center)
	rightLen := lipgloss.Width(right)

	innerWidth := max(width-4, 0)
	leftGap := max((innerWidth-centerLen)/2-leftLen, 1)
	rightGap := max(innerWidth-leftLen-leftGap-centerLen-rightLen, 1)

	content := left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right

	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

// RenderFooter renders the footer with key hints.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		part := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(h.Key) +
			" " +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(h.Description)
		parts = append(parts, part)
	}

	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render("  " + strings.Join(parts, "   "))
}

// RenderFrame composes the full frame: header + content + footer.
func RenderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	styledContent := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		Render(content)

	return header + "\n" + styledContent + "\n" + footer
}

// Center places content in the middle of the given area.
func Center(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// Wrap breaks text to fit width.
func Wrap(text string, width int) string {
	return lipgloss.NewStyle().Width(max(width, 10)).Render(text)
}
