package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/nalibo/nalibopath/internal/ui/theme"
)

// ProgressBar displays how far through a lesson the learner is.
type ProgressBar struct {
	Done  int
	Total int
	Width int
}

// NewProgressBar creates a progress bar for done of total steps.
func NewProgressBar(done, total, width int) ProgressBar {
	return ProgressBar{Done: done, Total: total, Width: width}
}

// Percent returns the completed fraction in 0..1.
func (p ProgressBar) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(max(float64(p.Done)/float64(p.Total), 0), 1)
}

// View renders the bar followed by a "done/total" counter.
func (p ProgressBar) View() string {
	counter := fmt.Sprintf("  %d/%d", p.Done, p.Total)
	barWidth := max(p.Width-len(counter), 4)

	filled := int(float64(barWidth) * p.Percent())
	empty := barWidth - filled

	return lipgloss.NewStyle().Foreground(theme.Secondary).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", empty)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(counter)
}
