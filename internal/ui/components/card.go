package components

import (
	"charm.land/lipgloss/v2"

	"github.com/nalibo/nalibopath/internal/ui/theme"
)

// ContentWidth returns the inner width shared by cards on a screen so
// they line up.
func ContentWidth(frameWidth int) int {
	return min(max(frameWidth-6, 30), 72)
}

// Card wraps content in a rounded border at width cw.
func Card(content string, cw int) string {
	return theme.Card.
		Width(cw - 2).
		Render(content)
}

// TitledCard renders a card with a bold heading.
func TitledCard(title, body string, cw int) string {
	heading := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(title)
	return Card(heading+"\n\n"+body, cw)
}

// Button renders a call-to-action label. Disabled buttons are dimmed.
func Button(label string, enabled bool) string {
	if enabled {
		return theme.ButtonActive.Render(label)
	}
	return theme.ButtonInactive.Foreground(theme.TextDim).Render(label)
}
