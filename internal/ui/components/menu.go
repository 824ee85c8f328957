package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/nalibo/nalibopath/internal/ui/theme"
)

// MenuItem represents a single row in a vertical menu.
type MenuItem struct {
	Label string
	// Detail is rendered dimmed after the label.
	Detail string
	// Disabled rows can be highlighted but not activated.
	Disabled bool
}

// Menu is a vertical list with a cursor. Activation is left to the
// owner, which reads Selected on enter.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu creates a menu with the cursor on start.
func NewMenu(items []MenuItem, start int) Menu {
	if start < 0 || start >= len(items) {
		start = 0
	}
	return Menu{Items: items, Selected: start}
}

// Update moves the cursor on up/down and k/j.
func (m Menu) Update(msg tea.Msg) Menu {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || len(m.Items) == 0 {
		return m
	}

	switch kmsg.String() {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Items)-1 {
			m.Selected++
		}
	case "home":
		m.Selected = 0
	case "end":
		m.Selected = len(m.Items) - 1
	}
	return m
}

// Current returns the highlighted item.
func (m Menu) Current() (MenuItem, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return MenuItem{}, false
	}
	return m.Items[m.Selected], true
}

// View renders the menu.
func (m Menu) View() string {
	var b strings.Builder
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	for i, item := range m.Items {
		style := theme.Unselected
		prefix := "    "
		switch {
		case i == m.Selected:
			style = theme.Selected
			prefix = "  ▸ "
		case item.Disabled:
			style = theme.Locked
		}
		b.WriteString(style.Render(prefix + item.Label))
		if item.Detail != "" {
			b.WriteString("  " + dim.Render(item.Detail))
		}
		b.WriteString("\n")
	}
	return b.String()
}
