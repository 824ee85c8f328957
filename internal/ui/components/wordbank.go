package components

import (
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/nalibo/nalibopath/internal/ui/theme"
)

// WordBank is a row of word chips with a cursor.
type WordBank struct {
	Words  []string
	Cursor int
}

// NewWordBank creates a word bank.
func NewWordBank(words []string) WordBank {
	return WordBank{Words: words}
}

// Update moves the cursor with left/right and h/l. Space or enter on a
// chip reports that word as toggled.
func (w WordBank) Update(msg tea.Msg) (WordBank, string, bool) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || len(w.Words) == 0 {
		return w, "", false
	}

	switch kmsg.String() {
	case "left", "h":
		if w.Cursor > 0 {
			w.Cursor--
		}
	case "right", "l":
		if w.Cursor < len(w.Words)-1 {
			w.Cursor++
		}
	case "space", " ":
		return w, w.Words[w.Cursor], true
	}
	return w, "", false
}

// View renders the chips. Words already used are dimmed.
func (w WordBank) View(used []string, active bool) string {
	chips := make([]string, 0, len(w.Words))
	for i, word := range w.Words {
		style := theme.Chip
		switch {
		case active && i == w.Cursor:
			style = theme.ChipActive
		case slices.Contains(used, word):
			style = theme.ChipUsed
		}
		chips = append(chips, style.Render(word))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

// AnswerLine renders the words built so far, or a placeholder.
func AnswerLine(words []string, placeholder string) string {
	if len(words) == 0 {
		return theme.Hint.Render(placeholder)
	}
	return theme.Nalibo.Render(strings.Join(words, " "))
}
