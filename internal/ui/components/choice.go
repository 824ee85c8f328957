package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/nalibo/nalibopath/internal/ui/theme"
)

// Choice is a single-select option list. The chosen value is kept by
// the caller; Choice only tracks the cursor.
type Choice struct {
	Options []string
	Cursor  int
}

// NewChoice creates an option list with the cursor on the first option.
func NewChoice(options []string) Choice {
	return Choice{Options: options}
}

// Update moves the cursor. Number keys jump to an option and report it
// as picked.
func (c Choice) Update(msg tea.Msg) (Choice, string, bool) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || len(c.Options) == 0 {
		return c, "", false
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
	case "space", " ":
		return c, c.Options[c.Cursor], true
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if i := int(key[0] - '1'); i < len(c.Options) {
				c.Cursor = i
				return c, c.Options[i], true
			}
		}
	}
	return c, "", false
}

// ChoiceState carries what View needs to mark options.
type ChoiceState struct {
	Chosen  string
	Graded  bool
	Correct string
}

// View renders the options. After grading the correct option is green
// and a wrong pick is red.
func (c Choice) View(st ChoiceState) string {
	var b strings.Builder
	for i, opt := range c.Options {
		prefix := "  "
		if i == c.Cursor && !st.Graded {
			prefix = "▸ "
		}
		mark := "○"
		if opt == st.Chosen {
			mark = "●"
		}
		line := fmt.Sprintf("%s%d) %s %s", prefix, i+1, mark, opt)

		style := theme.Unselected
		switch {
		case st.Graded && strings.EqualFold(opt, st.Correct):
			style = theme.Correct
		case st.Graded && opt == st.Chosen:
			style = theme.Incorrect
		case st.Graded:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == c.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Render(line) + "\n")
	}
	return b.String()
}
