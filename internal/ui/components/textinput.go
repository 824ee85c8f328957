package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/nalibo/nalibopath/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with Nalibo styling.
type TextInput struct {
	Model textinput.Model
	Label string
}

// NewTextInput creates a focused text input. limit caps the length when
// positive.
func NewTextInput(label, placeholder string, limit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	if limit > 0 {
		ti.CharLimit = limit
	}
	ti.Focus()
	return TextInput{Model: ti, Label: label}
}

// NewPasswordInput creates an unfocused input that masks what is typed.
func NewPasswordInput(label, placeholder string, limit int) TextInput {
	t := NewTextInput(label, placeholder, limit)
	t.Model.EchoMode = textinput.EchoPassword
	t.Model.EchoCharacter = '•'
	t.Model.Blur()
	return t
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	if !t.Model.Focused() {
		return nil
	}
	return t.Model.Focus()
}

// Update forwards messages to the wrapped model.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// Focus gives the input keyboard focus.
func (t *TextInput) Focus() tea.Cmd {
	return t.Model.Focus()
}

// Blur removes keyboard focus.
func (t *TextInput) Blur() {
	t.Model.Blur()
}

// Focused reports whether the input has focus.
func (t TextInput) Focused() bool {
	return t.Model.Focused()
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// SetValue replaces the input value.
func (t *TextInput) SetValue(v string) {
	t.Model.SetValue(v)
}

// Reset clears the input.
func (t *TextInput) Reset() {
	t.Model.Reset()
}

// View renders the label above the input.
func (t TextInput) View() string {
	if t.Label == "" {
		return t.Model.View()
	}
	style := lipgloss.NewStyle().Foreground(theme.TextDim)
	if t.Model.Focused() {
		style = theme.Selected
	}
	return style.Render(t.Label) + "\n" + t.Model.View()
}
