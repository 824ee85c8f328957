// Package settings implements the preferences screen.
package settings

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/nalibo/nalibopath/internal/account"
	"github.com/nalibo/nalibopath/internal/router"
	"github.com/nalibo/nalibopath/internal/screen"
	"github.com/nalibo/nalibopath/internal/ui/components"
	"github.com/nalibo/nalibopath/internal/ui/layout"
	"github.com/nalibo/nalibopath/internal/ui/theme"
)

// Accounts is the part of the account service this screen needs.
type Accounts interface {
	Current() *account.User
	SaveAPIKey(ctx context.Context, key string) error
}

type savedMsg struct {
	Err error
}

// SettingsScreen edits the learner's premium tutor key.
type SettingsScreen struct {
	accounts Accounts
	logger   *zap.Logger
	key      components.TextInput
	saving   bool
	errMsg   string
}

var _ screen.Screen = (*SettingsScreen)(nil)
var _ screen.KeyHintProvider = (*SettingsScreen)(nil)

// New creates the settings screen prefilled with the current key.
func New(accounts Accounts, logger *zap.Logger) *SettingsScreen {
	if logger == nil {
		logger = zap.NewNop()
	}
	key := components.NewPasswordInput("OpenAI API Key (Advanced Tutor)", "sk-...", 200)
	key.Focus()
	if u := accounts.Current(); u != nil {
		key.SetValue(u.APIKey)
	}
	return &SettingsScreen{accounts: accounts, logger: logger, key: key}
}

func (s *SettingsScreen) Init() tea.Cmd {
	return s.key.Init()
}

func (s *SettingsScreen) Title() string {
	return "Preferences"
}

func (s *SettingsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Save changes"},
		{Key: "Esc", Description: "Cancel"},
	}
}

// Value returns the key as currently typed.
func (s *SettingsScreen) Value() string {
	return s.key.Value()
}

func (s *SettingsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		s.saving = false
		if msg.Err != nil {
			s.logger.Warn("save api key", zap.Error(msg.Err))
			s.errMsg = "Could not save your key. Please try again."
			return s, nil
		}
		return s, pop

	case tea.KeyPressMsg:
		if s.saving {
			return s, nil
		}
		switch msg.String() {
		case "esc":
			return s, pop
		case "enter":
			s.saving = true
			s.errMsg = ""
			accounts, key := s.accounts, strings.TrimSpace(s.key.Value())
			return s, func() tea.Msg {
				return savedMsg{Err: accounts.SaveAPIKey(context.Background(), key)}
			}
		}
	}

	var cmd tea.Cmd
	s.key, cmd = s.key.Update(msg)
	return s, cmd
}

func pop() tea.Msg { return router.PopScreenMsg{} }

func (s *SettingsScreen) View(width, height int) string {
	cw := min(components.ContentWidth(width), 60)

	var b strings.Builder
	b.WriteString(theme.Title.Render("Preferences"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render("Manage your advanced tutoring configurations."))
	b.WriteString("\n\n")
	b.WriteString(s.key.View())
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(layout.Wrap("* This key is stored locally on this machine and used only to power the advanced linguistic tutoring features.", cw-6)))
	b.WriteString("\n\n")
	if s.errMsg != "" {
		b.WriteString(theme.Incorrect.Render(s.errMsg))
		b.WriteString("\n\n")
	}
	b.WriteString(components.Button("CANCEL", false))
	b.WriteString("  ")
	b.WriteString(components.Button("SAVE CHANGES", !s.saving))

	return layout.Center(components.Card(b.String(), cw), width, height)
}
