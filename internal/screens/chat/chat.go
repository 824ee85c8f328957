// Package chat implements the premium tutor conversation screen.
package chat

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/nalibo/nalibopath/internal/account"
	"github.com/nalibo/nalibopath/internal/llm"
	"github.com/nalibo/nalibopath/internal/router"
	"github.com/nalibo/nalibopath/internal/screen"
	"github.com/nalibo/nalibopath/internal/tutor"
	"github.com/nalibo/nalibopath/internal/ui/components"
	"github.com/nalibo/nalibopath/internal/ui/layout"
	"github.com/nalibo/nalibopath/internal/ui/theme"
)

// Conversation is a running tutor chat.
type Conversation interface {
	Messages() []tutor.ChatMessage
	Pending() bool
	Send(ctx context.Context, text string) (tutor.ChatMessage, bool)
}

// Toggler switches the course between the map and the chat.
type Toggler interface {
	ToggleChat() error
}

// Deps are the collaborators of the chat screen.
type Deps struct {
	Course Toggler
	// User returns the signed-in learner; the chat unlocks once their
	// key qualifies for premium.
	User func() *account.User
	// Open starts a conversation billed to apiKey.
	Open func(apiKey string) (Conversation, error)
	// Settings builds the screen that edits the key.
	Settings func() screen.Screen
	Logger   *zap.Logger
}

type replyMsg struct {
	Reply tutor.ChatMessage
	OK    bool
}

// ChatScreen talks to the Linguistic Assistant, or explains how to
// unlock it.
type ChatScreen struct {
	deps   Deps
	logger *zap.Logger
	conv   Conversation
	input  components.TextInput
	errMsg string
}

var _ screen.Screen = (*ChatScreen)(nil)
var _ screen.KeyHintProvider = (*ChatScreen)(nil)
var _ screen.Closer = (*ChatScreen)(nil)
var _ screen.Resumer = (*ChatScreen)(nil)

// New switches the course to the chat and creates the screen.
func New(deps Deps) *ChatScreen {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &ChatScreen{
		deps:   deps,
		logger: deps.Logger,
		input:  components.NewTextInput("", "Ask a question about Nalibo...", 500),
	}
	if err := deps.Course.ToggleChat(); err != nil {
		s.logger.Warn("enter tutor chat", zap.Error(err))
	}
	s.connect()
	return s
}

// connect opens the conversation once the learner has a premium key.
func (s *ChatScreen) connect() {
	if s.conv != nil || s.deps.Open == nil {
		return
	}
	u := s.deps.User()
	if !u.IsPremium() {
		return
	}
	conv, err := s.deps.Open(u.APIKey)
	if err != nil {
		s.logger.Warn("open tutor chat", zap.Error(err))
		s.errMsg = tutor.ChatConnectionError
		return
	}
	s.errMsg = ""
	s.conv = conv
}

// Premium reports whether the conversation is unlocked.
func (s *ChatScreen) Premium() bool {
	return s.conv != nil
}

func (s *ChatScreen) Init() tea.Cmd {
	return s.input.Init()
}

// Resume retries the connection after the settings screen closes.
func (s *ChatScreen) Resume() tea.Cmd {
	s.connect()
	return s.input.Focus()
}

// Close returns the course to the map.
func (s *ChatScreen) Close() {
	if err := s.deps.Course.ToggleChat(); err != nil {
		s.logger.Debug("leave tutor chat", zap.Error(err))
	}
}

func (s *ChatScreen) Title() string {
	return "Linguistic Assistant"
}

func (s *ChatScreen) KeyHints() []layout.KeyHint {
	if s.conv == nil {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Setup key"},
			{Key: "Esc", Description: "Back to path"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Esc", Description: "Back to path"},
	}
}

func (s *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case replyMsg:
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "enter":
			if s.conv == nil {
				if s.deps.Settings == nil {
					return s, nil
				}
				next := s.deps.Settings()
				return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
			}
			return s, s.send()
		}
	}

	if s.conv == nil {
		return s, nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *ChatScreen) send() tea.Cmd {
	text := strings.TrimSpace(s.input.Value())
	if text == "" || s.conv.Pending() {
		return nil
	}
	s.input.Reset()
	conv := s.conv
	return func() tea.Msg {
		reply, ok := conv.Send(context.Background(), text)
		return replyMsg{Reply: reply, OK: ok}
	}
}

func (s *ChatScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	status := lipgloss.NewStyle().Foreground(theme.TextDim).Render("○ Limited Mode")
	if s.conv != nil {
		status = lipgloss.NewStyle().Foreground(theme.Primary).Render("● Advanced Mode Active")
	}
	header := theme.Title.Render("Linguistic Assistant") + "  " + status

	if s.conv == nil {
		var gate strings.Builder
		gate.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render("🔑 Premium Tutoring"))
		gate.WriteString("\n\n")
		gate.WriteString(theme.Hint.Render(layout.Wrap("Advanced conversational practice requires an OpenAI API key for complex linguistic processing.", min(cw, 48)-6)))
		gate.WriteString("\n\n")
		if s.errMsg != "" {
			gate.WriteString(theme.Incorrect.Render(s.errMsg) + "\n\n")
		}
		gate.WriteString(components.Button("SETUP KEY", true))
		return layout.Center(header+"\n\n"+components.Card(gate.String(), min(cw, 48)), width, height)
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(s.renderTranscript(cw, max(height-8, 4)))
	b.WriteString("\n")
	b.WriteString(s.input.View())
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// renderTranscript draws the newest messages that fit in rows lines.
func (s *ChatScreen) renderTranscript(cw, rows int) string {
	bubbleWidth := cw * 4 / 5
	user := lipgloss.NewStyle().
		Background(theme.Primary).
		Foreground(theme.BgDark).
		Padding(0, 1).
		Width(bubbleWidth)
	assistant := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Foreground(theme.Text).
		Padding(0, 1).
		Width(bubbleWidth)

	var blocks []string
	for _, m := range s.conv.Messages() {
		if m.Role == llm.RoleUser {
			blocks = append(blocks, lipgloss.PlaceHorizontal(cw, lipgloss.Right, user.Render(m.Text)))
		} else {
			blocks = append(blocks, assistant.Render(m.Text))
		}
	}
	if s.conv.Pending() {
		blocks = append(blocks, theme.Hint.Render("• • •"))
	}

	// Keep the tail of the conversation visible.
	out := strings.Join(blocks, "\n")
	lines := strings.Split(out, "\n")
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	return strings.Join(lines, "\n")
}
