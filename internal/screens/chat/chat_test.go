package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/nalibo/nalibopath/internal/account"
	"github.com/nalibo/nalibopath/internal/llm"
	"github.com/nalibo/nalibopath/internal/router"
	"github.com/nalibo/nalibopath/internal/screen"
	"github.com/nalibo/nalibopath/internal/tutor"
)

type fakeToggler struct{ toggles int }

func (f *fakeToggler) ToggleChat() error {
	f.toggles++
	return nil
}

type fakeConversation struct {
	messages []tutor.ChatMessage
	sent     []string
}

func (f *fakeConversation) Messages() []tutor.ChatMessage { return f.messages }
func (f *fakeConversation) Pending() bool                 { return false }

func (f *fakeConversation) Send(_ context.Context, text string) (tutor.ChatMessage, bool) {
	f.sent = append(f.sent, text)
	reply := tutor.ChatMessage{Role: llm.RoleAssistant, Text: "Graçi is thanks."}
	f.messages = append(f.messages, tutor.ChatMessage{Role: llm.RoleUser, Text: text}, reply)
	return reply, true
}

type stubScreen struct{}

func (s *stubScreen) Init() tea.Cmd                           { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return "settings" }
func (s *stubScreen) Title() string                           { return "Settings" }

func newChat(user *account.User, conv *fakeConversation) (*ChatScreen, *fakeToggler) {
	toggler := &fakeToggler{}
	s := New(Deps{
		Course: toggler,
		User:   func() *account.User { return user },
		Open: func(string) (Conversation, error) {
			if conv == nil {
				return nil, errors.New("no client")
			}
			return conv, nil
		},
		Settings: func() screen.Screen { return &stubScreen{} },
	})
	return s, toggler
}

func TestGateWithoutPremiumKey(t *testing.T) {
	s, toggler := newChat(&account.User{Username: "kara"}, &fakeConversation{})
	if toggler.toggles != 1 {
		t.Errorf("toggles = %d, want 1", toggler.toggles)
	}
	if s.Premium() {
		t.Fatal("chat must stay locked without a key")
	}
	view := s.View(100, 40)
	for _, want := range []string{"Premium Tutoring", "OpenAI API key", "SETUP KEY"} {
		if !strings.Contains(view, want) {
			t.Errorf("gate misses %q", want)
		}
	}

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("setup key should push settings")
	}
	if push.Screen.Title() != "Settings" {
		t.Errorf("pushed %q", push.Screen.Title())
	}
}

func TestResumeUnlocksAfterKeySaved(t *testing.T) {
	user := &account.User{Username: "kara"}
	s, _ := newChat(user, &fakeConversation{})

	user.APIKey = "sk-0123456789abcdef"
	s.Resume()
	if !s.Premium() {
		t.Fatal("saved key should unlock the chat")
	}
}

func TestSendShowsReply(t *testing.T) {
	conv := &fakeConversation{messages: []tutor.ChatMessage{{Role: llm.RoleAssistant, Text: tutor.ChatGreeting}}}
	s, _ := newChat(&account.User{Username: "kara", APIKey: "sk-0123456789abcdef"}, conv)
	if !s.Premium() {
		t.Fatal("expected premium")
	}

	s.input.SetValue("What is thanks?")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should send")
	}
	s.Update(cmd())

	if len(conv.sent) != 1 || conv.sent[0] != "What is thanks?" {
		t.Errorf("sent %v", conv.sent)
	}
	if s.input.Value() != "" {
		t.Error("input should be cleared")
	}
	if !strings.Contains(s.View(100, 40), "Graçi is thanks.") {
		t.Error("reply not rendered")
	}
}

func TestBlankInputNotSent(t *testing.T) {
	conv := &fakeConversation{}
	s, _ := newChat(&account.User{Username: "kara", APIKey: "sk-0123456789abcdef"}, conv)

	s.input.SetValue("   ")
	if _, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter}); cmd != nil {
		t.Error("blank input should not send")
	}
}

func TestOpenFailureShowsConnectionError(t *testing.T) {
	s, _ := newChat(&account.User{Username: "kara", APIKey: "sk-0123456789abcdef"}, nil)
	if s.Premium() {
		t.Fatal("failed open must stay locked")
	}
	if !strings.Contains(s.View(100, 40), "Connection error") {
		t.Error("connection error not shown")
	}
}

func TestEscPopsAndCloseToggles(t *testing.T) {
	s, toggler := newChat(&account.User{Username: "kara"}, nil)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Fatal("esc should pop")
	}
	s.Close()
	if toggler.toggles != 2 {
		t.Errorf("toggles = %d, want 2", toggler.toggles)
	}
}
