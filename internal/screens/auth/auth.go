// Package auth implements the sign in / sign up screen.
package auth

import (
	"context"
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/nalibo/nalibopath/internal/account"
	"github.com/nalibo/nalibopath/internal/screen"
	"github.com/nalibo/nalibopath/internal/ui/components"
	"github.com/nalibo/nalibopath/internal/ui/layout"
	"github.com/nalibo/nalibopath/internal/ui/theme"
)

// Accounts is the part of the account service this screen needs.
type Accounts interface {
	Signup(ctx context.Context, username, password string) (*account.User, error)
	Login(ctx context.Context, username, password string) (*account.User, error)
}

const (
	fieldUsername = iota
	fieldPassword
)

// authResultMsg carries the outcome of a sign in or sign up attempt.
type authResultMsg struct {
	User *account.User
	Err  error
}

// AuthScreen lets a learner sign in or create an account.
type AuthScreen struct {
	accounts Accounts
	signup   bool
	username components.TextInput
	password components.TextInput
	focus    int
	busy     bool
	errMsg   string
}

var _ screen.Screen = (*AuthScreen)(nil)
var _ screen.KeyHintProvider = (*AuthScreen)(nil)

// New creates the auth screen in sign in mode.
func New(accounts Accounts) *AuthScreen {
	return &AuthScreen{
		accounts: accounts,
		username: components.NewTextInput("Username", "your name", 32),
		password: components.NewPasswordInput("Password", "••••••", 72),
	}
}

func (s *AuthScreen) Init() tea.Cmd {
	return s.username.Init()
}

func (s *AuthScreen) Title() string {
	if s.signup {
		return "Create Account"
	}
	return "Sign In"
}

func (s *AuthScreen) KeyHints() []layout.KeyHint {
	toggle := "Sign up instead"
	if s.signup {
		toggle = "Sign in instead"
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Ctrl+T", Description: toggle},
	}
}

// SignupMode reports whether the screen creates accounts.
func (s *AuthScreen) SignupMode() bool { return s.signup }

// Err returns the last rejection message.
func (s *AuthScreen) Err() string { return s.errMsg }

func (s *AuthScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case authResultMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = describe(msg.Err)
			return s, nil
		}
		s.errMsg = ""
		return s, func() tea.Msg { return screen.SignedInMsg{User: msg.User} }

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s.forward(msg)
}

func (s *AuthScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	if s.busy {
		return s, nil
	}
	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		return s, s.toggleFocus()
	case "ctrl+t":
		s.signup = !s.signup
		s.errMsg = ""
		return s, nil
	case "enter":
		if s.focus == fieldUsername {
			return s, s.toggleFocus()
		}
		return s, s.submit()
	}
	return s.forward(msg)
}

func (s *AuthScreen) forward(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	if s.focus == fieldUsername {
		s.username, cmd = s.username.Update(msg)
	} else {
		s.password, cmd = s.password.Update(msg)
	}
	return s, cmd
}

func (s *AuthScreen) toggleFocus() tea.Cmd {
	if s.focus == fieldUsername {
		s.focus = fieldPassword
		s.username.Blur()
		return s.password.Focus()
	}
	s.focus = fieldUsername
	s.password.Blur()
	return s.username.Focus()
}

func (s *AuthScreen) submit() tea.Cmd {
	name := strings.TrimSpace(s.username.Value())
	pass := s.password.Value()
	if name == "" || pass == "" {
		s.errMsg = "Enter a username and password."
		return nil
	}

	s.busy = true
	s.errMsg = ""
	signup := s.signup
	accounts := s.accounts
	return func() tea.Msg {
		var (
			u   *account.User
			err error
		)
		if signup {
			u, err = accounts.Signup(context.Background(), name, pass)
		} else {
			u, err = accounts.Login(context.Background(), name, pass)
		}
		return authResultMsg{User: u, Err: err}
	}
}

func describe(err error) string {
	var inputErr *account.InputError
	switch {
	case errors.Is(err, account.ErrUsernameTaken):
		return "That username is already taken."
	case errors.Is(err, account.ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.As(err, &inputErr):
		return "Usernames are up to 32 characters without spaces."
	default:
		return "Something went wrong. Please try again."
	}
}

func (s *AuthScreen) View(width, height int) string {
	cw := min(components.ContentWidth(width), 52)

	heading := "Sign In"
	button := "CONTINUE LEARNING"
	prompt := "Don't have an account? Sign Up"
	if s.signup {
		heading = "Create Account"
		button = "START MY JOURNEY"
		prompt = "Already have an account? Sign In"
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw - 6).Render("Welcome to Nalibo"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(cw - 6).Render("Your journey into a new language awaits."))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(heading))
	b.WriteString("\n\n")
	b.WriteString(s.username.View())
	b.WriteString("\n\n")
	b.WriteString(s.password.View())
	b.WriteString("\n\n")
	if s.errMsg != "" {
		b.WriteString(theme.Incorrect.Render(s.errMsg))
		b.WriteString("\n\n")
	}
	if s.busy {
		b.WriteString(theme.Hint.Render("Checking..."))
	} else {
		b.WriteString(components.Button(button, s.focus == fieldPassword))
	}
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render(prompt + "  (ctrl+t)"))

	return layout.Center(components.Card(b.String(), cw), width, height)
}
