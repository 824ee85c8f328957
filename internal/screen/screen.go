package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/nalibo/nalibopath/internal/account"
	"github.com/nalibo/nalibopath/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first shown.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Closer is implemented by screens that own pending timers or other
// resources. The router calls Close when the screen leaves the stack.
type Closer interface {
	Close()
}

// SignedInMsg is emitted once a learner has logged in or signed up.
type SignedInMsg struct {
	User *account.User
}

// SignedOutMsg is emitted after logout.
type SignedOutMsg struct{}

// Resumer is implemented by screens that refresh when the screen above
// them is popped.
type Resumer interface {
	Resume() tea.Cmd
}
