// Package pathmap implements the lesson map shown after sign in.
package pathmap

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/nalibo/nalibopath/internal/account"
	"github.com/nalibo/nalibopath/internal/audio"
	"github.com/nalibo/nalibopath/internal/course"
	"github.com/nalibo/nalibopath/internal/router"
	"github.com/nalibo/nalibopath/internal/screen"
	"github.com/nalibo/nalibopath/internal/screens/chat"
	"github.com/nalibo/nalibopath/internal/screens/leaderboard"
	"github.com/nalibo/nalibopath/internal/screens/lesson"
	"github.com/nalibo/nalibopath/internal/screens/settings"
	"github.com/nalibo/nalibopath/internal/ui/components"
	"github.com/nalibo/nalibopath/internal/ui/layout"
	"github.com/nalibo/nalibopath/internal/ui/theme"
)

// BannerTimeout is how long the what's new banner stays up.
const BannerTimeout = 7 * time.Second

// Accounts is the part of the account service the map and the screens
// it opens need.
type Accounts interface {
	settings.Accounts
	leaderboard.Ranker
	Logout(ctx context.Context) error
	NeedsNotes(version string) bool
	AckNotes(ctx context.Context, version string) error
}

var _ Accounts = (*account.Service)(nil)

// Deps are the collaborators of the map and the screens it opens.
type Deps struct {
	Accounts Accounts
	Course   *course.Controller

	Pronouncer lesson.Pronouncer
	Player     audio.Player
	Recorder   audio.Recorder

	// OpenChat starts a tutor conversation billed to apiKey.
	OpenChat func(apiKey string) (chat.Conversation, error)

	// NotesVersion is the release whose notes the banner announces.
	NotesVersion string
	Logger       *zap.Logger
}

type lessonOpenedMsg struct {
	Err error
}

type bannerTimeoutMsg struct {
	ID int
}

type signedOutMsg struct {
	Err error
}

// PathMapScreen lists the lessons in order with their lock state.
type PathMapScreen struct {
	deps   Deps
	ctrl   *course.Controller
	logger *zap.Logger

	menu     components.Menu
	lessons  []string
	banner   bool
	bannerID int
	notice   string
	busy     bool
}

var _ screen.Screen = (*PathMapScreen)(nil)
var _ screen.KeyHintProvider = (*PathMapScreen)(nil)
var _ screen.Resumer = (*PathMapScreen)(nil)

// New creates the map screen.
func New(deps Deps) *PathMapScreen {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &PathMapScreen{deps: deps, ctrl: deps.Course, logger: deps.Logger}
	s.rebuild(true)
	return s
}

func (s *PathMapScreen) Init() tea.Cmd {
	if s.deps.NotesVersion == "" || !s.deps.Accounts.NeedsNotes(s.deps.NotesVersion) {
		return nil
	}
	s.banner = true
	s.bannerID++
	id := s.bannerID
	return tea.Tick(BannerTimeout, func(time.Time) tea.Msg { return bannerTimeoutMsg{ID: id} })
}

func (s *PathMapScreen) Title() string {
	return "The Nalibo Path"
}

func (s *PathMapScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open"},
		{Key: "C", Description: "Assistant"},
		{Key: "B", Description: "Leaderboard"},
		{Key: "S", Description: "Settings"},
		{Key: "L", Description: "Sign out"},
	}
	if s.banner {
		hints = append(hints, layout.KeyHint{Key: "X", Description: "Dismiss news"})
	}
	return hints
}

// Resume refreshes lock state after a lesson or settings screen closes.
func (s *PathMapScreen) Resume() tea.Cmd {
	s.busy = false
	s.rebuild(false)
	return nil
}

// BannerVisible reports whether the what's new banner is showing.
func (s *PathMapScreen) BannerVisible() bool {
	return s.banner
}

func (s *PathMapScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case course.Event:
		if msg.Kind == course.EventProgress {
			s.rebuild(false)
		}
		return s, nil

	case bannerTimeoutMsg:
		if msg.ID != s.bannerID || !s.banner {
			return s, nil
		}
		return s, s.dismissBanner()

	case lessonOpenedMsg:
		s.busy = false
		if msg.Err != nil {
			if errors.Is(msg.Err, course.ErrLocked) {
				s.notice = "Complete the previous module to unlock this one."
			} else {
				s.logger.Warn("open lesson", zap.Error(msg.Err))
				s.notice = "That module could not be opened."
			}
			return s, nil
		}
		next := lesson.New(lesson.Deps{
			Course:     s.ctrl,
			Pronouncer: s.deps.Pronouncer,
			Player:     s.deps.Player,
			Recorder:   s.deps.Recorder,
			Logger:     s.logger,
		})
		return s, push(next)

	case signedOutMsg:
		s.busy = false
		if msg.Err != nil {
			s.logger.Warn("logout", zap.Error(msg.Err))
		}
		return s, func() tea.Msg { return screen.SignedOutMsg{} }

	case tea.KeyPressMsg:
		if s.busy {
			return s, nil
		}
		s.notice = ""
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *PathMapScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "enter", "space":
		return s, s.open()
	case "c":
		return s, push(s.newChat())
	case "b":
		return s, push(s.newLeaderboard())
	case "s":
		return s, push(settings.New(s.deps.Accounts, s.logger))
	case "L":
		s.busy = true
		accounts := s.deps.Accounts
		return s, func() tea.Msg {
			return signedOutMsg{Err: accounts.Logout(context.Background())}
		}
	case "x":
		if s.banner {
			return s, s.dismissBanner()
		}
	}
	s.menu = s.menu.Update(msg)
	return s, nil
}

func (s *PathMapScreen) open() tea.Cmd {
	if s.menu.Selected == len(s.lessons) {
		return push(s.newChat())
	}
	if s.menu.Selected > len(s.lessons) {
		return nil
	}
	id := s.lessons[s.menu.Selected]
	if !s.ctrl.IsUnlocked(id) {
		s.notice = "Complete the previous module to unlock this one."
		return nil
	}
	s.busy = true
	ctrl := s.ctrl
	return func() tea.Msg {
		return lessonOpenedMsg{Err: ctrl.SelectLesson(context.Background(), id)}
	}
}

func (s *PathMapScreen) newChat() screen.Screen {
	accounts := s.deps.Accounts
	return chat.New(chat.Deps{
		Course: s.ctrl,
		User:   accounts.Current,
		Open:   s.deps.OpenChat,
		Settings: func() screen.Screen {
			return settings.New(accounts, s.logger)
		},
		Logger: s.logger,
	})
}

func (s *PathMapScreen) newLeaderboard() screen.Screen {
	name := ""
	if u := s.deps.Accounts.Current(); u != nil {
		name = u.Username
	}
	return leaderboard.New(s.deps.Accounts, s.ctrl, name, s.logger)
}

func (s *PathMapScreen) dismissBanner() tea.Cmd {
	s.banner = false
	s.bannerID++
	accounts, version, logger := s.deps.Accounts, s.deps.NotesVersion, s.logger
	return func() tea.Msg {
		if err := accounts.AckNotes(context.Background(), version); err != nil {
			logger.Warn("ack release notes", zap.Error(err))
		}
		return nil
	}
}

func push(next screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

// rebuild refreshes the menu rows from the current progress. On the
// first build the cursor starts on the next lesson to take.
func (s *PathMapScreen) rebuild(initial bool) {
	p := s.ctrl.Progress()
	lessons := s.ctrl.Catalog().Lessons()

	s.lessons = s.lessons[:0]
	items := make([]components.MenuItem, 0, len(lessons)+1)
	start := 0
	for i, l := range lessons {
		s.lessons = append(s.lessons, l.ID)
		unlocked := s.ctrl.IsUnlocked(l.ID)
		done := p.HasCompleted(l.ID)

		icon, detail := l.Icon, string(l.Level)
		switch {
		case !unlocked:
			icon, detail = "🔒", "Locked"
		case done:
			detail += " · ✓ Completed"
		default:
			detail += " · Up next"
			if start == 0 && i > 0 {
				start = i
			}
		}
		items = append(items, components.MenuItem{
			Label:    icon + "  " + l.Title,
			Detail:   detail,
			Disabled: !unlocked,
		})
	}

	lab := "🧪  Research Lab: Linguistic Assistant"
	labDetail := "🔒 Premium"
	if s.deps.Accounts.Current().IsPremium() {
		labDetail = "Advanced Mode"
	}
	items = append(items, components.MenuItem{Label: lab, Detail: labDetail})

	selected := s.menu.Selected
	if initial {
		selected = start
	}
	s.menu = components.NewMenu(items, selected)
}

func (s *PathMapScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	name := ""
	if u := s.deps.Accounts.Current(); u != nil {
		name = u.Username
	}

	var b strings.Builder
	if s.banner {
		b.WriteString(renderBanner(cw))
		b.WriteString("\n\n")
	}
	b.WriteString(theme.Title.Render("The Nalibo Path"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Italic(true).Render("Welcome, " + name + "! Your journey continues."))
	b.WriteString("\n\n")
	b.WriteString(s.menu.View())
	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render(s.notice))
	}
	return layout.Center(b.String(), width, height)
}

func renderBanner(cw int) string {
	bold := lipgloss.NewStyle().Bold(true)
	body := bold.Render("🎉 Welcome Back & What's New!") + "\n" +
		"• " + bold.Render("Speaking Exercises:") + " Test your pronunciation with our new AI-powered speaking practice!\n" +
		"• " + bold.Render("Leaderboard:") + " Compete with other learners and climb the ranks to become a Nalibo master."
	return theme.Banner.Width(cw).Render(body)
}
