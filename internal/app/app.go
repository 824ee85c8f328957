// Package app wires the screens into the root Bubble Tea model.
package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/nalibo/nalibopath/internal/account"
	"github.com/nalibo/nalibopath/internal/audio"
	"github.com/nalibo/nalibopath/internal/course"
	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/exercise"
	"github.com/nalibo/nalibopath/internal/progress"
	"github.com/nalibo/nalibopath/internal/router"
	"github.com/nalibo/nalibopath/internal/screen"
	"github.com/nalibo/nalibopath/internal/screens/auth"
	"github.com/nalibo/nalibopath/internal/screens/chat"
	"github.com/nalibo/nalibopath/internal/screens/lesson"
	"github.com/nalibo/nalibopath/internal/screens/pathmap"
	"github.com/nalibo/nalibopath/internal/ui/layout"
)

// NotesVersion is the release announced by the what's new banner.
const NotesVersion = "v1.1.0"

// Options holds the dependencies the app screens need. Only Accounts
// and Catalog are required.
type Options struct {
	Accounts *account.Service
	Catalog  *curriculum.Catalog
	EventLog course.EventLog

	Feedback   exercise.FeedbackGenerator
	Speech     exercise.SpeechEvaluator
	Pronouncer lesson.Pronouncer
	Player     audio.Player
	Recorder   audio.Recorder
	OpenChat   func(apiKey string) (chat.Conversation, error)

	Logger *zap.Logger
}

// courseEventMsg wraps an event with the controller that sent it, so
// events from a signed out session are dropped.
type courseEventMsg struct {
	ctrl *course.Controller
	ev   course.Event
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	opts   Options
	router *router.Router
	ctrl   *course.Controller
	stats  layout.Stats
	width  int
	height int
}

// newAppModel creates a new AppModel on the sign in screen.
func newAppModel(opts Options) AppModel {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return AppModel{
		opts:   opts,
		router: router.New(auth.New(opts.Accounts)),
	}
}

func (m AppModel) Init() tea.Cmd {
	accounts, logger := m.opts.Accounts, m.opts.Logger
	restore := func() tea.Msg {
		u, err := accounts.Restore(context.Background())
		if err != nil {
			logger.Warn("restore session", zap.Error(err))
			return nil
		}
		if u == nil {
			return nil
		}
		return screen.SignedInMsg{User: u}
	}
	return tea.Batch(m.router.Active().Init(), restore)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case screen.SignedInMsg:
		return m.signIn(msg.User)

	case screen.SignedOutMsg:
		m.closeCourse()
		m.stats = layout.Stats{}
		return m, m.router.Reset(auth.New(m.opts.Accounts))

	case courseEventMsg:
		if msg.ctrl != m.ctrl {
			return m, nil
		}
		// Progress events can be dropped when the buffer is full, so any
		// other event re-reads the ledger.
		p := msg.ev.Progress
		if msg.ev.Kind != course.EventProgress {
			p = m.ctrl.Progress()
		}
		m.stats = statsFor(m.stats.Username, p)
		cmd := m.router.Update(msg.ev)
		return m, tea.Batch(cmd, waitForEvent(m.ctrl))
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// signIn builds the learner's course controller and opens the map.
func (m AppModel) signIn(u *account.User) (tea.Model, tea.Cmd) {
	m.closeCourse()

	o := m.opts
	ledger := progress.NewLedger(u.Progress, o.Accounts)
	opts := []course.Option{course.WithLogger(o.Logger)}
	if o.EventLog != nil {
		opts = append(opts, course.WithEventLog(o.EventLog, u.Username))
	}
	if o.Feedback != nil {
		opts = append(opts, course.WithFeedback(o.Feedback))
	}
	if o.Speech != nil {
		opts = append(opts, course.WithSpeechEvaluator(o.Speech))
	}
	m.ctrl = course.New(o.Catalog, ledger, opts...)
	m.stats = statsFor(u.Username, u.Progress)

	o.Logger.Info("signed in", zap.String("username", u.Username))
	home := pathmap.New(pathmap.Deps{
		Accounts:     o.Accounts,
		Course:       m.ctrl,
		Pronouncer:   o.Pronouncer,
		Player:       o.Player,
		Recorder:     o.Recorder,
		OpenChat:     o.OpenChat,
		NotesVersion: NotesVersion,
		Logger:       o.Logger,
	})
	return m, tea.Batch(m.router.Reset(home), waitForEvent(m.ctrl))
}

func (m *AppModel) closeCourse() {
	if m.ctrl != nil {
		m.ctrl.Close()
		m.ctrl = nil
	}
}

// waitForEvent delivers the next controller event. It returns nil once
// the controller is closed.
func waitForEvent(ctrl *course.Controller) tea.Cmd {
	if ctrl == nil {
		return nil
	}
	events := ctrl.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return courseEventMsg{ctrl: ctrl, ev: ev}
	}
}

func statsFor(username string, p progress.Progress) layout.Stats {
	return layout.Stats{
		Username: username,
		XP:       p.XP,
		Gems:     p.Gems,
		Lives:    p.Lives,
		Streak:   p.Streak,
	}
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.stats, m.width)

	footerHints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = append(p.KeyHints(), footerHints...)
	}
	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	final, err := p.Run()
	if m, ok := final.(AppModel); ok {
		m.closeCourse()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
