// Package leaderboard implements the global ranking screen.
package leaderboard

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/nalibo/nalibopath/internal/account"
	"github.com/nalibo/nalibopath/internal/router"
	"github.com/nalibo/nalibopath/internal/screen"
	"github.com/nalibo/nalibopath/internal/ui/components"
	"github.com/nalibo/nalibopath/internal/ui/layout"
	"github.com/nalibo/nalibopath/internal/ui/theme"
)

// Ranker lists every learner ordered by XP.
type Ranker interface {
	Leaderboard(ctx context.Context) ([]account.Standing, error)
}

// Viewer is told when the leaderboard is shown and left.
type Viewer interface {
	ShowLeaderboard()
	ShowApp()
}

type standingsMsg struct {
	Rows []account.Standing
	Err  error
}

var rankIcons = []string{"🥇", "🥈", "🥉"}

// LeaderboardScreen shows how the learner ranks against everyone else.
type LeaderboardScreen struct {
	ranker   Ranker
	viewer   Viewer
	username string
	logger   *zap.Logger

	rows   []account.Standing
	loaded bool
	errMsg string
	offset int
}

var _ screen.Screen = (*LeaderboardScreen)(nil)
var _ screen.KeyHintProvider = (*LeaderboardScreen)(nil)
var _ screen.Closer = (*LeaderboardScreen)(nil)

// New creates the leaderboard screen and switches the viewer to it.
// username is highlighted in the list.
func New(ranker Ranker, viewer Viewer, username string, logger *zap.Logger) *LeaderboardScreen {
	if logger == nil {
		logger = zap.NewNop()
	}
	if viewer != nil {
		viewer.ShowLeaderboard()
	}
	return &LeaderboardScreen{ranker: ranker, viewer: viewer, username: username, logger: logger}
}

func (s *LeaderboardScreen) Init() tea.Cmd {
	ranker := s.ranker
	return func() tea.Msg {
		rows, err := ranker.Leaderboard(context.Background())
		return standingsMsg{Rows: rows, Err: err}
	}
}

func (s *LeaderboardScreen) Title() string {
	return "Leaderboard"
}

func (s *LeaderboardScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Esc", Description: "Back to path"},
	}
}

// Close switches the viewer back to the app.
func (s *LeaderboardScreen) Close() {
	if s.viewer != nil {
		s.viewer.ShowApp()
	}
}

func (s *LeaderboardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case standingsMsg:
		s.loaded = true
		if msg.Err != nil {
			s.logger.Warn("load leaderboard", zap.Error(msg.Err))
			s.errMsg = "The leaderboard could not be loaded."
			return s, nil
		}
		s.rows = msg.Rows
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.offset > 0 {
				s.offset--
			}
		case "down", "j":
			if s.offset < len(s.rows)-1 {
				s.offset++
			}
		}
	}
	return s, nil
}

// Rows returns the loaded standings.
func (s *LeaderboardScreen) Rows() []account.Standing {
	return s.rows
}

func (s *LeaderboardScreen) View(width, height int) string {
	cw := min(components.ContentWidth(width), 64)

	var b strings.Builder
	b.WriteString(theme.Title.Render("🏆 Global Leaderboard"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render("See how you rank against other Nalibo learners!"))
	b.WriteString("\n\n")

	switch {
	case s.errMsg != "":
		b.WriteString(theme.Incorrect.Render(s.errMsg))
	case !s.loaded:
		b.WriteString(theme.Hint.Render("Loading..."))
	case len(s.rows) == 0:
		b.WriteString(theme.Hint.Render("No learners yet."))
	default:
		// Each row is one line; keep the list inside the frame.
		visible := max(height-8, 3)
		end := min(s.offset+visible, len(s.rows))
		for _, row := range s.rows[s.offset:end] {
			b.WriteString(s.renderRow(row, cw))
			b.WriteString("\n")
		}
	}

	return layout.Center(b.String(), width, height)
}

func (s *LeaderboardScreen) renderRow(row account.Standing, cw int) string {
	rank := fmt.Sprintf("%2d", row.Rank)
	if row.Rank >= 1 && row.Rank <= len(rankIcons) {
		rank = rankIcons[row.Rank-1]
	}

	nameStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	marker := "  "
	if row.Username == s.username {
		nameStyle = theme.Selected
		marker = theme.Selected.Render("▸ ")
	}

	level := lipgloss.NewStyle().Foreground(theme.TextDim).Render(strings.ToUpper(string(row.Level)))
	xp := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(fmt.Sprintf("%d XP", row.XP))

	left := marker + rank + "  " + nameStyle.Render(row.Username) + "  " + level
	gap := max(cw-lipgloss.Width(left)-lipgloss.Width(xp), 2)
	return left + strings.Repeat(" ", gap) + xp
}
