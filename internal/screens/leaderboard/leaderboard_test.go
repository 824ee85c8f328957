package leaderboard

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/nalibo/nalibopath/internal/account"
	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/router"
)

type fakeRanker struct {
	rows []account.Standing
	err  error
}

func (f fakeRanker) Leaderboard(context.Context) ([]account.Standing, error) {
	return f.rows, f.err
}

type fakeViewer struct {
	shown, left int
}

func (v *fakeViewer) ShowLeaderboard() { v.shown++ }
func (v *fakeViewer) ShowApp()         { v.left++ }

func load(s *LeaderboardScreen) {
	s.Update(s.Init()())
}

func TestRendersStandings(t *testing.T) {
	rows := []account.Standing{
		{Rank: 1, Username: "milo", XP: 540, Level: curriculum.LevelNoviceMid},
		{Rank: 2, Username: "kara", XP: 320, Level: curriculum.LevelNoviceLow},
		{Rank: 3, Username: "ines", XP: 100, Level: curriculum.LevelNoviceLow},
		{Rank: 4, Username: "tomo", XP: 0, Level: curriculum.LevelNoviceLow},
	}
	viewer := &fakeViewer{}
	s := New(fakeRanker{rows: rows}, viewer, "kara", nil)
	if viewer.shown != 1 {
		t.Errorf("ShowLeaderboard called %d times", viewer.shown)
	}
	load(s)

	view := s.View(100, 40)
	for _, want := range []string{"Global Leaderboard", "🥇", "🥈", "🥉", "540 XP", "NOVICE MID", "tomo"} {
		if !strings.Contains(view, want) {
			t.Errorf("view misses %q:\n%s", want, view)
		}
	}
	if !strings.Contains(view, "▸") {
		t.Error("current user not highlighted")
	}
}

func TestLoadError(t *testing.T) {
	s := New(fakeRanker{err: errors.New("boom")}, nil, "kara", nil)
	load(s)
	if !strings.Contains(s.View(100, 40), "could not be loaded") {
		t.Error("error not shown")
	}
}

func TestEscPopsAndCloseRestoresApp(t *testing.T) {
	viewer := &fakeViewer{}
	s := New(fakeRanker{}, viewer, "kara", nil)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("esc should return a command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Fatal("esc should pop")
	}

	s.Close()
	if viewer.left != 1 {
		t.Errorf("ShowApp called %d times", viewer.left)
	}
}
