package app

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/nalibo/nalibopath/internal/account"
	"github.com/nalibo/nalibopath/internal/course"
	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/progress"
	"github.com/nalibo/nalibopath/internal/screen"
	"github.com/nalibo/nalibopath/internal/store"
)

func newTestModel(t *testing.T) (AppModel, *account.Service) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	st.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { st.Close() })

	svc := account.NewService(account.NewSQLStore(st.UserRepo()), account.WithHashCost(bcrypt.MinCost))
	m := newAppModel(Options{
		Accounts: svc,
		Catalog:  curriculum.Default(),
		EventLog: st.EventRepo(),
	})
	t.Cleanup(m.closeCourse)
	return m, svc
}

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(AppModel)
	if !ok {
		t.Fatalf("model is %T", next)
	}
	return am, cmd
}

func TestStartsOnAuth(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	if got := m.router.Active().Title(); got != "Sign In" {
		t.Errorf("title = %q, want Sign In", got)
	}
	if !strings.Contains(fmt.Sprint(m.View().Content), "Welcome to Nalibo") {
		t.Error("auth screen not rendered")
	}
}

func TestSignInOpensMap(t *testing.T) {
	m, svc := newTestModel(t)
	u, err := svc.Signup(context.Background(), "kara", "pw")
	if err != nil {
		t.Fatal(err)
	}

	m, cmd := update(t, m, screen.SignedInMsg{User: u})
	if cmd == nil {
		t.Fatal("sign in should start the map and the event loop")
	}
	if m.ctrl == nil {
		t.Fatal("controller not built")
	}
	if got := m.router.Active().Title(); got != "The Nalibo Path" {
		t.Errorf("title = %q", got)
	}
	if m.stats.Username != "kara" || m.stats.Lives != progress.MaxLives {
		t.Errorf("stats = %+v", m.stats)
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	if !strings.Contains(fmt.Sprint(m.View().Content), "Welcome, kara!") {
		t.Error("map not rendered")
	}
}

func TestCourseEventsUpdateStats(t *testing.T) {
	m, svc := newTestModel(t)
	u, err := svc.Signup(context.Background(), "kara", "pw")
	if err != nil {
		t.Fatal(err)
	}
	m, _ = update(t, m, screen.SignedInMsg{User: u})

	p := u.Progress
	p.XP = 40
	m, cmd := update(t, m, courseEventMsg{ctrl: m.ctrl, ev: course.Event{Kind: course.EventProgress, Progress: p}})
	if m.stats.XP != 40 {
		t.Errorf("xp = %d, want 40", m.stats.XP)
	}
	if cmd == nil {
		t.Error("event loop should be re-armed")
	}

	// Events from a previous controller are ignored.
	p.XP = 999
	m, _ = update(t, m, courseEventMsg{ctrl: nil, ev: course.Event{Kind: course.EventProgress, Progress: p}})
	if m.stats.XP != 40 {
		t.Errorf("stale event applied: xp = %d", m.stats.XP)
	}
}

func TestOtherEventsResyncStats(t *testing.T) {
	m, svc := newTestModel(t)
	u, err := svc.Signup(context.Background(), "kara", "pw")
	if err != nil {
		t.Fatal(err)
	}
	m, _ = update(t, m, screen.SignedInMsg{User: u})

	// A progress event was lost; the header went stale.
	m.stats.Gems = 999
	m, _ = update(t, m, courseEventMsg{ctrl: m.ctrl, ev: course.Event{Kind: course.EventViewChanged, View: course.ViewApp}})
	if want := m.ctrl.Progress().Gems; m.stats.Gems != want {
		t.Errorf("gems = %d, want %d", m.stats.Gems, want)
	}
	if m.stats.Username != "kara" {
		t.Errorf("username = %q", m.stats.Username)
	}
}

func TestSignOutReturnsToAuth(t *testing.T) {
	m, svc := newTestModel(t)
	u, err := svc.Signup(context.Background(), "kara", "pw")
	if err != nil {
		t.Fatal(err)
	}
	m, _ = update(t, m, screen.SignedInMsg{User: u})
	ctrl := m.ctrl

	m, _ = update(t, m, screen.SignedOutMsg{})
	if m.ctrl != nil {
		t.Error("controller not released")
	}
	if got := m.router.Active().Title(); got != "Sign In" {
		t.Errorf("title = %q, want Sign In", got)
	}
	// Events are closed once the session ends.
	for range ctrl.Events() {
	}
	if err := ctrl.ToggleChat(); err != course.ErrClosed {
		t.Errorf("closed controller answered %v", err)
	}
}

func TestRestoreSignsIn(t *testing.T) {
	m, svc := newTestModel(t)
	if _, err := svc.Signup(context.Background(), "kara", "pw"); err != nil {
		t.Fatal(err)
	}

	batch, ok := m.Init()().(tea.BatchMsg)
	if !ok {
		t.Fatal("init should batch screen init and restore")
	}
	var signedIn bool
	for _, c := range batch {
		if c == nil {
			continue
		}
		if _, ok := c().(screen.SignedInMsg); ok {
			signedIn = true
		}
	}
	if !signedIn {
		t.Error("previous session not restored")
	}
}

func TestCtrlCQuits(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := update(t, m, tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}

func TestEscNotIntercepted(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := update(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Error("esc must not quit")
		}
	}
	if got := m.router.Active().Title(); got != "Sign In" {
		t.Errorf("title = %q", got)
	}
}
