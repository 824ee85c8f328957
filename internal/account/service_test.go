package account

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/progress"
	"github.com/nalibo/nalibopath/internal/store"
)

func newTestService(t *testing.T) (*Service, *SQLStore) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	st.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { st.Close() })

	sql := NewSQLStore(st.UserRepo())
	return NewService(sql, WithHashCost(bcrypt.MinCost)), sql
}

func TestSignupDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Signup(ctx, "Kara", "pw")
	require.NoError(t, err)
	require.NotNil(t, u)

	assert.Equal(t, "kara", u.Username)
	assert.Equal(t, 0, u.Progress.XP)
	assert.Equal(t, progress.StartingGems, u.Progress.Gems)
	assert.Equal(t, progress.MaxLives, u.Progress.Lives)
	assert.Equal(t, 0, u.Progress.Streak)
	assert.Empty(t, u.Progress.Completed)
	assert.Equal(t, "1", u.Progress.CurrentLessonID)
	assert.Equal(t, curriculum.LevelNoviceLow, u.Progress.Level)
	assert.Empty(t, u.APIKey)
	assert.NotEqual(t, "pw", u.PasswordHash)

	assert.Equal(t, "kara", svc.Current().Username)
}

func TestSignupDuplicateIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "kara", "pw")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))

	u, err := svc.Signup(ctx, "KARA", "other")
	assert.Nil(t, u)
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Nil(t, svc.Current(), "rejected signup must not sign anyone in")
}

func TestSignupInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "  ", "pw"},
		{"empty password", "kara", ""},
		{"too long", strings.Repeat("a", 33), "pw"},
		{"inner space", "ka ra", "pw"},
		{"inner tab", "ka\tra", "pw"},
		{"no-break space", "ka\u00a0ra", "pw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Signup(ctx, tt.username, tt.password)
			assert.Nil(t, u)
			var ie *InputError
			assert.ErrorAs(t, err, &ie)
		})
	}
}

func TestSignupAcceptsPlainNames(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"alex", "kara2", "user0", "xavi", "Milo_2x"} {
		u, err := svc.Signup(ctx, name, "pw")
		require.NoError(t, err, name)
		assert.Equal(t, strings.ToLower(name), u.Username)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "kara", "pw")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))
	assert.Nil(t, svc.Current())

	_, err = svc.Login(ctx, "kara", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, svc.Current())

	u, err := svc.Login(ctx, " KARA ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "kara", u.Username)
	assert.Equal(t, "kara", svc.Current().Username)
}

func TestRestore(t *testing.T) {
	svc, sql := newTestService(t)
	ctx := context.Background()

	u, err := svc.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	_, err = svc.Signup(ctx, "kara", "pw")
	require.NoError(t, err)

	fresh := NewService(sql)
	u, err = fresh.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "kara", u.Username)
	assert.Equal(t, "kara", fresh.Current().Username)
}

func TestSaveProgressPersists(t *testing.T) {
	svc, sql := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SaveProgress(ctx, progress.New()), ErrNotSignedIn)

	_, err := svc.Signup(ctx, "kara", "pw")
	require.NoError(t, err)

	p := progress.New()
	p.XP = 160
	p.Gems = 25
	p.Streak = 1
	p.Completed = []string{"1"}
	require.NoError(t, svc.SaveProgress(ctx, p))

	stored, err := sql.FindByUsername(ctx, "kara")
	require.NoError(t, err)
	assert.Equal(t, 160, stored.Progress.XP)
	assert.Equal(t, 25, stored.Progress.Gems)
	assert.Equal(t, []string{"1"}, stored.Progress.Completed)
	assert.Equal(t, 160, svc.Current().Progress.XP)
}

func TestLedgerSavesThroughService(t *testing.T) {
	svc, sql := newTestService(t)
	ctx := context.Background()

	u, err := svc.Signup(ctx, "kara", "pw")
	require.NoError(t, err)

	ledger := progress.NewLedger(u.Progress, svc)
	_, err = ledger.ApplyExerciseOutcome(ctx, true)
	require.NoError(t, err)

	stored, err := sql.FindByUsername(ctx, "kara")
	require.NoError(t, err)
	assert.Equal(t, progress.CorrectXP, stored.Progress.XP)
}

func TestAPIKeyAndPremium(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "kara", "pw")
	require.NoError(t, err)
	assert.False(t, svc.Current().IsPremium())

	require.NoError(t, svc.SaveAPIKey(ctx, "0123456789"))
	assert.False(t, svc.Current().IsPremium(), "exactly ten characters is not premium")

	require.NoError(t, svc.SaveAPIKey(ctx, "sk-0123456789"))
	assert.True(t, svc.Current().IsPremium())

	var nobody *User
	assert.False(t, nobody.IsPremium())
}

func TestLeaderboard(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for name, xp := range map[string]int{"kara": 160, "ana": 40, "milo": 40} {
		_, err := svc.Signup(ctx, name, "pw")
		require.NoError(t, err)
		p := progress.New()
		p.XP = xp
		require.NoError(t, svc.SaveProgress(ctx, p))
	}

	board, err := svc.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "kara", board[0].Username)
	assert.Equal(t, 160, board[0].XP)
	assert.Equal(t, progress.New().Level, board[0].Level)
	assert.Equal(t, "ana", board[1].Username)
	assert.Equal(t, "milo", board[2].Username)
	assert.Equal(t, 3, board[2].Rank)
}

func TestNotes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.False(t, svc.NeedsNotes("v1.1.0"), "nobody signed in")

	_, err := svc.Signup(ctx, "kara", "pw")
	require.NoError(t, err)
	assert.True(t, svc.NeedsNotes("v1.1.0"))

	require.NoError(t, svc.AckNotes(ctx, "v1.1.0"))
	assert.False(t, svc.NeedsNotes("v1.1.0"))
	assert.True(t, svc.NeedsNotes("v1.2.0"))
}
