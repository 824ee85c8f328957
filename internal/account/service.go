package account

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/mod/semver"

	"github.com/nalibo/nalibopath/internal/progress"
)

// Sentinel errors.
var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotSignedIn        = errors.New("not signed in")
)

// InputError lists the credential fields that failed validation.
type InputError struct {
	Fields []string
}

func (e *InputError) Error() string {
	return "invalid input: " + strings.Join(e.Fields, ", ")
}

// Credentials is what a learner types to sign up or sign in.
type Credentials struct {
	Username string `validate:"required,max=32,nospace"`
	Password string `validate:"required,max=72"`
}

// Service owns the signed-in session.
type Service struct {
	store    Store
	validate *validator.Validate
	logger   *zap.Logger
	cost     int

	mu      sync.Mutex
	current *User
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates a Service over st.
func NewService(st Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		validate: newValidator(),
		logger:   zap.NewNop(),
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newValidator adds the nospace rule, which rejects any Unicode space.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("nospace", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
	})
	return v
}

func (s *Service) check(c *Credentials) error {
	c.Username = strings.ToLower(strings.TrimSpace(c.Username))
	err := s.validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ie := &InputError{}
	for _, fe := range verrs {
		ie.Fields = append(ie.Fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return ie
}

// Signup registers a new learner with default progress and signs them in.
// On any error no user is returned and the session is unchanged.
func (s *Service) Signup(ctx context.Context, username, password string) (*User, error) {
	c := Credentials{Username: username, Password: password}
	if err := s.check(&c); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:     c.Username,
		PasswordHash: string(hash),
		Progress:     progress.New(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	if err := s.store.SetActiveUsername(ctx, u.Username); err != nil {
		return nil, err
	}

	s.logger.Info("signup", zap.String("username", u.Username))
	s.setCurrent(u)
	return u.clone(), nil
}

// Login signs in an existing learner.
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	c := Credentials{Username: username, Password: password}
	if err := s.check(&c); err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.store.FindByUsername(ctx, c.Username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(c.Password)); err != nil {
		s.logger.Info("login rejected", zap.String("username", c.Username))
		return nil, ErrInvalidCredentials
	}
	if err := s.store.SetActiveUsername(ctx, u.Username); err != nil {
		return nil, err
	}

	s.logger.Info("login", zap.String("username", u.Username))
	s.setCurrent(u)
	return u.clone(), nil
}

// Restore reloads the session recorded by a previous run, if any.
func (s *Service) Restore(ctx context.Context) (*User, error) {
	name, err := s.store.ActiveUsername(ctx)
	if err != nil || name == "" {
		return nil, err
	}
	u, err := s.store.FindByUsername(ctx, name)
	if err != nil {
		return nil, err
	}
	if u == nil {
		// Stale pointer to a deleted user.
		return nil, s.store.ClearActiveUsername(ctx)
	}
	s.setCurrent(u)
	return u.clone(), nil
}

// Logout ends the session.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return s.store.ClearActiveUsername(ctx)
}

// Current returns a copy of the signed-in user, or nil.
func (s *Service) Current() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone()
}

func (s *Service) setCurrent(u *User) {
	s.mu.Lock()
	s.current = u.clone()
	s.mu.Unlock()
}

// update applies fn to the signed-in user and persists the result. The
// in-memory copy changes only if the save succeeds.
func (s *Service) update(ctx context.Context, fn func(*User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNotSignedIn
	}
	next := s.current.clone()
	fn(next)
	if err := s.store.SaveUser(ctx, next); err != nil {
		return err
	}
	s.current = next
	return nil
}

// SaveProgress persists p as the signed-in user's progress. It satisfies
// progress.Saver.
func (s *Service) SaveProgress(ctx context.Context, p progress.Progress) error {
	return s.update(ctx, func(u *User) { u.Progress = p.Clone() })
}

// SaveAPIKey stores the premium key of the signed-in user.
func (s *Service) SaveAPIKey(ctx context.Context, key string) error {
	return s.update(ctx, func(u *User) { u.APIKey = strings.TrimSpace(key) })
}

// NeedsNotes reports whether the signed-in user has not yet acknowledged
// the notes at version.
func (s *Service) NeedsNotes(version string) bool {
	u := s.Current()
	if u == nil {
		return false
	}
	if u.SeenNotes == "" {
		return true
	}
	return semver.Compare(u.SeenNotes, version) < 0
}

// AckNotes records that the signed-in user has seen the notes at version.
func (s *Service) AckNotes(ctx context.Context, version string) error {
	return s.update(ctx, func(u *User) { u.SeenNotes = version })
}

// Leaderboard ranks every user by XP, ties broken by username.
func (s *Service) Leaderboard(ctx context.Context) ([]Standing, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(users, func(a, b User) int {
		if c := cmp.Compare(b.Progress.XP, a.Progress.XP); c != 0 {
			return c
		}
		return strings.Compare(a.Username, b.Username)
	})
	out := make([]Standing, 0, len(users))
	for i, u := range users {
		out = append(out, Standing{
			Rank:     i + 1,
			Username: u.Username,
			XP:       u.Progress.XP,
			Streak:   u.Progress.Streak,
			Level:    u.Progress.Level,
		})
	}
	return out, nil
}
