package account

import (
	"context"
	"errors"

	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/progress"
	"github.com/nalibo/nalibopath/internal/store"
)

// Store is the persistence contract for users and the active session.
type Store interface {
	// FindByUsername returns the user, or nil if none exists.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// CreateUser inserts u. Returns ErrUsernameTaken on collision.
	CreateUser(ctx context.Context, u *User) error

	SaveUser(ctx context.Context, u *User) error
	ListUsers(ctx context.Context) ([]User, error)

	SetActiveUsername(ctx context.Context, username string) error
	ClearActiveUsername(ctx context.Context) error

	// ActiveUsername returns "" when nobody is signed in.
	ActiveUsername(ctx context.Context) (string, error)
}

// SQLStore adapts a store.UserRepo to Store.
type SQLStore struct {
	repo store.UserRepo
}

// NewSQLStore returns a Store persisting through repo.
func NewSQLStore(repo store.UserRepo) *SQLStore {
	return &SQLStore{repo: repo}
}

func (s *SQLStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	rec, err := s.repo.Get(ctx, username)
	if err != nil || rec == nil {
		return nil, err
	}
	return fromRecord(rec), nil
}

func (s *SQLStore) CreateUser(ctx context.Context, u *User) error {
	err := s.repo.Create(ctx, toRecord(u))
	if errors.Is(err, store.ErrDuplicate) {
		return ErrUsernameTaken
	}
	return err
}

func (s *SQLStore) SaveUser(ctx context.Context, u *User) error {
	return s.repo.Save(ctx, toRecord(u))
}

func (s *SQLStore) ListUsers(ctx context.Context) ([]User, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]User, 0, len(recs))
	for i := range recs {
		users = append(users, *fromRecord(&recs[i]))
	}
	return users, nil
}

func (s *SQLStore) SetActiveUsername(ctx context.Context, username string) error {
	return s.repo.SetActive(ctx, username)
}

func (s *SQLStore) ClearActiveUsername(ctx context.Context) error {
	return s.repo.ClearActive(ctx)
}

func (s *SQLStore) ActiveUsername(ctx context.Context) (string, error) {
	return s.repo.Active(ctx)
}

func toRecord(u *User) *store.UserRecord {
	p := u.Progress
	return &store.UserRecord{
		Username:         u.Username,
		PasswordHash:     u.PasswordHash,
		APIKey:           u.APIKey,
		XP:               p.XP,
		Gems:             p.Gems,
		Lives:            p.Lives,
		Streak:           p.Streak,
		CompletedLessons: p.Completed,
		CurrentLessonID:  p.CurrentLessonID,
		Level:            string(p.Level),
		SeenNotes:        u.SeenNotes,
	}
}

func fromRecord(r *store.UserRecord) *User {
	return &User{
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		APIKey:       r.APIKey,
		SeenNotes:    r.SeenNotes,
		Progress: progress.Progress{
			XP:              r.XP,
			Gems:            r.Gems,
			Lives:           r.Lives,
			Streak:          r.Streak,
			Completed:       r.CompletedLessons,
			CurrentLessonID: r.CurrentLessonID,
			Level:           curriculum.Level(r.Level),
		},
	}
}
