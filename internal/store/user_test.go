package store

import (
	"context"
	"errors"
	"testing"
)

func TestUserCreateGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.UserRepo()
	ctx := context.Background()

	u, err := repo.Get(ctx, "kara")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if u != nil {
		t.Fatal("expected nil for unknown user")
	}

	rec := &UserRecord{
		Username:        "kara",
		PasswordHash:    "hash",
		XP:              0,
		Gems:            10,
		Lives:           5,
		CurrentLessonID: "1",
		Level:           "Novice Low",
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	u, err = repo.Get(ctx, "kara")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u == nil {
		t.Fatal("expected user")
	}
	if u.Gems != 10 || u.Lives != 5 || u.Level != "Novice Low" {
		t.Errorf("user = %+v", u)
	}
	if u.CompletedLessons == nil || len(u.CompletedLessons) != 0 {
		t.Errorf("completed = %#v, want empty non-nil slice", u.CompletedLessons)
	}
	if u.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestUserCreateDuplicate(t *testing.T) {
	s := openTestStore(t)
	repo := s.UserRepo()
	ctx := context.Background()

	if err := repo.Create(ctx, &UserRecord{Username: "kara", PasswordHash: "a", Lives: 5}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.Create(ctx, &UserRecord{Username: "kara", PasswordHash: "b", Lives: 5})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	u, err := repo.Get(ctx, "kara")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.PasswordHash != "a" {
		t.Errorf("password hash overwritten: %q", u.PasswordHash)
	}
}

func TestUserSaveRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.UserRepo()
	ctx := context.Background()

	rec := &UserRecord{Username: "kara", PasswordHash: "h", Lives: 5, CurrentLessonID: "1"}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec.XP = 160
	rec.Gems = 25
	rec.Streak = 1
	rec.CompletedLessons = []string{"1"}
	rec.APIKey = "sk-1234567890"
	rec.SeenNotes = "v1.1.0"
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	u, err := repo.Get(ctx, "kara")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.XP != 160 || u.Gems != 25 || u.Streak != 1 {
		t.Errorf("counters = %d/%d/%d", u.XP, u.Gems, u.Streak)
	}
	if len(u.CompletedLessons) != 1 || u.CompletedLessons[0] != "1" {
		t.Errorf("completed = %v", u.CompletedLessons)
	}
	if u.APIKey != "sk-1234567890" || u.SeenNotes != "v1.1.0" {
		t.Errorf("api key / notes = %q / %q", u.APIKey, u.SeenNotes)
	}
}

func TestUserSaveRejectsInvalidLives(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.UserRepo().Save(ctx, &UserRecord{Username: "kara", PasswordHash: "h", Lives: 6})
	if err == nil {
		t.Fatal("expected check constraint violation for lives > 5")
	}
}

func TestUserListOrder(t *testing.T) {
	s := openTestStore(t)
	repo := s.UserRepo()
	ctx := context.Background()

	for _, u := range []UserRecord{
		{Username: "ana", XP: 40},
		{Username: "kara", XP: 160},
		{Username: "milo", XP: 40},
	} {
		u.PasswordHash, u.Lives = "h", 5
		if err := repo.Save(ctx, &u); err != nil {
			t.Fatalf("save %s: %v", u.Username, err)
		}
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var names []string
	for _, u := range users {
		names = append(names, u.Username)
	}
	want := []string{"kara", "ana", "milo"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v, want %v", names, want)
			break
		}
	}
}

func TestActiveUser(t *testing.T) {
	s := openTestStore(t)
	repo := s.UserRepo()
	ctx := context.Background()

	name, err := repo.Active(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if name != "" {
		t.Errorf("active = %q, want empty", name)
	}

	if err := repo.SetActive(ctx, "kara"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.SetActive(ctx, "milo"); err != nil {
		t.Fatalf("set again: %v", err)
	}
	name, _ = repo.Active(ctx)
	if name != "milo" {
		t.Errorf("active = %q, want milo", name)
	}

	if err := repo.ClearActive(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	name, _ = repo.Active(ctx)
	if name != "" {
		t.Errorf("active after clear = %q, want empty", name)
	}
}
