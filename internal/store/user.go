package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const activeUserKey = "active_username"

// userRepo implements UserRepo with raw SQL.
type userRepo struct {
	db *sql.DB
}

const userColumns = `username, password_hash, api_key, xp, gems, lives, streak,
	completed_lessons, current_lesson_id, proficiency_level, seen_notes,
	created_at, updated_at`

func (r *userRepo) Get(ctx context.Context, username string) (*UserRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return u, nil
}

func (r *userRepo) Create(ctx context.Context, u *UserRecord) error {
	args, err := userArgs(u)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (username) DO NOTHING`, args...)
	if err != nil {
		return fmt.Errorf("create user %q: %w", u.Username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create user %q: %w", u.Username, err)
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *userRepo) Save(ctx context.Context, u *UserRecord) error {
	args, err := userArgs(u)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
			password_hash = excluded.password_hash,
			api_key = excluded.api_key,
			xp = excluded.xp,
			gems = excluded.gems,
			lives = excluded.lives,
			streak = excluded.streak,
			completed_lessons = excluded.completed_lessons,
			current_lesson_id = excluded.current_lesson_id,
			proficiency_level = excluded.proficiency_level,
			seen_notes = excluded.seen_notes,
			updated_at = excluded.updated_at`, args...)
	if err != nil {
		return fmt.Errorf("save user %q: %w", u.Username, err)
	}
	return nil
}

func (r *userRepo) List(ctx context.Context) ([]UserRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY xp DESC, username ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []UserRecord
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *userRepo) SetActive(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		activeUserKey, username)
	if err != nil {
		return fmt.Errorf("set active user: %w", err)
	}
	return nil
}

func (r *userRepo) ClearActive(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, activeUserKey); err != nil {
		return fmt.Errorf("clear active user: %w", err)
	}
	return nil
}

func (r *userRepo) Active(ctx context.Context) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, activeUserKey).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("active user: %w", err)
	}
	return name, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*UserRecord, error) {
	var (
		u                UserRecord
		completed        string
		created, updated int64
	)
	err := row.Scan(&u.Username, &u.PasswordHash, &u.APIKey, &u.XP, &u.Gems,
		&u.Lives, &u.Streak, &completed, &u.CurrentLessonID, &u.Level,
		&u.SeenNotes, &created, &updated)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(completed), &u.CompletedLessons); err != nil {
		return nil, fmt.Errorf("decode completed lessons: %w", err)
	}
	u.CreatedAt = time.UnixMilli(created).UTC()
	u.UpdatedAt = time.UnixMilli(updated).UTC()
	return &u, nil
}

func userArgs(u *UserRecord) ([]any, error) {
	completed := u.CompletedLessons
	if completed == nil {
		completed = []string{}
	}
	data, err := json.Marshal(completed)
	if err != nil {
		return nil, fmt.Errorf("encode completed lessons: %w", err)
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return []any{
		u.Username, u.PasswordHash, u.APIKey, u.XP, u.Gems, u.Lives, u.Streak,
		string(data), u.CurrentLessonID, u.Level, u.SeenNotes,
		u.CreatedAt.UnixMilli(), u.UpdatedAt.UnixMilli(),
	}, nil
}
