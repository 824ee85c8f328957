package store

import (
	"database/sql"
	"fmt"
)

// schema lists the statements that create every table. All are
// idempotent so migrate can run on each Open.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		username          TEXT PRIMARY KEY,
		password_hash     TEXT NOT NULL,
		api_key           TEXT NOT NULL DEFAULT '',
		xp                INTEGER NOT NULL DEFAULT 0 CHECK (xp >= 0),
		gems              INTEGER NOT NULL DEFAULT 0 CHECK (gems >= 0),
		lives             INTEGER NOT NULL DEFAULT 5 CHECK (lives BETWEEN 0 AND 5),
		streak            INTEGER NOT NULL DEFAULT 0 CHECK (streak >= 0),
		completed_lessons TEXT NOT NULL DEFAULT '[]',
		current_lesson_id TEXT NOT NULL DEFAULT '1',
		proficiency_level TEXT NOT NULL DEFAULT 'Novice Low',
		seen_notes        TEXT NOT NULL DEFAULT '',
		created_at        INTEGER NOT NULL,
		updated_at        INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL UNIQUE,
		timestamp     INTEGER NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       BOOLEAN NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS answer_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL UNIQUE,
		timestamp     INTEGER NOT NULL,
		run_id        TEXT NOT NULL,
		username      TEXT NOT NULL,
		lesson_id     TEXT NOT NULL,
		exercise_id   TEXT NOT NULL,
		exercise_type TEXT NOT NULL,
		answer        TEXT NOT NULL DEFAULT '',
		correct       BOOLEAN NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_answer_events_user ON answer_events (username, sequence)`,
	`CREATE TABLE IF NOT EXISTS lesson_events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence    INTEGER NOT NULL UNIQUE,
		timestamp   INTEGER NOT NULL,
		run_id      TEXT NOT NULL,
		username    TEXT NOT NULL,
		lesson_id   TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		perfect     BOOLEAN NOT NULL DEFAULT 0,
		xp_gained   INTEGER NOT NULL DEFAULT 0,
		gems_gained INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lesson_events_user ON lesson_events (username, sequence)`,
}

func migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}
