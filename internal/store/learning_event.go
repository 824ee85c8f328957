package store

import (
	"context"
	"fmt"
	"time"
)

func (r *eventRepo) AppendAnswer(ctx context.Context, data AnswerEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO answer_events (sequence, timestamp, run_id, username, lesson_id,
			exercise_id, exercise_type, answer, correct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().UnixMilli(), data.RunID, data.Username, data.LessonID,
		data.ExerciseID, data.ExerciseType, data.Answer, data.Correct,
	)
	if err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendLessonOutcome(ctx context.Context, data LessonEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO lesson_events (sequence, timestamp, run_id, username, lesson_id,
			outcome, perfect, xp_gained, gems_gained)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().UnixMilli(), data.RunID, data.Username, data.LessonID,
		data.Outcome, data.Perfect, data.XPGained, data.GemsGained,
	)
	if err != nil {
		return fmt.Errorf("save lesson event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryAnswers(ctx context.Context, username string, opts QueryOpts) ([]AnswerEventRecord, error) {
	where, args := opts.where("username = ?", username)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sequence, timestamp, run_id, username, lesson_id, exercise_id,
			exercise_type, answer, correct
		FROM answer_events`+where+` ORDER BY sequence ASC`+opts.limit(), args...)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var out []AnswerEventRecord
	for rows.Next() {
		var (
			rec AnswerEventRecord
			ts  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Sequence, &ts, &rec.RunID, &rec.Username,
			&rec.LessonID, &rec.ExerciseID, &rec.ExerciseType, &rec.Answer, &rec.Correct); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *eventRepo) QueryLessonOutcomes(ctx context.Context, username string, opts QueryOpts) ([]LessonEventRecord, error) {
	where, args := opts.where("username = ?", username)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sequence, timestamp, run_id, username, lesson_id, outcome,
			perfect, xp_gained, gems_gained
		FROM lesson_events`+where+` ORDER BY sequence ASC`+opts.limit(), args...)
	if err != nil {
		return nil, fmt.Errorf("query lesson outcomes: %w", err)
	}
	defer rows.Close()

	var out []LessonEventRecord
	for rows.Next() {
		var (
			rec LessonEventRecord
			ts  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Sequence, &ts, &rec.RunID, &rec.Username,
			&rec.LessonID, &rec.Outcome, &rec.Perfect, &rec.XPGained, &rec.GemsGained); err != nil {
			return nil, fmt.Errorf("scan lesson outcome: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *eventRepo) Stats(ctx context.Context, username string) (*LearnerStats, error) {
	stats := &LearnerStats{ByType: make(map[string]TypeAccuracy)}

	rows, err := r.db.QueryContext(ctx,
		`SELECT exercise_type, COUNT(*), COALESCE(SUM(CASE WHEN correct THEN 1 ELSE 0 END), 0)
		FROM answer_events WHERE username = ? GROUP BY exercise_type`, username)
	if err != nil {
		return nil, fmt.Errorf("answer stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			typ string
			acc TypeAccuracy
		)
		if err := rows.Scan(&typ, &acc.Answers, &acc.Correct); err != nil {
			return nil, fmt.Errorf("scan answer stats: %w", err)
		}
		stats.ByType[typ] = acc
		stats.Answers += acc.Answers
		stats.Correct += acc.Correct
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0)
		FROM lesson_events WHERE username = ?`,
		LessonOutcomeCompleted, LessonOutcomeGameOver, username,
	).Scan(&stats.Completions, &stats.GameOvers)
	if err != nil {
		return nil, fmt.Errorf("lesson stats: %w", err)
	}
	return stats, nil
}
