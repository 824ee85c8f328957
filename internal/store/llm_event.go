package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const llmEventColumns = `id, sequence, timestamp, provider, model, purpose,
	input_tokens, output_tokens, latency_ms, success, error_message,
	request_body, response_body`

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO llm_request_events (sequence, timestamp, provider, model, purpose,
			input_tokens, output_tokens, latency_ms, success, error_message,
			request_body, response_body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().UnixMilli(), data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
		data.ErrorMessage, data.RequestBody, data.ResponseBody,
	)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}

	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error) {
	where, args := opts.where("")
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+llmEventColumns+` FROM llm_request_events`+where+
			` ORDER BY sequence DESC`+opts.limit(), args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEventRecord
	for rows.Next() {
		rec, err := scanLLMEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+llmEventColumns+` FROM llm_request_events WHERE id = ?`, id)
	rec, err := scanLLMEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	return rec, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsageRow, error) {
	return r.llmUsage(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsageRow, error) {
	return r.llmUsage(ctx, "model")
}

// llmUsage groups by column, which must be a trusted identifier.
func (r *eventRepo) llmUsage(ctx context.Context, column string) ([]LLMUsageRow, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %[1]s, COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0),
			COALESCE(AVG(latency_ms), 0), COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0)
		FROM llm_request_events GROUP BY %[1]s ORDER BY COUNT(*) DESC, %[1]s ASC`, column))
	if err != nil {
		return nil, fmt.Errorf("LLM usage by %s: %w", column, err)
	}
	defer rows.Close()

	var out []LLMUsageRow
	for rows.Next() {
		var u LLMUsageRow
		if err := rows.Scan(&u.Key, &u.Calls, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs, &u.Failures); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanLLMEvent(row rowScanner) (*LLMRequestEventRecord, error) {
	var (
		rec LLMRequestEventRecord
		ts  int64
	)
	err := row.Scan(&rec.ID, &rec.Sequence, &ts, &rec.Provider, &rec.Model,
		&rec.Purpose, &rec.InputTokens, &rec.OutputTokens, &rec.LatencyMs,
		&rec.Success, &rec.ErrorMessage, &rec.RequestBody, &rec.ResponseBody)
	if err != nil {
		return nil, err
	}
	rec.Timestamp = time.UnixMilli(ts)
	return &rec, nil
}
