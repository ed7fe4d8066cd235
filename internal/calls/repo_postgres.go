package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresLedger stores call facts in Postgres.
//
// Assumed tables: calls, answers, messages, transcription_logs.
// transcription_logs is INSERT-only; answers accept exactly one transcript
// update, enforced by the status predicate in the UPDATE statements.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger { return &PostgresLedger{db: db} }

func (r *PostgresLedger) CreateCall(ctx context.Context, c Call) error {
	const q = `
INSERT INTO calls (call_sid, from_number, to_number, scenario_id, status, recording_sid, started_at, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
ON CONFLICT (call_sid) DO NOTHING
`
	_, err := r.db.ExecContext(ctx, q, c.CallSID, c.From, c.To, c.ScenarioID, c.Status, c.RecordingSID, c.StartedAt, c.CreatedAt)
	return err
}

func (r *PostgresLedger) GetCall(ctx context.Context, callSID string) (Call, error) {
	const q = `
SELECT call_sid, from_number, to_number, COALESCE(scenario_id, ''), status, COALESCE(recording_sid, ''), started_at, created_at
FROM calls
WHERE call_sid = $1
`
	var c Call
	err := r.db.QueryRowContext(ctx, q, callSID).Scan(
		&c.CallSID, &c.From, &c.To, &c.ScenarioID, &c.Status, &c.RecordingSID, &c.StartedAt, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Call{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresLedger) ListCalls(ctx context.Context, f ListCallsFilter) ([]Call, error) {
	const q = `
SELECT call_sid, from_number, to_number, COALESCE(scenario_id, ''), status, COALESCE(recording_sid, ''), started_at, created_at
FROM calls
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`
	// Limit <= 0 means unbounded; reporting reads the whole range.
	rows, err := r.db.QueryContext(ctx, q, nullTime(f.From), nullTime(f.To), nullLimit(f.Limit), f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Call
	for rows.Next() {
		var c Call
		if err := rows.Scan(&c.CallSID, &c.From, &c.To, &c.ScenarioID, &c.Status, &c.RecordingSID, &c.StartedAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresLedger) CreateAnswer(ctx context.Context, a Answer) error {
	const q = `
INSERT INTO answers (id, call_sid, question_id, question_sort_at_call, answer_type, recording_sid, recording_url, storage_status, transcript_text, transcript_status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.CallSID, a.QuestionID, a.QuestionSortAtCall, a.AnswerType,
		a.RecordingSID, a.RecordingURL, a.StorageStatus, a.TranscriptText, a.TranscriptStatus, a.CreatedAt,
	)
	return err
}

func (r *PostgresLedger) ListAnswersByCall(ctx context.Context, callSID string) ([]Answer, error) {
	const q = answerSelect + `
WHERE call_sid = $1
ORDER BY question_sort_at_call
`
	return r.queryAnswers(ctx, q, callSID)
}

func (r *PostgresLedger) ListAnswers(ctx context.Context, from, to time.Time) ([]Answer, error) {
	const q = answerSelect + `
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)
ORDER BY created_at
`
	return r.queryAnswers(ctx, q, nullTime(from), nullTime(to))
}

const answerSelect = `
SELECT id, call_sid, question_id, question_sort_at_call, answer_type, recording_sid, recording_url, storage_status, COALESCE(transcript_text, ''), transcript_status, created_at
FROM answers
`

func (r *PostgresLedger) queryAnswers(ctx context.Context, q string, args ...any) ([]Answer, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(
			&a.ID, &a.CallSID, &a.QuestionID, &a.QuestionSortAtCall, &a.AnswerType,
			&a.RecordingSID, &a.RecordingURL, &a.StorageStatus, &a.TranscriptText, &a.TranscriptStatus, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresLedger) MarkAnswerProcessing(ctx context.Context, answerID, recordingSID string) error {
	const q = `
UPDATE answers
SET transcript_status = 'processing'
WHERE id = $1 AND recording_sid = $2 AND transcript_status IN ('pending', 'processing')
`
	return r.guardedAnswerUpdate(ctx, q, answerID, recordingSID)
}

func (r *PostgresLedger) CompleteAnswerTranscript(ctx context.Context, answerID, recordingSID, text string) error {
	const q = `
UPDATE answers
SET transcript_text = $3, transcript_status = 'completed'
WHERE id = $1 AND recording_sid = $2 AND transcript_status IN ('pending', 'processing')
`
	return r.guardedAnswerUpdate(ctx, q, answerID, recordingSID, text)
}

func (r *PostgresLedger) FailAnswerTranscript(ctx context.Context, answerID, recordingSID string) error {
	const q = `
UPDATE answers
SET transcript_status = 'failed'
WHERE id = $1 AND recording_sid = $2 AND transcript_status IN ('pending', 'processing')
`
	return r.guardedAnswerUpdate(ctx, q, answerID, recordingSID)
}

func (r *PostgresLedger) guardedAnswerUpdate(ctx context.Context, q, answerID string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, append([]any{answerID}, args...)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM answers WHERE id = $1)`, answerID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleRecording
}

func (r *PostgresLedger) CreateMessage(ctx context.Context, m Message) error {
	const q = `
INSERT INTO messages (id, call_sid, recording_sid, recording_url, transcript_text, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := r.db.ExecContext(ctx, q, m.ID, m.CallSID, m.RecordingSID, m.RecordingURL, m.TranscriptText, m.CreatedAt)
	return err
}

func (r *PostgresLedger) ListMessagesByCall(ctx context.Context, callSID string) ([]Message, error) {
	const q = `
SELECT id, call_sid, recording_sid, recording_url, COALESCE(transcript_text, ''), created_at
FROM messages
WHERE call_sid = $1
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, callSID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.CallSID, &m.RecordingSID, &m.RecordingURL, &m.TranscriptText, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresLedger) SetMessageTranscript(ctx context.Context, messageID, recordingSID, text string) error {
	const q = `
UPDATE messages
SET transcript_text = $3
WHERE id = $1 AND recording_sid = $2
`
	res, err := r.db.ExecContext(ctx, q, messageID, recordingSID, text)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1)`, messageID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleRecording
}

func (r *PostgresLedger) AppendTranscriptionLog(ctx context.Context, l TranscriptionLog) error {
	const q = `
INSERT INTO transcription_logs (id, answer_id, service, status, audio_bytes, audio_duration, model_name, language, request_payload, response_payload, processing_time, created_at)
VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`
	_, err := r.db.ExecContext(ctx, q,
		l.ID, l.AnswerID, l.Service, l.Status, l.AudioBytes, l.AudioDurationSeconds,
		l.ModelName, l.Language, l.RequestPayload, l.ResponsePayload, l.ProcessingSeconds, l.CreatedAt,
	)
	return err
}

func (r *PostgresLedger) ListTranscriptionLogs(ctx context.Context, answerID string) ([]TranscriptionLog, error) {
	const q = `
SELECT id, COALESCE(answer_id, ''), service, status, audio_bytes, audio_duration, model_name, language, COALESCE(request_payload, ''), COALESCE(response_payload, ''), processing_time, created_at
FROM transcription_logs
WHERE ($1 = '' OR answer_id = $1)
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, answerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TranscriptionLog
	for rows.Next() {
		var l TranscriptionLog
		if err := rows.Scan(
			&l.ID, &l.AnswerID, &l.Service, &l.Status, &l.AudioBytes, &l.AudioDurationSeconds,
			&l.ModelName, &l.Language, &l.RequestPayload, &l.ResponsePayload, &l.ProcessingSeconds, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func nullLimit(n int) any {
	if n <= 0 {
		return nil
	}
	return n
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
