package calls

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("calls: not found")

	// ErrStaleRecording means a transcript write-back referenced a recording
	// SID that no longer matches the stored row. The result must be discarded
	// rather than overwrite an unrelated answer.
	ErrStaleRecording = errors.New("calls: recording sid mismatch")
)

// Ledger records call, answer, and message facts and the transcription audit
// trail. Each callback handler fully owns its own row creation, so no
// cross-request transaction spans are required.
type Ledger interface {
	// CreateCall inserts the call row. Replayed webhooks for the same call
	// SID are a no-op, keeping creation idempotent.
	CreateCall(ctx context.Context, c Call) error
	GetCall(ctx context.Context, callSID string) (Call, error)
	ListCalls(ctx context.Context, f ListCallsFilter) ([]Call, error)

	CreateAnswer(ctx context.Context, a Answer) error
	ListAnswersByCall(ctx context.Context, callSID string) ([]Answer, error)
	ListAnswers(ctx context.Context, from, to time.Time) ([]Answer, error)

	// MarkAnswerProcessing moves a pending answer to processing once its
	// transcription job picks it up. Guarded by recording SID.
	MarkAnswerProcessing(ctx context.Context, answerID, recordingSID string) error
	// CompleteAnswerTranscript moves the answer to completed with its text.
	// The write is rejected with ErrStaleRecording unless the stored
	// recording SID still matches and the status transition is legal.
	CompleteAnswerTranscript(ctx context.Context, answerID, recordingSID, text string) error
	// FailAnswerTranscript moves the answer to failed without touching the
	// transcript text, under the same guard.
	FailAnswerTranscript(ctx context.Context, answerID, recordingSID string) error

	CreateMessage(ctx context.Context, m Message) error
	ListMessagesByCall(ctx context.Context, callSID string) ([]Message, error)
	// SetMessageTranscript replaces the placeholder text, guarded by
	// recording SID like answers.
	SetMessageTranscript(ctx context.Context, messageID, recordingSID, text string) error

	// AppendTranscriptionLog is append-only; no update or delete exists.
	AppendTranscriptionLog(ctx context.Context, l TranscriptionLog) error
	ListTranscriptionLogs(ctx context.Context, answerID string) ([]TranscriptionLog, error)
}

type ListCallsFilter struct {
	From, To time.Time
	Limit    int
	Offset   int
}
