package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryLedger is an in-memory Ledger for tests.
type MemoryLedger struct {
	mu       sync.Mutex
	calls    map[string]Call
	answers  map[string]Answer
	messages map[string]Message
	logs     []TranscriptionLog
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		calls:    map[string]Call{},
		answers:  map[string]Answer{},
		messages: map[string]Message{},
	}
}

func (r *MemoryLedger) CreateCall(ctx context.Context, c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[c.CallSID]; ok {
		return nil
	}
	r.calls[c.CallSID] = c
	return nil
}

func (r *MemoryLedger) GetCall(ctx context.Context, callSID string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[callSID]
	if !ok {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryLedger) ListCalls(ctx context.Context, f ListCallsFilter) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if !f.From.IsZero() && c.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !c.CreatedAt.Before(f.To) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryLedger) CreateAnswer(ctx context.Context, a Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers[a.ID] = a
	return nil
}

func (r *MemoryLedger) ListAnswersByCall(ctx context.Context, callSID string) ([]Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Answer
	for _, a := range r.answers {
		if a.CallSID == callSID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionSortAtCall < out[j].QuestionSortAtCall })
	return out, nil
}

func (r *MemoryLedger) ListAnswers(ctx context.Context, from, to time.Time) ([]Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Answer
	for _, a := range r.answers {
		if !from.IsZero() && a.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !a.CreatedAt.Before(to) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryLedger) MarkAnswerProcessing(ctx context.Context, answerID, recordingSID string) error {
	return r.updateAnswer(answerID, recordingSID, TranscriptProcessing, "", false)
}

func (r *MemoryLedger) CompleteAnswerTranscript(ctx context.Context, answerID, recordingSID, text string) error {
	return r.updateAnswer(answerID, recordingSID, TranscriptCompleted, text, true)
}

func (r *MemoryLedger) FailAnswerTranscript(ctx context.Context, answerID, recordingSID string) error {
	return r.updateAnswer(answerID, recordingSID, TranscriptFailed, "", false)
}

func (r *MemoryLedger) updateAnswer(answerID, recordingSID string, next TranscriptStatus, text string, setText bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.answers[answerID]
	if !ok {
		return ErrNotFound
	}
	// Terminal writes are accepted from pending as well as processing, so a
	// job whose processing mark was lost can still land its result.
	open := a.TranscriptStatus == TranscriptPending || a.TranscriptStatus == TranscriptProcessing
	if a.RecordingSID != recordingSID || !open {
		return ErrStaleRecording
	}
	a.TranscriptStatus = next
	if setText {
		a.TranscriptText = text
	}
	r.answers[answerID] = a
	return nil
}

func (r *MemoryLedger) CreateMessage(ctx context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[m.ID] = m
	return nil
}

func (r *MemoryLedger) ListMessagesByCall(ctx context.Context, callSID string) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.messages {
		if m.CallSID == callSID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryLedger) SetMessageTranscript(ctx context.Context, messageID, recordingSID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[messageID]
	if !ok {
		return ErrNotFound
	}
	if m.RecordingSID != recordingSID {
		return ErrStaleRecording
	}
	m.TranscriptText = text
	r.messages[messageID] = m
	return nil
}

func (r *MemoryLedger) AppendTranscriptionLog(ctx context.Context, l TranscriptionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, l)
	return nil
}

func (r *MemoryLedger) ListTranscriptionLogs(ctx context.Context, answerID string) ([]TranscriptionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []TranscriptionLog
	for _, l := range r.logs {
		if answerID == "" || l.AnswerID == answerID {
			out = append(out, l)
		}
	}
	return out, nil
}

// Answer returns a snapshot of one answer row, for tests.
func (r *MemoryLedger) Answer(id string) (Answer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.answers[id]
	return a, ok
}

// Message returns a snapshot of one message row, for tests.
func (r *MemoryLedger) Message(id string) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	return m, ok
}

// Logs returns a copy of all transcription log rows, for tests.
func (r *MemoryLedger) Logs() []TranscriptionLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TranscriptionLog, len(r.logs))
	copy(out, r.logs)
	return out
}
