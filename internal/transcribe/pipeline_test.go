package transcribe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Newrona-pi/AUTO-Call/internal/calls"
)

type fakeFetcher struct {
	failures int
	calls    int
	audio    []byte
}

func (f *fakeFetcher) FetchRecording(ctx context.Context, recordingSID string) ([]byte, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("recording not ready")
	}
	return f.audio, nil
}

type fakeTranscriber struct {
	res Result
	err error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) (Result, error) {
	return f.res, f.err
}
func (f *fakeTranscriber) ModelName() string { return "whisper-1" }
func (f *fakeTranscriber) Language() string  { return "ja" }

func newTestPipeline(fetcher *fakeFetcher, tr *fakeTranscriber, ledger calls.Ledger) *Pipeline {
	return &Pipeline{
		Recordings:   fetcher,
		Whisper:      tr,
		Ledger:       ledger,
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	}
}

func seedAnswer(t *testing.T, ledger *calls.MemoryLedger) calls.Answer {
	t.Helper()
	a := calls.Answer{
		ID:               "a1",
		CallSID:          "CA1",
		QuestionID:       "q1",
		RecordingSID:     "RE1",
		TranscriptStatus: calls.TranscriptPending,
		CreatedAt:        time.Now(),
	}
	if err := ledger.CreateAnswer(context.Background(), a); err != nil {
		t.Fatalf("seed answer: %v", err)
	}
	return a
}

func TestTranscribeAnswer_Success(t *testing.T) {
	ledger := calls.NewMemoryLedger()
	seedAnswer(t, ledger)

	fetcher := &fakeFetcher{failures: 1, audio: []byte("mp3-bytes")}
	tr := &fakeTranscriber{res: Result{Text: "はい、元気です", DurationSeconds: 8}}
	p := newTestPipeline(fetcher, tr, ledger)

	p.TranscribeAnswer(context.Background(), "a1", "RE1")

	if fetcher.calls != 2 {
		t.Fatalf("expected retry then success, got %d fetches", fetcher.calls)
	}
	got, _ := ledger.Answer("a1")
	if got.TranscriptStatus != calls.TranscriptCompleted {
		t.Fatalf("expected completed, got %s", got.TranscriptStatus)
	}
	if got.TranscriptText != "はい、元気です" {
		t.Fatalf("unexpected transcript %q", got.TranscriptText)
	}

	logs := ledger.Logs()
	if len(logs) != 1 {
		t.Fatalf("expected exactly one log, got %d", len(logs))
	}
	l := logs[0]
	if l.Status != calls.TranscriptionSuccess {
		t.Fatalf("expected success log, got %s", l.Status)
	}
	if l.AnswerID != "a1" || l.Service != calls.ServiceOpenAIWhisper {
		t.Fatalf("unexpected log identity: %+v", l)
	}
	if l.ModelName != "whisper-1" || l.Language != "ja" {
		t.Fatalf("unexpected log model fields: %+v", l)
	}
	if l.AudioBytes != int64(len("mp3-bytes")) || l.AudioDurationSeconds != 8 {
		t.Fatalf("unexpected log audio fields: %+v", l)
	}
	if l.ResponsePayload != "はい、元気です" {
		t.Fatalf("unexpected response payload %q", l.ResponsePayload)
	}
}

func TestTranscribeAnswer_DownloadExhaustionKeepsStatus(t *testing.T) {
	ledger := calls.NewMemoryLedger()
	seedAnswer(t, ledger)

	fetcher := &fakeFetcher{failures: 100}
	p := newTestPipeline(fetcher, &fakeTranscriber{}, ledger)

	p.TranscribeAnswer(context.Background(), "a1", "RE1")

	if fetcher.calls != 3 {
		t.Fatalf("expected %d attempts, got %d", 3, fetcher.calls)
	}
	got, _ := ledger.Answer("a1")
	if got.TranscriptStatus != calls.TranscriptPending {
		t.Fatalf("exhausted download must not change status, got %s", got.TranscriptStatus)
	}
	logs := ledger.Logs()
	if len(logs) != 1 || logs[0].Status != calls.TranscriptionFailure {
		t.Fatalf("expected one failure log, got %+v", logs)
	}
}

func TestTranscribeAnswer_TranscriberErrorMarksFailed(t *testing.T) {
	ledger := calls.NewMemoryLedger()
	seedAnswer(t, ledger)

	tr := &fakeTranscriber{err: errors.New("whisper status 500")}
	p := newTestPipeline(&fakeFetcher{audio: []byte("mp3")}, tr, ledger)

	p.TranscribeAnswer(context.Background(), "a1", "RE1")

	got, _ := ledger.Answer("a1")
	if got.TranscriptStatus != calls.TranscriptFailed {
		t.Fatalf("expected failed, got %s", got.TranscriptStatus)
	}
	if got.TranscriptText != "" {
		t.Fatalf("failure must not write transcript text")
	}
	logs := ledger.Logs()
	if len(logs) != 1 || logs[0].Status != calls.TranscriptionFailure {
		t.Fatalf("expected one failure log, got %+v", logs)
	}
}

func TestTranscribeAnswer_StaleRecordingDiscardsResult(t *testing.T) {
	ledger := calls.NewMemoryLedger()
	a := calls.Answer{
		ID:               "a1",
		RecordingSID:     "RE-current",
		TranscriptStatus: calls.TranscriptPending,
	}
	_ = ledger.CreateAnswer(context.Background(), a)

	tr := &fakeTranscriber{res: Result{Text: "stale text"}}
	p := newTestPipeline(&fakeFetcher{audio: []byte("mp3")}, tr, ledger)

	// The job carries an old recording SID.
	p.TranscribeAnswer(context.Background(), "a1", "RE-old")

	got, _ := ledger.Answer("a1")
	if got.TranscriptText != "" || got.TranscriptStatus != calls.TranscriptPending {
		t.Fatalf("stale result must be discarded, got %+v", got)
	}
	logs := ledger.Logs()
	if len(logs) != 1 || logs[0].Status != calls.TranscriptionFailure {
		t.Fatalf("expected one failure log, got %+v", logs)
	}
}

func TestTranscribeMessage_Success(t *testing.T) {
	ledger := calls.NewMemoryLedger()
	m := calls.Message{ID: "m1", CallSID: "CA1", RecordingSID: "RE9", TranscriptText: "(文字起こし中...)"}
	_ = ledger.CreateMessage(context.Background(), m)

	tr := &fakeTranscriber{res: Result{Text: "折り返しをお願いします", DurationSeconds: 5}}
	p := newTestPipeline(&fakeFetcher{audio: []byte("mp3")}, tr, ledger)

	p.TranscribeMessage(context.Background(), "m1", "RE9")

	got, _ := ledger.Message("m1")
	if got.TranscriptText != "折り返しをお願いします" {
		t.Fatalf("expected placeholder replaced, got %q", got.TranscriptText)
	}
	logs := ledger.Logs()
	if len(logs) != 1 || logs[0].Status != calls.TranscriptionSuccess {
		t.Fatalf("expected one success log, got %+v", logs)
	}
	if logs[0].AnswerID != "" {
		t.Fatalf("message logs must not carry an answer id, got %q", logs[0].AnswerID)
	}
}

func TestTranscribeMessage_FailureKeepsPlaceholder(t *testing.T) {
	ledger := calls.NewMemoryLedger()
	m := calls.Message{ID: "m1", RecordingSID: "RE9", TranscriptText: "(文字起こし中...)"}
	_ = ledger.CreateMessage(context.Background(), m)

	tr := &fakeTranscriber{err: errors.New("whisper status 500")}
	p := newTestPipeline(&fakeFetcher{audio: []byte("mp3")}, tr, ledger)

	p.TranscribeMessage(context.Background(), "m1", "RE9")

	got, _ := ledger.Message("m1")
	if got.TranscriptText != "(文字起こし中...)" {
		t.Fatalf("failure must keep the placeholder, got %q", got.TranscriptText)
	}
	logs := ledger.Logs()
	if len(logs) != 1 || logs[0].Status != calls.TranscriptionFailure {
		t.Fatalf("expected one failure log, got %+v", logs)
	}
}

func TestScheduleAnswer_RunsDetached(t *testing.T) {
	ledger := calls.NewMemoryLedger()
	seedAnswer(t, ledger)

	tr := &fakeTranscriber{res: Result{Text: "ok"}}
	p := newTestPipeline(&fakeFetcher{audio: []byte("mp3")}, tr, ledger)

	ctx, cancel := context.WithCancel(context.Background())
	p.ScheduleAnswer(ctx, "a1", "RE1")
	// Cancelling the request context must not cancel the job.
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		if got, _ := ledger.Answer("a1"); got.TranscriptStatus == calls.TranscriptCompleted {
			return
		}
		select {
		case <-deadline:
			got, _ := ledger.Answer("a1")
			t.Fatalf("job did not complete, answer: %+v", got)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
