package transcribe

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Newrona-pi/AUTO-Call/internal/calls"
	"github.com/Newrona-pi/AUTO-Call/pkg/logger"
	"github.com/Newrona-pi/AUTO-Call/pkg/utils"
)

// RecordingFetcher downloads finished recording audio from the telephony
// platform. A recording may not be retrievable immediately after the platform
// reports completion; errors are retryable.
type RecordingFetcher interface {
	FetchRecording(ctx context.Context, recordingSID string) ([]byte, error)
}

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (Result, error)
	ModelName() string
	Language() string
}

// Pipeline runs transcription jobs detached from the callback handlers that
// schedule them. A job downloads the recording with capped exponential
// backoff, transcribes it, and writes the result back through the ledger's
// recording-SID guard so a stale job can never overwrite an unrelated row.
//
// Redis is optional and only dedupes scheduling: a replayed webhook carrying
// the same recording SID claims the same key and is dropped. When Redis is
// absent or failing both jobs run, and the write-back guard keeps the outcome
// correct; dedupe is an economy, not a correctness mechanism.
type Pipeline struct {
	Recordings RecordingFetcher
	Whisper    Transcriber
	Ledger     calls.Ledger
	Redis      *redis.Client

	MaxAttempts  int
	InitialDelay time.Duration
}

const (
	defaultMaxAttempts  = 5
	defaultInitialDelay = 2 * time.Second

	dedupeTTL          = time.Hour
	responseTruncateAt = 1000
)

// ScheduleAnswer launches a detached transcription job for one answer.
// It never blocks: the caller is a callback handler whose markup response
// must go out while transcription proceeds in the background.
func (p *Pipeline) ScheduleAnswer(ctx context.Context, answerID, recordingSID string) {
	p.schedule(ctx, "answer", recordingSID, func(jobCtx context.Context) {
		p.TranscribeAnswer(jobCtx, answerID, recordingSID)
	})
}

// ScheduleMessage launches a detached transcription job for one message.
func (p *Pipeline) ScheduleMessage(ctx context.Context, messageID, recordingSID string) {
	p.schedule(ctx, "message", recordingSID, func(jobCtx context.Context) {
		p.TranscribeMessage(jobCtx, messageID, recordingSID)
	})
}

func (p *Pipeline) schedule(ctx context.Context, kind, recordingSID string, run func(context.Context)) {
	log := logger.From(ctx)

	if p.Redis != nil {
		key := fmt.Sprintf("transcribe:%s:%s", kind, recordingSID)
		claimed, err := utils.ClaimOnce(ctx, p.Redis, key, dedupeTTL)
		if err != nil {
			// Dedupe is best-effort; a failing Redis must not lose jobs.
			log.Warn("transcription dedupe unavailable", "kind", kind, "recording_sid", recordingSID, "err", err)
		} else if !claimed {
			log.Info("transcription already scheduled", "kind", kind, "recording_sid", recordingSID)
			return
		}
	}

	// The job must outlive the HTTP request that scheduled it.
	jobCtx := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("transcription job panicked", "kind", kind, "recording_sid", recordingSID, "panic", rec)
			}
		}()
		run(jobCtx)
	}()
}

// TranscribeAnswer runs one answer transcription attempt to completion.
func (p *Pipeline) TranscribeAnswer(ctx context.Context, answerID, recordingSID string) {
	log := logger.From(ctx).With("answer_id", answerID, "recording_sid", recordingSID)

	audio, err := p.download(ctx, recordingSID)
	if err != nil {
		// Download exhaustion abandons the attempt without touching the
		// transcript status; only the audit trail records it.
		log.Error("recording download failed", "err", err)
		p.appendLog(ctx, calls.TranscriptionLog{
			AnswerID:        answerID,
			Status:          calls.TranscriptionFailure,
			RequestPayload:  requestPayload(recordingSID),
			ResponsePayload: truncate(err.Error(), responseTruncateAt),
		})
		return
	}

	// Non-fatal: the terminal write-back carries the same guard, so a lost
	// processing mark cannot corrupt anything.
	if err := p.Ledger.MarkAnswerProcessing(ctx, answerID, recordingSID); err != nil {
		log.Warn("processing mark not recorded", "err", err)
	}

	res, outcome := p.transcribeAudio(ctx, recordingSID, audio)
	if outcome.err != nil {
		log.Error("transcription failed", "err", outcome.err)
		if err := p.Ledger.FailAnswerTranscript(ctx, answerID, recordingSID); err != nil {
			log.Warn("failure status not recorded", "err", err)
		}
		p.appendLog(ctx, calls.TranscriptionLog{
			AnswerID:          answerID,
			Status:            calls.TranscriptionFailure,
			AudioBytes:        outcome.audioBytes,
			RequestPayload:    requestPayload(recordingSID),
			ResponsePayload:   truncate(outcome.err.Error(), responseTruncateAt),
			ProcessingSeconds: outcome.processingSeconds,
		})
		return
	}

	if err := p.Ledger.CompleteAnswerTranscript(ctx, answerID, recordingSID, res.Text); err != nil {
		// Stale rows get a failure entry but no mutation: the result is
		// discarded rather than applied to an answer it doesn't belong to.
		log.Warn("transcript write-back rejected", "err", err)
		p.appendLog(ctx, calls.TranscriptionLog{
			AnswerID:             answerID,
			Status:               calls.TranscriptionFailure,
			AudioBytes:           outcome.audioBytes,
			AudioDurationSeconds: res.DurationSeconds,
			RequestPayload:       requestPayload(recordingSID),
			ResponsePayload:      truncate("write-back rejected: "+err.Error(), responseTruncateAt),
			ProcessingSeconds:    outcome.processingSeconds,
		})
		return
	}

	p.appendLog(ctx, calls.TranscriptionLog{
		AnswerID:             answerID,
		Status:               calls.TranscriptionSuccess,
		AudioBytes:           outcome.audioBytes,
		AudioDurationSeconds: res.DurationSeconds,
		RequestPayload:       requestPayload(recordingSID),
		ResponsePayload:      truncate(res.Text, responseTruncateAt),
		ProcessingSeconds:    outcome.processingSeconds,
	})
	log.Info("transcription completed", "audio_bytes", outcome.audioBytes, "duration_s", res.DurationSeconds)
}

// TranscribeMessage runs one message transcription attempt to completion.
// Messages carry no transcript status; the placeholder text simply remains
// on failure.
func (p *Pipeline) TranscribeMessage(ctx context.Context, messageID, recordingSID string) {
	log := logger.From(ctx).With("message_id", messageID, "recording_sid", recordingSID)

	audio, err := p.download(ctx, recordingSID)
	if err != nil {
		log.Error("message recording download failed", "err", err)
		p.appendLog(ctx, calls.TranscriptionLog{
			Status:          calls.TranscriptionFailure,
			RequestPayload:  messagePayload(messageID, recordingSID),
			ResponsePayload: truncate(err.Error(), responseTruncateAt),
		})
		return
	}

	res, outcome := p.transcribeAudio(ctx, recordingSID, audio)
	if outcome.err != nil {
		log.Error("message transcription failed", "err", outcome.err)
		p.appendLog(ctx, calls.TranscriptionLog{
			Status:            calls.TranscriptionFailure,
			AudioBytes:        outcome.audioBytes,
			RequestPayload:    messagePayload(messageID, recordingSID),
			ResponsePayload:   truncate(outcome.err.Error(), responseTruncateAt),
			ProcessingSeconds: outcome.processingSeconds,
		})
		return
	}

	if err := p.Ledger.SetMessageTranscript(ctx, messageID, recordingSID, res.Text); err != nil {
		log.Warn("message transcript write-back rejected", "err", err)
		p.appendLog(ctx, calls.TranscriptionLog{
			Status:            calls.TranscriptionFailure,
			AudioBytes:        outcome.audioBytes,
			RequestPayload:    messagePayload(messageID, recordingSID),
			ResponsePayload:   truncate("write-back rejected: "+err.Error(), responseTruncateAt),
			ProcessingSeconds: outcome.processingSeconds,
		})
		return
	}

	p.appendLog(ctx, calls.TranscriptionLog{
		Status:               calls.TranscriptionSuccess,
		AudioBytes:           outcome.audioBytes,
		AudioDurationSeconds: res.DurationSeconds,
		RequestPayload:       messagePayload(messageID, recordingSID),
		ResponsePayload:      truncate(res.Text, responseTruncateAt),
		ProcessingSeconds:    outcome.processingSeconds,
	})
	log.Info("message transcription completed", "audio_bytes", outcome.audioBytes)
}

// download fetches recording audio with capped exponential backoff. The delay
// doubles after each failed attempt starting from InitialDelay.
func (p *Pipeline) download(ctx context.Context, recordingSID string) ([]byte, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	delay := p.InitialDelay
	if delay <= 0 {
		delay = defaultInitialDelay
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}
		audio, err := p.Recordings.FetchRecording(ctx, recordingSID)
		if err == nil {
			return audio, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("download exhausted after %d attempts: %w", attempts, lastErr)
}

type attemptOutcome struct {
	err               error
	audioBytes        int64
	processingSeconds int
}

// transcribeAudio stages the audio in a temp file and runs the transcriber.
// The temp file is removed on every exit path.
func (p *Pipeline) transcribeAudio(ctx context.Context, recordingSID string, audio []byte) (Result, attemptOutcome) {
	out := attemptOutcome{audioBytes: int64(len(audio))}

	tmp, err := os.CreateTemp("", recordingSID+"-*.mp3")
	if err != nil {
		out.err = err
		return Result{}, out
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(audio); err != nil {
		_ = tmp.Close()
		out.err = err
		return Result{}, out
	}
	if err := tmp.Close(); err != nil {
		out.err = err
		return Result{}, out
	}

	start := time.Now()
	res, err := p.Whisper.Transcribe(ctx, tmp.Name())
	out.processingSeconds = int(time.Since(start).Seconds())
	out.err = err
	return res, out
}

func (p *Pipeline) appendLog(ctx context.Context, l calls.TranscriptionLog) {
	l.ID = uuid.NewString()
	l.Service = calls.ServiceOpenAIWhisper
	l.ModelName = p.Whisper.ModelName()
	l.Language = p.Whisper.Language()
	l.CreatedAt = time.Now().UTC()
	if err := p.Ledger.AppendTranscriptionLog(ctx, l); err != nil {
		logger.From(ctx).Error("transcription log append failed", "err", err)
	}
}

func requestPayload(recordingSID string) string {
	return fmt.Sprintf("file=%s.mp3", recordingSID)
}

func messagePayload(messageID, recordingSID string) string {
	return fmt.Sprintf("message=%s file=%s.mp3", messageID, recordingSID)
}
