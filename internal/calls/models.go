package calls

import "time"

// Call is one inbound call, keyed by the telephony platform's call SID.
// Created once at call start and never deleted.
//
// ScenarioID may be empty: calls to unmapped numbers still get a row.
// RecordingSID is the whole-call recording; it is unrelated to the per-answer
// recording SIDs and the two are stored independently.
type Call struct {
	CallSID    string `json:"call_sid" db:"call_sid"`
	From       string `json:"from" db:"from_number"`
	To         string `json:"to" db:"to_number"`
	ScenarioID string `json:"scenario_id,omitempty" db:"scenario_id"`

	Status       CallStatus `json:"status" db:"status"`
	RecordingSID string     `json:"recording_sid,omitempty" db:"recording_sid"`

	StartedAt time.Time `json:"started_at" db:"started_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no_answer"
	CallStatusBusy       CallStatus = "busy"
)

// Answer is one recorded response to one question within one call.
//
// QuestionSortAtCall snapshots the question's sort order at call time so that
// later edits to the scenario cannot corrupt historical reporting. It is
// immutable after creation, as is everything except the transcript fields,
// which the transcription pipeline mutates exactly once.
type Answer struct {
	ID      string `json:"id" db:"id"`
	CallSID string `json:"call_sid" db:"call_sid"`

	QuestionID         string `json:"question_id" db:"question_id"`
	QuestionSortAtCall int    `json:"question_sort_at_call" db:"question_sort_at_call"`

	AnswerType   string `json:"answer_type" db:"answer_type"`
	RecordingSID string `json:"recording_sid" db:"recording_sid"`
	RecordingURL string `json:"recording_url" db:"recording_url"`

	// StorageStatus is reserved for future archival of the audio itself.
	// The call flow only ever writes "pending".
	StorageStatus string `json:"storage_status" db:"storage_status"`

	TranscriptText   string           `json:"transcript_text,omitempty" db:"transcript_text"`
	TranscriptStatus TranscriptStatus `json:"transcript_status" db:"transcript_status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const AnswerTypeRecording = "recording"

const StorageStatusPending = "pending"

// TranscriptStatus is the lifecycle of one recording's transcript.
// Legal transitions: pending -> processing -> completed | failed.
type TranscriptStatus string

const (
	TranscriptPending    TranscriptStatus = "pending"
	TranscriptProcessing TranscriptStatus = "processing"
	TranscriptCompleted  TranscriptStatus = "completed"
	TranscriptFailed     TranscriptStatus = "failed"
)

func (s TranscriptStatus) Valid() bool {
	switch s {
	case TranscriptPending, TranscriptProcessing, TranscriptCompleted, TranscriptFailed:
		return true
	default:
		return false
	}
}

func (s TranscriptStatus) CanTransitionTo(next TranscriptStatus) bool {
	switch s {
	case TranscriptPending:
		return next == TranscriptProcessing
	case TranscriptProcessing:
		return next == TranscriptCompleted || next == TranscriptFailed
	default:
		return false
	}
}

// Message is one free-form recording per call, outside the question sequence.
// TranscriptText holds a placeholder until transcription completes.
type Message struct {
	ID      string `json:"id" db:"id"`
	CallSID string `json:"call_sid" db:"call_sid"`

	RecordingSID string `json:"recording_sid" db:"recording_sid"`
	RecordingURL string `json:"recording_url" db:"recording_url"`

	TranscriptText string `json:"transcript_text,omitempty" db:"transcript_text"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TranscriptionLog is an immutable audit record of one transcription attempt.
//
// Invariants:
// - Rows are never updated or deleted.
// - Every attempt, success or failure, appends exactly one row.
//
// AnswerID is empty for message transcriptions; the request payload carries
// the message identifier instead.
type TranscriptionLog struct {
	ID       string `json:"id" db:"id"`
	AnswerID string `json:"answer_id,omitempty" db:"answer_id"`

	Service string              `json:"service" db:"service"`
	Status  TranscriptionResult `json:"status" db:"status"`

	AudioBytes           int64  `json:"audio_bytes" db:"audio_bytes"`
	AudioDurationSeconds int    `json:"audio_duration" db:"audio_duration"`
	ModelName            string `json:"model_name" db:"model_name"`
	Language             string `json:"language" db:"language"`

	RequestPayload  string `json:"request_payload,omitempty" db:"request_payload"`
	ResponsePayload string `json:"response_payload,omitempty" db:"response_payload"`

	ProcessingSeconds int `json:"processing_time" db:"processing_time"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type TranscriptionResult string

const (
	TranscriptionSuccess TranscriptionResult = "success"
	TranscriptionFailure TranscriptionResult = "failed"
)

const ServiceOpenAIWhisper = "openai_whisper"
