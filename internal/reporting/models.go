package reporting

import "time"

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest requests aggregated survey call metrics.
type CallsSummaryRequest struct {
	Range TimeRange `json:"range"`
}

// CallsSummary aggregates calls and their transcription outcomes over a
// time range. Derived entirely from immutable call and answer records.
type CallsSummary struct {
	TotalCalls    int `json:"total_calls"`
	RoutedCalls   int `json:"routed_calls"`
	UnroutedCalls int `json:"unrouted_calls"`
	RecordedCalls int `json:"recorded_calls"`

	TotalAnswers int `json:"total_answers"`

	TranscriptsPending    int `json:"transcripts_pending"`
	TranscriptsProcessing int `json:"transcripts_processing"`
	TranscriptsCompleted  int `json:"transcripts_completed"`
	TranscriptsFailed     int `json:"transcripts_failed"`

	AnswersPerCall float64 `json:"answers_per_call"`
}
