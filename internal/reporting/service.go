package reporting

import (
	"context"
	"errors"

	"github.com/Newrona-pi/AUTO-Call/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Service computes aggregates over the call ledger. Reads only immutable
// sources: call rows are created once, answers mutate only their transcript
// fields, and counting those fields is the point.
type Service struct {
	ledger calls.Ledger
}

func NewService(ledger calls.Ledger) *Service { return &Service{ledger: ledger} }

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.ledger == nil {
		return CallsSummary{}, errors.New("reporting: ledger not configured")
	}

	rows, err := s.ledger.ListCalls(ctx, calls.ListCallsFilter{From: req.Range.From, To: req.Range.To})
	if err != nil {
		return CallsSummary{}, err
	}

	var out CallsSummary
	for _, c := range rows {
		out.TotalCalls++
		if c.ScenarioID != "" {
			out.RoutedCalls++
		} else {
			out.UnroutedCalls++
		}
		if c.RecordingSID != "" {
			out.RecordedCalls++
		}
	}

	answers, err := s.ledger.ListAnswers(ctx, req.Range.From, req.Range.To)
	if err != nil {
		return CallsSummary{}, err
	}
	for _, a := range answers {
		out.TotalAnswers++
		switch a.TranscriptStatus {
		case calls.TranscriptPending:
			out.TranscriptsPending++
		case calls.TranscriptProcessing:
			out.TranscriptsProcessing++
		case calls.TranscriptCompleted:
			out.TranscriptsCompleted++
		case calls.TranscriptFailed:
			out.TranscriptsFailed++
		}
	}

	if out.RoutedCalls > 0 {
		out.AnswersPerCall = float64(out.TotalAnswers) / float64(out.RoutedCalls)
	}
	return out, nil
}
