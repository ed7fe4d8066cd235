package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/Newrona-pi/AUTO-Call/internal/calls"
)

func TestCallsSummary(t *testing.T) {
	ledger := calls.NewMemoryLedger()
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()

	_ = ledger.CreateCall(ctx, calls.Call{CallSID: "CA1", ScenarioID: "sc1", RecordingSID: "RE1", Status: calls.CallStatusCompleted, CreatedAt: now})
	_ = ledger.CreateCall(ctx, calls.Call{CallSID: "CA2", ScenarioID: "sc1", Status: calls.CallStatusCompleted, CreatedAt: now})
	_ = ledger.CreateCall(ctx, calls.Call{CallSID: "CA3", Status: calls.CallStatusCompleted, CreatedAt: now})

	_ = ledger.CreateAnswer(ctx, calls.Answer{ID: "a1", CallSID: "CA1", TranscriptStatus: calls.TranscriptCompleted, CreatedAt: now})
	_ = ledger.CreateAnswer(ctx, calls.Answer{ID: "a2", CallSID: "CA1", TranscriptStatus: calls.TranscriptFailed, CreatedAt: now})
	_ = ledger.CreateAnswer(ctx, calls.Answer{ID: "a3", CallSID: "CA2", TranscriptStatus: calls.TranscriptProcessing, CreatedAt: now})
	_ = ledger.CreateAnswer(ctx, calls.Answer{ID: "a4", CallSID: "CA2", TranscriptStatus: calls.TranscriptPending, CreatedAt: now})

	svc := NewService(ledger)
	out, err := svc.CallsSummary(ctx, CallsSummaryRequest{Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if out.TotalCalls != 3 || out.RoutedCalls != 2 || out.UnroutedCalls != 1 {
		t.Fatalf("unexpected call counts: %+v", out)
	}
	if out.RecordedCalls != 1 {
		t.Fatalf("expected 1 recorded call, got %d", out.RecordedCalls)
	}
	if out.TotalAnswers != 4 {
		t.Fatalf("expected 4 answers, got %d", out.TotalAnswers)
	}
	if out.TranscriptsCompleted != 1 || out.TranscriptsFailed != 1 || out.TranscriptsProcessing != 1 || out.TranscriptsPending != 1 {
		t.Fatalf("unexpected transcript counts: %+v", out)
	}
	if out.AnswersPerCall != 2 {
		t.Fatalf("expected 2 answers per routed call, got %v", out.AnswersPerCall)
	}
}

func TestCallsSummary_RangeFiltering(t *testing.T) {
	ledger := calls.NewMemoryLedger()
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()

	_ = ledger.CreateCall(ctx, calls.Call{CallSID: "CA1", ScenarioID: "sc1", CreatedAt: now})
	_ = ledger.CreateCall(ctx, calls.Call{CallSID: "CA2", ScenarioID: "sc1", CreatedAt: now.Add(-48 * time.Hour)})

	svc := NewService(ledger)
	out, err := svc.CallsSummary(ctx, CallsSummaryRequest{Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 1 {
		t.Fatalf("expected 1 call in range, got %d", out.TotalCalls)
	}
}

func TestCallsSummary_InvalidRange(t *testing.T) {
	svc := NewService(calls.NewMemoryLedger())
	now := time.Unix(1700000000, 0).UTC()

	cases := []TimeRange{
		{},
		{From: now},
		{From: now, To: now},
		{From: now, To: now.Add(-time.Hour)},
	}
	for _, r := range cases {
		if _, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{Range: r}); err != ErrInvalidRequest {
			t.Fatalf("range %+v: expected ErrInvalidRequest, got %v", r, err)
		}
	}
}
