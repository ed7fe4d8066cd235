package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/Newrona-pi/AUTO-Call/internal/survey"
)

func seedRepo() *survey.MemoryRepo {
	repo := survey.NewMemoryRepo()
	repo.AddScenario(survey.Scenario{ID: "sc1", Name: "intake", Active: true})
	repo.AddScenario(survey.Scenario{ID: "sc2", Name: "retired", Active: false})
	repo.AddPhoneNumber(survey.PhoneNumber{Number: "+81 50-1234-5678", ScenarioID: "sc1", Active: true})
	repo.AddPhoneNumber(survey.PhoneNumber{Number: "+815098765432", ScenarioID: "sc2", Active: true})
	return repo
}

func TestNormalizeNumber(t *testing.T) {
	cases := []struct{ in, want string }{
		{"+81 50-1234-5678", "+815012345678"},
		{"81(50)1234 5678", "+815012345678"},
		{"  +815012345678 ", "+815012345678"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeNumber(tc.in); got != tc.want {
			t.Fatalf("NormalizeNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolve_ExactMatch(t *testing.T) {
	r := NewResolver(seedRepo())
	route, err := r.Resolve(context.Background(), "+81 50-1234-5678")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if route.Scenario.ID != "sc1" {
		t.Fatalf("expected sc1, got %q", route.Scenario.ID)
	}
	if !route.InService() {
		t.Fatalf("expected route in service")
	}
}

func TestResolve_NormalizedFallback(t *testing.T) {
	r := NewResolver(seedRepo())
	// Same digits as the stored number, different punctuation.
	route, err := r.Resolve(context.Background(), "81 (50) 1234-5678")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if route.Scenario.ID != "sc1" {
		t.Fatalf("expected sc1 via normalized scan, got %q", route.Scenario.ID)
	}
}

func TestResolve_NoRoute(t *testing.T) {
	r := NewResolver(seedRepo())
	_, err := r.Resolve(context.Background(), "+815000000000")
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestResolve_InactiveScenarioNotInService(t *testing.T) {
	r := NewResolver(seedRepo())
	route, err := r.Resolve(context.Background(), "+815098765432")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if route.InService() {
		t.Fatalf("inactive scenario must not be in service")
	}
	if route.Scenario.ID != "sc2" {
		t.Fatalf("scenario reference should still resolve for the ledger")
	}
}
