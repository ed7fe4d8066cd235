package routing

import (
	"context"
	"errors"
	"strings"

	"github.com/Newrona-pi/AUTO-Call/internal/survey"
)

// ErrNoRoute means the dialed number does not map to any stored phone number.
// It is a valid outcome, not a failure: the call flow renders it as a
// "number not in service" message.
var ErrNoRoute = errors.New("routing: no route for dialed number")

// Route is the result of resolving a dialed number.
// Scenario may be inactive; callers that only need routing should check
// InService, while the call ledger still records the scenario reference.
type Route struct {
	PhoneNumber survey.PhoneNumber
	Scenario    survey.Scenario
}

// InService reports whether the call flow should run the survey script.
func (r Route) InService() bool {
	return r.PhoneNumber.Active && r.Scenario.Routable()
}

// Resolver maps a dialed number to its survey scenario.
//
// Lookup is two-phase: an exact string match first (the common case where the
// platform's formatting matches what was stored), then a linear scan comparing
// normalized forms. Operators are inconsistent about spacing and punctuation,
// so the fallback scan is deliberate rather than a strict parser.
type Resolver struct {
	surveys survey.Repository
}

func NewResolver(surveys survey.Repository) *Resolver {
	return &Resolver{surveys: surveys}
}

func (r *Resolver) Resolve(ctx context.Context, dialed string) (Route, error) {
	pn, err := r.surveys.GetPhoneNumber(ctx, dialed)
	if err != nil {
		if !errors.Is(err, survey.ErrNotFound) {
			return Route{}, err
		}
		pn, err = r.scanNormalized(ctx, dialed)
		if err != nil {
			return Route{}, err
		}
	}

	sc, err := r.surveys.GetScenario(ctx, pn.ScenarioID)
	if err != nil {
		if errors.Is(err, survey.ErrNotFound) {
			// A number pointing at a deleted scenario routes nowhere.
			return Route{PhoneNumber: pn}, nil
		}
		return Route{}, err
	}
	return Route{PhoneNumber: pn, Scenario: sc}, nil
}

func (r *Resolver) scanNormalized(ctx context.Context, dialed string) (survey.PhoneNumber, error) {
	want := NormalizeNumber(dialed)
	all, err := r.surveys.ListPhoneNumbers(ctx)
	if err != nil {
		return survey.PhoneNumber{}, err
	}
	for _, pn := range all {
		if NormalizeNumber(pn.Number) == want {
			return pn, nil
		}
	}
	return survey.PhoneNumber{}, ErrNoRoute
}

// NormalizeNumber strips spaces, hyphens, and parentheses and ensures a
// leading '+'. It intentionally does no full E.164 validation.
func NormalizeNumber(s string) string {
	repl := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	out := repl.Replace(strings.TrimSpace(s))
	if out != "" && !strings.HasPrefix(out, "+") {
		out = "+" + out
	}
	return out
}
