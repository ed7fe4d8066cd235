package survey

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("survey: not found")

// Repository is the read-only view of survey definitions used by call routing
// and the call flow. Administrative CRUD is a separate concern and writes
// through its own path; the call flow never mutates survey data.
type Repository interface {
	GetScenario(ctx context.Context, id string) (Scenario, error)
	ListScenarios(ctx context.Context) ([]Scenario, error)

	GetQuestion(ctx context.Context, id string) (Question, error)
	// FirstActiveQuestion returns the active question with the lowest sort
	// order, or ErrNotFound when the scenario has no active questions.
	FirstActiveQuestion(ctx context.Context, scenarioID string) (Question, error)
	// NextActiveQuestion returns the active question with the lowest sort
	// order strictly greater than afterSort, or ErrNotFound.
	NextActiveQuestion(ctx context.Context, scenarioID string, afterSort int) (Question, error)
	ListQuestions(ctx context.Context, scenarioID string) ([]Question, error)

	ListEndingGuidance(ctx context.Context, scenarioID string) ([]EndingGuidance, error)

	GetPhoneNumber(ctx context.Context, number string) (PhoneNumber, error)
	ListPhoneNumbers(ctx context.Context) ([]PhoneNumber, error)
}
