package survey

import "time"

// Scenario is one survey definition: the spoken script plus its questions and
// closing statements. A scenario can be bound to any number of phone numbers.
//
// Routing invariant: an inactive or soft-deleted scenario must be treated as
// not found when resolving an inbound call.
type Scenario struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	GreetingText   string `json:"greeting_text" db:"greeting_text"`
	DisclaimerText string `json:"disclaimer_text,omitempty" db:"disclaimer_text"`

	// QuestionGuidanceText is spoken between the disclaimer and the first
	// question. Empty falls back to DefaultQuestionGuidance.
	QuestionGuidanceText string `json:"question_guidance_text,omitempty" db:"question_guidance_text"`

	Active    bool       `json:"active" db:"active"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Routable reports whether calls may be routed to this scenario.
func (s Scenario) Routable() bool {
	return s.Active && s.DeletedAt == nil
}

// GuidanceText returns the question guidance with the fixed fallback applied.
func (s Scenario) GuidanceText() string {
	if s.QuestionGuidanceText != "" {
		return s.QuestionGuidanceText
	}
	return DefaultQuestionGuidance
}

// DefaultQuestionGuidance is spoken when a scenario has no guidance of its own.
const DefaultQuestionGuidance = "このあと何点か質問をさせていただきます。回答が済みましたらシャープを押して次に進んでください"

// Question belongs to one scenario. Only active questions participate in the
// call flow; their order is sort order ascending. Sort orders need not be
// contiguous.
type Question struct {
	ID         string `json:"id" db:"id"`
	ScenarioID string `json:"scenario_id" db:"scenario_id"`
	Text       string `json:"text" db:"text"`
	SortOrder  int    `json:"sort_order" db:"sort_order"`
	Active     bool   `json:"active" db:"active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EndingGuidance is one closing statement read at the end of a call,
// ordered by sort order ascending.
type EndingGuidance struct {
	ID         string `json:"id" db:"id"`
	ScenarioID string `json:"scenario_id" db:"scenario_id"`
	Text       string `json:"text" db:"text"`
	SortOrder  int    `json:"sort_order" db:"sort_order"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PhoneNumber binds a dialed number to exactly one scenario.
// Number is the primary key; operators are inconsistent about punctuation,
// so lookups must tolerate formatting differences (see routing.Resolver).
type PhoneNumber struct {
	Number     string `json:"number" db:"number"`
	ScenarioID string `json:"scenario_id" db:"scenario_id"`
	Label      string `json:"label,omitempty" db:"label"`
	Active     bool   `json:"active" db:"active"`
}
