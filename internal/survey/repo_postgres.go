package survey

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo reads survey definitions from Postgres.
//
// Assumed tables: scenarios, questions, ending_guidances, phone_numbers.
// Schema evolution is handled by migrations outside this package.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) GetScenario(ctx context.Context, id string) (Scenario, error) {
	const q = `
SELECT id, name, greeting_text, disclaimer_text, question_guidance_text, active, deleted_at, created_at, updated_at
FROM scenarios
WHERE id = $1
`
	return scanScenario(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) ListScenarios(ctx context.Context) ([]Scenario, error) {
	const q = `
SELECT id, name, greeting_text, disclaimer_text, question_guidance_text, active, deleted_at, created_at, updated_at
FROM scenarios
WHERE deleted_at IS NULL
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Scenario
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetQuestion(ctx context.Context, id string) (Question, error) {
	const q = `
SELECT id, scenario_id, text, sort_order, active, created_at, updated_at
FROM questions
WHERE id = $1
`
	return scanQuestion(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) FirstActiveQuestion(ctx context.Context, scenarioID string) (Question, error) {
	const q = `
SELECT id, scenario_id, text, sort_order, active, created_at, updated_at
FROM questions
WHERE scenario_id = $1 AND active
ORDER BY sort_order
LIMIT 1
`
	return scanQuestion(r.db.QueryRowContext(ctx, q, scenarioID))
}

func (r *PostgresRepo) NextActiveQuestion(ctx context.Context, scenarioID string, afterSort int) (Question, error) {
	const q = `
SELECT id, scenario_id, text, sort_order, active, created_at, updated_at
FROM questions
WHERE scenario_id = $1 AND active AND sort_order > $2
ORDER BY sort_order
LIMIT 1
`
	return scanQuestion(r.db.QueryRowContext(ctx, q, scenarioID, afterSort))
}

func (r *PostgresRepo) ListQuestions(ctx context.Context, scenarioID string) ([]Question, error) {
	const q = `
SELECT id, scenario_id, text, sort_order, active, created_at, updated_at
FROM questions
WHERE scenario_id = $1
ORDER BY sort_order
`
	rows, err := r.db.QueryContext(ctx, q, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		qu, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, qu)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListEndingGuidance(ctx context.Context, scenarioID string) ([]EndingGuidance, error) {
	const q = `
SELECT id, scenario_id, text, sort_order, created_at
FROM ending_guidances
WHERE scenario_id = $1
ORDER BY sort_order
`
	rows, err := r.db.QueryContext(ctx, q, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EndingGuidance
	for rows.Next() {
		var g EndingGuidance
		if err := rows.Scan(&g.ID, &g.ScenarioID, &g.Text, &g.SortOrder, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetPhoneNumber(ctx context.Context, number string) (PhoneNumber, error) {
	const q = `
SELECT number, scenario_id, label, active
FROM phone_numbers
WHERE number = $1
`
	var p PhoneNumber
	if err := r.db.QueryRowContext(ctx, q, number).Scan(&p.Number, &p.ScenarioID, &p.Label, &p.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PhoneNumber{}, ErrNotFound
		}
		return PhoneNumber{}, err
	}
	return p, nil
}

func (r *PostgresRepo) ListPhoneNumbers(ctx context.Context) ([]PhoneNumber, error) {
	const q = `
SELECT number, scenario_id, label, active
FROM phone_numbers
ORDER BY number
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PhoneNumber
	for rows.Next() {
		var p PhoneNumber
		if err := rows.Scan(&p.Number, &p.ScenarioID, &p.Label, &p.Active); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScenario(row rowScanner) (Scenario, error) {
	var s Scenario
	var disclaimer, guidance sql.NullString
	err := row.Scan(&s.ID, &s.Name, &s.GreetingText, &disclaimer, &guidance, &s.Active, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Scenario{}, ErrNotFound
		}
		return Scenario{}, err
	}
	s.DisclaimerText = disclaimer.String
	s.QuestionGuidanceText = guidance.String
	return s, nil
}

func scanQuestion(row rowScanner) (Question, error) {
	var q Question
	err := row.Scan(&q.ID, &q.ScenarioID, &q.Text, &q.SortOrder, &q.Active, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, err
	}
	return q, nil
}
