package survey

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu        sync.RWMutex
	scenarios map[string]Scenario
	questions map[string]Question
	endings   []EndingGuidance
	numbers   map[string]PhoneNumber
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		scenarios: map[string]Scenario{},
		questions: map[string]Question{},
		numbers:   map[string]PhoneNumber{},
	}
}

func (r *MemoryRepo) AddScenario(s Scenario) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenarios[s.ID] = s
}

func (r *MemoryRepo) AddQuestion(q Question) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions[q.ID] = q
}

func (r *MemoryRepo) AddEndingGuidance(g EndingGuidance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endings = append(r.endings, g)
}

func (r *MemoryRepo) AddPhoneNumber(p PhoneNumber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.numbers[p.Number] = p
}

func (r *MemoryRepo) GetScenario(ctx context.Context, id string) (Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scenarios[id]
	if !ok {
		return Scenario{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) ListScenarios(ctx context.Context) ([]Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scenario, 0, len(r.scenarios))
	for _, s := range r.scenarios {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepo) GetQuestion(ctx context.Context, id string) (Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[id]
	if !ok {
		return Question{}, ErrNotFound
	}
	return q, nil
}

func (r *MemoryRepo) FirstActiveQuestion(ctx context.Context, scenarioID string) (Question, error) {
	return r.nextActive(scenarioID, -1<<31)
}

func (r *MemoryRepo) NextActiveQuestion(ctx context.Context, scenarioID string, afterSort int) (Question, error) {
	return r.nextActive(scenarioID, afterSort)
}

func (r *MemoryRepo) nextActive(scenarioID string, afterSort int) (Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best Question
	found := false
	for _, q := range r.questions {
		if q.ScenarioID != scenarioID || !q.Active || q.SortOrder <= afterSort {
			continue
		}
		if !found || q.SortOrder < best.SortOrder {
			best = q
			found = true
		}
	}
	if !found {
		return Question{}, ErrNotFound
	}
	return best, nil
}

func (r *MemoryRepo) ListQuestions(ctx context.Context, scenarioID string) ([]Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Question
	for _, q := range r.questions {
		if q.ScenarioID == scenarioID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *MemoryRepo) ListEndingGuidance(ctx context.Context, scenarioID string) ([]EndingGuidance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []EndingGuidance
	for _, g := range r.endings {
		if g.ScenarioID == scenarioID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *MemoryRepo) GetPhoneNumber(ctx context.Context, number string) (PhoneNumber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.numbers[number]
	if !ok {
		return PhoneNumber{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) ListPhoneNumbers(ctx context.Context) ([]PhoneNumber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PhoneNumber, 0, len(r.numbers))
	for _, p := range r.numbers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}
