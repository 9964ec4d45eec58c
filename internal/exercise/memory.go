package exercise

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-numeric/internal/authoring"
	"github.com/mind-engage/mindengage-numeric/internal/grading"
)

// memoryStore keeps everything in process; used offline and in tests.
type memoryStore struct {
	mu        sync.RWMutex
	opts      options
	exercises map[string]Exercise
	attempts  map[string]Attempt
}

func NewInMemoryStore(opts ...Option) Store {
	return &memoryStore{
		opts:      buildOptions(opts),
		exercises: map[string]Exercise{},
		attempts:  map[string]Attempt{},
	}
}

func (m *memoryStore) PutExercise(_ context.Context, e Exercise) (Exercise, error) {
	e = cloneExercise(e)
	e.Normalize()
	if err := e.Validate(); err != nil {
		return Exercise{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if prev, ok := m.exercises[e.ID]; ok {
		e.CreatedAt = prev.CreatedAt
	} else {
		e.CreatedAt = time.Now().Unix()
	}
	m.exercises[e.ID] = cloneExercise(e)
	return e, nil
}

func (m *memoryStore) GetExercise(ctx context.Context, id string) (Exercise, error) {
	e, err := m.GetExerciseAdmin(ctx, id)
	if err != nil {
		return Exercise{}, err
	}
	return e.LearnerView(), nil
}

func (m *memoryStore) GetExerciseAdmin(_ context.Context, id string) (Exercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exercises[id]
	if !ok {
		return Exercise{}, fmt.Errorf("exercise %s: %w", id, ErrNotFound)
	}
	return cloneExercise(e), nil
}

func (m *memoryStore) ListExercises(_ context.Context, opts ListOpts) ([]ExerciseSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(opts.Q))
	out := make([]ExerciseSummary, 0, len(m.exercises))
	for _, e := range m.exercises {
		if q != "" && !strings.Contains(strings.ToLower(e.Title), q) {
			continue
		}
		out = append(out, ExerciseSummary{ID: e.ID, Title: e.Title, Widgets: len(e.Widgets), CreatedAt: e.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) UpdateAnswers(_ context.Context, exerciseID, widgetID string, committed []grading.Candidate) (Widget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exercises[exerciseID]
	if !ok {
		return Widget{}, fmt.Errorf("exercise %s: %w", exerciseID, ErrNotFound)
	}
	e = cloneExercise(e)
	w, err := replaceAnswers(&e, widgetID, committed)
	if err != nil {
		return Widget{}, err
	}
	m.exercises[exerciseID] = e
	return w, nil
}

func (m *memoryStore) NewAttempt(_ context.Context, exerciseID, userID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exercises[exerciseID]; !ok {
		return Attempt{}, fmt.Errorf("exercise %s: %w", exerciseID, ErrNotFound)
	}
	a := Attempt{
		ID:         uuid.NewString(),
		ExerciseID: exerciseID,
		UserID:     userID,
		Status:     AttemptInProgress,
		Responses:  map[string]string{},
		StartedAt:  time.Now().Unix(),
	}
	m.attempts[a.ID] = a
	return cloneAttempt(a), nil
}

func (m *memoryStore) SaveResponses(_ context.Context, attemptID string, resp map[string]string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, fmt.Errorf("attempt %s: %w", attemptID, ErrNotFound)
	}
	if a.Status == AttemptSubmitted {
		return Attempt{}, ErrSubmitted
	}
	a = cloneAttempt(a)
	if err := mergeResponses(m.exercises[a.ExerciseID], a.Responses, resp); err != nil {
		return Attempt{}, err
	}
	m.attempts[attemptID] = a
	return cloneAttempt(a), nil
}

func (m *memoryStore) Submit(ctx context.Context, attemptID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, fmt.Errorf("attempt %s: %w", attemptID, ErrNotFound)
	}
	if a.Status == AttemptSubmitted {
		return cloneAttempt(a), nil
	}
	verdicts, score, total, err := scoreAttempt(ctx, m.opts.grader, m.exercises[a.ExerciseID], a.Responses)
	if err != nil {
		return Attempt{}, err
	}
	a = cloneAttempt(a)
	a.Verdicts = verdicts
	a.Score = score
	a.MaxScore = total
	a.Status = AttemptSubmitted
	a.SubmittedAt = time.Now().Unix()
	m.attempts[attemptID] = a
	return cloneAttempt(a), nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, fmt.Errorf("attempt %s: %w", id, ErrNotFound)
	}
	return cloneAttempt(a), nil
}

// replaceAnswers stores the normalized committed list on widget widgetID of e.
func replaceAnswers(e *Exercise, widgetID string, committed []grading.Candidate) (Widget, error) {
	for i, w := range e.Widgets {
		if w.ID != widgetID {
			continue
		}
		if w.Numeric == nil {
			return Widget{}, fmt.Errorf("widget %s: %w", widgetID, ErrNotNumericInput)
		}
		answers := authoring.Normalize(committed)
		if err := validateAnswers(widgetID, answers); err != nil {
			return Widget{}, err
		}
		w.Numeric.Answers = answers
		e.Widgets[i] = w
		return w, nil
	}
	return Widget{}, fmt.Errorf("%w: %s", ErrUnknownWidget, widgetID)
}

func page[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func cloneExercise(e Exercise) Exercise {
	out := e
	out.Widgets = make([]Widget, len(e.Widgets))
	for i, w := range e.Widgets {
		if w.Numeric != nil {
			n := *w.Numeric
			n.Answers = grading.CloneAll(w.Numeric.Answers)
			n.AnswerForms = append(n.AnswerForms[:0:0], w.Numeric.AnswerForms...)
			w.Numeric = &n
		}
		if w.Single != nil {
			s := *w.Single
			w.Single = &s
		}
		out.Widgets[i] = w
	}
	return out
}

func cloneAttempt(a Attempt) Attempt {
	out := a
	out.Responses = make(map[string]string, len(a.Responses))
	for k, v := range a.Responses {
		out.Responses[k] = v
	}
	if a.Verdicts != nil {
		out.Verdicts = make(map[string]grading.Verdict, len(a.Verdicts))
		for k, v := range a.Verdicts {
			out.Verdicts[k] = v
		}
	}
	return out
}
