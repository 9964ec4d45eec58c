package exercise

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-numeric/internal/grading"
	syncx "github.com/mind-engage/mindengage-numeric/internal/sync"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalid         = errors.New("invalid exercise")
	ErrSubmitted       = errors.New("attempt already submitted")
	ErrUnknownWidget   = errors.New("unknown widget")
	ErrNotNumericInput = errors.New("widget has no candidate list")
)

type ListOpts struct {
	Q      string // case-insensitive title filter
	Limit  int
	Offset int
}

type Store interface {
	PutExercise(ctx context.Context, e Exercise) (Exercise, error)
	GetExercise(ctx context.Context, id string) (Exercise, error)      // learner-safe (no answers)
	GetExerciseAdmin(ctx context.Context, id string) (Exercise, error) // full exercise, for authors
	ListExercises(ctx context.Context, opts ListOpts) ([]ExerciseSummary, error)

	// UpdateAnswers replaces the candidate list of a numeric-input widget.
	// The list is normalized before it is stored.
	UpdateAnswers(ctx context.Context, exerciseID, widgetID string, committed []grading.Candidate) (Widget, error)

	NewAttempt(ctx context.Context, exerciseID, userID string) (Attempt, error)
	SaveResponses(ctx context.Context, attemptID string, resp map[string]string) (Attempt, error)
	Submit(ctx context.Context, attemptID string) (Attempt, error)
	GetAttempt(ctx context.Context, id string) (Attempt, error)
}

// Option configures a Store.
type Option func(*options)

type options struct {
	grader grading.Grader
	events *syncx.EventRepo
	log    *zap.Logger
}

// WithGrader sets the engine used on submit. Defaults to grading.NewDefaultGrader().
func WithGrader(g grading.Grader) Option { return func(o *options) { o.grader = g } }

// WithEvents records answer edits and submissions. Only the SQL store uses it.
func WithEvents(r *syncx.EventRepo) Option { return func(o *options) { o.events = r } }

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}
	if o.grader == nil {
		o.grader = grading.NewDefaultGrader(grading.WithLogger(o.log))
	}
	return o
}
