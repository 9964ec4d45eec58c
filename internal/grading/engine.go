package grading

import (
	"context"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-numeric/internal/numeric"
)

// Widget types with a grading strategy.
const (
	TypeNumericInput = "numeric-input"
	TypeInputNumber  = "input-number"
)

// Q is a minimal view of a widget needed for grading.
// Keep this in sync with whatever fields the exercise store uses.
type Q struct {
	Type        string
	Answers     []Candidate    // numeric-input
	Single      *SingleAnswer  // input-number
	Forms       []numeric.Form // offered forms; empty means all
	AllowEmpty  bool
	Coefficient bool
}

// Strategy grades a single widget.
type Strategy interface {
	Grade(ctx context.Context, q Q, guess string) (Verdict, error)
}

// Grader routes by widget type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, guess string) (Verdict, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
	log        *zap.Logger
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, guess string) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}
	s, ok := g.strategies[q.Type]
	if !ok {
		g.log.Warn("no grading strategy", zap.String("type", q.Type))
		return Invalid("no strategy available"), nil
	}
	v, err := s.Grade(ctx, q, guess)
	if err != nil {
		return Verdict{}, err
	}
	g.log.Debug("graded",
		zap.String("type", q.Type),
		zap.String("guess", guess),
		zap.String("verdict", string(v.Type)),
		zap.Int("earned", v.Earned))
	return v, nil
}

// Engine options

type Option func(*config)

type config struct {
	Equivalence Equivalence
	Logger      *zap.Logger
}

func WithEquivalence(eq Equivalence) Option { return func(c *config) { c.Equivalence = eq } }
func WithLogger(l *zap.Logger) Option       { return func(c *config) { c.Logger = l } }

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{
		Equivalence: NumericEquivalence{},
		Logger:      zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		log: cfg.Logger,
		strategies: map[string]Strategy{
			TypeNumericInput: numericInputStrategy{eq: cfg.Equivalence},
			TypeInputNumber:  inputNumberStrategy{eq: cfg.Equivalence},
		},
	}
}

// --- Strategies ---

type numericInputStrategy struct{ eq Equivalence }

func (s numericInputStrategy) Grade(_ context.Context, q Q, guess string) (Verdict, error) {
	f := NewMatcherFactory(s.eq, Options{Forms: q.Forms, AllowEmpty: q.AllowEmpty, Coefficient: q.Coefficient})
	return NewResolver(f).Resolve(q.Answers, guess), nil
}

type inputNumberStrategy struct{ eq Equivalence }

func (s inputNumberStrategy) Grade(_ context.Context, q Q, guess string) (Verdict, error) {
	if q.Single == nil {
		return Invalid("no answer configured"), nil
	}
	c := q.Single.Candidate()
	f := NewMatcherFactory(s.eq, Options{Forms: c.AnswerForms, AllowEmpty: q.AllowEmpty})
	return NewResolver(f).Resolve([]Candidate{c}, guess), nil
}
