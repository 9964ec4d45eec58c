package grading

import (
	"strings"

	"github.com/mind-engage/mindengage-numeric/internal/numeric"
)

// Options are the grading-context settings shared by every candidate of a
// widget.
type Options struct {
	// Forms offered by the widget. Used for hints, and as the allowed set
	// for candidates that are not strict.
	Forms []numeric.Form
	// AllowEmpty lets a blank guess be scored instead of rejected.
	AllowEmpty bool
	// Coefficient reads a blank guess as 1 and a lone "-" as -1.
	Coefficient bool
}

func (o Options) forms() []numeric.Form {
	if len(o.Forms) == 0 {
		return numeric.AllForms
	}
	return o.Forms
}

// prepare applies coefficient mode to raw guess text.
func (o Options) prepare(guess string) string {
	if !o.Coefficient {
		return guess
	}
	switch strings.TrimSpace(guess) {
	case "", "+":
		return "1"
	case "-", "−":
		return "-1"
	}
	return guess
}

// Matcher tests a guess against the candidate it was built for.
type Matcher func(guess string) Outcome

// MatcherFactory turns candidates into matchers.
type MatcherFactory struct {
	eq   Equivalence
	opts Options
}

// NewMatcherFactory uses NumericEquivalence when eq is nil.
func NewMatcherFactory(eq Equivalence, opts Options) *MatcherFactory {
	if eq == nil {
		eq = NumericEquivalence{}
	}
	return &MatcherFactory{eq: eq, opts: opts}
}

func (f *MatcherFactory) Options() Options { return f.opts }

// Build returns a matcher for c. A candidate without a value never matches.
func (f *MatcherFactory) Build(c Candidate) Matcher {
	forms := f.opts.forms()
	strict := c.Strict && len(c.AnswerForms) > 0
	if strict {
		forms = c.AnswerForms
	}

	var validate Validator
	if c.Value != nil {
		maxError := 0.0
		if c.MaxError != nil && *c.MaxError > 0 {
			maxError = *c.MaxError
		}
		validate = f.eq.CreateValidator(*c.Value, CheckOptions{
			Simplify: c.EffectiveSimplify(),
			MaxError: maxError,
			Forms:    forms,
			Strict:   strict,
		})
	}

	return func(guess string) Outcome {
		text := f.opts.prepare(guess)
		if !f.opts.AllowEmpty && numeric.Parse(text).IsEmpty() {
			return Outcome{Empty: true, Message: EmptyMessage(forms), Guess: guess}
		}
		if validate == nil {
			return Outcome{Guess: guess}
		}
		out := validate(text)
		out.Guess = guess
		if out.Correct {
			out.Message = joinMessages(out.Message, c.Message)
		}
		return out
	}
}

func joinMessages(parts ...string) string {
	keep := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keep = append(keep, p)
		}
	}
	return strings.Join(keep, "\n\n")
}
