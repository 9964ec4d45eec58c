package grading

import "github.com/mind-engage/mindengage-numeric/internal/numeric"

// Resolver picks the candidate a guess matches and turns it into a verdict.
//
// Correct candidates are tried first, in order; the first one that accepts
// the guess, or cannot decide because the guess is blank, wins. Only when
// none does are ungraded and then wrong candidates consulted, so a wrong
// candidate can never override a correct one. Within a phase the earliest
// candidate wins.
type Resolver struct {
	factory *MatcherFactory
}

func NewResolver(f *MatcherFactory) *Resolver {
	if f == nil {
		f = NewMatcherFactory(nil, Options{})
	}
	return &Resolver{factory: f}
}

// Resolve grades guess against candidates. It does not modify candidates.
func (r *Resolver) Resolve(candidates []Candidate, guess string) Verdict {
	return VerdictFor(r.Outcome(candidates, guess))
}

// Outcome is Resolve before the verdict mapping.
func (r *Resolver) Outcome(candidates []Candidate, guess string) Outcome {
	opts := r.factory.Options()
	switch v := numeric.Parse(opts.prepare(guess)); v.Kind {
	case numeric.KindEmpty:
		if !opts.AllowEmpty {
			return Outcome{Empty: true, Message: EmptyMessage(opts.forms()), Guess: guess}
		}
	case numeric.KindInvalid:
		return Outcome{Empty: true, Message: UnrecognizedMessage(opts.forms()), Guess: guess}
	}

	for _, c := range withStatus(candidates, StatusCorrect) {
		out := r.factory.Build(c)(guess)
		if out.Correct || out.Empty {
			return out
		}
	}

	rest := append(withStatus(candidates, StatusUngraded), withStatus(candidates, StatusWrong)...)
	for _, c := range rest {
		if out := r.factory.Build(c)(guess); out.Correct {
			return Outcome{
				Correct: c.Status == StatusCorrect,
				Empty:   c.Status == StatusUngraded,
				Message: c.Message,
				Guess:   guess,
			}
		}
	}
	return Outcome{Guess: guess}
}

func withStatus(list []Candidate, s Status) []Candidate {
	var out []Candidate
	for _, c := range list {
		if c.Status == s {
			out = append(out, c)
		}
	}
	return out
}
