package grading

import (
	"fmt"
	"math"

	"github.com/mind-engage/mindengage-numeric/internal/numeric"
)

// CheckOptions configures one validator built by an Equivalence.
type CheckOptions struct {
	Simplify Simplify
	MaxError float64        // absolute tolerance; zero means exact
	Forms    []numeric.Form // forms the guess may be written in
	Strict   bool           // when false Forms is advisory only
}

// Validator tests one guess. Implementations never fail: bad input is
// reported through the Outcome.
type Validator func(guess string) Outcome

// Equivalence decides whether a guess is numerically the target. It owns the
// arithmetic; the resolver only orchestrates calls to it.
type Equivalence interface {
	CreateValidator(target float64, opts CheckOptions) Validator
}

// EquivalenceFunc adapts a plain function to Equivalence.
type EquivalenceFunc func(target float64, opts CheckOptions) Validator

func (f EquivalenceFunc) CreateValidator(target float64, opts CheckOptions) Validator {
	return f(target, opts)
}

// epsilon is the relative slack allowed under exact comparison, so that
// "1/3" equals a stored 0.3333333333333333.
const epsilon = 1e-9

// Messages surfaced to the learner.
const (
	MsgNotSimplified = "Your answer is correct, but it is not fully simplified. Simplify it before you submit."
	MsgMustSimplify  = "Your answer must be fully simplified."
)

func EmptyMessage(forms []numeric.Form) string {
	return fmt.Sprintf("Enter an answer first. Your answer should be %s.", numeric.ExampleText(forms))
}

func UnrecognizedMessage(forms []numeric.Form) string {
	return fmt.Sprintf("We could not understand your answer. Your answer should be %s.", numeric.ExampleText(forms))
}

func WrongFormMessage(forms []numeric.Form) string {
	return fmt.Sprintf("Your answer should be written as %s.", numeric.ExampleText(forms))
}

// NumericEquivalence compares guesses with the notations understood by the
// numeric package, honoring tolerance, simplification and strict forms.
type NumericEquivalence struct{}

func (NumericEquivalence) CreateValidator(target float64, opts CheckOptions) Validator {
	return func(guess string) Outcome {
		r := numeric.Read(guess)
		switch r.Kind {
		case numeric.KindEmpty:
			// the caller decided blanks are allowed; a blank matches nothing
			return Outcome{Guess: guess}
		case numeric.KindInvalid:
			return Outcome{Empty: true, Message: UnrecognizedMessage(opts.Forms), Guess: guess}
		}

		if opts.Strict && !satisfiesAny(r, opts.Forms) {
			return Outcome{Message: WrongFormMessage(opts.Forms), Guess: guess}
		}
		if !within(r.Number, target, opts.MaxError) {
			return Outcome{Guess: guess}
		}
		if !r.Simplified {
			switch opts.Simplify {
			case SimplifyEnforced:
				return Outcome{Message: MsgMustSimplify, Guess: guess}
			case SimplifyRequired:
				return Outcome{Correct: true, Message: MsgNotSimplified, Guess: guess}
			}
		}
		return Outcome{Correct: true, Guess: guess}
	}
}

func satisfiesAny(r numeric.Reading, forms []numeric.Form) bool {
	for _, f := range forms {
		if r.Satisfies(f) {
			return true
		}
	}
	return false
}

func within(guess, target, maxError float64) bool {
	diff := math.Abs(guess - target)
	if maxError > 0 {
		return diff <= maxError+epsilon*math.Max(1, math.Abs(target))
	}
	return diff <= epsilon*math.Max(1, math.Abs(target))
}
