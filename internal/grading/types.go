package grading

import (
	"encoding/json"
	"fmt"

	"github.com/mind-engage/mindengage-numeric/internal/numeric"
)

// Status is how an author classified a candidate answer.
type Status string

const (
	StatusCorrect  Status = "correct"
	StatusUngraded Status = "ungraded"
	StatusWrong    Status = "wrong"
)

// Statuses lists every status in grading priority order.
var Statuses = []Status{StatusCorrect, StatusUngraded, StatusWrong}

func (s Status) Valid() bool {
	switch s {
	case StatusCorrect, StatusUngraded, StatusWrong:
		return true
	}
	return false
}

// Rank is the bucket index used when ordering candidates. Unknown values
// rank after every known status.
func (s Status) Rank() int {
	switch s {
	case StatusCorrect:
		return 0
	case StatusUngraded:
		return 1
	case StatusWrong:
		return 2
	}
	return len(Statuses)
}

func (s *Status) UnmarshalText(b []byte) error {
	v := Status(b)
	if !v.Valid() {
		return fmt.Errorf("unknown status %q", string(b))
	}
	*s = v
	return nil
}

// Simplify is the policy for a guess that is numerically right but not in
// lowest terms.
type Simplify string

const (
	SimplifyRequired Simplify = "required" // correct, flagged for resubmission
	SimplifyOptional Simplify = "optional" // correct
	SimplifyEnforced Simplify = "enforced" // not correct
)

func (s Simplify) Valid() bool {
	switch s {
	case SimplifyRequired, SimplifyOptional, SimplifyEnforced:
		return true
	}
	return false
}

// UnmarshalText also accepts "accepted", the older name for optional, and
// leaves an empty value unset.
func (s *Simplify) UnmarshalText(b []byte) error {
	switch v := Simplify(b); {
	case v == "":
		*s = ""
	case v == "accepted":
		*s = SimplifyOptional
	case v.Valid():
		*s = v
	default:
		return fmt.Errorf("unknown simplify policy %q", string(b))
	}
	return nil
}

// Candidate is one author-defined answer a guess may match.
type Candidate struct {
	Value       *float64       `json:"value" yaml:"value"`
	Status      Status         `json:"status" yaml:"status"`
	Message     string         `json:"message" yaml:"message"`
	Simplify    Simplify       `json:"simplify" yaml:"simplify"`
	AnswerForms []numeric.Form `json:"answerForms" yaml:"answerForms"`
	Strict      bool           `json:"strict" yaml:"strict"`
	MaxError    *float64       `json:"maxError" yaml:"maxError"`
}

// EffectiveSimplify is the policy actually applied: only correct candidates
// honor Simplify, and an unset policy on a correct candidate is required.
func (c Candidate) EffectiveSimplify() Simplify {
	if c.Status != StatusCorrect {
		return SimplifyOptional
	}
	if c.Simplify == "" {
		return SimplifyRequired
	}
	return c.Simplify
}

// Clone returns a deep copy.
func (c Candidate) Clone() Candidate {
	out := c
	out.Value = copyFloat(c.Value)
	out.MaxError = copyFloat(c.MaxError)
	if c.AnswerForms != nil {
		out.AnswerForms = append([]numeric.Form(nil), c.AnswerForms...)
	}
	return out
}

func CloneAll(list []Candidate) []Candidate {
	if list == nil {
		return nil
	}
	out := make([]Candidate, len(list))
	for i, c := range list {
		out[i] = c.Clone()
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// Outcome is the result of testing one guess against one candidate.
// Empty means no decision could be made; it becomes an invalid verdict.
type Outcome struct {
	Correct bool   `json:"correct"`
	Empty   bool   `json:"empty"`
	Message string `json:"message,omitempty"`
	Guess   string `json:"guess"`
}

type VerdictType string

const (
	VerdictInvalid VerdictType = "invalid"
	VerdictPoints  VerdictType = "points"
)

// Verdict is the final grading decision shown to the learner.
type Verdict struct {
	Type    VerdictType
	Earned  int
	Total   int
	Message string
}

func Invalid(message string) Verdict {
	return Verdict{Type: VerdictInvalid, Message: message}
}

func Points(earned int, message string) Verdict {
	return Verdict{Type: VerdictPoints, Earned: earned, Total: 1, Message: message}
}

// VerdictFor maps a chosen outcome to a verdict.
func VerdictFor(o Outcome) Verdict {
	if o.Empty {
		return Invalid(o.Message)
	}
	earned := 0
	if o.Correct {
		earned = 1
	}
	return Points(earned, o.Message)
}

type wireVerdict struct {
	Type    VerdictType `json:"type"`
	Earned  *int        `json:"earned,omitempty"`
	Total   *int        `json:"total,omitempty"`
	Message *string     `json:"message"`
}

// MarshalJSON writes {"type":"invalid","message":...} or
// {"type":"points","earned":...,"total":...,"message":...}; an absent
// message is null.
func (v Verdict) MarshalJSON() ([]byte, error) {
	w := wireVerdict{Type: v.Type}
	if v.Message != "" {
		msg := v.Message
		w.Message = &msg
	}
	if v.Type == VerdictPoints {
		earned, total := v.Earned, v.Total
		w.Earned, w.Total = &earned, &total
	}
	return json.Marshal(w)
}

func (v *Verdict) UnmarshalJSON(b []byte) error {
	var w wireVerdict
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch w.Type {
	case VerdictInvalid, VerdictPoints:
	default:
		return fmt.Errorf("unknown verdict type %q", string(w.Type))
	}
	*v = Verdict{Type: w.Type}
	if w.Earned != nil {
		v.Earned = *w.Earned
	}
	if w.Total != nil {
		v.Total = *w.Total
	}
	if w.Message != nil {
		v.Message = *w.Message
	}
	return nil
}
