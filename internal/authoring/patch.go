package authoring

import (
	"bytes"
	"encoding/json"

	"github.com/mind-engage/mindengage-numeric/internal/grading"
	"github.com/mind-engage/mindengage-numeric/internal/numeric"
)

// OptionalFloat distinguishes "leave unchanged" (Set false) from "set to
// null" (Set true, Value nil) in a patch.
type OptionalFloat struct {
	Set   bool
	Value *float64
}

func SetFloat(v float64) OptionalFloat { return OptionalFloat{Set: true, Value: &v} }

// ClearFloat sets the field to null.
func ClearFloat() OptionalFloat { return OptionalFloat{Set: true} }

func (o *OptionalFloat) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Patch holds the fields of a candidate that an edit changes. Nil pointers
// and unset OptionalFloats leave the field as it is.
type Patch struct {
	Value       OptionalFloat     `json:"value"`
	Status      *grading.Status   `json:"status,omitempty"`
	Message     *string           `json:"message,omitempty"`
	Simplify    *grading.Simplify `json:"simplify,omitempty"`
	AnswerForms *[]numeric.Form   `json:"answerForms,omitempty"`
	Strict      *bool             `json:"strict,omitempty"`
	MaxError    OptionalFloat     `json:"maxError"`
}

// apply returns c with p merged in; c itself is not modified.
func (p Patch) apply(c grading.Candidate) grading.Candidate {
	out := c.Clone()
	if p.Value.Set {
		out.Value = copyFloat(p.Value.Value)
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Message != nil {
		out.Message = *p.Message
	}
	if p.Simplify != nil {
		out.Simplify = *p.Simplify
	}
	if p.AnswerForms != nil {
		out.AnswerForms = append([]numeric.Form{}, (*p.AnswerForms)...)
	}
	if p.Strict != nil {
		out.Strict = *p.Strict
	}
	if p.MaxError.Set {
		out.MaxError = copyFloat(p.MaxError.Value)
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
