package grading

import "github.com/mind-engage/mindengage-numeric/internal/numeric"

// AnswerType names the notation an input-number widget expects.
type AnswerType string

const (
	AnswerNumber   AnswerType = "number"
	AnswerInteger  AnswerType = "integer"
	AnswerDecimal  AnswerType = "decimal"
	AnswerRational AnswerType = "rational"
	AnswerImproper AnswerType = "improper"
	AnswerMixed    AnswerType = "mixed"
	AnswerPi       AnswerType = "pi"
)

// Forms returns the strict form set for t; nil means any form is accepted.
func (t AnswerType) Forms() []numeric.Form {
	switch t {
	case AnswerInteger:
		return []numeric.Form{numeric.FormInteger}
	case AnswerDecimal:
		return []numeric.Form{numeric.FormDecimal}
	case AnswerRational:
		return []numeric.Form{numeric.FormInteger, numeric.FormProper, numeric.FormImproper, numeric.FormMixed}
	case AnswerImproper:
		return []numeric.Form{numeric.FormInteger, numeric.FormProper, numeric.FormImproper}
	case AnswerMixed:
		return []numeric.Form{numeric.FormInteger, numeric.FormProper, numeric.FormMixed}
	case AnswerPi:
		return []numeric.Form{numeric.FormPi}
	default:
		return nil
	}
}

// SingleAnswer is the configuration of an input-number widget: one correct
// value rather than a list of candidates.
type SingleAnswer struct {
	Value      float64    `json:"value" yaml:"value"`
	Simplify   Simplify   `json:"simplify" yaml:"simplify"`
	Inexact    bool       `json:"inexact" yaml:"inexact"`
	MaxError   float64    `json:"max_error" yaml:"max_error"`
	AnswerType AnswerType `json:"answer_type" yaml:"answer_type"`
}

// Candidate expresses s as a single correct candidate. MaxError only
// applies when Inexact is set.
func (s SingleAnswer) Candidate() Candidate {
	v := s.Value
	c := Candidate{
		Value:    &v,
		Status:   StatusCorrect,
		Simplify: s.Simplify,
	}
	if forms := s.AnswerType.Forms(); forms != nil {
		c.AnswerForms = forms
		c.Strict = true
	}
	if s.Inexact && s.MaxError > 0 {
		e := s.MaxError
		c.MaxError = &e
	}
	return c
}
