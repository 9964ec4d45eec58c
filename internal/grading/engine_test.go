package grading

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-numeric/internal/numeric"
)

func TestGrader_NumericInput(t *testing.T) {
	g := NewDefaultGrader(WithLogger(zap.NewNop()))
	q := Q{
		Type: TypeNumericInput,
		Answers: []Candidate{
			{Value: val(0.5), Status: StatusCorrect, Message: "Nice"},
			{Value: val(2), Status: StatusWrong, Message: "Flipped"},
		},
	}
	v, err := g.Grade(context.Background(), q, "1/2")
	require.NoError(t, err)
	assert.Equal(t, Points(1, "Nice"), v)

	v, err = g.Grade(context.Background(), q, "2")
	require.NoError(t, err)
	assert.Equal(t, Points(0, "Flipped"), v)
}

func TestGrader_InputNumber(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{
		Type:   TypeInputNumber,
		Single: &SingleAnswer{Value: 0.5, Simplify: SimplifyEnforced, AnswerType: AnswerRational},
	}
	cases := map[string]int{"1/2": 1, "2/4": 0, "0.5": 0}
	for guess, want := range cases {
		v, err := g.Grade(context.Background(), q, guess)
		require.NoError(t, err)
		assert.Equal(t, want, v.Earned, "guess %q", guess)
	}

	q.Single = &SingleAnswer{Value: 3.14159, Inexact: true, MaxError: 0.01}
	v, err := g.Grade(context.Background(), q, "3.14")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Earned)

	q.Single.Inexact = false
	v, err = g.Grade(context.Background(), q, "3.14")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Earned)

	q.Single = nil
	v, err = g.Grade(context.Background(), q, "1")
	require.NoError(t, err)
	assert.Equal(t, VerdictInvalid, v.Type)
}

func TestGrader_UnknownType(t *testing.T) {
	v, err := NewDefaultGrader().Grade(context.Background(), Q{Type: "essay"}, "x")
	require.NoError(t, err)
	assert.Equal(t, Invalid("no strategy available"), v)
}

func TestGrader_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDefaultGrader().Grade(ctx, Q{Type: TypeNumericInput}, "1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnswerType_Forms(t *testing.T) {
	assert.Nil(t, AnswerNumber.Forms())
	assert.Equal(t, []numeric.Form{numeric.FormPi}, AnswerPi.Forms())

	c := SingleAnswer{Value: 1, AnswerType: AnswerInteger}.Candidate()
	assert.True(t, c.Strict)
	assert.Nil(t, c.MaxError)
	assert.Equal(t, StatusCorrect, c.Status)
}

func TestNumericEquivalence_Messages(t *testing.T) {
	forms := []numeric.Form{numeric.FormMixed}
	validate := NumericEquivalence{}.CreateValidator(1.75, CheckOptions{Forms: forms, Strict: true})

	assert.Equal(t, Outcome{Correct: true, Guess: "1 3/4"}, validate("1 3/4"))
	assert.Equal(t, Outcome{Message: WrongFormMessage(forms), Guess: "1.75"}, validate("1.75"))
	assert.Equal(t, Outcome{Empty: true, Message: UnrecognizedMessage(forms), Guess: "1 3/"}, validate("1 3/"))
	assert.Equal(t, Outcome{Guess: ""}, validate(""))
}
