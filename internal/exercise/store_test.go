package exercise

import (
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-numeric/internal/db"
	"github.com/mind-engage/mindengage-numeric/internal/grading"
	"github.com/mind-engage/mindengage-numeric/internal/numeric"
	syncx "github.com/mind-engage/mindengage-numeric/internal/sync"
)

func val(f float64) *float64 { return &f }

func fixture() Exercise {
	return Exercise{
		ID:    "fractions-1",
		Title: "Halves and Pi",
		Widgets: []Widget{
			{
				ID:   "half",
				Type: grading.TypeNumericInput,
				Numeric: &NumericInputOptions{
					Answers: []grading.Candidate{
						{Value: val(0.5), Status: grading.StatusCorrect, Simplify: grading.SimplifyRequired},
						{Value: val(1), Status: grading.StatusWrong, Message: "Too big"},
					},
				},
			},
			{
				ID:     "pi",
				Type:   grading.TypeInputNumber,
				Single: &grading.SingleAnswer{Value: math.Pi, AnswerType: grading.AnswerPi},
			},
			{ID: "note", Type: "text", Raw: json.RawMessage(`{"body":"read me"}`)},
		},
	}
}

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })
	return NewSQLStore(dbh, string(db.DriverSQLite), WithEvents(syncx.NewEventRepo(dbh)))
}

func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewInMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, openSQLite(t)) })
}

func TestStore_ExerciseRoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		put, err := s.PutExercise(ctx, fixture())
		require.NoError(t, err)
		assert.NotZero(t, put.CreatedAt)

		admin, err := s.GetExerciseAdmin(ctx, "fractions-1")
		require.NoError(t, err)
		require.Len(t, admin.Widgets, 3)
		half, ok := admin.Widget("half")
		require.True(t, ok)
		assert.Equal(t, fixture().Widgets[0].Numeric.Answers, half.Numeric.Answers)
		assert.Equal(t, math.Pi, admin.Widgets[1].Single.Value)
		assert.JSONEq(t, `{"body":"read me"}`, string(admin.Widgets[2].Raw))

		learner, err := s.GetExercise(ctx, "fractions-1")
		require.NoError(t, err)
		assert.Nil(t, learner.Widgets[0].Numeric.Answers)
		assert.Zero(t, learner.Widgets[1].Single.Value)
		assert.Equal(t, grading.AnswerPi, learner.Widgets[1].Single.AnswerType)

		_, err = s.GetExercise(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_PutAssignsIDAndValidates(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		e := fixture()
		e.ID = ""
		put, err := s.PutExercise(ctx, e)
		require.NoError(t, err)
		assert.NotEmpty(t, put.ID)

		dup := fixture()
		dup.Widgets[1].ID = "half"
		_, err = s.PutExercise(ctx, dup)
		assert.Error(t, err)

		bad := fixture()
		bad.Widgets[0].Numeric.AnswerForms = []numeric.Form{"roman"}
		_, err = s.PutExercise(ctx, bad)
		assert.Error(t, err)
	})
}

func TestStore_ListExercises(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, err := s.PutExercise(ctx, fixture())
		require.NoError(t, err)
		other := Exercise{ID: "decimals", Title: "Decimals"}
		_, err = s.PutExercise(ctx, other)
		require.NoError(t, err)

		all, err := s.ListExercises(ctx, ListOpts{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		filtered, err := s.ListExercises(ctx, ListOpts{Q: "HALVES"})
		require.NoError(t, err)
		require.Len(t, filtered, 1)
		assert.Equal(t, "fractions-1", filtered[0].ID)
		assert.Equal(t, 3, filtered[0].Widgets)

		paged, err := s.ListExercises(ctx, ListOpts{Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Len(t, paged, 1)
	})
}

func TestStore_UpdateAnswersNormalizes(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, err := s.PutExercise(ctx, fixture())
		require.NoError(t, err)

		committed := []grading.Candidate{
			{Value: val(3), Status: grading.StatusWrong, Message: "three"},
			{Status: grading.StatusWrong}, // blank row
			{Value: val(0.25), Status: grading.StatusCorrect},
		}
		w, err := s.UpdateAnswers(ctx, "fractions-1", "half", committed)
		require.NoError(t, err)
		require.Len(t, w.Numeric.Answers, 2)
		assert.Equal(t, grading.StatusCorrect, w.Numeric.Answers[0].Status)

		admin, err := s.GetExerciseAdmin(ctx, "fractions-1")
		require.NoError(t, err)
		assert.Equal(t, w.Numeric.Answers, admin.Widgets[0].Numeric.Answers)

		_, err = s.UpdateAnswers(ctx, "fractions-1", "pi", committed)
		assert.ErrorIs(t, err, ErrNotNumericInput)
		_, err = s.UpdateAnswers(ctx, "fractions-1", "nope", committed)
		assert.ErrorIs(t, err, ErrUnknownWidget)
		_, err = s.UpdateAnswers(ctx, "missing", "half", committed)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_AttemptLifecycle(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, err := s.PutExercise(ctx, fixture())
		require.NoError(t, err)

		_, err = s.NewAttempt(ctx, "missing", "u1")
		assert.ErrorIs(t, err, ErrNotFound)

		a, err := s.NewAttempt(ctx, "fractions-1", "u1")
		require.NoError(t, err)
		assert.Equal(t, AttemptInProgress, a.Status)

		_, err = s.SaveResponses(ctx, a.ID, map[string]string{"ghost": "1"})
		assert.ErrorIs(t, err, ErrUnknownWidget)

		a, err = s.SaveResponses(ctx, a.ID, map[string]string{"half": "1"})
		require.NoError(t, err)
		a, err = s.SaveResponses(ctx, a.ID, map[string]string{"half": "2/4"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"half": "2/4"}, a.Responses)

		sub, err := s.Submit(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, AttemptSubmitted, sub.Status)
		assert.Equal(t, 1, sub.Score)
		assert.Equal(t, 2, sub.MaxScore)
		assert.Equal(t, grading.Points(1, grading.MsgNotSimplified), sub.Verdicts["half"])
		assert.Equal(t, grading.VerdictInvalid, sub.Verdicts["pi"].Type)
		assert.NotContains(t, sub.Verdicts, "note")

		_, err = s.SaveResponses(ctx, a.ID, map[string]string{"half": "1/2"})
		assert.ErrorIs(t, err, ErrSubmitted)

		again, err := s.Submit(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, sub.Score, again.Score)

		got, err := s.GetAttempt(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, sub.Verdicts, got.Verdicts)
		assert.NotZero(t, got.SubmittedAt)

		_, err = s.GetAttempt(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSQLStore_RecordsEvents(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	_, err := s.PutExercise(ctx, fixture())
	require.NoError(t, err)
	_, err = s.UpdateAnswers(ctx, "fractions-1", "half", []grading.Candidate{{Value: val(0.5), Status: grading.StatusCorrect}})
	require.NoError(t, err)
	a, err := s.NewAttempt(ctx, "fractions-1", "u1")
	require.NoError(t, err)
	_, err = s.Submit(ctx, a.ID)
	require.NoError(t, err)

	events, err := s.opts.events.Since(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	types := []string{events[0].Type, events[1].Type, events[2].Type}
	assert.Equal(t, []string{"exercise.put", "answers.edited", "attempt.submitted"}, types)
	assert.Equal(t, a.ID, events[2].Key)
	assert.Less(t, events[0].Seq, events[2].Seq)

	later, err := s.opts.events.Since(ctx, events[1].Seq, 10)
	require.NoError(t, err)
	assert.Len(t, later, 1)
}

func TestWidget_JSON(t *testing.T) {
	var w Widget
	require.NoError(t, json.Unmarshal([]byte(`{
		"id":"w1","type":"numeric-input",
		"options":{"answers":[{"value":2,"status":"correct","simplify":"accepted"}],"answer_forms":["integer"],"coefficient":true}
	}`), &w))
	require.NotNil(t, w.Numeric)
	assert.True(t, w.Numeric.Coefficient)
	assert.Equal(t, grading.SimplifyOptional, w.Numeric.Answers[0].Simplify)
	assert.True(t, w.Gradable())

	q := w.Q()
	assert.Equal(t, []numeric.Form{numeric.FormInteger}, q.Forms)
	assert.True(t, q.Coefficient)

	b, err := json.Marshal(w)
	require.NoError(t, err)
	var back Widget
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, w, back)

	assert.Error(t, json.Unmarshal([]byte(`{"id":"w2","type":"numeric-input","options":{"answers":[{"status":"maybe"}]}}`), &w))

	require.NoError(t, json.Unmarshal([]byte(`{"id":"w3","type":"input-number","options":{"value":0.5,"answer_type":"rational"}}`), &w))
	require.NotNil(t, w.Single)
	assert.Equal(t, grading.AnswerRational, w.Single.AnswerType)
}

func TestStore_PutNormalizesAnswers(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		e := fixture()
		sent := []grading.Candidate{
			{Value: val(1), Status: grading.StatusWrong, Message: "Too big"},
			{Status: grading.StatusWrong},
			{Value: val(0.5), Status: grading.StatusCorrect},
		}
		e.Widgets[0].Numeric.Answers = grading.CloneAll(sent)

		put, err := s.PutExercise(ctx, e)
		require.NoError(t, err)
		want := []grading.Candidate{
			{Value: val(0.5), Status: grading.StatusCorrect},
			{Value: val(1), Status: grading.StatusWrong, Message: "Too big"},
		}
		assert.Equal(t, want, put.Widgets[0].Numeric.Answers)
		assert.Equal(t, sent, e.Widgets[0].Numeric.Answers, "caller's exercise is left alone")

		admin, err := s.GetExerciseAdmin(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, want, admin.Widgets[0].Numeric.Answers)
	})
}

func TestStore_RejectsUnknownStatus(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		e := fixture()
		e.Widgets[0].Numeric.Answers = []grading.Candidate{{Value: val(0.5)}}
		_, err := s.PutExercise(ctx, e)
		assert.ErrorIs(t, err, ErrInvalid)

		_, err = s.PutExercise(ctx, fixture())
		require.NoError(t, err)
		_, err = s.UpdateAnswers(ctx, "fractions-1", "half", []grading.Candidate{{Value: val(2), Status: "maybe"}})
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestStore_ListNegativeOffset(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, err := s.PutExercise(ctx, fixture())
		require.NoError(t, err)

		list, err := s.ListExercises(ctx, ListOpts{Offset: -5})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
