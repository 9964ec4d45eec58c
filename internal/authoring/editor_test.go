package authoring

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-numeric/internal/grading"
)

func val(f float64) *float64 { return &f }

func str(s string) *string { return &s }

func cand(v float64, s grading.Status, msg string) grading.Candidate {
	return grading.Candidate{Value: val(v), Status: s, Message: msg, Simplify: simplifyFor(s)}
}

// checkInvariants asserts exactly one trailing blank row and status grouping.
func checkInvariants(t *testing.T, rows []grading.Candidate) {
	t.Helper()
	require.NotEmpty(t, rows)
	assert.True(t, IsBlank(rows[len(rows)-1]), "last row must be blank")
	rank := -1
	for i, c := range rows[:len(rows)-1] {
		assert.False(t, IsBlank(c), "row %d is blank", i)
		assert.GreaterOrEqual(t, c.Status.Rank(), rank, "row %d out of order", i)
		rank = c.Status.Rank()
	}
}

type recorder struct{ emitted [][]grading.Candidate }

func (r *recorder) emit(c []grading.Candidate) error {
	r.emitted = append(r.emitted, c)
	return nil
}

func (r *recorder) last() []grading.Candidate { return r.emitted[len(r.emitted)-1] }

func TestNewEditor_DefaultsToBlankCorrectRow(t *testing.T) {
	e := NewEditor(nil, nil)
	assert.Equal(t, []grading.Candidate{Blank(grading.StatusCorrect)}, e.Rows())
	assert.Empty(t, e.Committed())
}

func TestNewEditor_NormalizesPersistedAnswers(t *testing.T) {
	e := NewEditor([]grading.Candidate{
		cand(1, grading.StatusWrong, "w"),
		cand(2, grading.StatusCorrect, ""),
	}, nil)
	want := []grading.Candidate{
		cand(2, grading.StatusCorrect, ""),
		cand(1, grading.StatusWrong, "w"),
		Blank(grading.StatusWrong),
	}
	if d := cmp.Diff(want, e.Rows()); d != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", d)
	}
}

func TestEditor_TypingIntoBlankRowCreatesCandidate(t *testing.T) {
	rec := &recorder{}
	e := NewEditor(nil, rec.emit)

	require.NoError(t, e.Update(0, Patch{Value: SetFloat(0.5)}))

	rows := e.Rows()
	checkInvariants(t, rows)
	want := []grading.Candidate{cand(0.5, grading.StatusCorrect, ""), Blank(grading.StatusWrong)}
	if d := cmp.Diff(want, rows); d != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", d)
	}
	assert.Equal(t, want[:1], rec.last())
}

func TestEditor_BlankRowKeepsToggledStatus(t *testing.T) {
	e := NewEditor([]grading.Candidate{cand(0.5, grading.StatusCorrect, "")}, nil)
	require.Len(t, e.Rows(), 2)

	require.NoError(t, e.CycleStatus(1))
	rows := e.Rows()
	checkInvariants(t, rows)
	assert.Equal(t, Blank(grading.StatusUngraded), rows[1])

	// the next unrelated edit restores the default blank status
	require.NoError(t, e.Update(0, Patch{Message: str("good")}))
	assert.Equal(t, Blank(grading.StatusWrong), e.Rows()[1])
}

func TestEditor_InnerStatusChangeKeepsDefaultBlank(t *testing.T) {
	e := Resume([]grading.Candidate{
		cand(1, grading.StatusCorrect, ""),
		cand(2, grading.StatusUngraded, "hmm"),
	}, nil)
	require.Len(t, e.Rows(), 3)

	// row 1 is not the last row, so the blank stays wrong
	require.NoError(t, e.CycleStatus(1))
	rows := e.Rows()
	checkInvariants(t, rows)
	assert.Equal(t, grading.StatusCorrect, rows[1].Status)
	assert.Equal(t, grading.SimplifyRequired, rows[1].Simplify)
	assert.Equal(t, Blank(grading.StatusWrong), rows[2])
}

func TestEditor_SortsByStatus(t *testing.T) {
	rec := &recorder{}
	e := NewEditor(nil, rec.emit)

	require.NoError(t, e.Update(0, Patch{Value: SetFloat(1)}))
	wrong := grading.StatusWrong
	require.NoError(t, e.Update(1, Patch{Value: SetFloat(2), Message: str("too big"), Status: &wrong}))
	ungraded := grading.StatusUngraded
	require.NoError(t, e.Update(2, Patch{Value: SetFloat(3), Status: &ungraded}))

	rows := e.Rows()
	checkInvariants(t, rows)
	statuses := []grading.Status{rows[0].Status, rows[1].Status, rows[2].Status}
	assert.Equal(t, []grading.Status{grading.StatusCorrect, grading.StatusUngraded, grading.StatusWrong}, statuses)
	assert.Len(t, rec.last(), 3)
	for _, c := range rec.last() {
		assert.False(t, IsBlank(c))
	}
}

func TestEditor_ClearingRowDropsIt(t *testing.T) {
	rec := &recorder{}
	e := NewEditor([]grading.Candidate{
		cand(1, grading.StatusCorrect, ""),
		cand(2, grading.StatusWrong, "w"),
	}, rec.emit)

	require.NoError(t, e.Update(1, Patch{Value: ClearFloat(), Message: str("")}))
	rows := e.Rows()
	checkInvariants(t, rows)
	assert.Len(t, rows, 2)
	assert.Equal(t, []grading.Candidate{cand(1, grading.StatusCorrect, "")}, rec.last())

	// a message alone keeps a row alive
	require.NoError(t, e.Update(0, Patch{Value: ClearFloat()}))
	require.NoError(t, e.Update(0, Patch{Message: str("still here")}))
	assert.Len(t, e.Rows(), 2)
}

func TestEditor_Remove(t *testing.T) {
	e := NewEditor([]grading.Candidate{
		cand(1, grading.StatusCorrect, ""),
		cand(2, grading.StatusWrong, "w"),
	}, nil)
	require.NoError(t, e.Remove(0))
	rows := e.Rows()
	checkInvariants(t, rows)
	assert.Equal(t, cand(2, grading.StatusWrong, "w"), rows[0])

	assert.ErrorIs(t, e.Remove(5), ErrIndexOutOfRange)
}

func TestEditor_EmitErrorLeavesRowsUntouched(t *testing.T) {
	boom := errors.New("boom")
	e := NewEditor(nil, func([]grading.Candidate) error { return boom })
	before := e.Rows()

	err := e.Update(0, Patch{Value: SetFloat(4)})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, e.Rows())
}

func TestEditor_InvariantsHoldOverManyEdits(t *testing.T) {
	e := NewEditor(nil, nil)
	for i := 0; i < 30; i++ {
		rows := e.Rows()
		last := len(rows) - 1
		switch i % 5 {
		case 0:
			require.NoError(t, e.Update(last, Patch{Value: SetFloat(float64(i))}))
		case 1:
			require.NoError(t, e.CycleStatus(i%len(rows)))
		case 2:
			require.NoError(t, e.Update(0, Patch{Message: str("m")}))
		case 3:
			require.NoError(t, e.CycleStatus(last))
		case 4:
			require.NoError(t, e.Update(0, Patch{Value: ClearFloat(), Message: str("")}))
		}
		checkInvariants(t, e.Rows())
	}
}

func TestUpdateField_DoesNotMutateInput(t *testing.T) {
	list := []grading.Candidate{cand(1, grading.StatusCorrect, "a")}
	snapshot := grading.CloneAll(list)

	out, m, err := UpdateField(list, 0, Patch{Value: SetFloat(9), Message: str("b")})
	require.NoError(t, err)
	assert.Equal(t, snapshot, list)
	assert.Equal(t, 9.0, *out[0].Value)
	assert.False(t, m.StatusChanged)

	_, _, err = UpdateField(list, 1, Patch{})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestCycleStatus_ResetsSimplify(t *testing.T) {
	list := []grading.Candidate{cand(1, grading.StatusWrong, "")}
	want := []struct {
		status   grading.Status
		simplify grading.Simplify
	}{
		{grading.StatusUngraded, grading.SimplifyOptional},
		{grading.StatusCorrect, grading.SimplifyRequired},
		{grading.StatusWrong, grading.SimplifyOptional},
	}
	for _, w := range want {
		var m Mutation
		var err error
		list, m, err = CycleStatus(list, 0)
		require.NoError(t, err)
		assert.True(t, m.StatusChanged)
		assert.Equal(t, w.status, list[0].Status)
		assert.Equal(t, w.simplify, list[0].Simplify)
	}
}

func TestSortByStatusPriority_StableAndPure(t *testing.T) {
	list := []grading.Candidate{
		cand(1, grading.StatusWrong, "w1"),
		cand(2, grading.StatusCorrect, "c1"),
		cand(3, grading.StatusUngraded, "u1"),
		cand(4, grading.StatusWrong, "w2"),
		cand(5, grading.StatusCorrect, "c2"),
	}
	snapshot := grading.CloneAll(list)
	got := SortByStatusPriority(list)

	msgs := make([]string, len(got))
	for i, c := range got {
		msgs[i] = c.Message
	}
	assert.Equal(t, []string{"c1", "c2", "u1", "w1", "w2"}, msgs)
	assert.Equal(t, snapshot, list)
}

func TestPatch_DecodeJSON(t *testing.T) {
	var p Patch
	require.NoError(t, json.Unmarshal([]byte(`{"value":null,"maxError":0.1,"status":"ungraded"}`), &p))
	assert.True(t, p.Value.Set)
	assert.Nil(t, p.Value.Value)
	require.True(t, p.MaxError.Set)
	assert.Equal(t, 0.1, *p.MaxError.Value)
	assert.Equal(t, grading.StatusUngraded, *p.Status)

	var empty Patch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.False(t, empty.Value.Set)
	assert.False(t, empty.MaxError.Set)
	assert.Nil(t, empty.Status)
}
