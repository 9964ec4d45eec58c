// Package authoring maintains the list of candidate answers an author edits
// for a numeric-input widget.
//
// The editing list always ends with exactly one blank row (no value, no
// message) that the author types into to create a new candidate. Every
// other row is kept grouped correct, ungraded, wrong. Only the non-blank
// rows are ever handed to the surrounding document.
package authoring

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/mind-engage/mindengage-numeric/internal/grading"
)

var ErrIndexOutOfRange = errors.New("candidate index out of range")

// IsBlank reports whether c is an empty editing row.
func IsBlank(c grading.Candidate) bool {
	return c.Value == nil && c.Message == ""
}

// Blank returns a fresh editing row with the given status.
func Blank(status grading.Status) grading.Candidate {
	return grading.Candidate{Status: status, Simplify: simplifyFor(status)}
}

func simplifyFor(s grading.Status) grading.Simplify {
	if s == grading.StatusCorrect {
		return grading.SimplifyRequired
	}
	return grading.SimplifyOptional
}

// NextStatus cycles wrong -> ungraded -> correct -> wrong.
func NextStatus(s grading.Status) grading.Status {
	switch s {
	case grading.StatusWrong:
		return grading.StatusUngraded
	case grading.StatusUngraded:
		return grading.StatusCorrect
	case grading.StatusCorrect:
		return grading.StatusWrong
	}
	return grading.StatusWrong
}

// SortByStatusPriority returns a new list with correct candidates first,
// then ungraded, then wrong. Order within a bucket is preserved.
func SortByStatusPriority(list []grading.Candidate) []grading.Candidate {
	out := grading.CloneAll(list)
	slices.SortStableFunc(out, func(a, b grading.Candidate) int {
		return cmp.Compare(a.Status.Rank(), b.Status.Rank())
	})
	return out
}

// Normalize drops blank rows and sorts the rest: the shape that is persisted.
func Normalize(list []grading.Candidate) []grading.Candidate {
	kept := make([]grading.Candidate, 0, len(list))
	for _, c := range list {
		if !IsBlank(c) {
			kept = append(kept, c)
		}
	}
	return SortByStatusPriority(kept)
}

// Mutation describes the edit that produced a list about to be committed.
type Mutation struct {
	Index         int
	StatusChanged bool
}

// NoMutation is used when a commit does not follow a field edit.
var NoMutation = Mutation{Index: -1}

// UpdateField merges p into the candidate at index and returns a new list.
// list is not modified.
func UpdateField(list []grading.Candidate, index int, p Patch) ([]grading.Candidate, Mutation, error) {
	if index < 0 || index >= len(list) {
		return nil, NoMutation, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(list))
	}
	out := grading.CloneAll(list)
	old := out[index]
	out[index] = p.apply(old)
	return out, Mutation{Index: index, StatusChanged: out[index].Status != old.Status}, nil
}

// CycleStatus advances the status of the candidate at index, resetting its
// simplify policy to match the new status.
func CycleStatus(list []grading.Candidate, index int) ([]grading.Candidate, Mutation, error) {
	if index < 0 || index >= len(list) {
		return nil, NoMutation, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(list))
	}
	next := NextStatus(list[index].Status)
	simplify := simplifyFor(next)
	return UpdateField(list, index, Patch{Status: &next, Simplify: &simplify})
}

// Commit restores the editing invariants after m produced list. It returns
// the rows to display (sorted, ending in one blank row) and the committed
// candidates (the same rows without the blank).
//
// The new blank row is wrong unless m changed the status of the last row of
// list, in which case it takes that status.
func Commit(list []grading.Candidate, m Mutation) (rows, committed []grading.Candidate) {
	blank := grading.StatusWrong
	if m.StatusChanged && m.Index >= 0 && m.Index == len(list)-1 {
		blank = list[m.Index].Status
	}
	committed = Normalize(list)
	rows = append(grading.CloneAll(committed), Blank(blank))
	return rows, committed
}

// Emitter receives every committed candidate list.
type Emitter func(committed []grading.Candidate) error

// Editor applies author edits one at a time and emits each committed list.
// It is not safe for concurrent use; edits are expected to arrive serially.
type Editor struct {
	rows []grading.Candidate
	emit Emitter
}

// NewEditor starts editing persisted answers. With no answers the editor
// starts with a single blank correct row.
func NewEditor(answers []grading.Candidate, emit Emitter) *Editor {
	e := &Editor{emit: emit}
	if len(Normalize(answers)) == 0 {
		e.rows = []grading.Candidate{Blank(grading.StatusCorrect)}
		return e
	}
	e.rows, _ = Commit(answers, NoMutation)
	return e
}

// Resume continues editing rows exactly as a client last displayed them,
// appending a blank row if the last one is not blank.
func Resume(rows []grading.Candidate, emit Emitter) *Editor {
	e := &Editor{rows: grading.CloneAll(rows), emit: emit}
	if len(e.rows) == 0 || !IsBlank(e.rows[len(e.rows)-1]) {
		e.rows = append(e.rows, Blank(grading.StatusWrong))
	}
	return e
}

func (e *Editor) Rows() []grading.Candidate { return grading.CloneAll(e.rows) }

func (e *Editor) Committed() []grading.Candidate { return Normalize(e.rows) }

func (e *Editor) Update(index int, p Patch) error {
	list, m, err := UpdateField(e.rows, index, p)
	if err != nil {
		return err
	}
	return e.commit(list, m)
}

func (e *Editor) CycleStatus(index int) error {
	list, m, err := CycleStatus(e.rows, index)
	if err != nil {
		return err
	}
	return e.commit(list, m)
}

// Remove deletes the row at index.
func (e *Editor) Remove(index int) error {
	if index < 0 || index >= len(e.rows) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(e.rows))
	}
	list := slices.Delete(grading.CloneAll(e.rows), index, index+1)
	return e.commit(list, NoMutation)
}

func (e *Editor) commit(list []grading.Candidate, m Mutation) error {
	rows, committed := Commit(list, m)
	if e.emit != nil {
		if err := e.emit(committed); err != nil {
			return fmt.Errorf("emit answers: %w", err)
		}
	}
	e.rows = rows
	return nil
}
