package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-numeric/internal/authoring"
	"github.com/mind-engage/mindengage-numeric/internal/exercise"
	"github.com/mind-engage/mindengage-numeric/internal/grading"
)

// POST /exercises
func UploadExerciseHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e exercise.Exercise
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		e.ApplyDefaults(d.DefaultForms, d.AllowEmpty)
		saved, err := d.Store.PutExercise(r.Context(), e)
		if err != nil {
			writeErr(w, d.Log, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": saved.ID, "created_at": saved.CreatedAt})
	}
}

// GET /exercises?q=&limit=&offset=
func ListExercisesHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Store.ListExercises(r.Context(), exercise.ListOpts{
			Q:      strings.TrimSpace(r.URL.Query().Get("q")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			writeErr(w, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /exercises/{exerciseID} (learner-safe)
func GetExerciseHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := d.Store.GetExercise(r.Context(), chi.URLParam(r, "exerciseID"))
		if err != nil {
			writeErr(w, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// GET /exercises/{exerciseID}/admin
func GetExerciseAdminHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := d.Store.GetExerciseAdmin(r.Context(), chi.URLParam(r, "exerciseID"))
		if err != nil {
			writeErr(w, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func loadWidget(r *http.Request, d Deps) (exercise.Widget, error) {
	e, err := d.Store.GetExerciseAdmin(r.Context(), chi.URLParam(r, "exerciseID"))
	if err != nil {
		return exercise.Widget{}, err
	}
	id := chi.URLParam(r, "widgetID")
	wd, ok := e.Widget(id)
	if !ok {
		return exercise.Widget{}, exercise.ErrUnknownWidget
	}
	return wd, nil
}

// POST /exercises/{exerciseID}/widgets/{widgetID}/check  { "guess": "2/4" }
//
// Grades a guess without recording it; clients call this as the learner types.
func CheckHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Guess string `json:"guess"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		wd, err := loadWidget(r, d)
		if err != nil {
			writeErr(w, d.Log, err)
			return
		}
		v, err := d.Grader.Grade(r.Context(), wd.Q(), req.Guess)
		if err != nil {
			writeErr(w, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

type editRequest struct {
	// Rows as the client last displayed them. Empty starts from the stored answers.
	Rows        []grading.Candidate `json:"rows"`
	Index       *int                `json:"index"` // nil only returns the current rows
	Patch       authoring.Patch     `json:"patch"`
	CycleStatus bool                `json:"cycle_status"`
	Remove      bool                `json:"remove"`
}

type editResponse struct {
	Rows    []grading.Candidate `json:"rows"`
	Answers []grading.Candidate `json:"answers"`
}

// POST /exercises/{exerciseID}/widgets/{widgetID}/answers/edit
//
// Applies one author edit to the candidate rows. Every committed list is
// persisted before the new rows are returned.
func EditAnswersHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req editRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		wd, err := loadWidget(r, d)
		if err != nil {
			writeErr(w, d.Log, err)
			return
		}
		if wd.Numeric == nil {
			writeErr(w, d.Log, exercise.ErrNotNumericInput)
			return
		}

		exerciseID, widgetID := chi.URLParam(r, "exerciseID"), wd.ID
		emit := func(committed []grading.Candidate) error {
			_, err := d.Store.UpdateAnswers(r.Context(), exerciseID, widgetID, committed)
			return err
		}
		var ed *authoring.Editor
		if len(req.Rows) == 0 {
			ed = authoring.NewEditor(wd.Numeric.Answers, emit)
		} else {
			ed = authoring.Resume(req.Rows, emit)
		}

		if req.Index != nil {
			switch {
			case req.Remove:
				err = ed.Remove(*req.Index)
			case req.CycleStatus:
				err = ed.CycleStatus(*req.Index)
			default:
				err = ed.Update(*req.Index, req.Patch)
			}
			if err != nil {
				writeErr(w, d.Log, err)
				return
			}
			d.Log.Debug("answers edited",
				zap.String("exercise", exerciseID),
				zap.String("widget", widgetID),
				zap.Int("index", *req.Index))
		}
		writeJSON(w, http.StatusOK, editResponse{Rows: ed.Rows(), Answers: nonNil(ed.Committed())})
	}
}

// PUT /exercises/{exerciseID}/widgets/{widgetID}/answers  { "answers": [...] }
func PutAnswersHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answers []grading.Candidate `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		wd, err := d.Store.UpdateAnswers(r.Context(),
			chi.URLParam(r, "exerciseID"), chi.URLParam(r, "widgetID"), req.Answers)
		if err != nil {
			writeErr(w, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, wd)
	}
}

func nonNil(list []grading.Candidate) []grading.Candidate {
	if list == nil {
		return []grading.Candidate{}
	}
	return list
}
