package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-numeric/internal/auth/middleware"
	"github.com/mind-engage/mindengage-numeric/internal/exercise"
	rbac "github.com/mind-engage/mindengage-numeric/internal/rbac"
)

// POST /attempts  { "exercise_id": "..." }
func CreateAttemptHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExerciseID string `json:"exercise_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.ExerciseID == "" {
			http.Error(w, "exercise_id required", http.StatusBadRequest)
			return
		}
		a, err := d.Store.NewAttempt(r.Context(), req.ExerciseID, authmw.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, d.Log, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// ownAttempt loads the attempt named in the URL and checks the caller owns
// it or may see every attempt. It writes the error response itself.
func ownAttempt(w http.ResponseWriter, r *http.Request, d Deps) (exercise.Attempt, bool) {
	a, err := d.Store.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		writeErr(w, d.Log, err)
		return exercise.Attempt{}, false
	}
	if a.UserID != authmw.SubjectFromContext(r.Context()) && !rbac.Default.Can(r.Context(), "attempt:view-all") {
		http.Error(w, "forbidden", http.StatusForbidden)
		return exercise.Attempt{}, false
	}
	return a, true
}

// POST /attempts/{attemptID}/responses  { "<widgetID>": "<guess>", ... }
func SaveResponsesHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp map[string]string
		if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, ok := ownAttempt(w, r, d)
		if !ok {
			return
		}
		a, err := d.Store.SaveResponses(r.Context(), a.ID, resp)
		if err != nil {
			writeErr(w, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// POST /attempts/{attemptID}/submit
func SubmitAttemptHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := ownAttempt(w, r, d)
		if !ok {
			return
		}
		a, err := d.Store.Submit(r.Context(), a.ID)
		if err != nil {
			writeErr(w, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := ownAttempt(w, r, d)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /events?after=<seq>&limit=<n>
func EventsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var after int64
		if s := r.URL.Query().Get("after"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil || v < 0 {
				http.Error(w, "bad after", http.StatusBadRequest)
				return
			}
			after = v
		}
		events, err := d.Events.Since(r.Context(), after, parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			writeErr(w, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}
