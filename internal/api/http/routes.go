package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authmw "github.com/mind-engage/mindengage-numeric/internal/auth/middleware"
	"github.com/mind-engage/mindengage-numeric/internal/authoring"
	"github.com/mind-engage/mindengage-numeric/internal/exercise"
	"github.com/mind-engage/mindengage-numeric/internal/grading"
	"github.com/mind-engage/mindengage-numeric/internal/numeric"
	rbac "github.com/mind-engage/mindengage-numeric/internal/rbac"
	"github.com/mind-engage/mindengage-numeric/internal/storage"
	syncx "github.com/mind-engage/mindengage-numeric/internal/sync"
)

// Deps is everything the handlers need.
type Deps struct {
	Store  exercise.Store
	Grader grading.Grader
	Auth   *authmw.AuthService
	Events *syncx.EventRepo  // optional
	Blobs  storage.BlobStore // optional; enables prompt assets
	Log    *zap.Logger

	// Server-wide widget defaults applied on upload.
	DefaultForms []numeric.Form
	AllowEmpty   bool

	// Ready reports whether backing services are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

// Mount registers every route on r.
func Mount(r chi.Router, d Deps) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Grader == nil {
		d.Grader = grading.NewDefaultGrader(grading.WithLogger(d.Log))
	}

	r.Post("/auth/login", authmw.LoginHandler(d.Auth))
	r.Post("/auth/guest", authmw.GuestLoginHandler(d.Auth))
	r.Get("/formats", FormatsHandler())
	r.Post("/numeric/parse", ParseHandler())

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))

		pr.With(rbac.Require("exercise:author")).
			Post("/exercises", UploadExerciseHandler(d))
		pr.With(rbac.Require("exercise:view")).
			Get("/exercises", ListExercisesHandler(d))
		pr.With(rbac.Require("exercise:view")).
			Get("/exercises/{exerciseID}", GetExerciseHandler(d))
		pr.With(rbac.Require("exercise:author")).
			Get("/exercises/{exerciseID}/admin", GetExerciseAdminHandler(d))

		pr.With(rbac.Require("exercise:check")).
			Post("/exercises/{exerciseID}/widgets/{widgetID}/check", CheckHandler(d))
		pr.With(rbac.Require("exercise:author")).
			Post("/exercises/{exerciseID}/widgets/{widgetID}/answers/edit", EditAnswersHandler(d))
		pr.With(rbac.Require("exercise:author")).
			Put("/exercises/{exerciseID}/widgets/{widgetID}/answers", PutAnswersHandler(d))

		pr.With(rbac.Require("attempt:create")).
			Post("/attempts", CreateAttemptHandler(d))
		pr.With(rbac.Require("attempt:save")).
			Post("/attempts/{attemptID}/responses", SaveResponsesHandler(d))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", SubmitAttemptHandler(d))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", GetAttemptHandler(d))

		if d.Blobs != nil {
			pr.With(rbac.Require("exercise:author")).
				Post("/exercises/{exerciseID}/assets", UploadAssetHandler(d))
			pr.With(rbac.Require("exercise:view")).
				Get("/assets/*", GetAssetHandler(d))
		}

		if d.Events != nil {
			pr.With(rbac.Require("events:view")).
				Get("/events", EventsHandler(d))
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps store and editor errors to status codes. Anything unexpected
// is logged and reported as a 500.
func writeErr(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, exercise.ErrNotFound), errors.Is(err, exercise.ErrUnknownWidget):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, exercise.ErrSubmitted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, exercise.ErrInvalid),
		errors.Is(err, exercise.ErrNotNumericInput),
		errors.Is(err, authoring.ErrIndexOutOfRange),
		errors.Is(err, storage.ErrBadKey):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error("request failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
