package exercise

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-numeric/internal/grading"
	syncx "github.com/mind-engage/mindengage-numeric/internal/sync"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	opts   options
}

func NewSQLStore(db *sql.DB, driver string, opts ...Option) *SQLStore {
	return &SQLStore{db: db, driver: driver, opts: buildOptions(opts)}
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) PutExercise(ctx context.Context, e Exercise) (Exercise, error) {
	e = cloneExercise(e)
	e.Normalize()
	if err := e.Validate(); err != nil {
		return Exercise{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	wj, err := json.Marshal(e.Widgets)
	if err != nil {
		return Exercise{}, err
	}
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Exercise{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO exercises (id,title,widgets_json,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, widgets_json=EXCLUDED.widgets_json, updated_at=EXCLUDED.updated_at`,
		e.ID, e.Title, string(wj), now, now)
	if err != nil {
		return Exercise{}, fmt.Errorf("put exercise: %w", err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT created_at FROM exercises WHERE id=$1`, e.ID).Scan(&e.CreatedAt); err != nil {
		return Exercise{}, err
	}
	if err := s.event(ctx, tx, syncx.TypeExercisePut, e.ID, map[string]any{"title": e.Title, "widgets": len(e.Widgets)}); err != nil {
		return Exercise{}, err
	}
	if err := tx.Commit(); err != nil {
		return Exercise{}, err
	}
	return e, nil
}

func (s *SQLStore) GetExercise(ctx context.Context, id string) (Exercise, error) {
	e, err := s.GetExerciseAdmin(ctx, id)
	if err != nil {
		return Exercise{}, err
	}
	// Strip answers when serving to learners (parity with in-memory behavior)
	return e.LearnerView(), nil
}

func (s *SQLStore) GetExerciseAdmin(ctx context.Context, id string) (Exercise, error) {
	return loadExercise(ctx, s.db, id)
}

func loadExercise(ctx context.Context, q queryer, id string) (Exercise, error) {
	row := q.QueryRowContext(ctx, `SELECT id,title,widgets_json,created_at FROM exercises WHERE id=$1`, id)
	var e Exercise
	var wjson string
	if err := row.Scan(&e.ID, &e.Title, &wjson, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exercise{}, fmt.Errorf("exercise %s: %w", id, ErrNotFound)
		}
		return Exercise{}, err
	}
	if err := json.Unmarshal([]byte(wjson), &e.Widgets); err != nil {
		return Exercise{}, fmt.Errorf("decode widgets of %s: %w", id, err)
	}
	return e, nil
}

func (s *SQLStore) ListExercises(ctx context.Context, opts ListOpts) ([]ExerciseSummary, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	like := "%" + strings.ToLower(strings.TrimSpace(opts.Q)) + "%"

	rows, err := s.db.QueryContext(ctx, `SELECT id,title,widgets_json,created_at FROM exercises
		WHERE LOWER(title) LIKE $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, like, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ExerciseSummary{}
	for rows.Next() {
		var sum ExerciseSummary
		var wjson string
		if err := rows.Scan(&sum.ID, &sum.Title, &wjson, &sum.CreatedAt); err != nil {
			return nil, err
		}
		var widgets []json.RawMessage
		if err := json.Unmarshal([]byte(wjson), &widgets); err == nil {
			sum.Widgets = len(widgets)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateAnswers(ctx context.Context, exerciseID, widgetID string, committed []grading.Candidate) (Widget, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Widget{}, err
	}
	defer tx.Rollback()

	e, err := loadExercise(ctx, tx, exerciseID)
	if err != nil {
		return Widget{}, err
	}
	w, err := replaceAnswers(&e, widgetID, committed)
	if err != nil {
		return Widget{}, err
	}
	wj, err := json.Marshal(e.Widgets)
	if err != nil {
		return Widget{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE exercises SET widgets_json=$1, updated_at=$2 WHERE id=$3`,
		string(wj), time.Now().Unix(), exerciseID); err != nil {
		return Widget{}, fmt.Errorf("update answers: %w", err)
	}
	if err := s.event(ctx, tx, syncx.TypeAnswersEdited, exerciseID, map[string]any{
		"widget_id": widgetID,
		"answers":   w.Numeric.Answers,
	}); err != nil {
		return Widget{}, err
	}
	if err := tx.Commit(); err != nil {
		return Widget{}, err
	}
	return w, nil
}

func (s *SQLStore) NewAttempt(ctx context.Context, exerciseID, userID string) (Attempt, error) {
	// ensure exercise exists
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM exercises WHERE id=$1`, exerciseID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, fmt.Errorf("exercise %s: %w", exerciseID, ErrNotFound)
		}
		return Attempt{}, err
	}
	a := Attempt{
		ID:         uuid.NewString(),
		ExerciseID: exerciseID,
		UserID:     userID,
		Status:     AttemptInProgress,
		Responses:  map[string]string{},
		StartedAt:  time.Now().Unix(),
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO attempts (id,exercise_id,user_id,status,score,max_score,responses_json,verdicts_json,started_at)
		VALUES ($1,$2,$3,$4,0,0,'{}','{}',$5)`,
		a.ID, a.ExerciseID, a.UserID, a.Status, a.StartedAt)
	if err != nil {
		return Attempt{}, fmt.Errorf("new attempt: %w", err)
	}
	return a, nil
}

func (s *SQLStore) SaveResponses(ctx context.Context, attemptID string, resp map[string]string) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status == AttemptSubmitted {
		return Attempt{}, ErrSubmitted
	}
	e, err := s.GetExerciseAdmin(ctx, a.ExerciseID)
	if err != nil {
		return Attempt{}, err
	}
	if err := mergeResponses(e, a.Responses, resp); err != nil {
		return Attempt{}, err
	}
	buf, err := json.Marshal(a.Responses)
	if err != nil {
		return Attempt{}, err
	}
	// the status guard keeps a concurrent submit from being overwritten
	res, err := s.db.ExecContext(ctx, `UPDATE attempts SET responses_json=$1 WHERE id=$2 AND status=$3`,
		string(buf), attemptID, AttemptInProgress)
	if err != nil {
		return Attempt{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Attempt{}, ErrSubmitted
	}
	return a, nil
}

func (s *SQLStore) Submit(ctx context.Context, attemptID string) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status == AttemptSubmitted {
		return a, nil
	}

	// load full exercise WITH answers for grading
	e, err := s.GetExerciseAdmin(ctx, a.ExerciseID)
	if err != nil {
		return Attempt{}, err
	}
	verdicts, score, total, err := scoreAttempt(ctx, s.opts.grader, e, a.Responses)
	if err != nil {
		return Attempt{}, err
	}
	vj, err := json.Marshal(verdicts)
	if err != nil {
		return Attempt{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Attempt{}, err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	res, err := tx.ExecContext(ctx, `UPDATE attempts SET status=$1, score=$2, max_score=$3, verdicts_json=$4, submitted_at=$5
		WHERE id=$6 AND status=$7`,
		AttemptSubmitted, score, total, string(vj), now, attemptID, AttemptInProgress)
	if err != nil {
		return Attempt{}, fmt.Errorf("submit attempt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// lost a race with another submit; report what was stored
		tx.Rollback()
		return s.GetAttempt(ctx, attemptID)
	}
	if err := s.event(ctx, tx, syncx.TypeAttemptSubmitted, attemptID, map[string]any{
		"exercise_id": a.ExerciseID,
		"user_id":     a.UserID,
		"score":       score,
		"max_score":   total,
	}); err != nil {
		return Attempt{}, err
	}
	if err := tx.Commit(); err != nil {
		return Attempt{}, err
	}
	s.opts.log.Info("attempt submitted",
		zap.String("attempt", attemptID),
		zap.String("exercise", a.ExerciseID),
		zap.Int("score", score),
		zap.Int("max_score", total))

	a.Status = AttemptSubmitted
	a.Verdicts = verdicts
	a.Score = score
	a.MaxScore = total
	a.SubmittedAt = now
	return a, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,exercise_id,user_id,status,score,max_score,responses_json,verdicts_json,started_at,submitted_at
		FROM attempts WHERE id=$1`, id)
	var a Attempt
	var rjson, vjson string
	var submitted sql.NullInt64
	if err := row.Scan(&a.ID, &a.ExerciseID, &a.UserID, &a.Status, &a.Score, &a.MaxScore,
		&rjson, &vjson, &a.StartedAt, &submitted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, fmt.Errorf("attempt %s: %w", id, ErrNotFound)
		}
		return Attempt{}, err
	}
	a.SubmittedAt = submitted.Int64
	if err := json.Unmarshal([]byte(rjson), &a.Responses); err != nil || a.Responses == nil {
		a.Responses = map[string]string{}
	}
	if a.Status == AttemptSubmitted {
		if err := json.Unmarshal([]byte(vjson), &a.Verdicts); err != nil {
			return Attempt{}, fmt.Errorf("decode verdicts of %s: %w", id, err)
		}
	}
	return a, nil
}

func (s *SQLStore) event(ctx context.Context, tx *sql.Tx, typ, key string, data any) error {
	if s.opts.events == nil {
		return nil
	}
	if err := s.opts.events.AppendTx(ctx, tx, typ, key, data); err != nil {
		return fmt.Errorf("record %s: %w", typ, err)
	}
	return nil
}
