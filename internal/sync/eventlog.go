// Package syncx is an append-only log of authoring and submission events,
// read back in sequence order by anything that mirrors the store.
package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Event types.
const (
	TypeExercisePut      = "exercise.put"
	TypeAnswersEdited    = "answers.edited"
	TypeAttemptSubmitted = "attempt.submitted"
)

type Event struct {
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"`
	Key       string          `json:"key"` // natural key: exercise or attempt id
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"`
}

// Execer is satisfied by *sql.DB and *sql.Tx so an event can be written in
// the same transaction as the change it records.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Append records an event with data marshaled as JSON.
func (r *EventRepo) Append(ctx context.Context, typ, key string, data any) error {
	return r.AppendTx(ctx, r.db, typ, key, data)
}

func (r *EventRepo) AppendTx(ctx context.Context, x Execer, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", typ, err)
	}
	_, err = x.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	return err
}

// Since returns up to limit events with a sequence number greater than after.
func (r *EventRepo) Since(ctx context.Context, after int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, typ, key, data, created_at FROM event_log
		 WHERE seq > $1 ORDER BY seq LIMIT $2`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.Seq, &e.Type, &e.Key, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}
