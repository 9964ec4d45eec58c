package exercise

import (
	"encoding/json"
	"fmt"

	"github.com/mind-engage/mindengage-numeric/internal/authoring"
	"github.com/mind-engage/mindengage-numeric/internal/grading"
	"github.com/mind-engage/mindengage-numeric/internal/numeric"
)

// NumericInputOptions configures a numeric-input widget.
type NumericInputOptions struct {
	Answers     []grading.Candidate `json:"answers"`
	AnswerForms []numeric.Form      `json:"answer_forms,omitempty"` // offered forms; empty means all
	Coefficient bool                `json:"coefficient,omitempty"`
	AllowEmpty  bool                `json:"allow_empty,omitempty"`

	// presentation only
	Size       string `json:"size,omitempty"`
	LabelText  string `json:"label_text,omitempty"`
	RightAlign bool   `json:"right_align,omitempty"`
}

// Widget is one gradable input inside an exercise. Exactly one of Numeric or
// Single is set for the two known types; other types keep their options raw.
type Widget struct {
	ID         string
	Type       string
	PromptHTML string

	Numeric *NumericInputOptions  // numeric-input
	Single  *grading.SingleAnswer // input-number
	Raw     json.RawMessage       // any other type
}

type wireWidget struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	PromptHTML string          `json:"prompt_html,omitempty"`
	Options    json.RawMessage `json:"options,omitempty"`
}

func (w Widget) MarshalJSON() ([]byte, error) {
	out := wireWidget{ID: w.ID, Type: w.Type, PromptHTML: w.PromptHTML}
	var (
		opts []byte
		err  error
	)
	switch {
	case w.Numeric != nil:
		opts, err = json.Marshal(w.Numeric)
	case w.Single != nil:
		opts, err = json.Marshal(w.Single)
	default:
		opts = w.Raw
	}
	if err != nil {
		return nil, err
	}
	out.Options = opts
	return json.Marshal(out)
}

func (w *Widget) UnmarshalJSON(b []byte) error {
	var in wireWidget
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*w = Widget{ID: in.ID, Type: in.Type, PromptHTML: in.PromptHTML}
	switch in.Type {
	case grading.TypeNumericInput:
		w.Numeric = &NumericInputOptions{}
		if len(in.Options) > 0 {
			if err := json.Unmarshal(in.Options, w.Numeric); err != nil {
				return fmt.Errorf("widget %s options: %w", in.ID, err)
			}
		}
	case grading.TypeInputNumber:
		w.Single = &grading.SingleAnswer{}
		if len(in.Options) > 0 {
			if err := json.Unmarshal(in.Options, w.Single); err != nil {
				return fmt.Errorf("widget %s options: %w", in.ID, err)
			}
		}
	default:
		w.Raw = in.Options
	}
	return nil
}

// Gradable reports whether the grading engine has a strategy for w.
func (w Widget) Gradable() bool {
	return (w.Type == grading.TypeNumericInput && w.Numeric != nil) ||
		(w.Type == grading.TypeInputNumber && w.Single != nil)
}

// Q is the view of w handed to the grading engine.
func (w Widget) Q() grading.Q {
	q := grading.Q{Type: w.Type}
	switch {
	case w.Numeric != nil:
		q.Answers = w.Numeric.Answers
		q.Forms = w.Numeric.AnswerForms
		q.AllowEmpty = w.Numeric.AllowEmpty
		q.Coefficient = w.Numeric.Coefficient
	case w.Single != nil:
		q.Single = w.Single
	}
	return q
}

// learnerView hides everything that would reveal an answer.
func (w Widget) learnerView() Widget {
	out := w
	if w.Numeric != nil {
		n := *w.Numeric
		n.Answers = nil
		out.Numeric = &n
	}
	if w.Single != nil {
		out.Single = &grading.SingleAnswer{AnswerType: w.Single.AnswerType}
	}
	return out
}

type Exercise struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Widgets   []Widget `json:"widgets"`
	CreatedAt int64    `json:"created_at,omitempty"`
}

// Widget finds a widget by id.
func (e Exercise) Widget(id string) (Widget, bool) {
	for _, w := range e.Widgets {
		if w.ID == id {
			return w, true
		}
	}
	return Widget{}, false
}

// LearnerView returns a copy of e with answers stripped.
func (e Exercise) LearnerView() Exercise {
	out := e
	out.Widgets = make([]Widget, len(e.Widgets))
	for i, w := range e.Widgets {
		out.Widgets[i] = w.learnerView()
	}
	return out
}

// Validate checks the structural rules an uploaded exercise must satisfy.
func (e Exercise) Validate() error {
	seen := map[string]bool{}
	for i, w := range e.Widgets {
		if w.ID == "" {
			return fmt.Errorf("%w: widget %d: id required", ErrInvalid, i)
		}
		if seen[w.ID] {
			return fmt.Errorf("%w: widget %s: duplicate id", ErrInvalid, w.ID)
		}
		seen[w.ID] = true
		if w.Numeric != nil {
			for _, f := range w.Numeric.AnswerForms {
				if !f.Valid() {
					return fmt.Errorf("%w: widget %s: unknown answer form %q", ErrInvalid, w.ID, f)
				}
			}
			if err := validateAnswers(w.ID, w.Numeric.Answers); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateAnswers(widgetID string, answers []grading.Candidate) error {
	for j, c := range answers {
		if !c.Status.Valid() {
			return fmt.Errorf("%w: widget %s: answer %d: unknown status %q", ErrInvalid, widgetID, j, c.Status)
		}
	}
	return nil
}

// Normalize drops blank answer rows and orders the rest correct, ungraded,
// wrong on every numeric-input widget. Stores call it before saving.
func (e *Exercise) Normalize() {
	for i := range e.Widgets {
		if n := e.Widgets[i].Numeric; n != nil && n.Answers != nil {
			n.Answers = authoring.Normalize(n.Answers)
		}
	}
}

// ApplyDefaults fills numeric-input widgets that name no answer forms with
// forms, and turns on allowEmpty where the server default asks for it.
func (e *Exercise) ApplyDefaults(forms []numeric.Form, allowEmpty bool) {
	for i := range e.Widgets {
		n := e.Widgets[i].Numeric
		if n == nil {
			continue
		}
		if len(n.AnswerForms) == 0 && len(forms) > 0 {
			n.AnswerForms = append([]numeric.Form(nil), forms...)
		}
		n.AllowEmpty = n.AllowEmpty || allowEmpty
	}
}

type ExerciseSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Widgets   int    `json:"widgets"`
	CreatedAt int64  `json:"created_at"`
}

const (
	AttemptInProgress = "in_progress"
	AttemptSubmitted  = "submitted"
)

type Attempt struct {
	ID          string                     `json:"id"`
	ExerciseID  string                     `json:"exercise_id"`
	UserID      string                     `json:"user_id"`
	Status      string                     `json:"status"`             // in_progress|submitted
	Responses   map[string]string          `json:"responses"`          // widgetID -> guess
	Verdicts    map[string]grading.Verdict `json:"verdicts,omitempty"` // set on submit
	Score       int                        `json:"score"`
	MaxScore    int                        `json:"max_score"`
	StartedAt   int64                      `json:"started_at,omitempty"`
	SubmittedAt int64                      `json:"submitted_at,omitempty"`
}
