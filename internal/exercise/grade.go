package exercise

import (
	"context"
	"fmt"

	"github.com/mind-engage/mindengage-numeric/internal/grading"
)

// scoreAttempt grades every gradable widget of e against the learner's
// responses. A widget without a response is graded as an empty guess.
// Invalid verdicts earn nothing but still count toward the maximum.
func scoreAttempt(ctx context.Context, g grading.Grader, e Exercise, responses map[string]string) (map[string]grading.Verdict, int, int, error) {
	verdicts := make(map[string]grading.Verdict, len(e.Widgets))
	score, total := 0, 0
	for _, w := range e.Widgets {
		if !w.Gradable() {
			continue
		}
		v, err := g.Grade(ctx, w.Q(), responses[w.ID])
		if err != nil {
			return nil, 0, 0, fmt.Errorf("grade widget %s: %w", w.ID, err)
		}
		verdicts[w.ID] = v
		total++
		if v.Type == grading.VerdictPoints {
			score += v.Earned
		}
	}
	return verdicts, score, total, nil
}

// mergeResponses copies resp into dst, rejecting ids that name no widget of e.
func mergeResponses(e Exercise, dst, resp map[string]string) error {
	for k, v := range resp {
		if _, ok := e.Widget(k); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownWidget, k)
		}
		dst[k] = v
	}
	return nil
}
