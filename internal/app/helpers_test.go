package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
)

// manualClock hands out tickers that only fire when the test says so.
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *manualTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (c *manualClock) factory(time.Duration) app.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) current(t *testing.T) *manualTicker {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		t.Fatalf("no ticker acquired")
	}
	return c.tickers[len(c.tickers)-1]
}

func (c *manualClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

// advance delivers n ticks; each send completes only once the session loop received it.
func (c *manualClock) advance(t *testing.T, n int) {
	t.Helper()
	ticker := c.current(t)
	for i := 0; i < n; i++ {
		select {
		case ticker.ch <- time.Now():
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d not consumed", i+1)
		}
	}
}

// tryTick reports whether the session loop still consumes ticks.
func (c *manualClock) tryTick(t *testing.T) bool {
	t.Helper()
	select {
	case c.current(t).ch <- time.Now():
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

// recordingAttempts is an AttemptRepository that counts saves and can fail on demand.
type recordingAttempts struct {
	mu    sync.Mutex
	saved []domain.Attempt
	calls int
	err   error
}

func (r *recordingAttempts) SaveAttempt(_ context.Context, attempt domain.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, attempt)
	return nil
}

func (r *recordingAttempts) ListAttempts(_ context.Context, quizID, userID string) ([]domain.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Attempt
	for _, a := range r.saved {
		if a.QuizID == quizID && a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *recordingAttempts) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

var errDatabaseDown = errors.New("database down")

func waitForAttemptStatus(t *testing.T, session *app.Session, want string) app.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := session.Snapshot()
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if snap.AttemptStatus == want {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected attempt status %q, got %q", want, snap.AttemptStatus)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// twoQuestionQuiz: Q1 multiple choice (correct opt2), Q2 true/false (correct "true").
func twoQuestionQuiz() domain.Quiz {
	return domain.Quiz{
		ID:               "quiz-1",
		Title:            "Warm-up",
		TimeLimitMinutes: 1,
		PassingScore:     70,
		Questions: []domain.Question{
			{
				ID:     "q1",
				Type:   domain.QuestionMultipleChoice,
				Text:   "Pick option two",
				Points: 1,
				Options: []domain.Option{
					{ID: "opt1", Text: "one"},
					{ID: "opt2", Text: "two", IsCorrect: true},
				},
			},
			{
				ID:            "q2",
				Type:          domain.QuestionTrueFalse,
				Text:          "The sky is blue",
				Points:        1,
				CorrectAnswer: "true",
				Explanation:   "Rayleigh scattering",
			},
		},
	}
}
