package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"
	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/infra/memory"
	"quiz-engine/internal/metrics"
)

func newTestService(t *testing.T, quizzes map[string]domain.Quiz) (*app.QuizService, *memory.SessionStore, *memory.AttemptStore, *manualClock) {
	t.Helper()
	clock := &manualClock{}
	sessions := memory.NewSessionStore()
	attempts := memory.NewAttemptStore()
	loader := memory.NewStaticQuizLoader(quizzes)
	service := app.NewQuizService(
		sessions,
		memory.NewQuizRepository(loader, time.Minute),
		attempts,
		app.WithSubmitTimeout(time.Second),
		app.WithSessionOptions(app.WithTicker(clock.factory)),
	)
	return service, sessions, attempts, clock
}

func TestStartAndSubmitThroughService(t *testing.T) {
	ctx := context.Background()
	service, sessions, _, _ := newTestService(t, map[string]domain.Quiz{"quiz-1": twoQuestionQuiz()})

	session, err := service.Start(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer service.End(session.ID())

	if got, err := service.Session(session.ID()); err != nil || got != session {
		t.Fatalf("expected session registered, got %v (%v)", got, err)
	}
	if sessions.Len() != 1 {
		t.Fatalf("expected 1 open session, got %d", sessions.Len())
	}

	session.Answer("q1", domain.SelectOptions("opt2"))
	session.Answer("q2", domain.BooleanAnswer("true"))
	snap, err := session.Submit(domain.TriggerManual)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if snap.Result.Percentage != 100 || !snap.Result.Passed {
		t.Fatalf("expected a perfect pass, got %+v", snap.Result)
	}
	waitForAttemptStatus(t, session, app.AttemptSaved)

	attempts, err := service.Attempts(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if len(attempts) != 1 || attempts[0].Percentage != 100 || attempts[0].Trigger != domain.TriggerManual {
		t.Fatalf("unexpected attempts %+v", attempts)
	}
}

func TestStartRejectsInvalidQuiz(t *testing.T) {
	broken := twoQuestionQuiz()
	broken.Questions[0].Options[1].IsCorrect = false
	service, sessions, _, _ := newTestService(t, map[string]domain.Quiz{"quiz-1": broken})

	if _, err := service.Start(context.Background(), "quiz-1", "u1"); !errors.Is(err, domain.ErrQuizUnavailable) {
		t.Fatalf("expected ErrQuizUnavailable, got %v", err)
	}
	if sessions.Len() != 0 {
		t.Fatalf("expected no session for an invalid quiz")
	}
}

func TestStartUnknownQuiz(t *testing.T) {
	service, _, _, _ := newTestService(t, map[string]domain.Quiz{})
	if _, err := service.Start(context.Background(), "missing", "u1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if _, err := service.Preview(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound from preview, got %v", err)
	}
}

func TestEndClosesSessionOnce(t *testing.T) {
	m := metrics.New()
	clock := &manualClock{}
	sessions := memory.NewSessionStore()
	service := app.NewQuizService(
		sessions,
		memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{"quiz-1": twoQuestionQuiz()}), time.Minute),
		memory.NewAttemptStore(),
		app.WithServiceMetrics(m),
		app.WithServiceLogger(zaptest.NewLogger(t)),
		app.WithSessionOptions(app.WithTicker(clock.factory)),
	)

	session, err := service.Start(context.Background(), "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 1 {
		t.Fatalf("expected 1 active session, got %v", got)
	}

	service.End(session.ID())
	service.End(session.ID())

	if got := testutil.ToFloat64(m.SessionsActive); got != 0 {
		t.Fatalf("expected 0 active sessions, got %v", got)
	}
	if !clock.current(t).isStopped() {
		t.Fatalf("expected timer released on end")
	}
	if _, err := service.Session(session.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := session.Snapshot(); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestPreviewSummarizesQuiz(t *testing.T) {
	service, _, _, _ := newTestService(t, map[string]domain.Quiz{"quiz-1": twoQuestionQuiz()})

	summary, err := service.Preview(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if summary.QuestionCount != 2 || summary.TotalPoints != 2 || summary.PassingScore != 70 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	service, _, _, _ := newTestService(t, map[string]domain.Quiz{"quiz-1": twoQuestionQuiz()})

	a, err := service.Start(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start a: %v", err)
	}
	defer service.End(a.ID())
	b, err := service.Start(ctx, "quiz-1", "u2")
	if err != nil {
		t.Fatalf("start b: %v", err)
	}
	defer service.End(b.ID())

	if a.ID() == b.ID() {
		t.Fatalf("expected distinct session ids")
	}
	a.Answer("q1", domain.SelectOptions("opt1"))
	snap, _ := b.Snapshot()
	if snap.AnsweredCount != 0 {
		t.Fatalf("answers leaked between sessions")
	}
}
