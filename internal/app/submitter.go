package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/metrics"
)

// AttemptRepository persists completed attempts.
type AttemptRepository interface {
	SaveAttempt(ctx context.Context, attempt domain.Attempt) error
	ListAttempts(ctx context.Context, quizID, userID string) ([]domain.Attempt, error)
}

// AttemptSubmitter hands completed attempts to the AttemptRepository without blocking
// the session. Each Submit call performs exactly one save; there is no retry.
type AttemptSubmitter struct {
	repo    AttemptRepository
	log     *zap.Logger
	metrics *metrics.Metrics
	timeout time.Duration
	now     func() time.Time
}

func NewAttemptSubmitter(repo AttemptRepository, log *zap.Logger, m *metrics.Metrics, timeout time.Duration) *AttemptSubmitter {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AttemptSubmitter{
		repo:    repo,
		log:     log,
		metrics: m,
		timeout: timeout,
		now:     time.Now,
	}
}

// Build assembles the attempt record for a scored session pass.
func (s *AttemptSubmitter) Build(quiz domain.Quiz, userID string, answers map[string]domain.AnswerValue, result domain.ScoringResult, timeTakenSeconds int, trigger domain.Trigger) domain.Attempt {
	return domain.Attempt{
		ID:               uuid.NewString(),
		QuizID:           quiz.ID,
		UserID:           userID,
		Answers:          answers,
		EarnedPoints:     result.EarnedPoints,
		TotalPoints:      result.TotalPoints,
		Percentage:       result.Percentage,
		Passed:           result.Passed,
		TimeTakenSeconds: timeTakenSeconds,
		Trigger:          trigger,
		CreatedAt:        s.now().UTC(),
	}
}

// Submit saves the attempt in a background goroutine. The returned channel receives the
// outcome once and is buffered, so nobody has to read it.
func (s *AttemptSubmitter) Submit(ctx context.Context, attempt domain.Attempt) <-chan error {
	done := make(chan error, 1)
	// Closing the session must not cancel an in-flight save.
	ctx = context.WithoutCancel(ctx)

	go func() {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		start := time.Now()
		err := s.repo.SaveAttempt(ctx, attempt)
		s.metrics.Persisted(time.Since(start).Seconds(), err)

		log := s.log.With(
			zap.String("attempt_id", attempt.ID),
			zap.String("quiz_id", attempt.QuizID),
			zap.String("user_id", attempt.UserID),
		)
		if err != nil {
			log.Error("persist attempt failed", zap.Error(err))
		} else {
			log.Info("attempt persisted", zap.Int("percentage", attempt.Percentage))
		}
		done <- err
	}()
	return done
}
