package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/metrics"
)

// SessionRepository tracks open sessions (in-memory, Redis-backed liveness, etc).
type SessionRepository interface {
	Add(session *Session)
	Get(sessionID string) (*Session, bool)
	// Remove reports whether the session was present, so only one caller closes it.
	Remove(sessionID string) bool
}

// QuizRepository loads quiz content (from cache/backing store). Implementations return
// domain.ErrQuizNotFound or a quiz that passed Validate.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizService contains the quiz session use cases.
type QuizService struct {
	sessions  SessionRepository
	quizzes   QuizRepository
	attempts  AttemptRepository
	submitter *AttemptSubmitter

	log           *zap.Logger
	metrics       *metrics.Metrics
	submitTimeout time.Duration
	sessionOpts   []SessionOption
}

// ServiceOption customizes a QuizService.
type ServiceOption func(*QuizService)

func WithServiceLogger(log *zap.Logger) ServiceOption {
	return func(s *QuizService) { s.log = log }
}

func WithServiceMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *QuizService) { s.metrics = m }
}

// WithSubmitTimeout bounds each attempt save.
func WithSubmitTimeout(d time.Duration) ServiceOption {
	return func(s *QuizService) { s.submitTimeout = d }
}

// WithSessionOptions applies extra options to every session the service starts.
func WithSessionOptions(opts ...SessionOption) ServiceOption {
	return func(s *QuizService) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

func NewQuizService(store SessionRepository, quizzes QuizRepository, attempts AttemptRepository, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		sessions: store,
		quizzes:  quizzes,
		attempts: attempts,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.submitter = NewAttemptSubmitter(attempts, s.log, s.metrics, s.submitTimeout)
	return s
}

// Preview returns the learner-safe summary of a playable quiz.
func (s *QuizService) Preview(ctx context.Context, quizID string) (domain.QuizSummary, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizSummary{}, err
	}
	return quiz.Summary(), nil
}

// Start opens a new session for the user. A quiz failing content integrity never starts.
func (s *QuizService) Start(ctx context.Context, quizID, userID string) (*Session, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	opts := append([]SessionOption{WithLogger(s.log), WithMetrics(s.metrics)}, s.sessionOpts...)
	session := NewSession(uuid.NewString(), quiz, userID, s.submitter, opts...)
	if err := session.Start(); err != nil {
		return nil, err
	}
	s.sessions.Add(session)
	s.metrics.SessionStarted()
	return session, nil
}

// Session returns an open session.
func (s *QuizService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// End closes the session and releases its timer. Safe to call more than once.
func (s *QuizService) End(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	if !s.sessions.Remove(sessionID) {
		return
	}
	session.Close()
	s.metrics.SessionEnded()
}

// Attempts lists the user's persisted attempts for a quiz, newest first.
func (s *QuizService) Attempts(ctx context.Context, quizID, userID string) ([]domain.Attempt, error) {
	attempts, err := s.attempts.ListAttempts(ctx, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

func (s *QuizService) loadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := quiz.Validate(); err != nil {
		s.log.Warn("quiz rejected", zap.String("quiz_id", quizID), zap.Error(err))
		return domain.Quiz{}, err
	}
	return quiz, nil
}
