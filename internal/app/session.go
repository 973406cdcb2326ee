package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/metrics"
)

// Attempt persistence states reported in snapshots.
const (
	AttemptPending = "pending"
	AttemptSaved   = "saved"
	AttemptFailed  = "failed"
)

const persistFailedNotice = "Your results are shown but could not be saved."

// Snapshot is a read-only view of a session, enough to render question, timer and results.
type Snapshot struct {
	SessionID        string                        `json:"sessionId"`
	QuizID           string                        `json:"quizId"`
	Title            string                        `json:"title"`
	Phase            domain.Phase                  `json:"phase"`
	CurrentIndex     int                           `json:"currentIndex"`
	QuestionCount    int                           `json:"questionCount"`
	Current          domain.QuestionView           `json:"current"`
	RemainingSeconds int                           `json:"remainingSeconds"`
	TimeLimitSeconds int                           `json:"timeLimitSeconds"`
	Answers          map[string]domain.AnswerValue `json:"answers"`
	AnsweredCount    int                           `json:"answeredCount"`
	Unanswered       []string                      `json:"unanswered"`
	Result           *domain.ScoringResult         `json:"result,omitempty"`
	AttemptStatus    string                        `json:"attemptStatus,omitempty"`
	Notice           string                        `json:"notice,omitempty"`
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithTicker replaces the wall-clock tick source.
func WithTicker(factory TickerFactory) SessionOption {
	return func(s *Session) { s.newTicker = factory }
}

func WithLogger(log *zap.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// Session is one learner's pass through a quiz. All state below the loop marker is owned by
// the session goroutine; public methods hand closures to it and wait, so learner input,
// timer ticks and persistence outcomes never interleave.
type Session struct {
	id        string
	quiz      domain.Quiz
	userID    string
	submitter *AttemptSubmitter
	newTicker TickerFactory
	log       *zap.Logger
	metrics   *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	cmds   chan func()
	done   chan struct{}

	// loop-owned
	phase         domain.Phase
	index         int
	answers       *AnswerStore
	timer         *Timer
	result        *domain.ScoringResult
	attemptStatus string
	notice        string
	persisted     <-chan error

	mu          sync.Mutex
	started     bool
	closed      bool
	subscribers map[chan Snapshot]struct{}
}

// NewSession prepares a session for a validated quiz. Call Start to begin the countdown.
func NewSession(id string, quiz domain.Quiz, userID string, submitter *AttemptSubmitter, opts ...SessionOption) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:          id,
		quiz:        quiz,
		userID:      userID,
		submitter:   submitter,
		newTicker:   NewStdTicker,
		log:         zap.NewNop(),
		ctx:         ctx,
		cancel:      cancel,
		cmds:        make(chan func()),
		done:        make(chan struct{}),
		phase:       domain.PhaseRunning,
		answers:     NewAnswerStore(quiz.QuestionIDs()),
		timer:       NewTimer(quiz.TimeLimitSeconds()),
		subscribers: make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(
		zap.String("session_id", id),
		zap.String("quiz_id", quiz.ID),
		zap.String("user_id", userID),
	)
	return s
}

func (s *Session) ID() string     { return s.id }
func (s *Session) QuizID() string { return s.quiz.ID }
func (s *Session) UserID() string { return s.userID }

// TimeLimit is the quiz's countdown budget.
func (s *Session) TimeLimit() time.Duration {
	return time.Duration(s.quiz.TimeLimitSeconds()) * time.Second
}

// Question looks up a question of the session's quiz. The quiz never changes, so this
// does not go through the loop.
func (s *Session) Question(id string) (domain.Question, bool) {
	return s.quiz.Question(id)
}

// Done is closed once the session loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start acquires the timer and runs the session loop until Close.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.timer.Start(s.newTicker)
	s.log.Info("session started", zap.Int("time_limit_seconds", s.timer.Budget()))
	go s.run()
	return nil
}

// Close stops the loop and releases the timer. It is idempotent and waits for the loop to exit.
func (s *Session) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.cancel()
		if !s.started {
			close(s.done)
		}
	}
	s.mu.Unlock()
	<-s.done
}

func (s *Session) run() {
	defer close(s.done)
	defer s.shutdown()

	for {
		select {
		case <-s.ctx.Done():
			return
		case cmd := <-s.cmds:
			cmd()
		case <-s.timer.C():
			s.tick()
		case err := <-s.persisted:
			s.attemptPersisted(err)
		}
	}
}

func (s *Session) shutdown() {
	s.timer.Stop()
	s.mu.Lock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()
	s.log.Info("session closed", zap.String("phase", string(s.phase)))
}

// do runs fn on the session loop and waits for it.
func (s *Session) do(fn func()) error {
	finished := make(chan struct{})
	cmd := func() {
		fn()
		close(finished)
	}
	select {
	case s.cmds <- cmd:
	case <-s.done:
		return domain.ErrSessionClosed
	}
	<-finished
	return nil
}

// call runs a state transition on the loop, broadcasting when it reports a change.
func (s *Session) call(fn func() (bool, error)) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if loopErr := s.do(func() {
		var changed bool
		changed, err = fn()
		snap = s.snapshot()
		if changed {
			s.broadcast(snap)
		}
	}); loopErr != nil {
		return Snapshot{}, loopErr
	}
	return snap, err
}

// Snapshot returns the current state.
func (s *Session) Snapshot() (Snapshot, error) {
	return s.call(func() (bool, error) { return false, nil })
}

// Answer records a response. Correctness is only evaluated at submission.
func (s *Session) Answer(questionID string, value domain.AnswerValue) (Snapshot, error) {
	return s.call(func() (bool, error) {
		if s.phase != domain.PhaseRunning {
			return false, domain.ErrSessionNotRunning
		}
		if _, ok := s.quiz.Question(questionID); !ok {
			return false, domain.ErrQuestionNotFound
		}
		s.answers.Set(questionID, value)
		return true, nil
	})
}

// GoTo moves to a question; out-of-range indexes are clamped.
func (s *Session) GoTo(index int) (Snapshot, error) {
	return s.call(func() (bool, error) {
		if s.phase != domain.PhaseRunning {
			return false, domain.ErrSessionNotRunning
		}
		s.index = clamp(index, 0, len(s.quiz.Questions)-1)
		return true, nil
	})
}

func (s *Session) Next() (Snapshot, error) {
	return s.call(func() (bool, error) {
		if s.phase != domain.PhaseRunning {
			return false, domain.ErrSessionNotRunning
		}
		s.index = clamp(s.index+1, 0, len(s.quiz.Questions)-1)
		return true, nil
	})
}

func (s *Session) Previous() (Snapshot, error) {
	return s.call(func() (bool, error) {
		if s.phase != domain.PhaseRunning {
			return false, domain.ErrSessionNotRunning
		}
		s.index = clamp(s.index-1, 0, len(s.quiz.Questions)-1)
		return true, nil
	})
}

// Submit scores the session and hands the attempt to the submitter. Outside the running
// phase it is a no-op, so a double click or a click racing the timer scores only once.
// Confirming unanswered questions before a manual submit is the caller's job.
func (s *Session) Submit(trigger domain.Trigger) (Snapshot, error) {
	return s.call(func() (bool, error) {
		return s.submit(trigger), nil
	})
}

// Retry discards the completed pass and restarts with empty answers and the full time budget.
func (s *Session) Retry() (Snapshot, error) {
	return s.call(func() (bool, error) {
		if s.phase != domain.PhaseCompleted {
			return false, domain.ErrSessionNotCompleted
		}
		s.timer.Stop()
		s.timer = NewTimer(s.quiz.TimeLimitSeconds())
		s.answers = NewAnswerStore(s.quiz.QuestionIDs())
		s.index = 0
		s.result = nil
		s.attemptStatus = ""
		s.notice = ""
		s.persisted = nil
		s.phase = domain.PhaseRunning
		s.timer.Start(s.newTicker)
		s.log.Info("session retried")
		return true, nil
	})
}

// Subscribe streams snapshots after every state change, starting with the current one.
// Slow readers only see the latest snapshot. The channel closes when the session ends.
func (s *Session) Subscribe() (<-chan Snapshot, func(), error) {
	ch := make(chan Snapshot, 8)
	err := s.do(func() {
		s.mu.Lock()
		s.subscribers[ch] = struct{}{}
		s.mu.Unlock()
		ch <- s.snapshot()
	})
	if err != nil {
		return nil, nil, err
	}
	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *Session) tick() {
	if s.phase != domain.PhaseRunning {
		return
	}
	if s.timer.Tick() {
		s.log.Info("time limit reached")
		s.submit(domain.TriggerTimeout)
	}
	s.broadcast(s.snapshot())
}

func (s *Session) submit(trigger domain.Trigger) bool {
	if s.phase != domain.PhaseRunning {
		return false
	}
	s.phase = domain.PhaseSubmitting
	s.timer.Stop()
	s.broadcast(s.snapshot())

	answers := s.answers.Values()
	result := Score(s.quiz, answers)
	s.result = &result
	s.metrics.Submitted(string(trigger), result.Percentage)
	s.log.Info("session submitted",
		zap.String("trigger", string(trigger)),
		zap.Int("earned_points", result.EarnedPoints),
		zap.Int("total_points", result.TotalPoints),
		zap.Int("percentage", result.Percentage),
		zap.Bool("passed", result.Passed),
	)

	if s.submitter != nil {
		attempt := s.submitter.Build(s.quiz, s.userID, answers, result, s.timer.Elapsed(), trigger)
		s.persisted = s.submitter.Submit(s.ctx, attempt)
		s.attemptStatus = AttemptPending
	}
	s.phase = domain.PhaseCompleted
	return true
}

func (s *Session) attemptPersisted(err error) {
	s.persisted = nil
	if err != nil {
		s.attemptStatus = AttemptFailed
		s.notice = persistFailedNotice
	} else {
		s.attemptStatus = AttemptSaved
	}
	s.broadcast(s.snapshot())
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		SessionID:        s.id,
		QuizID:           s.quiz.ID,
		Title:            s.quiz.Title,
		Phase:            s.phase,
		CurrentIndex:     s.index,
		QuestionCount:    len(s.quiz.Questions),
		RemainingSeconds: s.timer.Remaining(),
		TimeLimitSeconds: s.timer.Budget(),
		Answers:          s.answers.Values(),
		AnsweredCount:    s.answers.AnsweredCount(),
		Unanswered:       s.answers.UnansweredQuestionIDs(),
		Result:           s.result,
		AttemptStatus:    s.attemptStatus,
		Notice:           s.notice,
	}
	if s.index < len(s.quiz.Questions) {
		snap.Current = s.quiz.Questions[s.index].View()
	}
	return snap
}

func (s *Session) broadcast(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow reader never blocks the loop.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
