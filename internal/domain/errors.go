package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizUnavailable wraps content-integrity failures; such a quiz is never playable.
	ErrQuizUnavailable = errors.New("quiz unavailable")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSessionNotFound is returned when a quiz session has not been started.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionClosed is returned for commands sent to a session that has ended.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrSessionNotRunning rejects learner input once the session left the running phase.
	ErrSessionNotRunning = errors.New("quiz session is not running")
	// ErrSessionNotCompleted rejects a retry before results are available.
	ErrSessionNotCompleted = errors.New("quiz session is not completed")
	// ErrUnauthenticated indicates no user identity could be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
)
