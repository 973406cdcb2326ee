package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"quiz-engine/internal/domain"
)

type errorPayload struct {
	Message string `json:"message"`
}

// errorMessage is the learner-facing text for an error. Internal details never leak.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuizUnavailable):
		return "quiz unavailable"
	case errors.Is(err, domain.ErrQuizNotFound):
		return "quiz not found"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return "question not found"
	case errors.Is(err, domain.ErrSessionNotRunning):
		return "session is not running"
	case errors.Is(err, domain.ErrSessionNotCompleted):
		return "session is not completed"
	case errors.Is(err, domain.ErrSessionClosed), errors.Is(err, domain.ErrSessionNotFound):
		return "session closed"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "internal error"
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrQuizUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorPayload{Message: errorMessage(err)})
}
