package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
)

// QuizHandler serves the read-only quiz endpoints.
type QuizHandler struct {
	service  *app.QuizService
	identity IdentityFunc
	log      *zap.Logger
}

func NewQuizHandler(service *app.QuizService, identity IdentityFunc, log *zap.Logger) *QuizHandler {
	if identity == nil {
		identity = UserFromRequest
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &QuizHandler{service: service, identity: identity, log: log}
}

// Preview returns the quiz summary shown before a session starts.
func (h *QuizHandler) Preview(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	summary, err := h.service.Preview(r.Context(), quizID)
	if err != nil {
		h.logFailure("preview quiz failed", quizID, err)
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Attempts lists the caller's persisted attempts, newest first.
func (h *QuizHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	userID, err := h.identity(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	quizID := chi.URLParam(r, "quizID")
	attempts, err := h.service.Attempts(r.Context(), quizID, userID)
	if err != nil {
		h.logFailure("list attempts failed", quizID, err)
		writeErr(w, err)
		return
	}
	if attempts == nil {
		attempts = []domain.Attempt{}
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (h *QuizHandler) logFailure(msg, quizID string, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		h.log.Error(msg, zap.String("quiz_id", quizID), zap.Error(err))
	}
}
