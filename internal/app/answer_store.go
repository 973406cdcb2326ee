package app

import "quiz-engine/internal/domain"

// AnswerStore holds the learner's current answer per question for one session pass.
// It performs no validation; scoring decides what a value is worth.
type AnswerStore struct {
	order  []string
	values map[string]domain.AnswerValue
}

func NewAnswerStore(questionIDs []string) *AnswerStore {
	return &AnswerStore{
		order:  append([]string(nil), questionIDs...),
		values: make(map[string]domain.AnswerValue, len(questionIDs)),
	}
}

// Set overwrites any prior value for the question.
func (s *AnswerStore) Set(questionID string, value domain.AnswerValue) {
	s.values[questionID] = value
}

func (s *AnswerStore) Get(questionID string) (domain.AnswerValue, bool) {
	v, ok := s.values[questionID]
	return v, ok
}

// AnsweredCount counts questions holding a non-empty answer.
func (s *AnswerStore) AnsweredCount() int {
	count := 0
	for _, id := range s.order {
		if v, ok := s.values[id]; ok && !v.IsEmpty() {
			count++
		}
	}
	return count
}

// UnansweredQuestionIDs lists, in quiz order, questions without a non-empty answer.
func (s *AnswerStore) UnansweredQuestionIDs() []string {
	ids := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if v, ok := s.values[id]; !ok || v.IsEmpty() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Values returns a copy safe to hand outside the session loop.
func (s *AnswerStore) Values() map[string]domain.AnswerValue {
	out := make(map[string]domain.AnswerValue, len(s.values))
	for id, v := range s.values {
		v.Selected = append([]string(nil), v.Selected...)
		out[id] = v
	}
	return out
}
