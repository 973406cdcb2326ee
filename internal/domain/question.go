package domain

import (
	"fmt"
	"strings"
)

// EffectivePoints returns the question's weight; a zero value counts as one point.
func (q Question) EffectivePoints() int {
	if q.Points == 0 {
		return 1
	}
	return q.Points
}

// IsCorrect is the single correctness predicate per question type.
// Missing, empty or mismatched answers are incorrect, never an error.
func IsCorrect(q Question, a AnswerValue) bool {
	if a.Kind != KindFor(q.Type) || a.IsEmpty() {
		return false
	}
	switch q.Type {
	case QuestionMultipleChoice:
		return setEqual(toSet(a.Selected), correctOptionSet(q))
	case QuestionTrueFalse:
		return a.Text == q.CorrectAnswer
	case QuestionShortAnswer:
		return normalizeText(a.Text) == normalizeText(q.CorrectAnswer)
	default:
		return false
	}
}

// CorrectAnswerDisplay renders the expected answer for learner feedback.
func CorrectAnswerDisplay(q Question) string {
	switch q.Type {
	case QuestionMultipleChoice:
		for _, opt := range q.Options {
			if opt.IsCorrect {
				return opt.Text
			}
		}
		return ""
	default:
		return q.CorrectAnswer
	}
}

// Validate enforces the content-integrity rules a quiz must satisfy before it can be played.
// Failures wrap ErrQuizUnavailable.
func (q Quiz) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("%w: missing quiz id", ErrQuizUnavailable)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz %s has no questions", ErrQuizUnavailable, q.ID)
	}
	if q.TimeLimitMinutes <= 0 {
		return fmt.Errorf("%w: quiz %s time limit must be positive", ErrQuizUnavailable, q.ID)
	}
	if q.PassingScore < 0 || q.PassingScore > 100 {
		return fmt.Errorf("%w: quiz %s passing score %d out of range", ErrQuizUnavailable, q.ID, q.PassingScore)
	}
	seen := make(map[string]struct{}, len(q.Questions))
	for _, question := range q.Questions {
		if question.ID == "" {
			return fmt.Errorf("%w: quiz %s has a question without id", ErrQuizUnavailable, q.ID)
		}
		if _, dup := seen[question.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %s", ErrQuizUnavailable, question.ID)
		}
		seen[question.ID] = struct{}{}
		if err := question.validate(); err != nil {
			return fmt.Errorf("%w: question %s: %s", ErrQuizUnavailable, question.ID, err)
		}
	}
	return nil
}

func (q Question) validate() error {
	if q.Points < 0 {
		return fmt.Errorf("negative points")
	}
	switch q.Type {
	case QuestionMultipleChoice:
		if len(q.Options) == 0 {
			return fmt.Errorf("no options")
		}
		ids := make(map[string]struct{}, len(q.Options))
		correct := 0
		for _, opt := range q.Options {
			if opt.ID == "" {
				return fmt.Errorf("option without id")
			}
			if _, dup := ids[opt.ID]; dup {
				return fmt.Errorf("duplicate option id %s", opt.ID)
			}
			ids[opt.ID] = struct{}{}
			if opt.IsCorrect {
				correct++
			}
		}
		if correct == 0 {
			return fmt.Errorf("no correct option")
		}
	case QuestionTrueFalse:
		if q.CorrectAnswer != "true" && q.CorrectAnswer != "false" {
			return fmt.Errorf("correct answer must be \"true\" or \"false\"")
		}
	case QuestionShortAnswer:
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return fmt.Errorf("empty correct answer")
		}
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	return nil
}

func correctOptionSet(q Question) map[string]struct{} {
	set := make(map[string]struct{})
	for _, opt := range q.Options {
		if opt.IsCorrect {
			set[opt.ID] = struct{}{}
		}
	}
	return set
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func normalizeText(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
