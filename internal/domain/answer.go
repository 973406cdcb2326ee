package domain

import (
	"encoding/json"
	"strings"
)

// AnswerKind tags the shape of an AnswerValue. Each kind pairs with one QuestionType.
type AnswerKind string

const (
	AnswerSelection AnswerKind = "selection" // multiple_choice
	AnswerBoolean   AnswerKind = "boolean"   // true_false
	AnswerText      AnswerKind = "text"      // short_answer
)

// AnswerValue is a learner response. The zero value is a malformed answer and never scores.
type AnswerValue struct {
	Kind     AnswerKind `json:"kind,omitempty"`
	Selected []string   `json:"selected,omitempty"`
	Text     string     `json:"text,omitempty"`
}

// SelectOptions builds a multiple choice answer.
func SelectOptions(ids ...string) AnswerValue {
	return AnswerValue{Kind: AnswerSelection, Selected: append([]string(nil), ids...)}
}

// BooleanAnswer builds a true/false answer from its literal ("true" or "false").
func BooleanAnswer(literal string) AnswerValue {
	return AnswerValue{Kind: AnswerBoolean, Text: literal}
}

// TextAnswer builds a short answer.
func TextAnswer(text string) AnswerValue {
	return AnswerValue{Kind: AnswerText, Text: text}
}

// IsEmpty reports whether the value carries no response at all.
func (a AnswerValue) IsEmpty() bool {
	switch a.Kind {
	case AnswerSelection:
		return len(a.Selected) == 0
	case AnswerBoolean, AnswerText:
		return strings.TrimSpace(a.Text) == ""
	default:
		return true
	}
}

// KindFor returns the answer kind a question type expects.
func KindFor(t QuestionType) AnswerKind {
	switch t {
	case QuestionMultipleChoice:
		return AnswerSelection
	case QuestionTrueFalse:
		return AnswerBoolean
	case QuestionShortAnswer:
		return AnswerText
	default:
		return ""
	}
}

// DecodeAnswer converts a wire value into the AnswerValue matching the question's type.
// Shapes that do not fit yield the zero AnswerValue instead of an error.
func DecodeAnswer(q Question, raw json.RawMessage) AnswerValue {
	switch q.Type {
	case QuestionMultipleChoice:
		var single string
		if err := json.Unmarshal(raw, &single); err == nil {
			if single == "" {
				return SelectOptions()
			}
			return SelectOptions(single)
		}
		var many []string
		if err := json.Unmarshal(raw, &many); err == nil {
			return SelectOptions(many...)
		}
	case QuestionTrueFalse:
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			if b {
				return BooleanAnswer("true")
			}
			return BooleanAnswer("false")
		}
		var literal string
		if err := json.Unmarshal(raw, &literal); err == nil {
			return BooleanAnswer(literal)
		}
	case QuestionShortAnswer:
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			return TextAnswer(text)
		}
	}
	return AnswerValue{}
}
