package domain

import "time"

// QuestionType is the closed set of question variants the engine can score.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
)

// Option represents a possible answer for a multiple choice question.
type Option struct {
	ID        string `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	IsCorrect bool   `json:"isCorrect" yaml:"is_correct"`
}

// Question is a single quiz item together with its answer key.
type Question struct {
	ID            string       `json:"id" yaml:"id"`
	Type          QuestionType `json:"type" yaml:"type"`
	Text          string       `json:"text" yaml:"text"`
	Points        int          `json:"points" yaml:"points"` // defaults to 1 if zero
	Explanation   string       `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Options       []Option     `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty" yaml:"correct_answer,omitempty"`
}

// Quiz is an ordered collection of questions played under a time limit.
type Quiz struct {
	ID               string     `json:"id" yaml:"id"`
	Title            string     `json:"title" yaml:"title"`
	TimeLimitMinutes int        `json:"timeLimitMinutes" yaml:"time_limit_minutes"`
	PassingScore     int        `json:"passingScore" yaml:"passing_score"`
	Questions        []Question `json:"questions" yaml:"questions"`
}

// TimeLimitSeconds is the full countdown budget of a session.
func (q Quiz) TimeLimitSeconds() int {
	return q.TimeLimitMinutes * 60
}

// QuestionIDs returns the question ids in quiz order.
func (q Quiz) QuestionIDs() []string {
	ids := make([]string, 0, len(q.Questions))
	for _, question := range q.Questions {
		ids = append(ids, question.ID)
	}
	return ids
}

// Question looks up a question by id.
func (q Quiz) Question(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// Phase is the lifecycle stage of a quiz session.
type Phase string

const (
	PhaseRunning    Phase = "running"
	PhaseSubmitting Phase = "submitting"
	PhaseCompleted  Phase = "completed"
)

// Trigger records what caused a submission.
type Trigger string

const (
	TriggerManual  Trigger = "manual"
	TriggerTimeout Trigger = "timeout"
)

// QuestionResult is the per-question outcome of scoring.
type QuestionResult struct {
	QuestionID           string `json:"questionId"`
	IsCorrect            bool   `json:"isCorrect"`
	AwardedPoints        int    `json:"awardedPoints"`
	CorrectAnswerDisplay string `json:"correctAnswerDisplay"`
	Explanation          string `json:"explanation,omitempty"`
}

// ScoringResult is computed once per submission and never mutated afterwards.
type ScoringResult struct {
	Questions    []QuestionResult `json:"questions"`
	EarnedPoints int              `json:"earnedPoints"`
	TotalPoints  int              `json:"totalPoints"`
	Percentage   int              `json:"percentage"`
	Passed       bool             `json:"passed"`
}

// Attempt is the persisted, write-once record of a completed session.
type Attempt struct {
	ID               string                 `json:"id"`
	QuizID           string                 `json:"quizId"`
	UserID           string                 `json:"userId"`
	Answers          map[string]AnswerValue `json:"answers"`
	EarnedPoints     int                    `json:"earnedPoints"`
	TotalPoints      int                    `json:"totalPoints"`
	Percentage       int                    `json:"percentage"`
	Passed           bool                   `json:"passed"`
	TimeTakenSeconds int                    `json:"timeTakenSeconds"`
	Trigger          Trigger                `json:"trigger"`
	CreatedAt        time.Time              `json:"createdAt"`
}

// OptionView is an option without its correctness flag.
type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionView is the learner-facing rendering of a question: no answer key.
// MultiSelect tells the UI to render checkboxes instead of radio buttons; it is set
// for multiple-choice questions with more than one correct option.
type QuestionView struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Text        string       `json:"text"`
	Points      int          `json:"points"`
	Options     []OptionView `json:"options,omitempty"`
	MultiSelect bool         `json:"multiSelect,omitempty"`
}

// View strips the answer key from a question.
func (q Question) View() QuestionView {
	view := QuestionView{
		ID:     q.ID,
		Type:   q.Type,
		Text:   q.Text,
		Points: q.EffectivePoints(),
	}
	for _, opt := range q.Options {
		view.Options = append(view.Options, OptionView{ID: opt.ID, Text: opt.Text})
	}
	if q.Type == QuestionMultipleChoice {
		view.MultiSelect = len(correctOptionSet(q)) > 1
	}
	return view
}

// QuizSummary is the learner-safe preview of a quiz.
type QuizSummary struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	QuestionCount    int    `json:"questionCount"`
	TotalPoints      int    `json:"totalPoints"`
	TimeLimitMinutes int    `json:"timeLimitMinutes"`
	PassingScore     int    `json:"passingScore"`
}

// Summary builds the preview of a quiz.
func (q Quiz) Summary() QuizSummary {
	total := 0
	for _, question := range q.Questions {
		total += question.EffectivePoints()
	}
	return QuizSummary{
		ID:               q.ID,
		Title:            q.Title,
		QuestionCount:    len(q.Questions),
		TotalPoints:      total,
		TimeLimitMinutes: q.TimeLimitMinutes,
		PassingScore:     q.PassingScore,
	}
}
