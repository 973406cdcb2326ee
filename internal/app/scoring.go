package app

import "quiz-engine/internal/domain"

// Score grades every question of the quiz in order. It is pure: no I/O, no clock.
func Score(quiz domain.Quiz, answers map[string]domain.AnswerValue) domain.ScoringResult {
	result := domain.ScoringResult{
		Questions: make([]domain.QuestionResult, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		points := q.EffectivePoints()
		answer, ok := answers[q.ID]
		correct := ok && domain.IsCorrect(q, answer)

		awarded := 0
		if correct {
			awarded = points
		}
		result.EarnedPoints += awarded
		result.TotalPoints += points
		result.Questions = append(result.Questions, domain.QuestionResult{
			QuestionID:           q.ID,
			IsCorrect:            correct,
			AwardedPoints:        awarded,
			CorrectAnswerDisplay: domain.CorrectAnswerDisplay(q),
			Explanation:          q.Explanation,
		})
	}
	result.Percentage = percentage(result.EarnedPoints, result.TotalPoints)
	result.Passed = result.Percentage >= quiz.PassingScore
	return result
}

// percentage rounds 100*earned/total half-up using integer arithmetic.
func percentage(earned, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*earned + total) / (2 * total)
}
