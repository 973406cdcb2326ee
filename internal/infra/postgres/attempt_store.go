package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-engine/internal/domain"
)

// AttemptStore persists completed attempts in the attempts table.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

// SaveAttempt inserts the attempt. Attempts are write-once; a duplicate id fails.
func (s *AttemptStore) SaveAttempt(ctx context.Context, attempt domain.Attempt) error {
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO attempts (id, quiz_id, user_id, answers, earned_points, total_points,
	percentage, passed, time_taken_seconds, submit_trigger, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		attempt.ID, attempt.QuizID, attempt.UserID, answers,
		attempt.EarnedPoints, attempt.TotalPoints, attempt.Percentage, attempt.Passed,
		attempt.TimeTakenSeconds, string(attempt.Trigger), attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// ListAttempts returns the user's attempts for a quiz, newest first.
func (s *AttemptStore) ListAttempts(ctx context.Context, quizID, userID string) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id::text, quiz_id, user_id, answers, earned_points, total_points,
	percentage, passed, time_taken_seconds, submit_trigger, created_at
FROM attempts
WHERE quiz_id=$1 AND user_id=$2
ORDER BY created_at DESC`, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		var (
			a       domain.Attempt
			answers []byte
			trigger string
		)
		if err := rows.Scan(&a.ID, &a.QuizID, &a.UserID, &answers, &a.EarnedPoints, &a.TotalPoints,
			&a.Percentage, &a.Passed, &a.TimeTakenSeconds, &trigger, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if err := json.Unmarshal(answers, &a.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		a.Trigger = domain.Trigger(trigger)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
