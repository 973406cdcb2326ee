package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"quiz-engine/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        string      `bun:"id,pk"`
	Data      domain.Quiz `bun:"data,type:jsonb"`
	UpdatedAt time.Time   `bun:"updated_at"`
}

// QuizWriter upserts quiz content; it backs the seed command.
type QuizWriter struct {
	db *bun.DB
}

func NewQuizWriter(db *bun.DB) *QuizWriter {
	return &QuizWriter{db: db}
}

// UpsertQuizzes validates every quiz and writes them in one transaction.
// Nothing is written when any quiz fails content integrity.
func (w *QuizWriter) UpsertQuizzes(ctx context.Context, quizzes []domain.Quiz) error {
	if len(quizzes) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]quizRow, 0, len(quizzes))
	for _, quiz := range quizzes {
		if err := quiz.Validate(); err != nil {
			return fmt.Errorf("quiz %q: %w", quiz.ID, err)
		}
		rows = append(rows, quizRow{ID: quiz.ID, Data: quiz, UpdatedAt: now})
	}

	return w.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (id) DO UPDATE").
			Set("data = EXCLUDED.data").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}
