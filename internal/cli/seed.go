package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"quiz-engine/internal/config"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/infra/memory"
	"quiz-engine/internal/infra/postgres"
	redisinfra "quiz-engine/internal/infra/redis"
)

// NewSeedCmd loads quizzes from a YAML file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Validate quizzes from a YAML file and upsert them into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			if file == "" {
				file = cfg.Quiz.File
			}
			return runSeed(cmd.Context(), cfg, file, log)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "quiz YAML file (defaults to quiz.file from config)")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, file string, log *zap.Logger) error {
	if file == "" {
		return fmt.Errorf("no quiz file given")
	}
	byID, err := memory.LoadQuizFile(file)
	if err != nil {
		return err
	}
	quizzes := make([]domain.Quiz, 0, len(byID))
	for _, quiz := range byID {
		quizzes = append(quizzes, quiz)
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID < quizzes[j].ID })

	if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
		return err
	}
	db, err := openBunDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.NewQuizWriter(db).UpsertQuizzes(ctx, quizzes); err != nil {
		return err
	}
	log.Info("quizzes seeded", zap.String("file", file), zap.Int("count", len(quizzes)))

	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()
	cache := redisinfra.NewQuizRepository(client, nil, 0, log)
	for _, quiz := range quizzes {
		if err := cache.Invalidate(ctx, quiz.ID); err != nil {
			log.Warn("invalidate cached quiz failed", zap.String("quiz_id", quiz.ID), zap.Error(err))
		}
	}
	return nil
}
