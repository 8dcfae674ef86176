// Package cli holds the quizctl commands used to operate the quiz outside the HTTP server.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/formula-ihu/quiz-api/internal/config"
	"github.com/formula-ihu/quiz-api/internal/quizcache"
	pgRepo "github.com/formula-ihu/quiz-api/internal/repository/postgres"
	"github.com/formula-ihu/quiz-api/internal/service"
	"github.com/formula-ihu/quiz-api/pkg/database"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "quizctl",
		Short:         "Operate the Formula IHU registration quiz",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewImportCmd(&configPath))
	cmd.AddCommand(NewActivateCmd(&configPath))
	cmd.AddCommand(NewListCmd(&configPath))
	cmd.AddCommand(NewExportCmd(&configPath))
	cmd.AddCommand(NewTakeCmd())
	cmd.AddCommand(NewHashPasswordCmd())
	return cmd
}

// openDB loads the config and connects to postgres.
func openDB(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), false)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, db, nil
}

// newQuizService builds a loader over the postgres content store.
func newQuizService(db *gorm.DB) *service.QuizService {
	return service.NewQuizService(pgRepo.NewQuizRepo(db), quizcache.New(0, 0, time.Now))
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
