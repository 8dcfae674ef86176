package cli

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/formula-ihu/quiz-api/pkg/database"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB(*configPath)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
				return err
			}
			log.Printf("migrations applied")
			return nil
		},
	}
}
