package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	pgRepo "github.com/formula-ihu/quiz-api/internal/repository/postgres"
	"github.com/formula-ihu/quiz-api/internal/service"
)

// NewExportCmd writes a results export to a file.
func NewExportCmd(configPath *string) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export quiz results (csv, pdf, scoring, xlsx)",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := service.ParseExportFormat(format)
			if !ok {
				return fmt.Errorf("unknown export format %q (want csv, pdf, scoring or xlsx)", format)
			}
			if out == "" {
				out = f.Filename(time.Now())
			}

			_, db, err := openDB(*configPath)
			if err != nil {
				return err
			}
			defer closeDB(db)

			exports := service.NewExportService(newQuizService(db), pgRepo.NewSubmissionRepo(db))

			file, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := exports.Write(cmd.Context(), f, file); err != nil {
				file.Close()
				_ = os.Remove(out)
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv, pdf, scoring or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to the dated download name)")
	return cmd
}
