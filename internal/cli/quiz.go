package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
)

// quizFile is the YAML layout administrators write quiz content in.
type quizFile struct {
	Title              string         `yaml:"title"`
	ScheduledStartTime time.Time      `yaml:"scheduled_start_time"`
	Instructions       string         `yaml:"instructions"`
	Active             bool           `yaml:"active"`
	Questions          []questionFile `yaml:"questions"`
}

type questionFile struct {
	Position int      `yaml:"position"`
	Text     string   `yaml:"text"`
	Type     string   `yaml:"type"`
	Options  []string `yaml:"options"`
	Correct  string   `yaml:"correct"`
	Category string   `yaml:"category"`
	Points   float64  `yaml:"points"`
	ImageURL string   `yaml:"image_url"`
	FileURL  string   `yaml:"file_url"`
}

// parseQuizFile decodes and validates a quiz document. Questions without an
// explicit position are numbered in file order starting at 1.
func parseQuizFile(r io.Reader) (*entity.QuizDefinition, error) {
	var doc quizFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode quiz file: %w", err)
	}
	if len(doc.Questions) == 0 {
		return nil, fmt.Errorf("quiz file: at least one question is required")
	}

	quiz := &entity.QuizDefinition{
		Title:              doc.Title,
		IsActive:           doc.Active,
		ScheduledStartTime: doc.ScheduledStartTime.UTC(),
		Instructions:       doc.Instructions,
	}
	for i, q := range doc.Questions {
		position := q.Position
		if position == 0 {
			position = i + 1
		}

		qType := entity.QuestionType(q.Type)
		if qType == "" {
			qType = entity.QuestionTypeMultipleChoice
		}
		category := entity.QuestionCategory(q.Category)
		if category == "" {
			category = entity.CategoryCommon
		}
		points := q.Points
		if points == 0 {
			points = entity.DefaultQuestionPoints
		}
		quiz.Questions = append(quiz.Questions, entity.Question{
			Position:      position,
			Text:          q.Text,
			Type:          qType,
			Options:       entity.StringArray(q.Options),
			CorrectOption: q.Correct,
			Category:      category,
			Points:        points,
			ImageURL:      q.ImageURL,
			FileURL:       q.FileURL,
		})
	}
	quiz.SortQuestions()

	if err := quiz.Validate(); err != nil {
		return nil, fmt.Errorf("quiz file: %w", err)
	}
	return quiz, nil
}

// NewImportCmd stores quiz content from a YAML file.
func NewImportCmd(configPath *string) *cobra.Command {
	var activate bool

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import quiz content from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			quiz, err := parseQuizFile(f)
			if err != nil {
				return err
			}
			if activate {
				quiz.IsActive = true
			}

			_, db, err := openDB(*configPath)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := newQuizService(db).ImportQuiz(cmd.Context(), quiz); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported quiz #%d %q with %d questions (active=%t)\n",
				quiz.ID, quiz.Title, len(quiz.Questions), quiz.IsActive)
			return nil
		},
	}
	cmd.Flags().BoolVar(&activate, "activate", false, "mark the imported quiz active (deactivates every other quiz)")
	return cmd
}

// NewActivateCmd flags one stored quiz as the active one.
func NewActivateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <quiz-id>",
		Short: "Make a stored quiz the active quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid quiz id %q", args[0])
			}

			_, db, err := openDB(*configPath)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := newQuizService(db).ActivateQuiz(cmd.Context(), uint(id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "quiz #%d is now active\n", id)
			return nil
		},
	}
}

// NewListCmd prints the stored quizzes.
func NewListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored quizzes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB(*configPath)
			if err != nil {
				return err
			}
			defer closeDB(db)

			quizzes, err := newQuizService(db).ListQuizzes(cmd.Context())
			if err != nil {
				return err
			}
			return writeQuizList(cmd.OutOrStdout(), quizzes)
		},
	}
}

func writeQuizList(w io.Writer, quizzes []entity.QuizDefinition) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tACTIVE\tSTART (UTC)\tTITLE")
	for _, q := range quizzes {
		active := ""
		if q.IsActive {
			active = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", q.ID, active, q.ScheduledStartTime.UTC().Format("2006-01-02 15:04"), q.Title)
	}
	return tw.Flush()
}
