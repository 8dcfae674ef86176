package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
	"github.com/formula-ihu/quiz-api/internal/domain/repository"
	"github.com/formula-ihu/quiz-api/internal/export"
)

// ExportFormat names a downloadable results format.
type ExportFormat string

const (
	ExportCSV     ExportFormat = "csv"
	ExportPDF     ExportFormat = "pdf"
	ExportScoring ExportFormat = "scoring"
	ExportXLSX    ExportFormat = "xlsx"
)

// ContentType is the MIME type of the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportPDF:
		return "application/pdf"
	case ExportXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename is the attachment name for an export generated at t.
func (f ExportFormat) Filename(t time.Time) string {
	date := t.UTC().Format("2006-01-02")
	switch f {
	case ExportPDF:
		return fmt.Sprintf("quiz-results-%s.pdf", date)
	case ExportScoring:
		return fmt.Sprintf("quiz-scoring-template-%s.csv", date)
	case ExportXLSX:
		return fmt.Sprintf("quiz-results-%s.xlsx", date)
	default:
		return fmt.Sprintf("quiz-results-%s.csv", date)
	}
}

// ParseExportFormat validates a format name.
func ParseExportFormat(s string) (ExportFormat, bool) {
	switch f := ExportFormat(s); f {
	case ExportCSV, ExportPDF, ExportScoring, ExportXLSX:
		return f, true
	}
	return "", false
}

// quizReader is the part of QuizService exports need.
type quizReader interface {
	GetQuiz(ctx context.Context) (*entity.QuizDefinition, error)
}

// ExportService renders all submissions in one of the export formats.
type ExportService struct {
	quizzes     quizReader
	submissions repository.SubmissionRepository
	now         func() time.Time
}

// NewExportService creates the service.
func NewExportService(quizzes quizReader, submissions repository.SubmissionRepository) *ExportService {
	return &ExportService{quizzes: quizzes, submissions: submissions, now: time.Now}
}

// Dataset loads every submission and the current quiz. A missing quiz is
// not an error: formats fall back to stored scores and literal answers.
func (s *ExportService) Dataset(ctx context.Context) (*export.Dataset, error) {
	subs, err := s.submissions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	quiz, err := s.quizzes.GetQuiz(ctx)
	if err != nil {
		log.Printf("[ExportService] quiz content unavailable, exporting stored scores: %v", err)
		quiz = nil
	}
	ds := export.BuildDataset(quiz, subs, s.now())
	if ds.Duplicates > 0 {
		log.Printf("[ExportService] WARNING: %d duplicate submissions by email were skipped", ds.Duplicates)
	}
	return ds, nil
}

// Write renders format into w.
func (s *ExportService) Write(ctx context.Context, format ExportFormat, w io.Writer) error {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return err
	}
	switch format {
	case ExportCSV:
		return export.WriteResultsCSV(w, ds)
	case ExportPDF:
		return export.WriteResultsPDF(w, ds)
	case ExportScoring:
		return export.WriteScoringTemplate(w, ds)
	case ExportXLSX:
		return export.WriteResultsXLSX(w, ds)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
