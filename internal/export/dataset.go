// Package export renders submissions as results CSV, scoring template CSV,
// PDF and XLSX. Every format reads the same Dataset, and every score in it
// is recomputed from the raw answers through the scoring package.
package export

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
	"github.com/formula-ihu/quiz-api/internal/scoring"
)

// Row is one ranked team.
type Row struct {
	Rank       int
	Submission *entity.Submission
	// Questions are the quiz questions visible to the team, nil without quiz content.
	Questions []entity.Question
	Score     float64
}

// Dataset is the input of every formatter.
type Dataset struct {
	// Quiz may be nil when the content store is unavailable.
	Quiz *entity.QuizDefinition
	// Positions are the question ids in column order.
	Positions []int
	Rows      []Row
	// Duplicates counts submissions dropped because an earlier one exists for the email.
	Duplicates  int
	GeneratedAt time.Time
}

// BuildDataset keeps the first submission per email, rescores it against quiz
// and ranks by score descending, earlier submission first on ties.
func BuildDataset(quiz *entity.QuizDefinition, submissions []entity.Submission, now time.Time) *Dataset {
	ordered := make([]entity.Submission, len(submissions))
	copy(ordered, submissions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return submittedBefore(&ordered[i], &ordered[j])
	})

	ds := &Dataset{Quiz: quiz, GeneratedAt: now}
	seen := make(map[string]bool, len(ordered))
	for i := range ordered {
		sub := &ordered[i]
		email := entity.NormalizeEmail(sub.TeamEmail)
		if seen[email] {
			ds.Duplicates++
			log.Printf("[Export] skipping duplicate submission #%d for %s", sub.ID, email)
			continue
		}
		seen[email] = true

		row := Row{Submission: sub, Score: sub.Score}
		if quiz != nil {
			row.Questions = scoring.FilterQuestions(quiz.Questions, sub.VehicleCategory)
			row.Score = scoring.Score(row.Questions, sub.Answers)
		}
		ds.Rows = append(ds.Rows, row)
	}

	sort.SliceStable(ds.Rows, func(i, j int) bool {
		a, b := ds.Rows[i], ds.Rows[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return submittedBefore(a.Submission, b.Submission)
	})
	for i := range ds.Rows {
		ds.Rows[i].Rank = i + 1
	}

	ds.Positions = positions(quiz, ds.Rows)
	return ds
}

func submittedBefore(a, b *entity.Submission) bool {
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.ID < b.ID
}

// positions lists the quiz question ids, or every answered id when there is no quiz.
func positions(quiz *entity.QuizDefinition, rows []Row) []int {
	var out []int
	if quiz != nil {
		for _, q := range quiz.Questions {
			out = append(out, q.Position)
		}
		sort.Ints(out)
		return out
	}
	seen := map[int]bool{}
	for _, row := range rows {
		for pos := range row.Submission.Answers {
			if !seen[pos] {
				seen[pos] = true
				out = append(out, pos)
			}
		}
	}
	sort.Ints(out)
	return out
}

// Question returns the quiz question at pos.
func (d *Dataset) Question(pos int) (*entity.Question, bool) {
	if d.Quiz == nil {
		return nil, false
	}
	return d.Quiz.QuestionByPosition(pos)
}

// visibleQuestion returns the question at pos if the row's team was shown it.
func (r *Row) visibleQuestion(pos int) (*entity.Question, bool) {
	for i := range r.Questions {
		if r.Questions[i].Position == pos {
			return &r.Questions[i], true
		}
	}
	return nil, false
}

// Cell renders the per-question value of a row: the recomputed score for a
// multiple choice question, the literal text for an open text question and
// an empty cell for a question the team was never shown.
func (d *Dataset) Cell(row *Row, pos int) string {
	answers := row.Submission.Answers
	if d.Quiz == nil {
		return sanitizeForExcel(answers.Given(pos))
	}
	q, ok := row.visibleQuestion(pos)
	if !ok {
		return ""
	}
	if !q.IsScored() {
		return sanitizeForExcel(answers.Given(pos))
	}
	return FormatScore(scoring.QuestionScore(q, answers[pos]))
}

// FormatScore prints a score without trailing zeros, e.g. 0.5 or -1.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// FormatDuration prints seconds as HH:MM:SS.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// sanitizeForExcel escapes values that spreadsheet tools would run as formulas.
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
