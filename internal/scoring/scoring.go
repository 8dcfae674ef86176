// Package scoring computes quiz scores. Every path that produces a score
// (submission, CSV, XLSX, PDF) goes through this package so the rules and the
// category filter stay identical everywhere.
package scoring

import (
	"github.com/formula-ihu/quiz-api/internal/domain/entity"
)

// IncorrectPenalty is the share of a question's weight subtracted for a wrong answer.
const IncorrectPenalty = 0.5

// FilterQuestions returns the questions a team of the given vehicle category
// is shown: category common or equal to the vehicle category. Order is kept.
func FilterQuestions(questions []entity.Question, vehicle entity.VehicleCategory) []entity.Question {
	filtered := make([]entity.Question, 0, len(questions))
	for _, q := range questions {
		if q.VisibleTo(vehicle) {
			filtered = append(filtered, q)
		}
	}
	return filtered
}

// Outcome classifies one answer.
type Outcome int

const (
	OutcomeNotScored Outcome = iota // open text question
	OutcomeUnanswered               // missing, empty or NO_ANSWER
	OutcomeCorrect
	OutcomeIncorrect
)

// Evaluate classifies the answer to q.
func Evaluate(q *entity.Question, answer string) Outcome {
	if !q.IsScored() {
		return OutcomeNotScored
	}
	if answer == "" || answer == entity.NoAnswer {
		return OutcomeUnanswered
	}
	if q.IsCorrect(answer) {
		return OutcomeCorrect
	}
	return OutcomeIncorrect
}

// QuestionScore is +weight for a correct answer, -weight*0.5 for a wrong one
// and 0 otherwise.
func QuestionScore(q *entity.Question, answer string) float64 {
	switch Evaluate(q, answer) {
	case OutcomeCorrect:
		return q.Weight()
	case OutcomeIncorrect:
		return -q.Weight() * IncorrectPenalty
	default:
		return 0
	}
}

// Score sums QuestionScore over questions, which must already be filtered
// to the team's vehicle category.
func Score(questions []entity.Question, answers entity.Answers) float64 {
	total := 0.0
	for i := range questions {
		q := &questions[i]
		total += QuestionScore(q, answers[q.Position])
	}
	return total
}

// ScoreForTeam filters by vehicle category and scores in one step.
func ScoreForTeam(questions []entity.Question, vehicle entity.VehicleCategory, answers entity.Answers) float64 {
	return Score(FilterQuestions(questions, vehicle), answers)
}

// Breakdown counts outcomes, used by the PDF summary.
type Breakdown struct {
	Correct    int
	Incorrect  int
	Unanswered int
	OpenText   int
}

// Tally classifies every filtered question.
func Tally(questions []entity.Question, answers entity.Answers) Breakdown {
	var b Breakdown
	for i := range questions {
		switch Evaluate(&questions[i], answers[questions[i].Position]) {
		case OutcomeCorrect:
			b.Correct++
		case OutcomeIncorrect:
			b.Incorrect++
		case OutcomeUnanswered:
			b.Unanswered++
		case OutcomeNotScored:
			b.OpenText++
		}
	}
	return b
}
