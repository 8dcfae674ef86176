package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
)

func mc(pos int, correct string, category entity.QuestionCategory) entity.Question {
	return entity.Question{
		Position:      pos,
		Text:          "question",
		Type:          entity.QuestionTypeMultipleChoice,
		Options:       entity.StringArray{"A", "B", "C"},
		CorrectOption: correct,
		Category:      category,
	}
}

func TestScore_ScenarioA(t *testing.T) {
	questions := []entity.Question{
		mc(1, "B", entity.CategoryCommon),
		mc(2, "A", entity.CategoryCommon),
	}
	answers := entity.Answers{1: "B", 2: "C"}

	assert.Equal(t, 0.5, Score(questions, answers))
}

func TestScore_Rules(t *testing.T) {
	questions := []entity.Question{
		mc(1, "A", entity.CategoryCommon),
		mc(2, "A", entity.CategoryCommon),
		mc(3, "A", entity.CategoryCommon),
		mc(4, "A", entity.CategoryCommon),
		{Position: 5, Text: "explain", Type: entity.QuestionTypeOpenText},
	}

	tests := []struct {
		name    string
		answers entity.Answers
		want    float64
	}{
		{"empty answers", entity.Answers{}, 0},
		{"all correct", entity.Answers{1: "A", 2: "A", 3: "A", 4: "A"}, 4},
		{"all wrong", entity.Answers{1: "B", 2: "B", 3: "C", 4: "C"}, -2},
		{"explicit skips", entity.Answers{1: entity.NoAnswer, 2: entity.NoAnswer}, 0},
		{"empty string is unanswered", entity.Answers{1: ""}, 0},
		{"open text never scores", entity.Answers{5: "A"}, 0},
		{"mixed", entity.Answers{1: "A", 2: "B", 3: entity.NoAnswer, 5: "long text"}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(questions, tt.answers))
		})
	}
}

func TestScore_UsesQuestionWeights(t *testing.T) {
	q1 := mc(1, "A", entity.CategoryCommon)
	q1.Points = 5
	q2 := mc(2, "A", entity.CategoryCommon)
	q2.Points = 3

	score := Score([]entity.Question{q1, q2}, entity.Answers{1: "A", 2: "B"})

	assert.Equal(t, 5-1.5, score)
}

func TestScore_IsDeterministic(t *testing.T) {
	questions := []entity.Question{mc(1, "B", entity.CategoryCommon), mc(2, "A", entity.CategoryEV)}
	answers := entity.Answers{1: "B", 2: "C"}

	first := Score(questions, answers)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Score(questions, answers))
	}
	assert.Equal(t, entity.Answers{1: "B", 2: "C"}, answers, "answers must not be mutated")
}

func TestFilterQuestions_NeverCrossesCategories(t *testing.T) {
	questions := []entity.Question{
		mc(1, "A", entity.CategoryCommon),
		mc(2, "A", entity.CategoryEV),
		mc(3, "A", entity.CategoryCV),
		mc(4, "A", entity.CategoryCV),
	}

	ev := FilterQuestions(questions, entity.VehicleEV)
	cv := FilterQuestions(questions, entity.VehicleCV)

	for _, q := range ev {
		assert.NotEqual(t, entity.CategoryCV, q.Category)
	}
	for _, q := range cv {
		assert.NotEqual(t, entity.CategoryEV, q.Category)
	}
	assert.Len(t, ev, 2)
	assert.Len(t, cv, 3)
	assert.Equal(t, []int{1, 3, 4}, positions(cv), "order must be preserved")
}

func TestScoreForTeam_ScenarioD(t *testing.T) {
	questions := []entity.Question{
		mc(1, "A", entity.CategoryCommon),
		mc(2, "B", entity.CategoryCV),
	}
	// The EV team somehow answered the CV question correctly; it must not count.
	answers := entity.Answers{1: "A", 2: "B"}

	assert.Equal(t, 1.0, ScoreForTeam(questions, entity.VehicleEV, answers))
	assert.Equal(t, 2.0, ScoreForTeam(questions, entity.VehicleCV, answers))
}

func TestTally(t *testing.T) {
	questions := []entity.Question{
		mc(1, "A", entity.CategoryCommon),
		mc(2, "A", entity.CategoryCommon),
		mc(3, "A", entity.CategoryCommon),
		{Position: 4, Type: entity.QuestionTypeOpenText},
	}

	b := Tally(questions, entity.Answers{1: "A", 2: "C", 4: "text"})

	assert.Equal(t, Breakdown{Correct: 1, Incorrect: 1, Unanswered: 1, OpenText: 1}, b)
}

func positions(qs []entity.Question) []int {
	out := make([]int, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Position)
	}
	return out
}
