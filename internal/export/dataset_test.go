package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
	"github.com/formula-ihu/quiz-api/internal/scoring"
)

var quizStart = time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)

func mc(pos int, category entity.QuestionCategory, correct string, options ...string) entity.Question {
	return entity.Question{
		Position:      pos,
		Text:          "Question text",
		Type:          entity.QuestionTypeMultipleChoice,
		Options:       options,
		CorrectOption: correct,
		Category:      category,
	}
}

func testQuiz() *entity.QuizDefinition {
	q4 := mc(4, entity.CategoryEV, "Q", "P", "Q")
	q4.Points = 2
	return &entity.QuizDefinition{
		ID:                 1,
		Title:              "FIHU 2025 Registration",
		IsActive:           true,
		ScheduledStartTime: quizStart,
		Questions: []entity.Question{
			mc(1, entity.CategoryCommon, "B", "A", "B", "C"),
			mc(2, entity.CategoryCommon, "A", "A", "B", "C"),
			mc(3, entity.CategoryCV, "X", "X", "Y"),
			q4,
			{Position: 5, Text: "Describe your powertrain", Type: entity.QuestionTypeOpenText, Category: entity.CategoryCommon},
		},
	}
}

func submission(id uint, name, email string, vehicle entity.VehicleCategory, at time.Duration, answers entity.Answers) entity.Submission {
	return entity.Submission{
		ID:                  id,
		TeamName:            name,
		TeamEmail:           email,
		VehicleCategory:     vehicle,
		TimeTaken:           int(at / time.Second),
		Answers:             answers,
		SubmittedAt:         quizStart.Add(at),
		Submitted:           true,
		PreferredTeamNumber: "7",
	}
}

// testSubmissions stores each score the way the submission path computes it.
func testSubmissions(quiz *entity.QuizDefinition) []entity.Submission {
	subs := []entity.Submission{
		submission(1, "Volt Racing", "volt@example.com", entity.VehicleEV, 60*time.Minute,
			entity.Answers{1: "B", 2: "C", 4: "Q", 5: "Our design"}),
		submission(2, "Diesel Works", "diesel@example.com", entity.VehicleCV, 5*time.Minute,
			entity.Answers{1: "B", 2: "A", 3: "Y"}),
		submission(3, "Tie Team", "tie@example.com", entity.VehicleCV, 20*time.Minute,
			entity.Answers{1: "B", 2: "A", 3: "Y", 5: entity.NoAnswer}),
		submission(4, "Volt Racing", "VOLT@example.com ", entity.VehicleEV, 90*time.Minute,
			entity.Answers{1: "B", 2: "A", 4: "Q"}),
	}
	for i := range subs {
		subs[i].Score = scoring.ScoreForTeam(quiz.Questions, subs[i].VehicleCategory, subs[i].Answers)
	}
	return subs
}

func TestBuildDataset_DedupesAndRanks(t *testing.T) {
	quiz := testQuiz()

	ds := BuildDataset(quiz, testSubmissions(quiz), quizStart.Add(3*time.Hour))

	require.Len(t, ds.Rows, 3)
	assert.Equal(t, 1, ds.Duplicates)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ds.Positions)

	assert.Equal(t, uint(1), ds.Rows[0].Submission.ID, "first submission per email is kept")
	assert.Equal(t, 2.5, ds.Rows[0].Score)
	assert.Equal(t, uint(2), ds.Rows[1].Submission.ID, "earlier submission wins the 1.5 tie")
	assert.Equal(t, uint(3), ds.Rows[2].Submission.ID)
	for i, row := range ds.Rows {
		assert.Equal(t, i+1, row.Rank)
	}
}

func TestBuildDataset_ScoreMatchesStoredScore(t *testing.T) {
	quiz := testQuiz()

	ds := BuildDataset(quiz, testSubmissions(quiz), time.Now())

	for _, row := range ds.Rows {
		assert.Equal(t, row.Submission.Score, row.Score, "team %s", row.Submission.TeamName)
	}
}

func TestBuildDataset_RescoresAfterWeightChange(t *testing.T) {
	quiz := testQuiz()
	subs := testSubmissions(quiz)
	quiz.Questions[0].Points = 3

	ds := BuildDataset(quiz, subs, time.Now())

	assert.Equal(t, 4.5, ds.Rows[0].Score, "Q1 is now worth 3")
}

func TestBuildDataset_WithoutQuizUsesStoredScores(t *testing.T) {
	quiz := testQuiz()
	subs := testSubmissions(quiz)

	ds := BuildDataset(nil, subs, time.Now())

	require.Len(t, ds.Rows, 3)
	assert.Equal(t, 2.5, ds.Rows[0].Score)
	assert.Nil(t, ds.Rows[0].Questions)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ds.Positions, "answered ids")
	assert.Equal(t, "C", ds.Cell(&ds.Rows[0], 2), "literal answer without quiz content")
}

func TestCell_CategoryFilterAndOpenText(t *testing.T) {
	quiz := testQuiz()
	ds := BuildDataset(quiz, testSubmissions(quiz), time.Now())
	ev := &ds.Rows[0]
	cv := &ds.Rows[1]

	assert.Equal(t, "1", ds.Cell(ev, 1))
	assert.Equal(t, "-0.5", ds.Cell(ev, 2))
	assert.Equal(t, "", ds.Cell(ev, 3), "CV question is an empty cell for an EV team")
	assert.Equal(t, "2", ds.Cell(ev, 4))
	assert.Equal(t, "Our design", ds.Cell(ev, 5))

	assert.Equal(t, "-0.5", ds.Cell(cv, 3))
	assert.Equal(t, "", ds.Cell(cv, 4), "EV question is an empty cell for a CV team")
	assert.Equal(t, "", ds.Cell(cv, 5), "unanswered open text")
	assert.Equal(t, "", ds.Cell(&ds.Rows[2], 5), "NO_ANSWER renders empty")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "0.5", FormatScore(0.5))
	assert.Equal(t, "-1", FormatScore(-1))
	assert.Equal(t, "02:00:00", FormatDuration(7200))
	assert.Equal(t, "00:02:05", FormatDuration(125))
	assert.Equal(t, "00:00:00", FormatDuration(-3))

	assert.Equal(t, "'=HYPERLINK(\"x\")", sanitizeForExcel("=HYPERLINK(\"x\")"))
	assert.Equal(t, "'-1", sanitizeForExcel("-1"))
	assert.Equal(t, "Team", sanitizeForExcel("Team"))
}
