package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestion_IsCorrect_ExactMatch(t *testing.T) {
	question := &Question{
		Position:      1,
		Type:          QuestionTypeMultipleChoice,
		Options:       StringArray{"A", "B", "C"},
		CorrectOption: "B",
	}

	assert.True(t, question.IsCorrect("B"))
	assert.False(t, question.IsCorrect("b"), "comparison must be case sensitive")
	assert.False(t, question.IsCorrect("B "), "comparison must not trim")
}

func TestQuestion_VisibleTo(t *testing.T) {
	tests := []struct {
		name     string
		category QuestionCategory
		vehicle  VehicleCategory
		want     bool
	}{
		{"common for EV", CategoryCommon, VehicleEV, true},
		{"common for CV", CategoryCommon, VehicleCV, true},
		{"empty category is common", "", VehicleCV, true},
		{"EV for EV", CategoryEV, VehicleEV, true},
		{"EV hidden from CV", CategoryEV, VehicleCV, false},
		{"CV hidden from EV", CategoryCV, VehicleEV, false},
		{"CV for CV", CategoryCV, VehicleCV, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &Question{Category: tt.category}
			assert.Equal(t, tt.want, q.VisibleTo(tt.vehicle))
		})
	}
}

func TestQuestion_Weight_DefaultsToOne(t *testing.T) {
	assert.Equal(t, 1.0, (&Question{}).Weight())
	assert.Equal(t, 1.0, (&Question{Points: -3}).Weight())
	assert.Equal(t, 5.0, (&Question{Points: 5}).Weight())
}

func TestQuestion_Validate(t *testing.T) {
	valid := Question{Position: 1, Text: "Q", Type: QuestionTypeMultipleChoice, Options: StringArray{"A", "B"}, CorrectOption: "A"}
	require.NoError(t, valid.Validate())

	oneOption := valid
	oneOption.Options = StringArray{"A"}
	assert.Error(t, oneOption.Validate(), "multiple choice needs two options")

	wrongCorrect := valid
	wrongCorrect.CorrectOption = "C"
	assert.Error(t, wrongCorrect.Validate(), "correct option must be one of the options")

	openText := Question{Position: 2, Text: "Explain", Type: QuestionTypeOpenText}
	assert.NoError(t, openText.Validate())

	openWithOptions := openText
	openWithOptions.Options = StringArray{"x"}
	assert.Error(t, openWithOptions.Validate())

	badCategory := valid
	badCategory.Category = "HV"
	assert.Error(t, badCategory.Validate())
}

func TestQuestion_JSONNeverContainsCorrectOption(t *testing.T) {
	q := Question{Position: 3, Text: "Q", Options: StringArray{"A", "B"}, CorrectOption: "B", Points: 4}

	data, err := json.Marshal(q)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "correct")
	assert.NotContains(t, string(data), "points")
	assert.Contains(t, string(data), `"id":3`)
}

func TestParseVehicleCategory(t *testing.T) {
	v, err := ParseVehicleCategory(" ev ")
	require.NoError(t, err)
	assert.Equal(t, VehicleEV, v)

	_, err = ParseVehicleCategory("hybrid")
	assert.Error(t, err)
}

func TestQuizDefinition_Window(t *testing.T) {
	start := time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)
	quiz := &QuizDefinition{IsActive: true, ScheduledStartTime: start}

	assert.False(t, quiz.InWindow(start.Add(-time.Second)), "before start")
	assert.True(t, quiz.InWindow(start), "exactly at start")
	assert.True(t, quiz.InWindow(start.Add(2*time.Hour)), "exactly at end")
	assert.False(t, quiz.InWindow(start.Add(2*time.Hour+time.Second)), "2h+1s after start")
	assert.True(t, quiz.HasEnded(start.Add(2*time.Hour+time.Second)))

	quiz.IsActive = false
	assert.False(t, quiz.IsAttemptable(start.Add(time.Minute)), "inactive fallback quiz is never attemptable")
}

func TestAnswers_ScanValueRoundTrip(t *testing.T) {
	answers := Answers{1: "B", 2: NoAnswer, 5: "free text"}

	value, err := answers.Value()
	require.NoError(t, err)

	var fromBytes Answers
	require.NoError(t, fromBytes.Scan(value))
	assert.Equal(t, answers, fromBytes)

	var fromString Answers
	require.NoError(t, fromString.Scan(string(value.([]byte))))
	assert.Equal(t, answers, fromString)

	var fromNil Answers
	require.NoError(t, fromNil.Scan(nil))
	assert.Empty(t, fromNil)
}

func TestAnswers_HasAndGiven(t *testing.T) {
	answers := Answers{1: "B", 2: NoAnswer, 3: "  "}

	assert.True(t, answers.Has(1))
	assert.True(t, answers.Has(2), "explicit skip counts as answered")
	assert.False(t, answers.Has(3))
	assert.False(t, answers.Has(4))

	assert.Equal(t, "B", answers.Given(1))
	assert.Equal(t, "", answers.Given(2))
}

func TestRawJSON_PreservesDocument(t *testing.T) {
	var r RawJSON
	require.NoError(t, json.Unmarshal([]byte(`[{"id":1,"text":"Q"}]`), &r))

	out, err := json.Marshal(struct {
		Questions RawJSON `json:"questions"`
	}{r})
	require.NoError(t, err)
	assert.JSONEq(t, `{"questions":[{"id":1,"text":"Q"}]}`, string(out))
}
