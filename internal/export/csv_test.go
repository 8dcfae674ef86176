package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, utf8BOM), "UTF-8 BOM")
	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteResultsCSV(t *testing.T) {
	quiz := testQuiz()
	ds := BuildDataset(quiz, testSubmissions(quiz), time.Now())

	var buf bytes.Buffer
	require.NoError(t, WriteResultsCSV(&buf, ds))
	records := readCSV(t, buf.Bytes())

	require.Len(t, records, 4)
	assert.Equal(t, []string{
		"Rank", "Team Name", "Team Email", "Vehicle Category", "Submitted At", "Time Taken (s)",
		"Q1", "Q2", "Q3", "Q4", "Q5", "Total",
	}, records[0])
	assert.Equal(t, []string{
		"1", "Volt Racing", "volt@example.com", "EV", "2025-01-01T14:00:00Z", "3600",
		"1", "-0.5", "", "2", "Our design", "2.5",
	}, records[1])
	assert.Equal(t, "Diesel Works", records[2][1])
	assert.Equal(t, "", records[2][9], "EV question empty for CV team")
}

func TestWriteResultsCSV_TotalEqualsStoredScore(t *testing.T) {
	quiz := testQuiz()
	subs := testSubmissions(quiz)
	stored := map[string]float64{}
	for _, s := range subs[:3] {
		stored[s.TeamEmail] = s.Score
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResultsCSV(&buf, BuildDataset(quiz, subs, time.Now())))
	records := readCSV(t, buf.Bytes())

	for _, rec := range records[1:] {
		total, err := strconv.ParseFloat(rec[len(rec)-1], 64)
		require.NoError(t, err)
		assert.Equal(t, stored[rec[2]], total, "team %s", rec[1])
	}
}

func TestWriteResultsCSV_ScenarioA(t *testing.T) {
	quiz := testQuiz()
	quiz.Questions = quiz.Questions[:2]
	subs := []entity.Submission{submission(1, "A Team", "a@example.com", "EV", time.Minute, entity.Answers{1: "B", 2: "C"})}

	var buf bytes.Buffer
	require.NoError(t, WriteResultsCSV(&buf, BuildDataset(quiz, subs, time.Now())))
	records := readCSV(t, buf.Bytes())

	require.Len(t, records, 2)
	assert.Equal(t, "0.5", records[1][len(records[1])-1])
}

func TestWriteResultsCSV_SanitizesFormulaInjection(t *testing.T) {
	subs := []entity.Submission{submission(1, "=cmd|' /C calc'!A0", "x@example.com", "EV", time.Minute, entity.Answers{1: "+1"})}

	var buf bytes.Buffer
	require.NoError(t, WriteResultsCSV(&buf, BuildDataset(nil, subs, time.Now())))
	records := readCSV(t, buf.Bytes())

	assert.Equal(t, "'=cmd|' /C calc'!A0", records[1][1])
	assert.Equal(t, "'+1", records[1][6])
}
