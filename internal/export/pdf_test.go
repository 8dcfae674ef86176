package export

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
)

func TestWriteResultsPDF(t *testing.T) {
	quiz := testQuiz()
	ds := BuildDataset(quiz, testSubmissions(quiz), time.Now())

	var buf bytes.Buffer
	require.NoError(t, WriteResultsPDF(&buf, ds))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestWriteResultsPDF_ManyRowsAndNoQuiz(t *testing.T) {
	var empty bytes.Buffer
	require.NoError(t, WriteResultsPDF(&empty, BuildDataset(nil, nil, time.Now())))
	assert.True(t, bytes.HasPrefix(empty.Bytes(), []byte("%PDF-")))

	var subs []entity.Submission
	for i := 0; i < 80; i++ {
		subs = append(subs, submission(uint(i+1), fmt.Sprintf("Team %d", i), fmt.Sprintf("team%d@example.com", i),
			entity.VehicleCV, time.Duration(i)*time.Minute, entity.Answers{1: "B"}))
	}
	ds := BuildDataset(nil, subs, time.Now())
	var buf bytes.Buffer
	require.NoError(t, WriteResultsPDF(&buf, ds))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWriteResultsPDF_GreekText(t *testing.T) {
	quiz := testQuiz()
	quiz.Title = "Κουίζ εγγραφής Formula IHU"
	subs := []entity.Submission{
		submission(1, "Αριστοτέλης Racing", "team@auth.gr", entity.VehicleEV, 42*time.Minute, entity.Answers{1: "B"}),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResultsPDF(&buf, BuildDataset(quiz, subs, time.Now())))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
