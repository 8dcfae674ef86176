package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/formula-ihu/quiz-api/internal/scoring"
)

const (
	// ConfigRowMarker starts the editable row holding correct answers and weights.
	ConfigRowMarker = "CONFIG"
	// OpenTextMarker stands in for the correct answer of an open text question.
	OpenTextMarker = "OPEN_TEXT"

	templateFixedColumns = 5
	templateConfigRow    = 2
	templateFirstTeamRow = 3
)

// answerColumn and pointsColumn are the 1-based spreadsheet columns of question k (0-based).
func answerColumn(k int) int { return templateFixedColumns + 1 + 2*k }
func pointsColumn(k int) int { return templateFixedColumns + 2 + 2*k }

// WriteScoringTemplate writes raw answers with live formulas for manual grading.
// Row 2 holds the correct answer and weight of every question; each team row
// scores a question as
//
//	=IF(answer="",0,IF(EXACT(answer,correct),weight,-weight*0.5))
//
// so editing the config row regrades every team. EXACT keeps the comparison
// case-sensitive like the scoring package.
func WriteScoringTemplate(w io.Writer, ds *Dataset) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)

	header := []string{"Team Name", "Team Email", "Vehicle Category", "Submitted At", "Time Taken (s)"}
	for _, pos := range ds.Positions {
		header = append(header, fmt.Sprintf("Q%d Answer", pos), fmt.Sprintf("Q%d Points", pos))
	}
	header = append(header, "Total")
	if err := writer.Write(header); err != nil {
		return err
	}

	config := []string{ConfigRowMarker, "edit correct answers and weights in this row", "", "", ""}
	for _, pos := range ds.Positions {
		q, ok := ds.Question(pos)
		switch {
		case !ok:
			config = append(config, "", "")
		case !q.IsScored():
			config = append(config, OpenTextMarker, "")
		default:
			config = append(config, sanitizeForExcel(q.CorrectOption), FormatScore(q.Weight()))
		}
	}
	config = append(config, "")
	if err := writer.Write(config); err != nil {
		return err
	}

	for i := range ds.Rows {
		record, err := templateRecord(ds, &ds.Rows[i], templateFirstTeamRow+i)
		if err != nil {
			return err
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write team row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func templateRecord(ds *Dataset, row *Row, sheetRow int) ([]string, error) {
	sub := row.Submission
	record := []string{
		sanitizeForExcel(sub.TeamName),
		sanitizeForExcel(sub.TeamEmail),
		string(sub.VehicleCategory),
		sub.SubmittedAt.UTC().Format(time.RFC3339),
		strconv.Itoa(sub.TimeTaken),
	}

	var pointCells []string
	for k, pos := range ds.Positions {
		answer := sanitizeForExcel(sub.Answers.Given(pos))

		q, known := ds.Question(pos)
		if known && !q.VisibleTo(sub.VehicleCategory) {
			record = append(record, "", "")
			continue
		}
		if !known || !q.IsScored() {
			record = append(record, answer, "")
			continue
		}

		formula, cell, err := pointsFormula(k, sheetRow)
		if err != nil {
			return nil, err
		}
		record = append(record, answer, formula)
		pointCells = append(pointCells, cell)
	}

	total := "0"
	if len(pointCells) > 0 {
		total = "=SUM(" + strings.Join(pointCells, ",") + ")"
	}
	return append(record, total), nil
}

// pointsFormula builds the scoring formula of question k on sheetRow and
// returns it with the cell it lives in.
func pointsFormula(k, sheetRow int) (string, string, error) {
	answerCell, err := excelize.CoordinatesToCellName(answerColumn(k), sheetRow)
	if err != nil {
		return "", "", err
	}
	pointsCell, err := excelize.CoordinatesToCellName(pointsColumn(k), sheetRow)
	if err != nil {
		return "", "", err
	}
	correctCol, err := excelize.ColumnNumberToName(answerColumn(k))
	if err != nil {
		return "", "", err
	}
	weightCol, err := excelize.ColumnNumberToName(pointsColumn(k))
	if err != nil {
		return "", "", err
	}
	correct := fmt.Sprintf("%s$%d", correctCol, templateConfigRow)
	weight := fmt.Sprintf("%s$%d", weightCol, templateConfigRow)

	formula := fmt.Sprintf("=IF(%s=\"\",0,IF(EXACT(%s,%s),%s,-%s*%s))",
		answerCell, answerCell, correct, weight, weight, FormatScore(scoring.IncorrectPenalty))
	return formula, pointsCell, nil
}
