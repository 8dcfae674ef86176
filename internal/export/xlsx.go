package export

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet   = "Results"
	questionsSheet = "Questions"
)

// WriteResultsXLSX writes the results table as a workbook. Numeric cells stay
// numeric so the sheet can be sorted and summed. A second sheet lists the
// questions when quiz content is available.
func WriteResultsXLSX(w io.Writer, ds *Dataset) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[Export] failed to close workbook: %v", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(resultsSheet)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	header := ResultsHeader(ds)
	header = append(header, "Preferred Team Number", "Alternative Team Number", "Fuel Type")
	if err := sw.SetRow("A1", toRow(header)); err != nil {
		return err
	}

	for i := range ds.Rows {
		row := &ds.Rows[i]
		sub := row.Submission
		values := []interface{}{
			row.Rank,
			sanitizeForExcel(sub.TeamName),
			sanitizeForExcel(sub.TeamEmail),
			string(sub.VehicleCategory),
			sub.SubmittedAt.UTC().Format(time.RFC3339),
			sub.TimeTaken,
		}
		for _, pos := range ds.Positions {
			values = append(values, numericOrText(ds.Cell(row, pos)))
		}
		values = append(values,
			row.Score,
			sanitizeForExcel(sub.PreferredTeamNumber),
			sanitizeForExcel(sub.AlternativeTeamNumber),
			sanitizeForExcel(sub.FuelType),
		)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush results sheet: %w", err)
	}

	if ds.Quiz != nil {
		if err := writeQuestionsSheet(f, ds); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func writeQuestionsSheet(f *excelize.File, ds *Dataset) error {
	if _, err := f.NewSheet(questionsSheet); err != nil {
		return err
	}
	header := []interface{}{"Question", "Category", "Type", "Weight", "Correct Answer", "Options", "Text"}
	if err := f.SetSheetRow(questionsSheet, "A1", &header); err != nil {
		return err
	}
	for i, q := range ds.Quiz.Questions {
		options := ""
		for j, o := range q.Options {
			if j > 0 {
				options += " | "
			}
			options += o
		}
		row := []interface{}{
			fmt.Sprintf("Q%d", q.Position),
			categoryLabel(q.Category),
			string(q.Type),
			q.Weight(),
			sanitizeForExcel(q.CorrectOption),
			sanitizeForExcel(options),
			sanitizeForExcel(q.Text),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(questionsSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

// numericOrText keeps per-question scores numeric and open text answers as text.
func numericOrText(cell string) interface{} {
	if cell == "" {
		return ""
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return v
	}
	return cell
}
