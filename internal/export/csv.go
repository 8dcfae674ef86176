package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// utf8BOM makes Excel open the file as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ResultsHeader is the header of the results CSV and XLSX sheet.
func ResultsHeader(ds *Dataset) []string {
	header := []string{"Rank", "Team Name", "Team Email", "Vehicle Category", "Submitted At", "Time Taken (s)"}
	for _, pos := range ds.Positions {
		header = append(header, fmt.Sprintf("Q%d", pos))
	}
	return append(header, "Total")
}

// ResultsRecord is one team line of the results CSV.
func ResultsRecord(ds *Dataset, row *Row) []string {
	sub := row.Submission
	record := []string{
		strconv.Itoa(row.Rank),
		sanitizeForExcel(sub.TeamName),
		sanitizeForExcel(sub.TeamEmail),
		string(sub.VehicleCategory),
		sub.SubmittedAt.UTC().Format(time.RFC3339),
		strconv.Itoa(sub.TimeTaken),
	}
	for _, pos := range ds.Positions {
		record = append(record, ds.Cell(row, pos))
	}
	return append(record, FormatScore(row.Score))
}

// WriteResultsCSV writes one line per team with per-question scores and the total.
func WriteResultsCSV(w io.Writer, ds *Dataset) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(ResultsHeader(ds)); err != nil {
		return err
	}
	for i := range ds.Rows {
		if err := writer.Write(ResultsRecord(ds, &ds.Rows[i])); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
