package export

import (
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
	"github.com/formula-ihu/quiz-api/internal/scoring"
)

const (
	pdfFont       = "DejaVu"
	pdfLineHeight = 7.0
	pdfMargin     = 12.0
)

// DejaVu covers Greek, so team names and question text render as typed.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	fontRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	fontBold []byte
	//go:embed fonts/DejaVuSansCondensed-Oblique.ttf
	fontItalic []byte
)

func addFonts(pdf *fpdf.Fpdf) {
	pdf.AddUTF8FontFromBytes(pdfFont, "", fontRegular)
	pdf.AddUTF8FontFromBytes(pdfFont, "B", fontBold)
	pdf.AddUTF8FontFromBytes(pdfFont, "I", fontItalic)
}

type pdfColumn struct {
	title string
	width float64
	align string
}

var leaderboardColumns = []pdfColumn{
	{"#", 12, "C"},
	{"Team", 62, "L"},
	{"Email", 70, "L"},
	{"Cat.", 14, "C"},
	{"Score", 20, "R"},
	{"C / I / U", 26, "C"},
	{"Time", 22, "C"},
	{"Submitted (UTC)", 45, "C"},
}

// WriteResultsPDF writes a paginated leaderboard and, when quiz content is
// available, an appendix listing every question with its options and the
// correct answer.
func WriteResultsPDF(w io.Writer, ds *Dataset) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AliasNbPages("")
	pdf.SetTitle("Formula IHU registration quiz results", true)
	pdf.SetCreator("quiz-api", true)
	addFonts(pdf)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, "Formula IHU Registration Quiz Results", "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFont, "", 10)
	subtitle := "Quiz content unavailable: scores shown as stored"
	if ds.Quiz != nil {
		subtitle = fmt.Sprintf("%s, started %s UTC", ds.Quiz.Title, ds.Quiz.ScheduledStartTime.UTC().Format("2006-01-02 15:04"))
	}
	pdf.CellFormat(0, 6, subtitle, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s UTC, %d teams", ds.GeneratedAt.UTC().Format("2006-01-02 15:04"), len(ds.Rows)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	writeLeaderboardHeader(pdf)
	_, pageHeight := pdf.GetPageSize()
	pdf.SetFont(pdfFont, "", 9)
	for i := range ds.Rows {
		if pdf.GetY()+pdfLineHeight > pageHeight-pdfMargin-5 {
			pdf.AddPage()
			writeLeaderboardHeader(pdf)
			pdf.SetFont(pdfFont, "", 9)
		}
		writeLeaderboardRow(pdf, &ds.Rows[i], i%2 == 1)
	}
	if len(ds.Rows) == 0 {
		pdf.CellFormat(0, pdfLineHeight, "No submissions yet.", "", 1, "L", false, 0, "")
	}

	if ds.Quiz != nil && len(ds.Quiz.Questions) > 0 {
		writeQuestionAppendix(pdf, ds.Quiz)
	}

	if pdf.Err() {
		return fmt.Errorf("render pdf: %w", pdf.Error())
	}
	return pdf.Output(w)
}

func writeLeaderboardHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont(pdfFont, "B", 9)
	pdf.SetFillColor(200, 16, 46)
	pdf.SetTextColor(255, 255, 255)
	for _, col := range leaderboardColumns {
		pdf.CellFormat(col.width, pdfLineHeight, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
}

func writeLeaderboardRow(pdf *fpdf.Fpdf, row *Row, shaded bool) {
	sub := row.Submission
	tally := "-"
	if row.Questions != nil {
		b := scoring.Tally(row.Questions, sub.Answers)
		tally = fmt.Sprintf("%d / %d / %d", b.Correct, b.Incorrect, b.Unanswered)
	}
	values := []string{
		strconv.Itoa(row.Rank),
		truncate(sub.TeamName, 34),
		truncate(sub.TeamEmail, 40),
		string(sub.VehicleCategory),
		FormatScore(row.Score),
		tally,
		FormatDuration(sub.TimeTaken),
		sub.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
	}

	pdf.SetFillColor(242, 242, 242)
	for i, col := range leaderboardColumns {
		pdf.CellFormat(col.width, pdfLineHeight, values[i], "1", 0, col.align, shaded, 0, "")
	}
	pdf.Ln(-1)
}

func writeQuestionAppendix(pdf *fpdf.Fpdf, quiz *entity.QuizDefinition) {
	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 14)
	pdf.CellFormat(0, 10, "Appendix: questions and correct answers", "", 1, "L", false, 0, "")

	for _, q := range quiz.Questions {
		pdf.SetFont(pdfFont, "B", 10)
		meta := fmt.Sprintf("Q%d  [%s, %s, %s pts]", q.Position, categoryLabel(q.Category), q.Type, FormatScore(q.Weight()))
		pdf.CellFormat(0, 6, meta, "", 1, "L", false, 0, "")

		pdf.SetFont(pdfFont, "", 10)
		pdf.MultiCell(0, 5, q.Text, "", "L", false)

		if !q.IsScored() {
			pdf.SetFont(pdfFont, "I", 9)
			pdf.CellFormat(0, 5, "Open text answer, not scored", "", 1, "L", false, 0, "")
		}
		for i, option := range q.Options {
			marker := "   "
			style := ""
			if option == q.CorrectOption {
				marker = "-> "
				style = "B"
			}
			pdf.SetFont(pdfFont, style, 9)
			pdf.MultiCell(0, 5, fmt.Sprintf("%s%c) %s", marker, 'A'+i, option), "", "L", false)
		}
		pdf.Ln(3)
	}
}

func categoryLabel(c entity.QuestionCategory) string {
	if c == "" {
		return string(entity.CategoryCommon)
	}
	return string(c)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "..."
}
