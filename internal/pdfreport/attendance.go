package pdfreport

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/sala-api/internal/dto"
)

const unicodeFamily = "report"

// Options tunes the rendered document.
type Options struct {
	// FontPath points at a TTF with Khmer glyphs. Without it the core Arial
	// font is used and non Latin names degrade to placeholders.
	FontPath    string
	GeneratedAt time.Time
}

type column struct {
	title string
	width float64
	align string
}

var attendanceColumns = []column{
	{"No", 10, "C"},
	{"Student", 62, "L"},
	{"Sex", 12, "C"},
	{"Present", 18, "C"},
	{"Absent", 18, "C"},
	{"Permission", 22, "C"},
	{"Late", 14, "C"},
	{"Total", 14, "C"},
	{"Rate %", 20, "C"},
}

// RenderAttendance draws the aggregated attendance report as an A4 PDF.
func RenderAttendance(report dto.AttendanceReport, opts Options) ([]byte, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(report.Title, true)
	pdf.SetAutoPageBreak(true, 15)

	family := "Arial"
	text := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.FontPath != "" {
		if _, err := os.Stat(opts.FontPath); err == nil {
			pdf.AddUTF8Font(unicodeFamily, "", opts.FontPath)
			pdf.AddUTF8Font(unicodeFamily, "B", opts.FontPath)
			family = unicodeFamily
			text = func(s string) string { return s }
		}
	}

	pdf.AddPage()

	pdf.SetFont(family, "B", 18)
	pdf.Cell(0, 10, text(report.Title))
	pdf.Ln(10)

	pdf.SetFont(family, "", 11)
	if report.CourseName != "" {
		pdf.Cell(0, 6, text("Class: "+report.CourseName))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, text("Period: "+report.Period))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Generated: "+opts.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.Ln(8)

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.4)
	pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(4)

	if len(report.Rows) == 0 {
		pdf.SetFont(family, "", 12)
		pdf.Cell(0, 10, "No attendance data for the selected period.")
		pdf.Ln(10)
		return output(pdf)
	}

	header := func() {
		pdf.SetFont(family, "B", 10)
		pdf.SetFillColor(52, 73, 94)
		pdf.SetTextColor(255, 255, 255)
		for _, col := range attendanceColumns {
			pdf.CellFormat(col.width, 8, col.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont(family, "", 10)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	header()

	var totals dto.AttendanceReportRow
	for i, row := range report.Rows {
		fill := i%2 == 1
		if fill {
			pdf.SetFillColor(236, 240, 241)
		}
		values := []string{
			fmt.Sprintf("%d", i+1),
			text(row.StudentName),
			text(row.Gender),
			fmt.Sprintf("%d", row.Present),
			fmt.Sprintf("%d", row.Absent),
			fmt.Sprintf("%d", row.Permission),
			fmt.Sprintf("%d", row.Late),
			fmt.Sprintf("%d", row.Total),
			fmt.Sprintf("%.2f", row.Rate),
		}
		for j, col := range attendanceColumns {
			pdf.CellFormat(col.width, 7, values[j], "1", 0, col.align, fill, 0, "")
		}
		pdf.Ln(-1)

		totals.Present += row.Present
		totals.Absent += row.Absent
		totals.Permission += row.Permission
		totals.Late += row.Late
		totals.Total += row.Total
	}

	pdf.SetFont(family, "B", 10)
	summary := []string{
		"",
		"Total",
		"",
		fmt.Sprintf("%d", totals.Present),
		fmt.Sprintf("%d", totals.Absent),
		fmt.Sprintf("%d", totals.Permission),
		fmt.Sprintf("%d", totals.Late),
		fmt.Sprintf("%d", totals.Total),
		fmt.Sprintf("%.2f", AttendanceRate(totals.Present, totals.Late, totals.Total)),
	}
	for j, col := range attendanceColumns {
		pdf.CellFormat(col.width, 8, summary[j], "1", 0, col.align, false, 0, "")
	}
	pdf.Ln(-1)

	return output(pdf)
}

// AttendanceRate is the share of attended days, counting late as attended,
// as a percentage rounded to two decimals.
func AttendanceRate(present, late, total int) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(present+late) / float64(total) * 100
	return float64(int64(rate*100+0.5)) / 100
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
