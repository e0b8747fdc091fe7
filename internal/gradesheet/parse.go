package gradesheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/sala-api/internal/grading"
)

// ImportRow is one student line read back from a filled-in subject sheet.
type ImportRow struct {
	Sheet         string
	Row           int
	StudentID     uint
	SubjectID     uint
	CourseID      uint
	SemesterID    uint
	SchoolYearID  uint
	GradeDate     string
	Homework      [grading.HomeworkSlots]float64
	HomeworkTotal float64
	Exam          float64
	Total         float64
	Notes         string
}

// RowError reports a line that could not be read.
type RowError struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s!%d: %s", e.Sheet, e.Row, e.Reason)
}

type sheetSettings struct {
	month       string
	year        string
	count       int
	maxHomework float64
}

// Parse reads every subject sheet of a workbook produced by Build. Formula
// cells are not trusted: totals are recomputed with the grading rules.
func Parse(f *excelize.File) ([]ImportRow, []RowError) {
	rows := make([]ImportRow, 0)
	failures := make([]RowError, 0)

	for _, sheet := range f.GetSheetList() {
		marker, err := f.GetCellValue(sheet, ColStudentID+strconv.Itoa(HeaderTopRow))
		if err != nil || marker != "studentId" {
			continue
		}

		settings, err := readSettings(f, sheet)
		if err != nil {
			failures = append(failures, RowError{Sheet: sheet, Row: 5, Reason: err.Error()})
			continue
		}

		for row := FirstDataRow; ; row++ {
			idValue, err := f.GetCellValue(sheet, ColStudentID+strconv.Itoa(row))
			if err != nil || strings.TrimSpace(idValue) == "" {
				break
			}

			parsed, err := readRow(f, sheet, row, settings)
			if err != nil {
				failures = append(failures, RowError{Sheet: sheet, Row: row, Reason: err.Error()})
				continue
			}
			rows = append(rows, parsed)
		}
	}

	return rows, failures
}

func readSettings(f *excelize.File, sheet string) (sheetSettings, error) {
	month, _ := f.GetCellValue(sheet, MonthCell)
	year, _ := f.GetCellValue(sheet, YearCell)

	countValue, _ := f.GetCellValue(sheet, HomeworkCountCell)
	count := grading.DefaultHomeworkCount
	if strings.TrimSpace(countValue) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(countValue), 64)
		if err != nil || parsed < 0 || parsed > grading.HomeworkSlots || parsed != float64(int(parsed)) {
			return sheetSettings{}, fmt.Errorf("homework count must be a whole number between 0 and %d", grading.HomeworkSlots)
		}
		count = int(parsed)
	}

	maxValue, _ := f.GetCellValue(sheet, MaxHomeworkCell)
	maxHomework := float64(grading.DefaultMaxHomeworkScore)
	if strings.TrimSpace(maxValue) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(maxValue), 64)
		if err != nil || parsed < 1 || parsed > 100 {
			return sheetSettings{}, fmt.Errorf("max homework score must be between 1 and 100")
		}
		maxHomework = parsed
	}

	return sheetSettings{
		month:       strings.TrimSpace(month),
		year:        strings.TrimSpace(year),
		count:       count,
		maxHomework: maxHomework,
	}, nil
}

func readRow(f *excelize.File, sheet string, row int, settings sheetSettings) (ImportRow, error) {
	cell := func(col string) string {
		value, _ := f.GetCellValue(sheet, col+strconv.Itoa(row))
		return strings.TrimSpace(value)
	}

	out := ImportRow{Sheet: sheet, Row: row, Notes: cell(ColNotes)}

	ids := []struct {
		col    string
		target *uint
		name   string
	}{
		{ColStudentID, &out.StudentID, "studentId"},
		{ColSubjectID, &out.SubjectID, "subjectId"},
		{ColCourseID, &out.CourseID, "courseId"},
		{ColSemesterID, &out.SemesterID, "semesterId"},
		{ColSchoolYearID, &out.SchoolYearID, "schoolYearId"},
	}
	for _, id := range ids {
		parsed, err := strconv.ParseUint(cell(id.col), 10, 64)
		if err != nil || parsed == 0 {
			return ImportRow{}, fmt.Errorf("invalid %s", id.name)
		}
		*id.target = uint(parsed)
	}

	month, year := settings.month, settings.year
	if month == "" {
		month = cell(ColMonth)
	}
	if year == "" {
		year = cell(ColYear)
	}
	gradeDate, err := grading.FormatGradeDate(month, year)
	if err != nil {
		return ImportRow{}, err
	}
	out.GradeDate = gradeDate

	for i, col := range HomeworkColumns {
		score, err := readScore(cell(col))
		if err != nil {
			return ImportRow{}, fmt.Errorf("homework %d: %w", i+1, err)
		}
		out.Homework[i] = score
	}

	exam, err := readScore(cell(ColExam))
	if err != nil {
		return ImportRow{}, fmt.Errorf("exam: %w", err)
	}
	out.Exam = exam

	out.HomeworkTotal = grading.HomeworkTotal(out.Homework[:], settings.count)
	out.Total = grading.MonthlyTotal(out.HomeworkTotal, settings.maxHomework, out.Exam)
	if out.Total > grading.MaxScore {
		return ImportRow{}, fmt.Errorf("monthly total %g exceeds %g", out.Total, grading.MaxScore)
	}

	return out, nil
}

func readScore(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	score, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", value)
	}
	if score < 0 || score > grading.MaxScore {
		return 0, fmt.Errorf("score %g outside 0-%g", score, grading.MaxScore)
	}
	return score, nil
}
