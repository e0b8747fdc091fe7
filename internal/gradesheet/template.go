package gradesheet

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/noah-isme/sala-api/internal/grading"
	"github.com/noah-isme/sala-api/internal/spreadsheet"
)

// Student is one enrolled learner listed on every subject sheet.
type Student struct {
	ID     uint
	Name   string
	Gender string
}

// Subject produces one worksheet.
type Subject struct {
	ID   uint
	Name string
}

// TemplateInput carries everything needed to describe the workbook.
type TemplateInput struct {
	SchoolYearID   uint
	SchoolYearCode string
	SemesterID     uint
	SemesterName   string
	CourseID       uint
	CourseName     string
	GradeLevel     int
	Month          int
	Year           int
	Subjects       []Subject
	Students       []Student
	Password       string
	LogoDir        string
}

const (
	styleTitle    = "title"
	styleLabel    = "label"
	styleHeader   = "header"
	styleCell     = "cell"
	styleEditable = "editable"
	styleFormula  = "formula"
	styleGuide    = "guide"
)

var styles = map[string]spreadsheet.Style{
	styleTitle:    {Bold: true, FontSize: 16, Align: "center", VAlign: "center"},
	styleLabel:    {Bold: true},
	styleHeader:   {Bold: true, Fill: "D9E1F2", Border: true, Align: "center", VAlign: "center", Wrap: true},
	styleCell:     {Border: true},
	styleEditable: {Fill: "FFFF00", Border: true, Align: "center"},
	styleFormula:  {Fill: "E2EFDA", Border: true, Align: "center"},
	styleGuide:    {Wrap: true, VAlign: "top"},
}

var instructions = []string{
	"របៀបប្រើប្រាស់ឯកសារពិន្ទុ",
	"១. ក្រឡាពណ៌លឿងជាក្រឡាដែលអាចកែប្រែបាន។ ក្រឡាផ្សេងទៀតត្រូវបានចាក់សោ។",
	"២. បញ្ចូលខែ (១-១២) និងឆ្នាំ នៅផ្នែកខាងលើនៃសន្លឹកនីមួយៗ។",
	"៣. កំណត់ចំនួនកិច្ចការ (០-៤) និងពិន្ទុកិច្ចការអតិបរមា (១-១០០) មុនពេលបញ្ចូលពិន្ទុ។",
	"៤. បញ្ចូលពិន្ទុកិច្ចការ និងពិន្ទុប្រឡងពី ០ ដល់ ១០០ សម្រាប់សិស្សម្នាក់ៗ។",
	"៥. ពិន្ទុសរុបប្រចាំខែត្រូវបានគណនាដោយស្វ័យប្រវត្តិ។",
	"៦. កុំប្តូរឈ្មោះសន្លឹក ឬលុបជួរឈរណាមួយ ដើម្បីអាចនាំចូលឯកសារនេះវិញបាន។",
}

// Build describes the grade workbook: an instructions sheet followed by one protected sheet per subject.
func Build(in TemplateInput) spreadsheet.Workbook {
	wb := spreadsheet.Workbook{
		Styles:        styles,
		Password:      in.Password,
		LockStructure: true,
	}

	wb.Sheets = append(wb.Sheets, instructionsSheet())

	used := map[string]int{InstructionsSheet: 1}
	for _, subject := range in.Subjects {
		wb.Sheets = append(wb.Sheets, subjectSheet(in, subject, uniqueSheetName(subject.Name, used)))
	}

	return wb
}

func instructionsSheet() spreadsheet.Sheet {
	sheet := spreadsheet.Sheet{
		Name:      InstructionsSheet,
		Protected: true,
		Columns:   []spreadsheet.Column{{Range: "A", Width: 110}},
	}
	for i, line := range instructions {
		style := styleGuide
		if i == 0 {
			style = styleTitle
		}
		sheet.Cells = append(sheet.Cells, spreadsheet.Cell{Ref: fmt.Sprintf("A%d", i+1), Value: line, Style: style})
	}
	return sheet
}

func subjectSheet(in TemplateInput, subject Subject, name string) spreadsheet.Sheet {
	last := FirstDataRow + len(in.Students) - 1
	if last < FirstDataRow {
		last = FirstDataRow
	}

	s := spreadsheet.Sheet{
		Name:      name,
		Protected: true,
		Merges: []string{
			TitleRange,
			"A6:A7", "B6:B7", "C6:C7", "D6:G6", "H6:H7", "I6:I7", "J6:J7", "K6:K7",
		},
		Columns: []spreadsheet.Column{
			{Range: "A", Width: 6},
			{Range: "B", Width: 28},
			{Range: "C", Width: 8},
			{Range: "D:G", Width: 9},
			{Range: "H:J", Width: 12},
			{Range: "K", Width: 20},
			{Range: HiddenColumns, Hidden: true},
		},
		Rows: []spreadsheet.Row{{Index: 1, Height: 36}, {Index: HeaderTopRow, Height: 24}},
		Validations: []spreadsheet.Validation{
			{Range: MonthCell, Type: spreadsheet.ValidationWhole, Min: 1, Max: 12, Prompt: "ខែត្រូវតែពី ១ ដល់ ១២"},
			{Range: YearCell, Type: spreadsheet.ValidationWhole, Min: 2000, Max: 2099, Prompt: "ឆ្នាំមិនត្រឹមត្រូវ"},
			{Range: MaxHomeworkCell, Type: spreadsheet.ValidationDecimal, Min: 1, Max: 100, Prompt: "ពិន្ទុអតិបរមាត្រូវតែពី ១ ដល់ ១០០"},
			{Range: HomeworkCountCell, Type: spreadsheet.ValidationWhole, Min: 0, Max: grading.HomeworkSlots, Prompt: "ចំនួនកិច្ចការត្រូវតែពី ០ ដល់ ៤"},
			{Range: fmt.Sprintf("D%d:G%d", FirstDataRow, last), Type: spreadsheet.ValidationDecimal, Min: 0, Max: 100, Prompt: "ពិន្ទុត្រូវតែពី ០ ដល់ ១០០"},
			{Range: fmt.Sprintf("I%d:I%d", FirstDataRow, last), Type: spreadsheet.ValidationDecimal, Min: 0, Max: 100, Prompt: "ពិន្ទុត្រូវតែពី ០ ដល់ ១០០"},
		},
	}

	if logo := logoPath(in.LogoDir, in.GradeLevel); logo != "" {
		s.Images = append(s.Images, spreadsheet.Image{Ref: "A1", Path: logo, Scale: 0.3})
	}

	add := func(ref string, value interface{}, style string, editable bool) {
		s.Cells = append(s.Cells, spreadsheet.Cell{Ref: ref, Value: value, Style: style, Editable: editable})
	}
	formula := func(ref, expr string) {
		s.Cells = append(s.Cells, spreadsheet.Cell{Ref: ref, Formula: expr, Style: styleFormula})
	}

	add("A1", "តារាងពិន្ទុប្រចាំខែ", styleTitle, false)
	add("A2", "ឆ្នាំសិក្សា", styleLabel, false)
	add("B2", in.SchoolYearCode, "", false)
	add("D2", "ឆមាស", styleLabel, false)
	add("E2", in.SemesterName, "", false)
	add("A3", "ថ្នាក់", styleLabel, false)
	add("B3", in.CourseName, "", false)
	add("C3", "ខែ", styleLabel, false)
	add(MonthCell, in.Month, styleEditable, true)
	add("E3", "ឆ្នាំ", styleLabel, false)
	add(YearCell, in.Year, styleEditable, true)
	add("A4", "មុខវិជ្ជា", styleLabel, false)
	add("B4", subject.Name, "", false)
	add("G4", "ពិន្ទុកិច្ចការអតិបរមា", styleLabel, false)
	add(MaxHomeworkCell, grading.DefaultMaxHomeworkScore, styleEditable, true)
	add("F5", "ចំនួនកិច្ចការ", styleLabel, false)
	add(HomeworkCountCell, grading.DefaultHomeworkCount, styleEditable, true)

	headers := []struct{ ref, label string }{
		{"A6", "ល.រ"}, {"B6", "ឈ្មោះសិស្ស"}, {"C6", "ភេទ"}, {"D6", "កិច្ចការផ្ទះ"},
		{"D7", "1"}, {"E7", "2"}, {"F7", "3"}, {"G7", "4"},
		{"H6", "សរុបកិច្ចការ"}, {"I6", "ប្រឡង"}, {"J6", "ពិន្ទុប្រចាំខែ"}, {"K6", "ផ្សេងៗ"},
		{"L6", "studentId"}, {"M6", "subjectId"}, {"N6", "courseId"}, {"O6", "semesterId"},
		{"P6", "schoolYearId"}, {"Q6", "month"}, {"R6", "year"},
	}
	for _, h := range headers {
		add(h.ref, h.label, styleHeader, false)
	}

	for i, student := range in.Students {
		row := FirstDataRow + i
		ref := func(col string) string { return col + strconv.Itoa(row) }

		add(ref(ColNumber), i+1, styleCell, false)
		add(ref(ColName), student.Name, styleCell, false)
		add(ref(ColGender), genderLabel(student.Gender), styleCell, false)
		for _, col := range HomeworkColumns {
			add(ref(col), 0, styleEditable, true)
		}
		formula(ref(ColHomeworkTotal), HomeworkTotalFormula(row))
		add(ref(ColExam), 0, styleEditable, true)
		formula(ref(ColMonthlyTotal), MonthlyTotalFormula(row))
		add(ref(ColNotes), "", styleEditable, true)

		add(ref(ColStudentID), student.ID, "", false)
		add(ref(ColSubjectID), subject.ID, "", false)
		add(ref(ColCourseID), in.CourseID, "", false)
		add(ref(ColSemesterID), in.SemesterID, "", false)
		add(ref(ColSchoolYearID), in.SchoolYearID, "", false)
		add(ref(ColMonth), in.Month, "", false)
		add(ref(ColYear), in.Year, "", false)
	}

	return s
}

// HomeworkTotalFormula averages the four homework cells over the count in G5.
func HomeworkTotalFormula(row int) string {
	return fmt.Sprintf("=IF($G$5=0,0,SUM(D%d:G%d)/$G$5)", row, row)
}

// MonthlyTotalFormula caps the homework total at H4 and adds the exam score.
func MonthlyTotalFormula(row int) string {
	return fmt.Sprintf("=MIN(H%d,$H$4)+I%d", row, row)
}

func genderLabel(gender string) string {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "m", "male", "ប", "ប្រុស":
		return "ប្រុស"
	case "f", "female", "ស", "ស្រី":
		return "ស្រី"
	default:
		return gender
	}
}

const maxSheetName = 31

func uniqueSheetName(name string, used map[string]int) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = "Subject"
	}
	clean = truncateRunes(clean, maxSheetName)

	used[clean]++
	if used[clean] == 1 {
		return clean
	}

	suffix := fmt.Sprintf(" (%d)", used[clean])
	candidate := truncateRunes(clean, maxSheetName-utf8.RuneCountInString(suffix)) + suffix
	used[candidate]++
	return candidate
}

func truncateRunes(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}
