// Package gradesheet describes the monthly grade-entry workbook and reads it back.
package gradesheet

import "path/filepath"

// Fixed cell positions shared by the template and the importer.
const (
	TitleRange        = "A1:K1"
	MonthCell         = "D3"
	YearCell          = "F3"
	MaxHomeworkCell   = "H4"
	HomeworkCountCell = "G5"
	HeaderTopRow      = 6
	HeaderBottomRow   = 7
	FirstDataRow      = 8
	HiddenColumns     = "L:R"
	InstructionsSheet = "ការណែនាំ"
)

// Hidden identifier columns in the order they are written.
const (
	ColStudentID    = "L"
	ColSubjectID    = "M"
	ColCourseID     = "N"
	ColSemesterID   = "O"
	ColSchoolYearID = "P"
	ColMonth        = "Q"
	ColYear         = "R"
)

// Visible grid columns.
const (
	ColNumber        = "A"
	ColName          = "B"
	ColGender        = "C"
	ColHomeworkTotal = "H"
	ColExam          = "I"
	ColMonthlyTotal  = "J"
	ColNotes         = "K"
)

// HomeworkColumns hold the four homework slots.
var HomeworkColumns = [4]string{"D", "E", "F", "G"}

// Logo file names looked up in the configured logo directory.
const (
	LogoPrimary    = "primary.png"
	LogoHighSchool = "highschool.png"
	LogoGeneric    = "generic.png"
)

// LogoFor picks the school logo by course grade level.
func LogoFor(gradeLevel int) string {
	switch {
	case gradeLevel >= 1 && gradeLevel <= 6:
		return LogoPrimary
	case gradeLevel >= 7 && gradeLevel <= 9:
		return LogoHighSchool
	default:
		return LogoGeneric
	}
}

func logoPath(dir string, gradeLevel int) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, LogoFor(gradeLevel))
}
