package dto

import (
	"time"

	"github.com/noah-isme/sala-api/internal/models"
)

// Attendance report types.
const (
	ReportDaily    = "daily"
	ReportMonthly  = "monthly"
	ReportSemester = "semester"
	ReportYearly   = "yearly"
)

// AttendanceListRequest filters attendance rows for a course.
type AttendanceListRequest struct {
	CourseID  uint
	StudentID uint
	From      time.Time
	To        time.Time
}

// AttendanceRecordRequest is one student's status on the recorded day.
type AttendanceRecordRequest struct {
	StudentID uint   `json:"studentId" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent permission late"`
	Note      string `json:"note" validate:"max=512"`
}

// AttendanceBulkRequest upserts a day of attendance for a course.
type AttendanceBulkRequest struct {
	CourseID uint                      `json:"courseId" validate:"required"`
	Date     string                    `json:"date" validate:"required,datetime=2006-01-02"`
	Records  []AttendanceRecordRequest `json:"records" validate:"required,min=1,dive"`
}

// AttendanceResponse serializes an attendance row.
type AttendanceResponse struct {
	ID          uint   `json:"id"`
	StudentID   uint   `json:"studentId"`
	StudentName string `json:"studentName,omitempty"`
	CourseID    uint   `json:"courseId"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	Note        string `json:"note"`
}

// NewAttendanceResponse converts the model.
func NewAttendanceResponse(model models.Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:          model.ID,
		StudentID:   model.StudentID,
		StudentName: model.Student.Name,
		CourseID:    model.CourseID,
		Date:        model.Date.Format("2006-01-02"),
		Status:      model.Status,
		Note:        model.Note,
	}
}

// AttendanceReportRequest selects a report type and its filters. The
// academicYear, semester and class fields carry school year, semester and
// course identifiers; selects may send them as strings.
type AttendanceReportRequest struct {
	ReportType   string  `json:"reportType" validate:"required,oneof=daily monthly semester yearly"`
	StartDate    string  `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string  `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	AcademicYear FlexInt `json:"academicYear"`
	Month        FlexInt `json:"month" validate:"min=0,max=12"`
	Year         FlexInt `json:"year"`
	Semester     FlexInt `json:"semester"`
	Class        FlexInt `json:"class"`
}

// MissingFields lists the filters the report type requires but the request lacks.
func (r AttendanceReportRequest) MissingFields() []string {
	missing := make([]string, 0)
	need := func(ok bool, name string) {
		if !ok {
			missing = append(missing, name)
		}
	}

	switch r.ReportType {
	case ReportDaily:
		need(r.StartDate != "", "startDate")
		need(r.EndDate != "", "endDate")
	case ReportMonthly:
		need(r.AcademicYear > 0, "academicYear")
		need(r.Month > 0, "month")
		need(r.Year > 0, "year")
		need(r.Class > 0, "class")
	case ReportSemester:
		need(r.AcademicYear > 0, "academicYear")
		need(r.Semester > 0, "semester")
		need(r.Class > 0, "class")
	case ReportYearly:
		need(r.AcademicYear > 0, "academicYear")
		need(r.Class > 0, "class")
	}
	return missing
}

// AttendanceReportRow aggregates one student's attendance over the report period.
type AttendanceReportRow struct {
	StudentID   uint    `json:"studentId"`
	StudentName string  `json:"studentName"`
	Gender      string  `json:"gender"`
	Present     int     `json:"present"`
	Absent      int     `json:"absent"`
	Permission  int     `json:"permission"`
	Late        int     `json:"late"`
	Total       int     `json:"total"`
	Rate        float64 `json:"rate"`
}

// AttendanceReport is the aggregated content rendered into the PDF.
type AttendanceReport struct {
	Type       string                `json:"type"`
	Title      string                `json:"title"`
	Period     string                `json:"period"`
	CourseName string                `json:"courseName"`
	Rows       []AttendanceReportRow `json:"rows"`
}

// AttendanceReportFile is a rendered PDF.
type AttendanceReportFile struct {
	Filename string
	Content  []byte
	Rows     int
}
