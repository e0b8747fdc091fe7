package dto

import (
	"time"

	"github.com/noah-isme/sala-api/internal/grading"
	"github.com/noah-isme/sala-api/internal/gradesheet"
	"github.com/noah-isme/sala-api/internal/models"
)

// GradeListRequest filters grade records.
type GradeListRequest struct {
	StudentID    uint
	CourseID     uint
	SemesterID   uint
	SubjectID    uint
	SchoolYearID uint
}

// GradeCreateRequest records one score.
type GradeCreateRequest struct {
	StudentID  uint     `json:"studentId" validate:"required"`
	SubjectID  uint     `json:"subjectId" validate:"required"`
	CourseID   uint     `json:"courseId" validate:"required"`
	SemesterID uint     `json:"semesterId" validate:"required"`
	Grade      *float64 `json:"grade" validate:"required,gte=0,lte=100"`
	GradeDate  string   `json:"gradeDate" validate:"required,mmyy"`
	Comment    string   `json:"comment" validate:"max=2000"`
}

// GradeUpdateRequest edits an existing score. The identifier travels in the body.
type GradeUpdateRequest struct {
	ID uint `json:"id" validate:"required"`
	GradeCreateRequest
}

// GradeResponse serializes a grade with its decoded month and year.
type GradeResponse struct {
	ID          uint      `json:"id"`
	StudentID   uint      `json:"studentId"`
	StudentName string    `json:"studentName,omitempty"`
	SubjectID   uint      `json:"subjectId"`
	SubjectName string    `json:"subjectName,omitempty"`
	CourseID    uint      `json:"courseId"`
	SemesterID  uint      `json:"semesterId"`
	Grade       float64   `json:"grade"`
	GradeDate   string    `json:"gradeDate"`
	Month       string    `json:"month"`
	YearFull    string    `json:"yearFull"`
	Comment     string    `json:"comment"`
	UserID      *uint     `json:"userId"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewGradeResponse converts the model. Unparseable dates leave Month and YearFull empty.
func NewGradeResponse(model models.Grade) GradeResponse {
	resp := GradeResponse{
		ID:          model.ID,
		StudentID:   model.StudentID,
		StudentName: model.Student.Name,
		SubjectID:   model.SubjectID,
		SubjectName: model.Subject.Name,
		CourseID:    model.CourseID,
		SemesterID:  model.SemesterID,
		Grade:       model.Score,
		GradeDate:   model.GradeDate,
		Comment:     model.Comment,
		UserID:      model.UserID,
		UpdatedAt:   model.UpdatedAt,
	}
	if date, err := grading.ParseGradeDate(model.GradeDate); err == nil {
		resp.Month = date.Month
		resp.YearFull = date.YearFull
	}
	return resp
}

// GradeStatisticsRequest scopes the statistics aggregation.
type GradeStatisticsRequest struct {
	SchoolYearID uint
	CourseID     uint
	SemesterID   uint
}

// GradeStatisticsResponse carries per-student summaries and the monthly trend.
type GradeStatisticsResponse struct {
	Students    []grading.StudentSummary `json:"students"`
	Monthly     []grading.MonthlyPoint   `json:"monthly"`
	GeneratedAt time.Time                `json:"generatedAt"`
	CacheHit    bool                     `json:"cacheHit"`
}

// GradeTemplateRequest selects the course, semester and subjects of a workbook.
type GradeTemplateRequest struct {
	CourseID     uint   `validate:"required"`
	SemesterID   uint   `validate:"required"`
	SchoolYearID uint   `validate:"required"`
	SubjectIDs   []uint `validate:"required,min=1"`
	Month        int    `validate:"omitempty,min=1,max=12"`
	Year         int    `validate:"omitempty,min=2000,max=2099"`
}

// GradeTemplateFile is a rendered workbook.
type GradeTemplateFile struct {
	Filename string
	Content  []byte
}

// GradeImportResult summarises a workbook import.
type GradeImportResult struct {
	Total   int                   `json:"total"`
	Created int                   `json:"created"`
	Updated int                   `json:"updated"`
	Failed  []gradesheet.RowError `json:"failed"`
	Message string                `json:"message"`
}
