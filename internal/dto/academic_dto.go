package dto

import (
	"time"

	"github.com/noah-isme/sala-api/internal/models"
)

// SchoolYearCreateRequest captures a new academic year.
type SchoolYearCreateRequest struct {
	Code string `json:"code" validate:"required,schoolyear"`
}

// SchoolYearResponse serializes a school year.
type SchoolYearResponse struct {
	ID        uint      `json:"id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSchoolYearResponse converts the model.
func NewSchoolYearResponse(model models.SchoolYear) SchoolYearResponse {
	return SchoolYearResponse{ID: model.ID, Code: model.Code, CreatedAt: model.CreatedAt}
}

// SemesterCreateRequest captures a semester within a school year.
type SemesterCreateRequest struct {
	SchoolYearID uint   `json:"schoolYearId" validate:"required"`
	Name         string `json:"name" validate:"required,max=64"`
	Number       int    `json:"number" validate:"required,oneof=1 2"`
	StartDate    string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// SemesterResponse serializes a semester.
type SemesterResponse struct {
	ID           uint   `json:"id"`
	SchoolYearID uint   `json:"schoolYearId"`
	Name         string `json:"name"`
	Number       int    `json:"number"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
}

// NewSemesterResponse converts the model.
func NewSemesterResponse(model models.Semester) SemesterResponse {
	return SemesterResponse{
		ID:           model.ID,
		SchoolYearID: model.SchoolYearID,
		Name:         model.Name,
		Number:       model.Number,
		StartDate:    model.StartDate.Format("2006-01-02"),
		EndDate:      model.EndDate.Format("2006-01-02"),
	}
}

// SubjectCreateRequest captures a new subject.
type SubjectCreateRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

// SubjectResponse serializes a subject.
type SubjectResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// NewSubjectResponse converts the model.
func NewSubjectResponse(model models.Subject) SubjectResponse {
	return SubjectResponse{ID: model.ID, Name: model.Name}
}

// CourseRequest is the create and update payload for a course.
type CourseRequest struct {
	SchoolYearID uint    `json:"schoolYearId" validate:"required"`
	Grade        FlexInt `json:"grade" validate:"min=1,max=12"`
	Section      string  `json:"section" validate:"max=16"`
	CourseName   string  `json:"courseName" validate:"max=128"`
	TeacherID1   *uint   `json:"teacherId1"`
	TeacherID2   *uint   `json:"teacherId2"`
	TeacherID3   *uint   `json:"teacherId3"`
}

// CourseListRequest filters the course list.
type CourseListRequest struct {
	SchoolYearID uint
	Grade        int
	Search       string
}

// CourseTeacher is a resolved teacher slot.
type CourseTeacher struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// CourseResponse serializes a course with resolved teacher names.
type CourseResponse struct {
	ID           uint            `json:"id"`
	SchoolYearID uint            `json:"schoolYearId"`
	Grade        int             `json:"grade"`
	Section      string          `json:"section"`
	CourseName   string          `json:"courseName"`
	TeacherID1   *uint           `json:"teacherId1"`
	TeacherID2   *uint           `json:"teacherId2"`
	TeacherID3   *uint           `json:"teacherId3"`
	Teachers     []CourseTeacher `json:"teachers"`
}

// NewCourseResponse converts the model. Preloaded teachers are listed in slot order.
func NewCourseResponse(model models.Course) CourseResponse {
	teachers := make([]CourseTeacher, 0, 3)
	for _, t := range []*models.User{model.Teacher1, model.Teacher2, model.Teacher3} {
		if t != nil && t.ID > 0 {
			teachers = append(teachers, CourseTeacher{ID: t.ID, Name: t.Name})
		}
	}

	return CourseResponse{
		ID:           model.ID,
		SchoolYearID: model.SchoolYearID,
		Grade:        model.Grade,
		Section:      model.Section,
		CourseName:   model.CourseName,
		TeacherID1:   model.TeacherID1,
		TeacherID2:   model.TeacherID2,
		TeacherID3:   model.TeacherID3,
		Teachers:     teachers,
	}
}

// BulkCourseRequest creates one course per grade level for a section.
type BulkCourseRequest struct {
	SchoolYearID uint   `json:"schoolYearId" validate:"required"`
	Section      string `json:"section" validate:"max=16"`
	Grades       []int  `json:"grades" validate:"required,min=1,dive,min=1,max=12"`
	Compensate   bool   `json:"compensate"`
}

// BulkCourseFailure names a grade level that could not be created.
type BulkCourseFailure struct {
	Grade  int    `json:"grade"`
	Reason string `json:"reason"`
}

// BulkCourseResult reports the outcome of a bulk creation run.
type BulkCourseResult struct {
	SagaID      string              `json:"sagaId"`
	Requested   int                 `json:"requested"`
	Created     []CourseResponse    `json:"created"`
	Failed      []BulkCourseFailure `json:"failed"`
	Compensated bool                `json:"compensated"`
	Message     string              `json:"message"`
}
