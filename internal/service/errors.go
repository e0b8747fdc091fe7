package service

import (
	"errors"
	"strings"
)

var (
	// ErrSchoolYearNotFound indicates the referenced school year does not exist.
	ErrSchoolYearNotFound = errors.New("school year not found")
	// ErrSemesterNotFound indicates the referenced semester does not exist.
	ErrSemesterNotFound = errors.New("semester not found")
	// ErrSubjectNotFound indicates one or more referenced subjects do not exist.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrCourseNotFound indicates the referenced course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrTeacherNotFound indicates a course teacher slot references an unknown user.
	ErrTeacherNotFound = errors.New("teacher not found")
	// ErrStudentNotFound indicates the referenced student does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrEnrollmentNotFound indicates the referenced enrollment does not exist.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrGradeNotFound indicates the referenced grade does not exist.
	ErrGradeNotFound = errors.New("grade not found")
	// ErrNoEnrolledStudents indicates a course has nobody to export.
	ErrNoEnrolledStudents = errors.New("no enrolled students")
	// ErrInvalidWorkbook indicates an uploaded workbook could not be read.
	ErrInvalidWorkbook = errors.New("invalid workbook")
	// ErrInvalidReportFilter indicates a report request misses type specific filters.
	ErrInvalidReportFilter = errors.New("invalid report filter")
)

// FieldError reports input that passed DTO validation but is still unusable.
// Handlers render it as a 400 with a single field keyed detail.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Details returns the field keyed message map.
func (e *FieldError) Details() map[string]string {
	return map[string]string{e.Field: e.Message}
}

// MissingFieldsError lists filters a report type requires but the request lacks.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Unwrap lets callers match ErrInvalidReportFilter.
func (e *MissingFieldsError) Unwrap() error {
	return ErrInvalidReportFilter
}

// Details returns the field keyed message map.
func (e *MissingFieldsError) Details() map[string]string {
	details := make(map[string]string, len(e.Fields))
	for _, field := range e.Fields {
		details[field] = "is required for this report type"
	}
	return details
}
