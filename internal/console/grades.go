package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/grading"
)

// ErrCancelled is returned when the operator declines a confirmation.
var ErrCancelled = errors.New("cancelled by operator")

// ValidationError lists form fields that must be filled before submitting.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "please fill in: " + strings.Join(names, ", ")
}

// Confirmer asks the operator to confirm a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// GradeForm is the editable part of the grade entry screen.
type GradeForm struct {
	GradeID   uint
	SubjectID uint
	Score     *float64
	Month     string
	Year      string
	Comment   string
}

// GradeEntry is the cascading grade entry workflow: school year, then
// semester and course, then student, then subject and score.
type GradeEntry struct {
	client    *Client
	store     *Store
	confirmer Confirmer

	mu           sync.Mutex
	schoolYearID uint
	semesterID   uint
	courseID     uint
	studentID    uint
	students     []dto.EnrolledStudentResponse
	grades       []dto.GradeResponse
	form         GradeForm
}

// NewGradeEntry constructs the workflow.
func NewGradeEntry(client *Client, store *Store, confirmer Confirmer) *GradeEntry {
	return &GradeEntry{client: client, store: store, confirmer: confirmer}
}

// SelectSchoolYear picks the year and clears every narrower selection.
func (g *GradeEntry) SelectSchoolYear(id uint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.schoolYearID = id
	g.courseID = 0
	g.studentID = 0
	g.students = nil
	g.grades = nil
	g.form = GradeForm{}
}

// SelectSemester picks the semester and refetches grades for the current student.
func (g *GradeEntry) SelectSemester(ctx context.Context, id uint) error {
	g.mu.Lock()
	g.semesterID = id
	g.grades = nil
	student := g.studentID
	g.mu.Unlock()

	if student == 0 {
		return nil
	}
	return g.refresh(ctx)
}

// SelectCourse picks the course, clears the student and grades, and loads
// the course's enrolled students.
func (g *GradeEntry) SelectCourse(ctx context.Context, id uint) error {
	g.mu.Lock()
	g.courseID = id
	g.studentID = 0
	g.students = nil
	g.grades = nil
	g.form = GradeForm{}
	year := g.schoolYearID
	g.mu.Unlock()

	if id == 0 {
		return nil
	}

	query := url.Values{}
	query.Set("courseId", strconv.FormatUint(uint64(id), 10))
	if year > 0 {
		query.Set("schoolYearId", strconv.FormatUint(uint64(year), 10))
	}

	var students []dto.EnrolledStudentResponse
	if err := g.client.Do(ctx, http.MethodGet, "/api/admin/students/enrolled", query, nil, &students); err != nil {
		return err
	}

	g.mu.Lock()
	if g.courseID == id {
		g.students = students
	}
	g.mu.Unlock()
	return nil
}

// SelectStudent picks the student and fetches their grades for the selected
// course and semester.
func (g *GradeEntry) SelectStudent(ctx context.Context, id uint) error {
	g.mu.Lock()
	g.studentID = id
	g.grades = nil
	g.form = GradeForm{}
	g.mu.Unlock()

	if id == 0 {
		return nil
	}
	return g.refresh(ctx)
}

// Students returns the enrolled students of the selected course.
func (g *GradeEntry) Students() []dto.EnrolledStudentResponse {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]dto.EnrolledStudentResponse(nil), g.students...)
}

// Grades returns the fetched grades of the selected student.
func (g *GradeEntry) Grades() []dto.GradeResponse {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]dto.GradeResponse(nil), g.grades...)
}

// Form returns the current form draft.
func (g *GradeEntry) Form() GradeForm {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.form
}

// SetForm replaces the form draft, keeping the grade being edited.
func (g *GradeEntry) SetForm(form GradeForm) {
	g.mu.Lock()
	defer g.mu.Unlock()
	form.GradeID = g.form.GradeID
	g.form = form
}

// Edit loads a row into the form, splitting its grade date back into month and year.
func (g *GradeEntry) Edit(row dto.GradeResponse) error {
	date, err := grading.ParseGradeDate(row.GradeDate)
	if err != nil {
		return err
	}

	score := row.Grade
	g.mu.Lock()
	defer g.mu.Unlock()
	g.form = GradeForm{
		GradeID:   row.ID,
		SubjectID: row.SubjectID,
		Score:     &score,
		Month:     date.Month,
		Year:      date.YearFull,
		Comment:   row.Comment,
	}
	return nil
}

// Submit validates the form and creates or updates the grade.
func (g *GradeEntry) Submit(ctx context.Context) (dto.GradeResponse, error) {
	g.mu.Lock()
	form := g.form
	base := dto.GradeCreateRequest{
		StudentID:  g.studentID,
		SubjectID:  form.SubjectID,
		CourseID:   g.courseID,
		SemesterID: g.semesterID,
		Grade:      form.Score,
		Comment:    strings.TrimSpace(form.Comment),
	}
	g.mu.Unlock()

	missing := map[string]string{}
	for field, ok := range map[string]bool{
		"studentId":  base.StudentID > 0,
		"subjectId":  base.SubjectID > 0,
		"courseId":   base.CourseID > 0,
		"semesterId": base.SemesterID > 0,
		"grade":      base.Grade != nil,
		"month":      strings.TrimSpace(form.Month) != "",
		"year":       strings.TrimSpace(form.Year) != "",
	} {
		if !ok {
			missing[field] = "is required"
		}
	}
	if len(missing) > 0 {
		return dto.GradeResponse{}, &ValidationError{Fields: missing}
	}

	gradeDate, err := grading.FormatGradeDate(form.Month, form.Year)
	if err != nil {
		return dto.GradeResponse{}, &ValidationError{Fields: map[string]string{"month": err.Error()}}
	}
	base.GradeDate = gradeDate

	var saved dto.GradeResponse
	if form.GradeID > 0 {
		err = g.client.Do(ctx, http.MethodPut, "/api/admin/grades", nil, dto.GradeUpdateRequest{ID: form.GradeID, GradeCreateRequest: base}, &saved)
	} else {
		err = g.client.Do(ctx, http.MethodPost, "/api/admin/grades", nil, base, &saved)
	}
	if err != nil {
		return dto.GradeResponse{}, err
	}

	g.store.Invalidate("grades")
	g.mu.Lock()
	g.form = GradeForm{}
	g.mu.Unlock()
	return saved, g.refresh(ctx)
}

// Delete removes a grade after the operator confirms.
func (g *GradeEntry) Delete(ctx context.Context, row dto.GradeResponse) error {
	if g.confirmer != nil && !g.confirmer.Confirm(fmt.Sprintf("Delete the %s grade for %s?", row.GradeDate, row.StudentName)) {
		return ErrCancelled
	}

	query := url.Values{}
	query.Set("gradeId", strconv.FormatUint(uint64(row.ID), 10))
	if err := g.client.Do(ctx, http.MethodDelete, "/api/admin/grades", query, nil, nil); err != nil {
		return err
	}

	g.store.Invalidate("grades")
	g.mu.Lock()
	if g.form.GradeID == row.ID {
		g.form = GradeForm{}
	}
	g.mu.Unlock()
	return g.refresh(ctx)
}

func (g *GradeEntry) refresh(ctx context.Context) error {
	g.mu.Lock()
	student, course, semester := g.studentID, g.courseID, g.semesterID
	g.mu.Unlock()

	query := url.Values{}
	query.Set("studentId", strconv.FormatUint(uint64(student), 10))
	if course > 0 {
		query.Set("courseId", strconv.FormatUint(uint64(course), 10))
	}
	if semester > 0 {
		query.Set("semesterId", strconv.FormatUint(uint64(semester), 10))
	}

	key := "grades:" + query.Encode()
	if cached, ok := g.store.Get(key); ok {
		g.setGrades(student, cached.([]dto.GradeResponse))
		return nil
	}

	var grades []dto.GradeResponse
	if err := g.client.Do(ctx, http.MethodGet, "/api/admin/grades", query, nil, &grades); err != nil {
		return err
	}
	g.store.Set(key, grades)
	g.setGrades(student, grades)
	return nil
}

func (g *GradeEntry) setGrades(student uint, grades []dto.GradeResponse) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.studentID == student {
		g.grades = append([]dto.GradeResponse(nil), grades...)
	}
}
