package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/models"
)

type gradeSeed struct {
	year     models.SchoolYear
	course   models.Course
	semester models.Semester
	subject  models.Subject
}

func seedGradeRefs(t *testing.T, env testApp) gradeSeed {
	t.Helper()
	year := env.seedYear(t, "2024-2025")
	course := env.seedCourse(t, year, 7, "ថ្នាក់ទី 7 A")

	semester := models.Semester{
		SchoolYearID: year.ID,
		Name:         "Semester 1",
		Number:       1,
		StartDate:    time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, env.db.Omit("SchoolYear").Create(&semester).Error)

	subject := models.Subject{Name: "Mathematics"}
	require.NoError(t, env.db.Create(&subject).Error)

	return gradeSeed{year: year, course: course, semester: semester, subject: subject}
}

func TestGradeTemplateWithoutStudentsNamesCourse(t *testing.T) {
	env := newTestApp(t)
	seed := seedGradeRefs(t, env)

	target := fmt.Sprintf("/api/grades/template-excel?courseId=%d&semesterId=%d&schoolYearId=%d&subjectIds=%d",
		seed.course.ID, seed.semester.ID, seed.year.ID, seed.subject.ID)
	resp := env.do(t, http.MethodGet, target, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.False(t, body.Success)
	require.Contains(t, body.Message, "ថ្នាក់ទី 7 A")
}

func TestGradeTemplateStreamsWorkbook(t *testing.T) {
	env := newTestApp(t)
	seed := seedGradeRefs(t, env)

	student := models.Student{Name: "Dara", Gender: "male", Status: models.StudentStatusActive}
	require.NoError(t, env.db.Create(&student).Error)
	require.NoError(t, env.db.Omit("Student", "Course").Create(&models.Enrollment{StudentID: student.ID, CourseID: seed.course.ID, EnrolledAt: time.Now()}).Error)

	target := fmt.Sprintf("/api/grades/template-excel?courseId=%d&semesterId=%d&schoolYearId=%d&subjectIds=%d&month=1&year=2025",
		seed.course.ID, seed.semester.ID, seed.year.ID, seed.subject.ID)
	resp := env.do(t, http.MethodGet, target, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get(fiber.HeaderContentType))
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment;")
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), ".xlsx")
}

func TestGradeTemplateRejectsMalformedSubjectList(t *testing.T) {
	env := newTestApp(t)

	resp := env.do(t, http.MethodGet, "/api/grades/template-excel?courseId=1&semesterId=1&schoolYearId=1&subjectIds=1,x", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Contains(t, decodeEnvelope(t, resp).Details, "subjectIds")
}

func TestGradeLifecycle(t *testing.T) {
	env := newTestApp(t)
	seed := seedGradeRefs(t, env)

	student := models.Student{Name: "Sophea", Gender: "female", Status: models.StudentStatusActive}
	require.NoError(t, env.db.Create(&student).Error)

	resp := env.do(t, http.MethodPost, "/api/admin/grades", fmt.Sprintf(
		`{"studentId":%d,"subjectId":%d,"courseId":%d,"semesterId":%d,"grade":88.5,"gradeDate":"01/25","comment":"<b>good</b>"}`,
		student.ID, seed.subject.ID, seed.course.ID, seed.semester.ID))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created dto.GradeResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &created))
	require.Equal(t, "01", created.Month)
	require.Equal(t, "2025", created.YearFull)

	resp = env.do(t, http.MethodPut, "/api/admin/grades", fmt.Sprintf(
		`{"id":%d,"studentId":%d,"subjectId":%d,"courseId":%d,"semesterId":%d,"grade":91,"gradeDate":"02/25"}`,
		created.ID, student.ID, seed.subject.ID, seed.course.ID, seed.semester.ID))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/grades?studentId=%d&courseId=%d&semesterId=%d", student.ID, seed.course.ID, seed.semester.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listed []dto.GradeResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &listed))
	require.Len(t, listed, 1)
	require.InDelta(t, 91, listed[0].Grade, 0.001)

	resp = env.do(t, http.MethodDelete, "/api/admin/grades", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Contains(t, decodeEnvelope(t, resp).Details, "gradeId")

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/grades?gradeId=%d", created.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/grades?gradeId=%d", created.ID), nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGradeCreateRejectsBadDate(t *testing.T) {
	env := newTestApp(t)
	seed := seedGradeRefs(t, env)

	resp := env.do(t, http.MethodPost, "/api/admin/grades", fmt.Sprintf(
		`{"studentId":1,"subjectId":%d,"courseId":%d,"semesterId":%d,"grade":50,"gradeDate":"2025-01"}`,
		seed.subject.ID, seed.course.ID, seed.semester.ID))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Contains(t, decodeEnvelope(t, resp).Details, "gradeDate")
}

func TestGradeUpdateKeysDetailsByJSONField(t *testing.T) {
	env := newTestApp(t)
	seed := seedGradeRefs(t, env)

	resp := env.do(t, http.MethodPut, "/api/admin/grades", fmt.Sprintf(
		`{"id":1,"studentId":1,"subjectId":%d,"courseId":%d,"semesterId":%d,"grade":150,"gradeDate":"13/25"}`,
		seed.subject.ID, seed.course.ID, seed.semester.ID))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	details := decodeEnvelope(t, resp).Details
	require.Contains(t, details, "grade")
	require.Contains(t, details, "gradeDate")
	for key := range details {
		require.NotContains(t, key, "GradeCreateRequest")
	}
}
