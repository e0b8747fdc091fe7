package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/models"
)

func TestCourseCreateFillsBlankName(t *testing.T) {
	env := newTestApp(t)
	year := env.seedYear(t, "2024-2025")

	resp := env.do(t, http.MethodPost, "/api/admin/courses",
		fmt.Sprintf(`{"schoolYearId":%d,"grade":"1","section":"A","courseName":""}`, year.ID))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.True(t, body.Success)

	var course dto.CourseResponse
	require.NoError(t, json.Unmarshal(body.Data, &course))
	require.Equal(t, "ថ្នាក់ទី 1 A", course.CourseName)
	require.Equal(t, 1, course.Grade)
}

func TestCourseBulkCalledOncePerGrade(t *testing.T) {
	env := newTestApp(t)
	year := env.seedYear(t, "2024-2025")

	for grade := 1; grade <= 12; grade++ {
		resp := env.do(t, http.MethodPost, "/api/admin/courses/bulk", dto.BulkCourseRequest{
			SchoolYearID: year.ID,
			Section:      "A",
			Grades:       []int{grade},
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		require.NoError(t, resp.Body.Close())
	}

	var courses []models.Course
	require.NoError(t, env.db.Order("grade").Find(&courses).Error)
	require.Len(t, courses, 12)
	for i, course := range courses {
		require.Equal(t, fmt.Sprintf("ថ្នាក់ទី %d", i+1), course.CourseName)
	}
}

func TestCourseCreateReportsFieldErrors(t *testing.T) {
	env := newTestApp(t)
	year := env.seedYear(t, "2024-2025")

	resp := env.do(t, http.MethodPost, "/api/admin/courses",
		fmt.Sprintf(`{"schoolYearId":%d,"grade":13,"section":"A"}`, year.ID))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.False(t, body.Success)
	require.Equal(t, "validation failed", body.Message)
	require.Contains(t, body.Details, "grade")
}

func TestCourseCreateUnknownYearIsNotFound(t *testing.T) {
	env := newTestApp(t)

	resp := env.do(t, http.MethodPost, "/api/admin/courses", `{"schoolYearId":42,"grade":3}`)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCourseRoutesRejectBadIdentifier(t *testing.T) {
	env := newTestApp(t)

	resp := env.do(t, http.MethodGet, "/api/admin/courses/abc", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid identifier", decodeEnvelope(t, resp).Message)
}
