package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/models"
)

func TestSchoolYearDeleteUnknownLeavesDataIntact(t *testing.T) {
	env := newTestApp(t)
	year := env.seedYear(t, "2024-2025")
	env.seedCourse(t, year, 7, "ថ្នាក់ទី 7 A")

	resp := env.do(t, http.MethodDelete, "/api/admin/school-years/999", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	require.False(t, body.Success)

	var years, courses int64
	require.NoError(t, env.db.Model(&models.SchoolYear{}).Count(&years).Error)
	require.NoError(t, env.db.Model(&models.Course{}).Count(&courses).Error)
	require.EqualValues(t, 1, years)
	require.EqualValues(t, 1, courses)
}

func TestSchoolYearCreateValidatesCode(t *testing.T) {
	env := newTestApp(t)

	resp := env.do(t, http.MethodPost, "/api/admin/school-years", `{"code":"2024-2026"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Contains(t, decodeEnvelope(t, resp).Details, "code")

	resp = env.do(t, http.MethodPost, "/api/admin/school-years", `{"code":"2024-2025"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var year dto.SchoolYearResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &year))
	require.Equal(t, "2024-2025", year.Code)

	resp = env.do(t, http.MethodPost, "/api/admin/school-years", `{"code":"2024-2025"}`)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestSemesterListFiltersBySchoolYear(t *testing.T) {
	env := newTestApp(t)
	first := env.seedYear(t, "2024-2025")
	second := env.seedYear(t, "2025-2026")

	for _, year := range []models.SchoolYear{first, second} {
		resp := env.do(t, http.MethodPost, "/api/admin/semesters", dto.SemesterCreateRequest{
			SchoolYearID: year.ID,
			Name:         "Semester 1",
			Number:       1,
			StartDate:    "2024-11-01",
			EndDate:      "2025-03-31",
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		require.NoError(t, resp.Body.Close())
	}

	resp := env.do(t, http.MethodGet, "/api/admin/semesters?schoolYearId=2", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var semesters []dto.SemesterResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &semesters))
	require.Len(t, semesters, 1)
	require.Equal(t, second.ID, semesters[0].SchoolYearID)
}
