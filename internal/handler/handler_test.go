package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/config"
	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/handler"
	"github.com/noah-isme/sala-api/internal/models"
	"github.com/noah-isme/sala-api/internal/repository"
	"github.com/noah-isme/sala-api/internal/router"
	"github.com/noah-isme/sala-api/internal/service"
	"github.com/noah-isme/sala-api/pkg/storage"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

type testApp struct {
	app    *fiber.App
	db     *gorm.DB
	events service.EventService
}

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// newTestApp wires the real services over sqlite and mounts them through the router.
func newTestApp(t *testing.T) testApp {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db := setupHandlerDB(t)
	validate := dto.NewValidator()

	years := repository.NewSchoolYearRepository(db)
	semesters := repository.NewSemesterRepository(db)
	subjects := repository.NewSubjectRepository(db)
	courses := repository.NewCourseRepository(db)
	users := repository.NewUserRepository(db)
	students := repository.NewStudentRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	grades := repository.NewGradeRepository(db)
	attendance := repository.NewAttendanceRepository(db)

	events := service.NewEventService(nil, "", nil, logger)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	refs := service.GradeRefs{Students: students, Subjects: subjects, Courses: courses, Semesters: semesters}

	local, err := storage.NewLocal(t.TempDir(), "/uploads", logger)
	require.NoError(t, err)

	cfg := config.Config{AppName: "Sala API", AppEnv: "test", ExportRateLimit: 100, UploadMaxSizeMB: 2}
	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		SchoolYearHandler: handler.NewSchoolYearHandler(service.NewSchoolYearService(years, validate, nil, 0, activity, events, logger), logger),
		SemesterHandler:   handler.NewSemesterHandler(service.NewSemesterService(semesters, years, validate, activity, events, logger), logger),
		SubjectHandler:    handler.NewSubjectHandler(service.NewSubjectService(subjects, validate, nil, 0, activity, events, logger), logger),
		CourseHandler:     handler.NewCourseHandler(service.NewCourseService(courses, years, users, validate, activity, events, logger), logger),
		UserHandler:       handler.NewUserHandler(service.NewUserService(users, validate, activity, events, logger), logger),
		GradeHandler: handler.NewGradeHandler(
			service.NewGradeService(grades, refs, validate, activity, events, logger),
			service.NewGradeStatisticsService(grades, nil, 0, logger),
			logger,
		),
		GradeWorkbookHandler: handler.NewGradeWorkbookHandler(
			service.NewGradeTemplateService(years, semesters, courses, subjects, students, validate, service.GradeTemplateOptions{}, logger),
			service.NewGradeImportService(grades, refs, cfg.UploadMaxSizeMB, activity, events, logger),
			logger,
		),
		StudentHandler: handler.NewStudentHandler(
			service.NewStudentService(students, courses, validate, activity, events, logger),
			service.NewEnrollmentService(enrollments, students, courses, validate, activity, events, logger),
			logger,
		),
		AttendanceHandler: handler.NewAttendanceHandler(
			service.NewAttendanceService(attendance, students, courses, validate, activity, logger),
			service.NewAttendanceReportService(attendance, students, courses, years, semesters, validate, service.AttendanceReportOptions{}, logger),
			logger,
		),
		EventHandler:    handler.NewEventHandler(events, logger, 0),
		ActivityHandler: handler.NewAdminActivityHandler(activity, logger),
		UploadHandler:   handler.NewUploadHandler(service.NewUploadService(local, repository.NewUploadRepository(db), cfg.UploadMaxSizeMB, activity, logger), logger),
		Health:          handler.HealthDeps{DB: db},
	})

	return testApp{app: app, db: db, events: events}
}

func (a testApp) do(t *testing.T, method, target string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		reader = bytes.NewBufferString(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (a testApp) seedYear(t *testing.T, code string) models.SchoolYear {
	t.Helper()
	year := models.SchoolYear{Code: code}
	require.NoError(t, a.db.Create(&year).Error)
	return year
}

func (a testApp) seedCourse(t *testing.T, year models.SchoolYear, grade int, name string) models.Course {
	t.Helper()
	course := models.Course{SchoolYearID: year.ID, Grade: grade, Section: "A", CourseName: name}
	require.NoError(t, a.db.Omit("SchoolYear").Create(&course).Error)
	return course
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	var body envelope
	decodeResponse(t, resp, &body)
	return body
}
