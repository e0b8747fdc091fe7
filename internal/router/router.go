package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sala-api/internal/config"
	"github.com/noah-isme/sala-api/internal/handler"
	"github.com/noah-isme/sala-api/internal/middleware"
	"github.com/noah-isme/sala-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SchoolYearHandler    *handler.SchoolYearHandler
	SemesterHandler      *handler.SemesterHandler
	SubjectHandler       *handler.SubjectHandler
	CourseHandler        *handler.CourseHandler
	UserHandler          *handler.UserHandler
	GradeHandler         *handler.GradeHandler
	GradeWorkbookHandler *handler.GradeWorkbookHandler
	StudentHandler       *handler.StudentHandler
	AttendanceHandler    *handler.AttendanceHandler
	EventHandler         *handler.EventHandler
	ActivityHandler      *handler.AdminActivityHandler
	UploadHandler        *handler.UploadHandler
	Health               handler.HealthDeps
	JWTMiddleware        fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Health))
	app.Get("/metrics", observability.MetricsHandler())

	if cfg.UploadDir != "" && cfg.UploadBaseURL != "" && !cfg.CloudinaryEnabled() {
		app.Static(cfg.UploadBaseURL, cfg.UploadDir)
	}

	// Guard every dashboard route when a secret is configured.
	guards := []fiber.Handler{}
	if deps.JWTMiddleware != nil {
		guards = append(guards, deps.JWTMiddleware, middleware.RequireStaff())
	}
	protected := func(prefix string) fiber.Router {
		if len(guards) == 0 {
			return app.Group(prefix)
		}
		return app.Group(prefix, guards...)
	}

	exportLimit := middleware.RateLimit("exports", cfg.ExportRateLimit, time.Minute)

	admin := protected("/api/admin")
	if deps.SchoolYearHandler != nil {
		deps.SchoolYearHandler.Register(admin.Group("/school-years"))
	}
	if deps.SemesterHandler != nil {
		deps.SemesterHandler.Register(admin.Group("/semesters"))
	}
	if deps.SubjectHandler != nil {
		deps.SubjectHandler.Register(admin.Group("/subjects"))
	}
	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(admin.Group("/courses"))
	}
	if deps.UserHandler != nil {
		deps.UserHandler.Register(admin.Group("/users"))
	}
	if deps.GradeHandler != nil {
		deps.GradeHandler.Register(admin.Group("/grades"))
	}
	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(admin.Group("/students"))
		deps.StudentHandler.RegisterEnrollments(admin.Group("/enrollments"))
	}
	if deps.AttendanceHandler != nil {
		deps.AttendanceHandler.Register(admin.Group("/attendance"))
	}
	if deps.EventHandler != nil {
		deps.EventHandler.Register(admin.Group("/events"))
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(admin.Group("/activities"))
	}

	if deps.GradeWorkbookHandler != nil {
		deps.GradeWorkbookHandler.Register(protected("/api/grades"), exportLimit)
	}
	if deps.AttendanceHandler != nil {
		deps.AttendanceHandler.RegisterReports(protected("/api/pdf-generate"), exportLimit)
	}
	if deps.UploadHandler != nil {
		deps.UploadHandler.Register(protected("/api/upload"))
	}
}
