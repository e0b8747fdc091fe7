package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sala-api/internal/config"
	"github.com/noah-isme/sala-api/internal/database"
	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/handler"
	"github.com/noah-isme/sala-api/internal/middleware"
	"github.com/noah-isme/sala-api/internal/repository"
	"github.com/noah-isme/sala-api/internal/router"
	"github.com/noah-isme/sala-api/internal/service"
	cloud "github.com/noah-isme/sala-api/pkg/cloudinary"
	"github.com/noah-isme/sala-api/pkg/storage"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL, 3*time.Second)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, caching disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, events stay local")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	fileStorage, err := newFileStorage(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload storage")
	}

	validate := dto.NewValidator()

	schoolYearRepo := repository.NewSchoolYearRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	events := service.NewEventService(redisClient, cfg.EventsChannel, natsConn, logger)
	events.Start(ctx)
	activity := service.NewActivityService(activityRepo, logger)

	refs := service.GradeRefs{
		Students:  studentRepo,
		Subjects:  subjectRepo,
		Courses:   courseRepo,
		Semesters: semesterRepo,
	}

	schoolYearService := service.NewSchoolYearService(schoolYearRepo, validate, redisClient, cfg.CacheTTL, activity, events, logger)
	semesterService := service.NewSemesterService(semesterRepo, schoolYearRepo, validate, activity, events, logger)
	subjectService := service.NewSubjectService(subjectRepo, validate, redisClient, cfg.CacheTTL, activity, events, logger)
	courseService := service.NewCourseService(courseRepo, schoolYearRepo, userRepo, validate, activity, events, logger)
	userService := service.NewUserService(userRepo, validate, activity, events, logger)
	studentService := service.NewStudentService(studentRepo, courseRepo, validate, activity, events, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, validate, activity, events, logger)
	gradeService := service.NewGradeService(gradeRepo, refs, validate, activity, events, logger)
	statisticsService := service.NewGradeStatisticsService(gradeRepo, redisClient, cfg.CacheTTL, logger)
	templateService := service.NewGradeTemplateService(schoolYearRepo, semesterRepo, courseRepo, subjectRepo, studentRepo, validate, service.GradeTemplateOptions{
		Password: cfg.TemplatePassword,
		LogoDir:  cfg.TemplateLogoDir,
	}, logger)
	importService := service.NewGradeImportService(gradeRepo, refs, cfg.UploadMaxSizeMB, activity, events, logger)
	attendanceService := service.NewAttendanceService(attendanceRepo, studentRepo, courseRepo, validate, activity, logger)
	reportService := service.NewAttendanceReportService(attendanceRepo, studentRepo, courseRepo, schoolYearRepo, semesterRepo, validate, service.AttendanceReportOptions{
		FontPath: cfg.ReportFontPath,
	}, logger)
	uploadService := service.NewUploadService(fileStorage, uploadRepo, cfg.UploadMaxSizeMB, activity, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:    &logger,
		AccessLog: cfg.AppEnv == "development",
	})

	var jwtMiddleware fiber.Handler
	if cfg.AuthEnabled() {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	} else {
		logger.Warn().Msg("jwt secret not set, admin routes are unauthenticated")
	}

	router.Register(app, cfg, router.Dependencies{
		SchoolYearHandler:    handler.NewSchoolYearHandler(schoolYearService, logger),
		SemesterHandler:      handler.NewSemesterHandler(semesterService, logger),
		SubjectHandler:       handler.NewSubjectHandler(subjectService, logger),
		CourseHandler:        handler.NewCourseHandler(courseService, logger),
		UserHandler:          handler.NewUserHandler(userService, logger),
		GradeHandler:         handler.NewGradeHandler(gradeService, statisticsService, logger),
		GradeWorkbookHandler: handler.NewGradeWorkbookHandler(templateService, importService, logger),
		StudentHandler:       handler.NewStudentHandler(studentService, enrollmentService, logger),
		AttendanceHandler:    handler.NewAttendanceHandler(attendanceService, reportService, logger),
		EventHandler:         handler.NewEventHandler(events, logger, 30*time.Second),
		ActivityHandler:      handler.NewAdminActivityHandler(activity, logger),
		UploadHandler:        handler.NewUploadHandler(uploadService, logger),
		Health:               handler.HealthDeps{DB: db, Redis: redisClient},
		JWTMiddleware:        jwtMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(ctx, app, logger)
}

func newFileStorage(cfg config.Config, logger zerolog.Logger) (service.FileStorage, error) {
	if cfg.CloudinaryEnabled() {
		return cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
	}
	return storage.NewLocal(cfg.UploadDir, cfg.UploadBaseURL, logger)
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
