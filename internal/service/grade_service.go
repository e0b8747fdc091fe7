package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/grading"
	"github.com/noah-isme/sala-api/internal/models"
	"github.com/noah-isme/sala-api/internal/repository"
)

// GradeRefs groups the repositories used to check that a grade points at real rows.
type GradeRefs struct {
	Students  repository.StudentRepository
	Subjects  repository.SubjectRepository
	Courses   repository.CourseRepository
	Semesters repository.SemesterRepository
}

// check resolves every reference, returning the sentinel of the first missing one.
func (r GradeRefs) check(ctx context.Context, studentID, subjectID, courseID, semesterID uint) error {
	notFound := func(err error, sentinel error) error {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sentinel
		}
		return err
	}

	if _, err := r.Students.GetByID(ctx, studentID); err != nil {
		return notFound(err, ErrStudentNotFound)
	}
	subjects, err := r.Subjects.GetByIDs(ctx, []uint{subjectID})
	if err != nil {
		return err
	}
	if len(subjects) == 0 {
		return ErrSubjectNotFound
	}
	if _, err := r.Courses.GetByID(ctx, courseID); err != nil {
		return notFound(err, ErrCourseNotFound)
	}
	if _, err := r.Semesters.GetByID(ctx, semesterID); err != nil {
		return notFound(err, ErrSemesterNotFound)
	}
	return nil
}

// GradeService manages individual grade records.
type GradeService interface {
	List(ctx context.Context, req dto.GradeListRequest) ([]dto.GradeResponse, error)
	Create(ctx context.Context, payload dto.GradeCreateRequest, actor ActivityActor) (dto.GradeResponse, error)
	Update(ctx context.Context, payload dto.GradeUpdateRequest, actor ActivityActor) (dto.GradeResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type gradeService struct {
	repo      repository.GradeRepository
	refs      GradeRefs
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	audit     auditTrail
}

// NewGradeService constructs the grade service.
func NewGradeService(repo repository.GradeRepository, refs GradeRefs, validate *validator.Validate, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) GradeService {
	log := logger.With().Str("component", "grade_service").Logger()
	return &gradeService{
		repo:      repo,
		refs:      refs,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		audit:     auditTrail{activity: activity, events: events, logger: log},
	}
}

func (s *gradeService) List(ctx context.Context, req dto.GradeListRequest) ([]dto.GradeResponse, error) {
	grades, err := s.repo.List(ctx, repository.GradeFilter{
		StudentID:    req.StudentID,
		CourseID:     req.CourseID,
		SemesterID:   req.SemesterID,
		SubjectID:    req.SubjectID,
		SchoolYearID: req.SchoolYearID,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.GradeResponse, 0, len(grades))
	for _, grade := range grades {
		responses = append(responses, dto.NewGradeResponse(grade))
	}
	return responses, nil
}

func (s *gradeService) Create(ctx context.Context, payload dto.GradeCreateRequest, actor ActivityActor) (dto.GradeResponse, error) {
	grade, err := s.prepare(ctx, payload, actor)
	if err != nil {
		return dto.GradeResponse{}, err
	}

	if err := s.repo.Create(ctx, &grade); err != nil {
		return dto.GradeResponse{}, err
	}

	s.audit.done(ctx, actor, "grade.created", "grade", grade.ID, map[string]interface{}{
		"studentId": grade.StudentID,
		"subjectId": grade.SubjectID,
		"gradeDate": grade.GradeDate,
	}, TopicGradesUpdated)
	return s.reload(ctx, grade.ID)
}

func (s *gradeService) Update(ctx context.Context, payload dto.GradeUpdateRequest, actor ActivityActor) (dto.GradeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeResponse{}, err
	}

	grade, err := s.prepare(ctx, payload.GradeCreateRequest, actor)
	if err != nil {
		return dto.GradeResponse{}, err
	}
	grade.ID = payload.ID

	if err := s.repo.Update(ctx, &grade); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResponse{}, ErrGradeNotFound
		}
		return dto.GradeResponse{}, err
	}

	s.audit.done(ctx, actor, "grade.updated", "grade", grade.ID, map[string]interface{}{"grade": grade.Score}, TopicGradesUpdated)
	return s.reload(ctx, grade.ID)
}

func (s *gradeService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGradeNotFound
		}
		return err
	}

	s.audit.done(ctx, actor, "grade.deleted", "grade", id, nil, TopicGradesUpdated)
	return nil
}

func (s *gradeService) prepare(ctx context.Context, payload dto.GradeCreateRequest, actor ActivityActor) (models.Grade, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Grade{}, err
	}
	if err := s.refs.check(ctx, payload.StudentID, payload.SubjectID, payload.CourseID, payload.SemesterID); err != nil {
		return models.Grade{}, err
	}

	grade := models.Grade{
		StudentID:  payload.StudentID,
		SubjectID:  payload.SubjectID,
		CourseID:   payload.CourseID,
		SemesterID: payload.SemesterID,
		Score:      *payload.Grade,
		GradeDate:  payload.GradeDate,
		Comment:    strings.TrimSpace(s.sanitizer.Sanitize(payload.Comment)),
	}
	if actor.ID > 0 {
		recorder := actor.ID
		grade.UserID = &recorder
	}
	return grade, nil
}

func (s *gradeService) reload(ctx context.Context, id uint) (dto.GradeResponse, error) {
	grade, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.GradeResponse{}, err
	}
	return dto.NewGradeResponse(grade), nil
}

// GradeStatisticsService aggregates grades into per-student summaries and monthly trends.
type GradeStatisticsService interface {
	Statistics(ctx context.Context, req dto.GradeStatisticsRequest) (dto.GradeStatisticsResponse, error)
}

type gradeStatisticsService struct {
	repo   repository.GradeRepository
	cache  jsonCache
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewGradeStatisticsService constructs the statistics service. A nil redis client disables caching.
func NewGradeStatisticsService(repo repository.GradeRepository, redisClient *redis.Client, ttl time.Duration, logger zerolog.Logger) GradeStatisticsService {
	log := logger.With().Str("component", "grade_statistics_service").Logger()
	return &gradeStatisticsService{
		repo:   repo,
		cache:  newJSONCache("grade_statistics", redisClient, ttl, log),
		tracer: otel.Tracer("github.com/noah-isme/sala-api/internal/service/grade_statistics"),
		logger: log,
	}
}

// StatisticsCacheKey returns the redis key for a statistics filter. It lives
// under the grades topic prefix so any grade mutation drops it.
func StatisticsCacheKey(req dto.GradeStatisticsRequest) string {
	return fmt.Sprintf("%sstats:%d:%d:%d", CacheKeyPrefix(TopicGradesUpdated), req.SchoolYearID, req.CourseID, req.SemesterID)
}

func (s *gradeStatisticsService) Statistics(ctx context.Context, req dto.GradeStatisticsRequest) (dto.GradeStatisticsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grades.statistics", trace.WithAttributes(
		attribute.Int64("grades.school_year_id", int64(req.SchoolYearID)),
		attribute.Int64("grades.course_id", int64(req.CourseID)),
		attribute.Int64("grades.semester_id", int64(req.SemesterID)),
	))
	defer span.End()

	key := StatisticsCacheKey(req)
	var cached dto.GradeStatisticsResponse
	if s.cache.get(ctx, key, &cached) {
		cached.CacheHit = true
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	rows, err := s.repo.Entries(ctx, repository.GradeFilter{
		SchoolYearID: req.SchoolYearID,
		CourseID:     req.CourseID,
		SemesterID:   req.SemesterID,
	})
	if err != nil {
		span.RecordError(err)
		return dto.GradeStatisticsResponse{}, err
	}

	entries := make([]grading.Entry, 0, len(rows))
	levels := make(map[uint]int)
	for _, row := range rows {
		entries = append(entries, grading.Entry{
			StudentID:   row.StudentID,
			StudentName: row.StudentName,
			CourseID:    row.CourseID,
			SubjectID:   row.SubjectID,
			Score:       row.Score,
			GradeDate:   row.GradeDate,
		})
		levels[row.CourseID] = row.GradeLevel
	}

	response := dto.GradeStatisticsResponse{
		Students:    grading.Summarize(entries, levels),
		Monthly:     grading.MonthlyComparison(entries),
		GeneratedAt: time.Now().UTC(),
	}
	span.SetAttributes(attribute.Int("grades.entries", len(entries)))

	s.cache.set(ctx, key, response)
	return response, nil
}
