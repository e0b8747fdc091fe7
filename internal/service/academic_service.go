package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/models"
	"github.com/noah-isme/sala-api/internal/repository"
)

// SchoolYearService manages academic years.
type SchoolYearService interface {
	List(ctx context.Context) ([]dto.SchoolYearResponse, error)
	Create(ctx context.Context, payload dto.SchoolYearCreateRequest, actor ActivityActor) (dto.SchoolYearResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type schoolYearService struct {
	repo      repository.SchoolYearRepository
	validator *validator.Validate
	cache     jsonCache
	audit     auditTrail
	logger    zerolog.Logger
}

// NewSchoolYearService constructs the school year service.
func NewSchoolYearService(repo repository.SchoolYearRepository, validate *validator.Validate, redisClient *redis.Client, ttl time.Duration, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) SchoolYearService {
	log := logger.With().Str("component", "school_year_service").Logger()
	return &schoolYearService{
		repo:      repo,
		validator: validate,
		cache:     newJSONCache("school_years", redisClient, ttl, log),
		audit:     auditTrail{activity: activity, events: events, logger: log},
		logger:    log,
	}
}

func (s *schoolYearService) List(ctx context.Context) ([]dto.SchoolYearResponse, error) {
	key := CacheKeyPrefix(TopicSchoolYearsUpdated) + "list"

	var cached []dto.SchoolYearResponse
	if s.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	years, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SchoolYearResponse, 0, len(years))
	for _, year := range years {
		responses = append(responses, dto.NewSchoolYearResponse(year))
	}
	s.cache.set(ctx, key, responses)
	return responses, nil
}

func (s *schoolYearService) Create(ctx context.Context, payload dto.SchoolYearCreateRequest, actor ActivityActor) (dto.SchoolYearResponse, error) {
	payload.Code = strings.TrimSpace(payload.Code)
	if err := s.validator.Struct(payload); err != nil {
		return dto.SchoolYearResponse{}, err
	}

	year := models.SchoolYear{Code: payload.Code}
	if err := s.repo.Create(ctx, &year); err != nil {
		return dto.SchoolYearResponse{}, err
	}

	s.audit.done(ctx, actor, "school_year.created", "school_year", year.ID, map[string]interface{}{"code": year.Code}, TopicSchoolYearsUpdated)
	return dto.NewSchoolYearResponse(year), nil
}

func (s *schoolYearService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSchoolYearNotFound
		}
		return err
	}

	s.audit.done(ctx, actor, "school_year.deleted", "school_year", id, nil, TopicSchoolYearsUpdated)
	return nil
}

// SemesterService manages semesters.
type SemesterService interface {
	List(ctx context.Context, schoolYearID uint) ([]dto.SemesterResponse, error)
	Create(ctx context.Context, payload dto.SemesterCreateRequest, actor ActivityActor) (dto.SemesterResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type semesterService struct {
	repo      repository.SemesterRepository
	years     repository.SchoolYearRepository
	validator *validator.Validate
	audit     auditTrail
}

// NewSemesterService constructs the semester service.
func NewSemesterService(repo repository.SemesterRepository, years repository.SchoolYearRepository, validate *validator.Validate, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) SemesterService {
	log := logger.With().Str("component", "semester_service").Logger()
	return &semesterService{
		repo:      repo,
		years:     years,
		validator: validate,
		audit:     auditTrail{activity: activity, events: events, logger: log},
	}
}

func (s *semesterService) List(ctx context.Context, schoolYearID uint) ([]dto.SemesterResponse, error) {
	semesters, err := s.repo.List(ctx, schoolYearID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SemesterResponse, 0, len(semesters))
	for _, semester := range semesters {
		responses = append(responses, dto.NewSemesterResponse(semester))
	}
	return responses, nil
}

func (s *semesterService) Create(ctx context.Context, payload dto.SemesterCreateRequest, actor ActivityActor) (dto.SemesterResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SemesterResponse{}, err
	}

	start, _ := time.Parse("2006-01-02", payload.StartDate)
	end, _ := time.Parse("2006-01-02", payload.EndDate)
	if end.Before(start) {
		return dto.SemesterResponse{}, &FieldError{Field: "endDate", Message: "must not be before startDate"}
	}

	if _, err := s.years.GetByID(ctx, payload.SchoolYearID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SemesterResponse{}, ErrSchoolYearNotFound
		}
		return dto.SemesterResponse{}, err
	}

	semester := models.Semester{
		SchoolYearID: payload.SchoolYearID,
		Name:         strings.TrimSpace(payload.Name),
		Number:       payload.Number,
		StartDate:    start,
		EndDate:      end,
	}
	if err := s.repo.Create(ctx, &semester); err != nil {
		return dto.SemesterResponse{}, err
	}

	s.audit.done(ctx, actor, "semester.created", "semester", semester.ID, map[string]interface{}{"schoolYearId": semester.SchoolYearID}, TopicSchoolYearsUpdated)
	return dto.NewSemesterResponse(semester), nil
}

func (s *semesterService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSemesterNotFound
		}
		return err
	}

	s.audit.done(ctx, actor, "semester.deleted", "semester", id, nil, TopicSchoolYearsUpdated)
	return nil
}

// SubjectService manages subjects.
type SubjectService interface {
	List(ctx context.Context) ([]dto.SubjectResponse, error)
	Create(ctx context.Context, payload dto.SubjectCreateRequest, actor ActivityActor) (dto.SubjectResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type subjectService struct {
	repo      repository.SubjectRepository
	validator *validator.Validate
	cache     jsonCache
	audit     auditTrail
}

// NewSubjectService constructs the subject service.
func NewSubjectService(repo repository.SubjectRepository, validate *validator.Validate, redisClient *redis.Client, ttl time.Duration, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) SubjectService {
	log := logger.With().Str("component", "subject_service").Logger()
	return &subjectService{
		repo:      repo,
		validator: validate,
		cache:     newJSONCache("subjects", redisClient, ttl, log),
		audit:     auditTrail{activity: activity, events: events, logger: log},
	}
}

func (s *subjectService) List(ctx context.Context) ([]dto.SubjectResponse, error) {
	key := CacheKeyPrefix(TopicSubjectsUpdated) + "list"

	var cached []dto.SubjectResponse
	if s.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	subjects, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		responses = append(responses, dto.NewSubjectResponse(subject))
	}
	s.cache.set(ctx, key, responses)
	return responses, nil
}

func (s *subjectService) Create(ctx context.Context, payload dto.SubjectCreateRequest, actor ActivityActor) (dto.SubjectResponse, error) {
	payload.Name = strings.TrimSpace(payload.Name)
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	subject := models.Subject{Name: payload.Name}
	if err := s.repo.Create(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	s.audit.done(ctx, actor, "subject.created", "subject", subject.ID, map[string]interface{}{"name": subject.Name}, TopicSubjectsUpdated)
	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}

	s.audit.done(ctx, actor, "subject.deleted", "subject", id, nil, TopicSubjectsUpdated)
	return nil
}
