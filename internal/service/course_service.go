package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/models"
	"github.com/noah-isme/sala-api/internal/repository"
)

const courseNamePrefix = "ថ្នាក់ទី"

// CourseService manages course offerings.
type CourseService interface {
	List(ctx context.Context, req dto.CourseListRequest) ([]dto.CourseResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, payload dto.CourseRequest, actor ActivityActor) (dto.CourseResponse, error)
	Update(ctx context.Context, id uint, payload dto.CourseRequest, actor ActivityActor) (dto.CourseResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
	BulkCreate(ctx context.Context, payload dto.BulkCourseRequest, actor ActivityActor) (dto.BulkCourseResult, error)
}

type courseService struct {
	repo      repository.CourseRepository
	years     repository.SchoolYearRepository
	users     repository.UserRepository
	validator *validator.Validate
	audit     auditTrail
	logger    zerolog.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo repository.CourseRepository, years repository.SchoolYearRepository, users repository.UserRepository, validate *validator.Validate, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) CourseService {
	log := logger.With().Str("component", "course_service").Logger()
	return &courseService{
		repo:      repo,
		years:     years,
		users:     users,
		validator: validate,
		audit:     auditTrail{activity: activity, events: events, logger: log},
		logger:    log,
	}
}

// DefaultCourseName builds the display name used when none is supplied.
func DefaultCourseName(grade int, section string) string {
	name := fmt.Sprintf("%s %d", courseNamePrefix, grade)
	if section = strings.TrimSpace(section); section != "" {
		name += " " + section
	}
	return name
}

func (s *courseService) List(ctx context.Context, req dto.CourseListRequest) ([]dto.CourseResponse, error) {
	courses, err := s.repo.List(ctx, repository.CourseFilter{
		SchoolYearID: req.SchoolYearID,
		Grade:        req.Grade,
		Search:       strings.TrimSpace(req.Search),
	})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, dto.NewCourseResponse(course))
	}
	return responses, nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, payload dto.CourseRequest, actor ActivityActor) (dto.CourseResponse, error) {
	course, err := s.prepare(ctx, payload)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if err := s.repo.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.audit.done(ctx, actor, "course.created", "course", course.ID, map[string]interface{}{
		"grade":      course.Grade,
		"courseName": course.CourseName,
	}, TopicCoursesUpdated)

	return s.Get(ctx, course.ID)
}

// Update and Delete also publish TopicGradesUpdated: cached grade statistics
// depend on the course's grade level.
func (s *courseService) Update(ctx context.Context, id uint, payload dto.CourseRequest, actor ActivityActor) (dto.CourseResponse, error) {
	course, err := s.prepare(ctx, payload)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	course.ID = id

	if err := s.repo.Update(ctx, &course); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	s.audit.done(ctx, actor, "course.updated", "course", id, map[string]interface{}{"courseName": course.CourseName}, TopicCoursesUpdated, TopicGradesUpdated)
	return s.Get(ctx, id)
}

func (s *courseService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	s.audit.done(ctx, actor, "course.deleted", "course", id, nil, TopicCoursesUpdated, TopicGradesUpdated)
	return nil
}

// BulkCreate creates one course per requested grade level, in order. Each step
// is independent; when Compensate is set and any step fails, the courses
// created by this run are deleted again.
func (s *courseService) BulkCreate(ctx context.Context, payload dto.BulkCourseRequest, actor ActivityActor) (dto.BulkCourseResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BulkCourseResult{}, err
	}
	if err := s.ensureSchoolYear(ctx, payload.SchoolYearID); err != nil {
		return dto.BulkCourseResult{}, err
	}

	sagaID := uuid.NewString()
	log := s.logger.With().Str("saga_id", sagaID).Logger()

	result := dto.BulkCourseResult{
		SagaID:    sagaID,
		Requested: len(payload.Grades),
		Created:   make([]dto.CourseResponse, 0, len(payload.Grades)),
		Failed:    make([]dto.BulkCourseFailure, 0),
	}

	for _, grade := range payload.Grades {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, dto.BulkCourseFailure{Grade: grade, Reason: err.Error()})
			continue
		}

		course := models.Course{
			SchoolYearID: payload.SchoolYearID,
			Grade:        grade,
			Section:      strings.TrimSpace(payload.Section),
			CourseName:   fmt.Sprintf("%s %d", courseNamePrefix, grade),
		}
		if err := s.repo.Create(ctx, &course); err != nil {
			log.Warn().Err(err).Int("grade", grade).Msg("bulk course step failed")
			result.Failed = append(result.Failed, dto.BulkCourseFailure{Grade: grade, Reason: err.Error()})
			continue
		}
		log.Debug().Int("grade", grade).Uint("course_id", course.ID).Msg("bulk course step created")
		result.Created = append(result.Created, dto.NewCourseResponse(course))
	}

	if payload.Compensate && len(result.Failed) > 0 && len(result.Created) > 0 {
		for _, created := range result.Created {
			if err := s.repo.Delete(ctx, created.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Error().Err(err).Uint("course_id", created.ID).Msg("bulk course compensation failed")
			}
		}
		result.Compensated = true
	}

	createdCount := len(result.Created)
	if result.Compensated {
		createdCount = 0
	}
	result.Message = fmt.Sprintf("created %d of %d", createdCount, result.Requested)

	s.audit.done(ctx, actor, "course.bulk_created", "course", 0, map[string]interface{}{
		"sagaId":      sagaID,
		"requested":   result.Requested,
		"created":     len(result.Created),
		"failed":      len(result.Failed),
		"compensated": result.Compensated,
	}, TopicCoursesUpdated)

	return result, nil
}

func (s *courseService) prepare(ctx context.Context, payload dto.CourseRequest) (models.Course, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Course{}, err
	}
	if err := s.ensureSchoolYear(ctx, payload.SchoolYearID); err != nil {
		return models.Course{}, err
	}

	course := models.Course{
		SchoolYearID: payload.SchoolYearID,
		Grade:        payload.Grade.Int(),
		Section:      strings.TrimSpace(payload.Section),
		CourseName:   strings.TrimSpace(payload.CourseName),
		TeacherID1:   normalizeTeacherID(payload.TeacherID1),
		TeacherID2:   normalizeTeacherID(payload.TeacherID2),
		TeacherID3:   normalizeTeacherID(payload.TeacherID3),
	}
	if course.CourseName == "" {
		course.CourseName = DefaultCourseName(course.Grade, course.Section)
	}

	if ids := uniqueIDs(course.TeacherIDs()); len(ids) > 0 {
		count, err := s.users.CountByIDs(ctx, ids)
		if err != nil {
			return models.Course{}, err
		}
		if int(count) != len(ids) {
			return models.Course{}, ErrTeacherNotFound
		}
	}

	return course, nil
}

func (s *courseService) ensureSchoolYear(ctx context.Context, id uint) error {
	if _, err := s.years.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSchoolYearNotFound
		}
		return err
	}
	return nil
}

// normalizeTeacherID treats a zero identifier as an empty slot.
func normalizeTeacherID(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
