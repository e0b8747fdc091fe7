package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/models"
	"github.com/noah-isme/sala-api/internal/repository"
)

// StudentService orchestrates student registration and maintenance.
type StudentService interface {
	List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	Register(ctx context.Context, payload dto.StudentCreateRequest, actor ActivityActor) (dto.StudentResponse, error)
	Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest, actor ActivityActor) (dto.StudentResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
	AddGuardian(ctx context.Context, studentID uint, payload dto.GuardianRequest, actor ActivityActor) (dto.GuardianResponse, error)
	ListEnrolled(ctx context.Context, schoolYearID, courseID uint) ([]dto.EnrolledStudentResponse, error)
}

type studentService struct {
	repo      repository.StudentRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	audit     auditTrail
}

// NewStudentService constructs the student service.
func NewStudentService(repo repository.StudentRepository, courses repository.CourseRepository, validate *validator.Validate, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) StudentService {
	log := logger.With().Str("component", "student_service").Logger()
	return &studentService{
		repo:      repo,
		courses:   courses,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		audit:     auditTrail{activity: activity, events: events, logger: log},
	}
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	students, total, err := s.repo.List(ctx, repository.StudentFilter{
		Search:   strings.TrimSpace(req.Search),
		Class:    strings.TrimSpace(req.Class),
		Status:   strings.ToLower(strings.TrimSpace(req.Status)),
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	responses := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, dto.NewStudentResponse(student))
	}

	return dto.StudentListResponse{Items: responses, Pagination: paginate(req.Page, req.PageSize, total)}, nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Register(ctx context.Context, payload dto.StudentCreateRequest, actor ActivityActor) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	if payload.CourseID != nil {
		if _, err := s.courses.GetByID(ctx, *payload.CourseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.StudentResponse{}, ErrCourseNotFound
			}
			return dto.StudentResponse{}, err
		}
	}

	student := models.Student{
		Name:      s.clean(payload.Name),
		LatinName: s.clean(payload.LatinName),
		Gender:    payload.Gender,
		Class:     s.clean(payload.Class),
		Status:    payload.Status,
		Phone:     strings.TrimSpace(payload.Phone),
		Photo:     strings.TrimSpace(payload.Photo),
		Village:   s.clean(payload.Village),
		Commune:   s.clean(payload.Commune),
		District:  s.clean(payload.District),
		Province:  s.clean(payload.Province),
	}
	if student.Status == "" {
		student.Status = models.StudentStatusActive
	}
	if payload.DOB != "" {
		dob, _ := time.Parse("2006-01-02", payload.DOB)
		student.DateOfBirth = &dob
	}
	if student.Name == "" {
		return dto.StudentResponse{}, &FieldError{Field: "name", Message: "must not be empty"}
	}

	if payload.Family != nil {
		support := datatypes.JSONMap{}
		for key, value := range payload.Family.Support {
			support[key] = value
		}
		student.Family = &models.FamilyInfo{
			LivingWith: s.clean(payload.Family.LivingWith),
			OwnHouse:   payload.Family.OwnHouse,
			Religion:   s.clean(payload.Family.Religion),
			Support:    support,
		}
	}
	for _, g := range payload.Guardians {
		student.Guardians = append(student.Guardians, s.guardianModel(0, g))
	}

	if err := s.repo.Register(ctx, &student, payload.CourseID); err != nil {
		return dto.StudentResponse{}, err
	}

	s.audit.done(ctx, actor, "student.registered", "student", student.ID, map[string]interface{}{
		"guardians": len(student.Guardians),
		"enrolled":  payload.CourseID != nil,
	}, TopicStudentsUpdated)

	return s.Get(ctx, student.ID)
}

func (s *studentService) Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest, actor ActivityActor) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	updates := make(map[string]interface{})
	changedFields := make([]string, 0)
	set := func(column, field string, value *string, sanitize bool) {
		if value == nil {
			return
		}
		v := strings.TrimSpace(*value)
		if sanitize {
			v = s.clean(v)
		}
		updates[column] = v
		changedFields = append(changedFields, field)
	}

	set("name", "name", payload.Name, true)
	set("latin_name", "latinName", payload.LatinName, true)
	set("gender", "gender", payload.Gender, false)
	set("class", "class", payload.Class, true)
	set("status", "status", payload.Status, false)
	set("phone", "phone", payload.Phone, false)
	set("photo", "photo", payload.Photo, false)
	set("village", "village", payload.Village, true)
	set("commune", "commune", payload.Commune, true)
	set("district", "district", payload.District, true)
	set("province", "province", payload.Province, true)
	if payload.DOB != nil {
		if *payload.DOB == "" {
			updates["date_of_birth"] = nil
		} else {
			dob, _ := time.Parse("2006-01-02", *payload.DOB)
			updates["date_of_birth"] = dob
		}
		changedFields = append(changedFields, "dob")
	}

	if len(updates) == 0 {
		return s.Get(ctx, id)
	}

	student, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	s.audit.done(ctx, actor, "student.updated", "student", id, map[string]interface{}{"fields": changedFields}, TopicStudentsUpdated, TopicGradesUpdated)
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	s.audit.done(ctx, actor, "student.deleted", "student", id, nil, TopicStudentsUpdated, TopicGradesUpdated)
	return nil
}

func (s *studentService) AddGuardian(ctx context.Context, studentID uint, payload dto.GuardianRequest, actor ActivityActor) (dto.GuardianResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GuardianResponse{}, err
	}

	if _, err := s.repo.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GuardianResponse{}, ErrStudentNotFound
		}
		return dto.GuardianResponse{}, err
	}

	guardian := s.guardianModel(studentID, payload)
	if err := s.repo.AddGuardian(ctx, &guardian); err != nil {
		return dto.GuardianResponse{}, err
	}

	s.audit.done(ctx, actor, "guardian.created", "guardian", guardian.ID, map[string]interface{}{"studentId": studentID}, TopicStudentsUpdated)
	return dto.NewGuardianResponse(guardian), nil
}

func (s *studentService) ListEnrolled(ctx context.Context, schoolYearID, courseID uint) ([]dto.EnrolledStudentResponse, error) {
	rows, err := s.repo.ListEnrolled(ctx, schoolYearID, courseID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EnrolledStudentResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, dto.EnrolledStudentResponse{
			ID:           row.StudentID,
			Name:         row.Name,
			LatinName:    row.LatinName,
			Gender:       row.Gender,
			EnrollmentID: row.EnrollmentID,
			CourseID:     row.CourseID,
		})
	}
	return responses, nil
}

func (s *studentService) guardianModel(studentID uint, g dto.GuardianRequest) models.Guardian {
	return models.Guardian{
		StudentID:     studentID,
		Name:          s.clean(g.Name),
		Relation:      s.clean(g.Relation),
		Phone:         strings.TrimSpace(g.Phone),
		Occupation:    s.clean(g.Occupation),
		Address:       s.clean(g.Address),
		MonthlyIncome: g.MonthlyIncome,
	}
}

func (s *studentService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

// EnrollmentService links students to courses.
type EnrollmentService interface {
	Enroll(ctx context.Context, payload dto.EnrollmentRequest, actor ActivityActor) (dto.EnrollmentResponse, error)
	SetDropped(ctx context.Context, id uint, payload dto.EnrollmentDropRequest, actor ActivityActor) (dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	repo      repository.EnrollmentRepository
	students  repository.StudentRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	audit     auditTrail
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repo repository.EnrollmentRepository, students repository.StudentRepository, courses repository.CourseRepository, validate *validator.Validate, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) EnrollmentService {
	log := logger.With().Str("component", "enrollment_service").Logger()
	return &enrollmentService{
		repo:      repo,
		students:  students,
		courses:   courses,
		validator: validate,
		audit:     auditTrail{activity: activity, events: events, logger: log},
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, payload dto.EnrollmentRequest, actor ActivityActor) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if _, err := s.students.GetByID(ctx, payload.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrStudentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}
	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrCourseNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	enrollment := models.Enrollment{
		StudentID:  payload.StudentID,
		CourseID:   payload.CourseID,
		EnrolledAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	s.audit.done(ctx, actor, "enrollment.created", "enrollment", enrollment.ID, map[string]interface{}{
		"studentId": enrollment.StudentID,
		"courseId":  enrollment.CourseID,
	}, TopicStudentsUpdated)
	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) SetDropped(ctx context.Context, id uint, payload dto.EnrollmentDropRequest, actor ActivityActor) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	enrollment, err := s.repo.SetDropped(ctx, id, *payload.Dropped)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrEnrollmentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	s.audit.done(ctx, actor, "enrollment.dropped", "enrollment", id, map[string]interface{}{"dropped": enrollment.Dropped}, TopicStudentsUpdated)
	return dto.NewEnrollmentResponse(enrollment), nil
}
