package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/gradesheet"
	"github.com/noah-isme/sala-api/internal/observability"
	"github.com/noah-isme/sala-api/internal/repository"
	"github.com/noah-isme/sala-api/internal/spreadsheet"
)

const exportKindGradeTemplate = "grade_template"

// GradeTemplateOptions configures workbook protection and branding.
type GradeTemplateOptions struct {
	Password string
	LogoDir  string
	Now      func() time.Time
}

// GradeTemplateService renders the per-subject grade entry workbook.
type GradeTemplateService interface {
	Generate(ctx context.Context, req dto.GradeTemplateRequest) (dto.GradeTemplateFile, error)
}

type gradeTemplateService struct {
	years     repository.SchoolYearRepository
	semesters repository.SemesterRepository
	courses   repository.CourseRepository
	subjects  repository.SubjectRepository
	students  repository.StudentRepository
	validator *validator.Validate
	options   GradeTemplateOptions
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewGradeTemplateService constructs the template service.
func NewGradeTemplateService(years repository.SchoolYearRepository, semesters repository.SemesterRepository, courses repository.CourseRepository, subjects repository.SubjectRepository, students repository.StudentRepository, validate *validator.Validate, options GradeTemplateOptions, logger zerolog.Logger) GradeTemplateService {
	if options.Now == nil {
		options.Now = time.Now
	}
	return &gradeTemplateService{
		years:     years,
		semesters: semesters,
		courses:   courses,
		subjects:  subjects,
		students:  students,
		validator: validate,
		options:   options,
		tracer:    otel.Tracer("github.com/noah-isme/sala-api/internal/service/grade_template"),
		logger:    logger.With().Str("component", "grade_template_service").Logger(),
	}
}

func (s *gradeTemplateService) Generate(ctx context.Context, req dto.GradeTemplateRequest) (file dto.GradeTemplateFile, err error) {
	ctx, span := s.tracer.Start(ctx, "grades.template.generate", trace.WithAttributes(
		attribute.Int64("grades.course_id", int64(req.CourseID)),
		attribute.Int("grades.subjects", len(req.SubjectIDs)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "template generation failed")
		}
		observability.Exports().WithLabelValues(exportKindGradeTemplate, outcome).Inc()
		observability.ExportDuration().WithLabelValues(exportKindGradeTemplate).Observe(time.Since(start).Seconds())
	}()

	if err := s.validator.Struct(req); err != nil {
		return dto.GradeTemplateFile{}, err
	}

	input, err := s.collect(ctx, req)
	if err != nil {
		return dto.GradeTemplateFile{}, err
	}

	workbook := gradesheet.Build(input)
	rendered, err := spreadsheet.Render(workbook)
	if err != nil {
		return dto.GradeTemplateFile{}, fmt.Errorf("render workbook: %w", err)
	}
	defer func() { _ = rendered.Close() }()

	buffer, err := rendered.WriteToBuffer()
	if err != nil {
		return dto.GradeTemplateFile{}, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info().
		Uint("course_id", input.CourseID).
		Int("subjects", len(input.Subjects)).
		Int("students", len(input.Students)).
		Msg("grade template generated")

	return dto.GradeTemplateFile{
		Filename: fmt.Sprintf("grade-template-course-%d-%04d-%02d.xlsx", input.CourseID, input.Year, input.Month),
		Content:  buffer.Bytes(),
	}, nil
}

func (s *gradeTemplateService) collect(ctx context.Context, req dto.GradeTemplateRequest) (gradesheet.TemplateInput, error) {
	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gradesheet.TemplateInput{}, ErrCourseNotFound
		}
		return gradesheet.TemplateInput{}, err
	}

	year, err := s.years.GetByID(ctx, req.SchoolYearID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gradesheet.TemplateInput{}, ErrSchoolYearNotFound
		}
		return gradesheet.TemplateInput{}, err
	}

	semester, err := s.semesters.GetByID(ctx, req.SemesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gradesheet.TemplateInput{}, ErrSemesterNotFound
		}
		return gradesheet.TemplateInput{}, err
	}

	ids := uniqueIDs(req.SubjectIDs)
	subjects, err := s.subjects.GetByIDs(ctx, ids)
	if err != nil {
		return gradesheet.TemplateInput{}, err
	}
	if len(subjects) != len(ids) {
		return gradesheet.TemplateInput{}, fmt.Errorf("%w: requested %d, found %d", ErrSubjectNotFound, len(ids), len(subjects))
	}

	enrolled, err := s.students.ListEnrolled(ctx, course.SchoolYearID, course.ID)
	if err != nil {
		return gradesheet.TemplateInput{}, err
	}
	if len(enrolled) == 0 {
		return gradesheet.TemplateInput{}, fmt.Errorf("%w in %s", ErrNoEnrolledStudents, course.CourseName)
	}

	now := s.options.Now()
	month, yr := req.Month, req.Year
	if month == 0 {
		month = int(now.Month())
	}
	if yr == 0 {
		yr = now.Year()
	}

	input := gradesheet.TemplateInput{
		SchoolYearID:   year.ID,
		SchoolYearCode: year.Code,
		SemesterID:     semester.ID,
		SemesterName:   semester.Name,
		CourseID:       course.ID,
		CourseName:     course.CourseName,
		GradeLevel:     course.Grade,
		Month:          month,
		Year:           yr,
		Password:       s.options.Password,
		LogoDir:        s.options.LogoDir,
		Subjects:       make([]gradesheet.Subject, 0, len(subjects)),
		Students:       make([]gradesheet.Student, 0, len(enrolled)),
	}
	for _, subject := range subjects {
		input.Subjects = append(input.Subjects, gradesheet.Subject{ID: subject.ID, Name: subject.Name})
	}
	for _, student := range enrolled {
		input.Students = append(input.Students, gradesheet.Student{ID: student.StudentID, Name: student.Name, Gender: student.Gender})
	}
	return input, nil
}
