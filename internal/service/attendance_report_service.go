package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/models"
	"github.com/noah-isme/sala-api/internal/observability"
	"github.com/noah-isme/sala-api/internal/pdfreport"
	"github.com/noah-isme/sala-api/internal/repository"
)

const (
	exportKindAttendanceReport = "attendance_report"
	reportDateLayout           = "2006-01-02"
)

var reportTitles = map[string]string{
	dto.ReportDaily:    "Daily Attendance Report",
	dto.ReportMonthly:  "Monthly Attendance Report",
	dto.ReportSemester: "Semester Attendance Report",
	dto.ReportYearly:   "Yearly Attendance Report",
}

// AttendanceReportOptions configures report rendering.
type AttendanceReportOptions struct {
	FontPath string
	Now      func() time.Time
}

// AttendanceReportService aggregates attendance and renders it as a PDF.
type AttendanceReportService interface {
	Build(ctx context.Context, req dto.AttendanceReportRequest) (dto.AttendanceReport, error)
	Generate(ctx context.Context, req dto.AttendanceReportRequest) (dto.AttendanceReportFile, error)
}

type attendanceReportService struct {
	attendance repository.AttendanceRepository
	students   repository.StudentRepository
	courses    repository.CourseRepository
	years      repository.SchoolYearRepository
	semesters  repository.SemesterRepository
	validator  *validator.Validate
	options    AttendanceReportOptions
	tracer     trace.Tracer
	logger     zerolog.Logger
}

type reportScope struct {
	from   time.Time
	to     time.Time
	course *models.Course
}

// NewAttendanceReportService constructs the report service.
func NewAttendanceReportService(attendance repository.AttendanceRepository, students repository.StudentRepository, courses repository.CourseRepository, years repository.SchoolYearRepository, semesters repository.SemesterRepository, validate *validator.Validate, options AttendanceReportOptions, logger zerolog.Logger) AttendanceReportService {
	if options.Now == nil {
		options.Now = time.Now
	}
	return &attendanceReportService{
		attendance: attendance,
		students:   students,
		courses:    courses,
		years:      years,
		semesters:  semesters,
		validator:  validate,
		options:    options,
		tracer:     otel.Tracer("github.com/noah-isme/sala-api/internal/service/attendance_report"),
		logger:     logger.With().Str("component", "attendance_report_service").Logger(),
	}
}

func (s *attendanceReportService) Generate(ctx context.Context, req dto.AttendanceReportRequest) (file dto.AttendanceReportFile, err error) {
	ctx, span := s.tracer.Start(ctx, "attendance.report.generate", trace.WithAttributes(
		attribute.String("report.type", req.ReportType),
		attribute.Int("report.class", req.Class.Int()),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.Exports().WithLabelValues(exportKindAttendanceReport, outcome).Inc()
		observability.ExportDuration().WithLabelValues(exportKindAttendanceReport).Observe(time.Since(start).Seconds())
	}()

	report, scope, err := s.build(ctx, req)
	if err != nil {
		return dto.AttendanceReportFile{}, err
	}

	content, err := pdfreport.RenderAttendance(report, pdfreport.Options{
		FontPath:    s.options.FontPath,
		GeneratedAt: s.options.Now(),
	})
	if err != nil {
		return dto.AttendanceReportFile{}, err
	}

	span.SetAttributes(attribute.Int("report.rows", len(report.Rows)))
	s.logger.Info().
		Str("type", report.Type).
		Str("period", report.Period).
		Int("rows", len(report.Rows)).
		Int("bytes", len(content)).
		Msg("attendance report rendered")

	return dto.AttendanceReportFile{
		Filename: fmt.Sprintf("attendance-%s-%s-%s.pdf", report.Type, scope.from.Format(reportDateLayout), scope.to.Format(reportDateLayout)),
		Content:  content,
		Rows:     len(report.Rows),
	}, nil
}

func (s *attendanceReportService) Build(ctx context.Context, req dto.AttendanceReportRequest) (dto.AttendanceReport, error) {
	report, _, err := s.build(ctx, req)
	return report, err
}

func (s *attendanceReportService) build(ctx context.Context, req dto.AttendanceReportRequest) (dto.AttendanceReport, reportScope, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AttendanceReport{}, reportScope{}, err
	}
	if missing := req.MissingFields(); len(missing) > 0 {
		return dto.AttendanceReport{}, reportScope{}, &MissingFieldsError{Fields: missing}
	}

	scope, err := s.resolve(ctx, req)
	if err != nil {
		return dto.AttendanceReport{}, reportScope{}, err
	}

	rows, err := s.aggregate(ctx, scope)
	if err != nil {
		return dto.AttendanceReport{}, reportScope{}, err
	}

	report := dto.AttendanceReport{
		Type:   req.ReportType,
		Title:  reportTitles[req.ReportType],
		Period: scope.from.Format(reportDateLayout) + " - " + scope.to.Format(reportDateLayout),
		Rows:   rows,
	}
	if scope.course != nil {
		report.CourseName = scope.course.CourseName
	}
	return report, scope, nil
}

func (s *attendanceReportService) resolve(ctx context.Context, req dto.AttendanceReportRequest) (reportScope, error) {
	var scope reportScope

	if req.Class > 0 {
		course, err := s.courses.GetByID(ctx, req.Class.Uint())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return scope, ErrCourseNotFound
			}
			return scope, err
		}
		if req.AcademicYear > 0 && course.SchoolYearID != req.AcademicYear.Uint() {
			return scope, &FieldError{Field: "class", Message: "does not belong to the academic year"}
		}
		scope.course = &course
	}

	var year models.SchoolYear
	if req.ReportType != dto.ReportDaily {
		found, err := s.years.GetByID(ctx, req.AcademicYear.Uint())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return scope, ErrSchoolYearNotFound
			}
			return scope, err
		}
		year = found
	}

	switch req.ReportType {
	case dto.ReportDaily:
		from, err := time.Parse(reportDateLayout, req.StartDate)
		if err != nil {
			return scope, &FieldError{Field: "startDate", Message: "must be a YYYY-MM-DD date"}
		}
		to, err := time.Parse(reportDateLayout, req.EndDate)
		if err != nil {
			return scope, &FieldError{Field: "endDate", Message: "must be a YYYY-MM-DD date"}
		}
		if to.Before(from) {
			return scope, &FieldError{Field: "endDate", Message: "must not be before startDate"}
		}
		scope.from, scope.to = from, to

	case dto.ReportMonthly:
		scope.from = time.Date(req.Year.Int(), time.Month(req.Month.Int()), 1, 0, 0, 0, 0, time.UTC)
		scope.to = scope.from.AddDate(0, 1, -1)

	case dto.ReportSemester:
		semester, err := s.semesters.GetByID(ctx, req.Semester.Uint())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return scope, ErrSemesterNotFound
			}
			return scope, err
		}
		if semester.SchoolYearID != year.ID {
			return scope, &FieldError{Field: "semester", Message: "does not belong to the academic year"}
		}
		if semester.StartDate.IsZero() || semester.EndDate.IsZero() {
			return scope, &FieldError{Field: "semester", Message: "has no start and end dates"}
		}
		scope.from, scope.to = semester.StartDate, semester.EndDate

	case dto.ReportYearly:
		from, to, err := s.yearSpan(ctx, year)
		if err != nil {
			return scope, err
		}
		scope.from, scope.to = from, to
	}

	return scope, nil
}

// yearSpan covers every semester of the year. Without dated semesters it falls
// back to November of the first year named by the code through August of the
// next.
func (s *attendanceReportService) yearSpan(ctx context.Context, year models.SchoolYear) (time.Time, time.Time, error) {
	semesters, err := s.semesters.List(ctx, year.ID)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	var from, to time.Time
	for _, semester := range semesters {
		if semester.StartDate.IsZero() || semester.EndDate.IsZero() {
			continue
		}
		if from.IsZero() || semester.StartDate.Before(from) {
			from = semester.StartDate
		}
		if to.IsZero() || semester.EndDate.After(to) {
			to = semester.EndDate
		}
	}
	if !from.IsZero() {
		return from, to, nil
	}

	parts := strings.SplitN(year.Code, "-", 2)
	first, errFirst := strconv.Atoi(parts[0])
	last := first + 1
	if len(parts) == 2 {
		if v, err := strconv.Atoi(parts[1]); err == nil {
			last = v
		}
	}
	if errFirst != nil {
		return time.Time{}, time.Time{}, &FieldError{Field: "academicYear", Message: "has no dated semesters"}
	}
	return time.Date(first, time.November, 1, 0, 0, 0, 0, time.UTC), time.Date(last, time.August, 31, 0, 0, 0, 0, time.UTC), nil
}

func (s *attendanceReportService) aggregate(ctx context.Context, scope reportScope) ([]dto.AttendanceReportRow, error) {
	filter := repository.AttendanceFilter{From: scope.from, To: scope.to}
	if scope.course != nil {
		filter.CourseID = scope.course.ID
	}

	records, err := s.attendance.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []dto.AttendanceReportRow{}, nil
	}

	rows := make([]*dto.AttendanceReportRow, 0)
	index := make(map[uint]*dto.AttendanceReportRow)

	if scope.course != nil {
		enrolled, err := s.students.ListEnrolled(ctx, 0, scope.course.ID)
		if err != nil {
			return nil, err
		}
		for _, student := range enrolled {
			row := &dto.AttendanceReportRow{
				StudentID:   student.StudentID,
				StudentName: student.Name,
				Gender:      genderInitial(student.Gender),
			}
			index[student.StudentID] = row
			rows = append(rows, row)
		}
	}

	extra := make([]*dto.AttendanceReportRow, 0)
	for _, record := range records {
		row, ok := index[record.StudentID]
		if !ok {
			row = &dto.AttendanceReportRow{
				StudentID:   record.StudentID,
				StudentName: record.Student.Name,
				Gender:      genderInitial(record.Student.Gender),
			}
			index[record.StudentID] = row
			extra = append(extra, row)
		}

		switch record.Status {
		case models.AttendanceStatusPresent:
			row.Present++
		case models.AttendanceStatusAbsent:
			row.Absent++
		case models.AttendanceStatusPermission:
			row.Permission++
		case models.AttendanceStatusLate:
			row.Late++
		default:
			continue
		}
		row.Total++
	}

	sort.SliceStable(extra, func(i, j int) bool { return extra[i].StudentName < extra[j].StudentName })
	rows = append(rows, extra...)

	out := make([]dto.AttendanceReportRow, 0, len(rows))
	for _, row := range rows {
		row.Rate = pdfreport.AttendanceRate(row.Present, row.Late, row.Total)
		out = append(out, *row)
	}
	return out, nil
}

func genderInitial(gender string) string {
	runes := []rune(strings.TrimSpace(gender))
	if len(runes) == 0 {
		return ""
	}
	return strings.ToUpper(string(runes[0]))
}
