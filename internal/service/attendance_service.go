package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/models"
	"github.com/noah-isme/sala-api/internal/repository"
)

// AttendanceService lists and records daily attendance marks.
type AttendanceService interface {
	List(ctx context.Context, req dto.AttendanceListRequest) ([]dto.AttendanceResponse, error)
	Record(ctx context.Context, payload dto.AttendanceBulkRequest, actor ActivityActor) ([]dto.AttendanceResponse, error)
}

type attendanceService struct {
	repo      repository.AttendanceRepository
	students  repository.StudentRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	audit     auditTrail
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo repository.AttendanceRepository, students repository.StudentRepository, courses repository.CourseRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AttendanceService {
	log := logger.With().Str("component", "attendance_service").Logger()
	return &attendanceService{
		repo:      repo,
		students:  students,
		courses:   courses,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		audit:     auditTrail{activity: activity, logger: log},
	}
}

func (s *attendanceService) List(ctx context.Context, req dto.AttendanceListRequest) ([]dto.AttendanceResponse, error) {
	records, err := s.repo.List(ctx, repository.AttendanceFilter{
		CourseID:  req.CourseID,
		StudentID: req.StudentID,
		From:      req.From,
		To:        req.To,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]dto.AttendanceResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, dto.NewAttendanceResponse(record))
	}
	return resp, nil
}

func (s *attendanceService) Record(ctx context.Context, payload dto.AttendanceBulkRequest, actor ActivityActor) ([]dto.AttendanceResponse, error) {
	for i := range payload.Records {
		payload.Records[i].Status = strings.ToLower(strings.TrimSpace(payload.Records[i].Status))
	}
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	day, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		return nil, &FieldError{Field: "date", Message: "must be a YYYY-MM-DD date"}
	}

	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	enrolled, err := s.students.ListEnrolled(ctx, 0, payload.CourseID)
	if err != nil {
		return nil, err
	}
	members := make(map[uint]struct{}, len(enrolled))
	for _, e := range enrolled {
		members[e.StudentID] = struct{}{}
	}

	records := make([]models.Attendance, 0, len(payload.Records))
	seen := make(map[uint]struct{}, len(payload.Records))
	for i, rec := range payload.Records {
		if _, ok := members[rec.StudentID]; !ok {
			return nil, &FieldError{
				Field:   fmt.Sprintf("records[%d].studentId", i),
				Message: "student is not enrolled in the course",
			}
		}
		if _, dup := seen[rec.StudentID]; dup {
			return nil, &FieldError{
				Field:   fmt.Sprintf("records[%d].studentId", i),
				Message: "student appears more than once",
			}
		}
		seen[rec.StudentID] = struct{}{}

		records = append(records, models.Attendance{
			StudentID: rec.StudentID,
			CourseID:  payload.CourseID,
			Date:      day,
			Status:    rec.Status,
			Note:      strings.TrimSpace(s.sanitizer.Sanitize(rec.Note)),
		})
	}

	if err := s.repo.Upsert(ctx, records); err != nil {
		return nil, err
	}

	s.audit.done(ctx, actor, "attendance.recorded", "course", payload.CourseID, map[string]interface{}{
		"date":    payload.Date,
		"records": len(records),
	}, "")

	return s.List(ctx, dto.AttendanceListRequest{CourseID: payload.CourseID, From: day, To: day})
}
