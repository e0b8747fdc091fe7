package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/gradesheet"
	"github.com/noah-isme/sala-api/internal/models"
	"github.com/noah-isme/sala-api/internal/observability"
	"github.com/noah-isme/sala-api/internal/repository"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GradeImportService reads a filled-in grade workbook back into grade records.
type GradeImportService interface {
	Import(ctx context.Context, file *multipart.FileHeader, actor ActivityActor) (dto.GradeImportResult, error)
}

type gradeImportService struct {
	grades    repository.GradeRepository
	refs      GradeRefs
	maxSize   int64
	sanitizer *bluemonday.Policy
	audit     auditTrail
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewGradeImportService constructs the import service.
func NewGradeImportService(grades repository.GradeRepository, refs GradeRefs, maxSizeMB int, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) GradeImportService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	log := logger.With().Str("component", "grade_import_service").Logger()
	return &gradeImportService{
		grades:    grades,
		refs:      refs,
		maxSize:   int64(maxSizeMB) * 1024 * 1024,
		sanitizer: bluemonday.StrictPolicy(),
		audit:     auditTrail{activity: activity, events: events, logger: log},
		tracer:    otel.Tracer("github.com/noah-isme/sala-api/internal/service/grade_import"),
		logger:    log,
	}
}

// Import upserts one grade per readable row, keyed by student, subject,
// course, semester and grade date. Rows are independent: a failing row is
// reported and the rest still apply.
func (s *gradeImportService) Import(ctx context.Context, file *multipart.FileHeader, actor ActivityActor) (dto.GradeImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "grades.import")
	defer span.End()

	workbook, err := s.open(file)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.GradeImportResult{}, err
	}
	defer func() { _ = workbook.Close() }()

	rows, failures := gradesheet.Parse(workbook)
	result := dto.GradeImportResult{
		Total:  len(rows) + len(failures),
		Failed: failures,
	}
	if result.Total == 0 {
		return dto.GradeImportResult{}, fmt.Errorf("%w: no grade sheets found", ErrInvalidWorkbook)
	}

	checked := make(map[[4]uint]error)
	for _, row := range rows {
		refKey := [4]uint{row.StudentID, row.SubjectID, row.CourseID, row.SemesterID}
		refErr, seen := checked[refKey]
		if !seen {
			refErr = s.refs.check(ctx, row.StudentID, row.SubjectID, row.CourseID, row.SemesterID)
			checked[refKey] = refErr
		}
		if refErr != nil {
			result.Failed = append(result.Failed, gradesheet.RowError{Sheet: row.Sheet, Row: row.Row, Reason: refErr.Error()})
			continue
		}

		created, err := s.upsert(ctx, row, actor)
		if err != nil {
			s.logger.Warn().Err(err).Str("sheet", row.Sheet).Int("row", row.Row).Msg("grade import row failed")
			result.Failed = append(result.Failed, gradesheet.RowError{Sheet: row.Sheet, Row: row.Row, Reason: err.Error()})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	observability.ImportRows().WithLabelValues("created").Add(float64(result.Created))
	observability.ImportRows().WithLabelValues("updated").Add(float64(result.Updated))
	observability.ImportRows().WithLabelValues("failed").Add(float64(len(result.Failed)))

	imported := result.Created + result.Updated
	result.Message = fmt.Sprintf("imported %d of %d", imported, result.Total)
	span.SetAttributes(
		attribute.Int("grades.import.total", result.Total),
		attribute.Int("grades.import.imported", imported),
	)

	if imported > 0 {
		s.audit.done(ctx, actor, "grade.imported", "grade", 0, map[string]interface{}{
			"file":    file.Filename,
			"created": result.Created,
			"updated": result.Updated,
			"failed":  len(result.Failed),
		}, TopicGradesUpdated)
	}

	return result, nil
}

func (s *gradeImportService) open(file *multipart.FileHeader) (*excelize.File, error) {
	if file == nil {
		return nil, fmt.Errorf("%w: file is required", ErrInvalidWorkbook)
	}
	if file.Size > s.maxSize {
		return nil, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	payload, err := io.ReadAll(io.LimitReader(handle, s.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(payload)) > s.maxSize {
		return nil, ErrUploadTooLarge
	}

	detected := mimetype.Detect(payload)
	if !detected.Is(xlsxMime) && !detected.Is("application/zip") {
		return nil, fmt.Errorf("%w: expected an .xlsx file", ErrInvalidWorkbook)
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	return workbook, nil
}

func (s *gradeImportService) upsert(ctx context.Context, row gradesheet.ImportRow, actor ActivityActor) (bool, error) {
	grade := models.Grade{
		StudentID:  row.StudentID,
		SubjectID:  row.SubjectID,
		CourseID:   row.CourseID,
		SemesterID: row.SemesterID,
		Score:      row.Total,
		GradeDate:  row.GradeDate,
		Comment:    strings.TrimSpace(s.sanitizer.Sanitize(row.Notes)),
	}
	if actor.ID > 0 {
		recorder := actor.ID
		grade.UserID = &recorder
	}

	existing, err := s.grades.FindByKey(ctx, repository.GradeKey{
		StudentID:  row.StudentID,
		SubjectID:  row.SubjectID,
		CourseID:   row.CourseID,
		SemesterID: row.SemesterID,
		GradeDate:  row.GradeDate,
	})
	switch {
	case err == nil:
		grade.ID = existing.ID
		return false, s.grades.Update(ctx, &grade)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return true, s.grades.Create(ctx, &grade)
	default:
		return false, err
	}
}
