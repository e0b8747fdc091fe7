package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/models"
	"github.com/noah-isme/sala-api/internal/observability"
	"github.com/noah-isme/sala-api/internal/repository"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadScanFailed indicates validation of the file failed.
	ErrUploadScanFailed = errors.New("file scanning failed")
	// ErrUploadMissing indicates the multipart field was empty.
	ErrUploadMissing = errors.New("file is required")
)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// UploadService validates and stores student photos, documents and workbooks.
type UploadService interface {
	Upload(ctx context.Context, file *multipart.FileHeader, actor ActivityActor) (dto.UploadResponse, error)
}

type uploadService struct {
	storage FileStorage
	repo    repository.UploadRepository
	audit   auditTrail
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewUploadService constructs an upload service.
func NewUploadService(storage FileStorage, repo repository.UploadRepository, maxSizeMB int, activity ActivityRecorder, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	log := logger.With().Str("component", "upload_service").Logger()
	return &uploadService{
		storage: storage,
		repo:    repo,
		audit:   auditTrail{activity: activity, logger: log},
		logger:  log,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/sala-api/internal/service/upload"),
	}
}

func (s *uploadService) Upload(ctx context.Context, file *multipart.FileHeader, actor ActivityActor) (dto.UploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store")
	defer span.End()

	span.SetAttributes(attribute.Int64("upload.max_bytes", s.maxSize))
	if file != nil {
		span.SetAttributes(
			attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
			attribute.Int64("upload.request_size", file.Size),
		)
	} else {
		span.SetAttributes(attribute.Bool("upload.file_present", false))
	}

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if file == nil {
		span.RecordError(ErrUploadMissing)
		span.SetStatus(codes.Error, "validation failed")
		return dto.UploadResponse{}, ErrUploadMissing
	}

	if file.Size > s.maxSize {
		return dto.UploadResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.UploadResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.UploadResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		return dto.UploadResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	fileType := classifyUpload(mimetype.Detect(buf.Bytes()), file.Filename)
	span.SetAttributes(attribute.String("upload.detected_mime", fileType))
	if fileType == "" {
		return dto.UploadResponse{}, s.reject(span, "type", ErrUploadTypeNotAllowed)
	}

	if err := s.scan(buf.Bytes(), fileType); err != nil {
		return dto.UploadResponse{}, s.reject(span, "scan", err)
	}

	checksum := sha256.Sum256(buf.Bytes())
	digest := hex.EncodeToString(checksum[:])
	existing, found, err := s.repo.FindByChecksum(ctx, digest)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return dto.UploadResponse{}, err
	}
	if found {
		span.SetAttributes(attribute.Bool("upload.reused", true))
		span.SetStatus(codes.Ok, "reused")
		s.audit.done(ctx, actor, "upload.reused", "upload", existing.ID, map[string]interface{}{
			"filename": existing.FileName,
			"original": strings.TrimSpace(file.Filename),
		})
		return dto.UploadResponse{
			Filename:  existing.FileName,
			URL:       existing.URL,
			SizeBytes: existing.SizeBytes,
			MimeType:  existing.MimeType,
			Checksum:  existing.Checksum,
			Reused:    true,
		}, nil
	}

	storedName := storedFileName(file.Filename)
	span.SetAttributes(
		attribute.String("upload.stored_name", storedName),
		attribute.Int64("upload.size_bytes", int64(buf.Len())),
	)

	url, err := s.storage.Upload(ctx, storedName, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return dto.UploadResponse{}, s.reject(span, "storage", err)
	}

	record := models.UploadRecord{
		FileName:  storedName,
		URL:       url,
		MimeType:  fileType,
		SizeBytes: int64(buf.Len()),
		Checksum:  digest,
	}
	if actor.ID > 0 {
		uploader := actor.ID
		record.UserID = &uploader
		span.SetAttributes(attribute.Int("upload.user_id", int(actor.ID)))
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.UploadResponse{}, err
	}

	observability.UploadRequests().WithLabelValues(fileType).Inc()
	span.SetStatus(codes.Ok, "stored")

	s.audit.done(ctx, actor, "upload.stored", "upload", record.ID, map[string]interface{}{
		"filename": record.FileName,
		"mimeType": record.MimeType,
		"size":     record.SizeBytes,
	})

	return dto.UploadResponse{
		Filename:  record.FileName,
		URL:       url,
		SizeBytes: record.SizeBytes,
		MimeType:  record.MimeType,
		Checksum:  record.Checksum,
	}, nil
}

func (s *uploadService) reject(span trace.Span, reason string, err error) error {
	observability.UploadRejected().WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	s.logger.Warn().Err(err).Str("reason", reason).Msg("upload rejected")
	return err
}

// scan bounds the inflated size of workbooks, which are zip containers.
func (s *uploadService) scan(payload []byte, fileType string) error {
	if fileType != xlsxMime {
		return nil
	}
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return ErrUploadScanFailed
	}
	var totalUncompressed uint64
	for _, f := range reader.File {
		totalUncompressed += f.UncompressedSize64
		if totalUncompressed > uint64(s.maxSize*20) {
			return fmt.Errorf("workbook uncompressed size too large: %w", ErrUploadScanFailed)
		}
	}
	return nil
}

// classifyUpload maps the sniffed type to an accepted upload type or "".
// Workbooks sometimes sniff as plain zip so the extension breaks the tie.
func classifyUpload(detected *mimetype.MIME, filename string) string {
	switch {
	case strings.HasPrefix(detected.String(), "image/"):
		return "image"
	case detected.Is("application/pdf"):
		return "application/pdf"
	case detected.Is(xlsxMime):
		return xlsxMime
	case detected.Is("application/zip") && strings.EqualFold(filepath.Ext(filename), ".xlsx"):
		return xlsxMime
	default:
		return ""
	}
}

// storedFileName keeps a readable slug of the original name and prefixes a
// short random id so uploads never overwrite each other.
func storedFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = "upload"
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return uuid.NewString()[:8] + "-" + base + ext
}
