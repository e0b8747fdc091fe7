package console

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"github.com/noah-isme/sala-api/internal/dto"
)

// EmptyReportThreshold is the size below which a rendered report is assumed
// to contain no attendance rows.
const EmptyReportThreshold = 10 * 1024

// ErrReportEmpty signals a report that rendered without data.
var ErrReportEmpty = errors.New("no attendance data for the selected filters")

// ReportFile is a downloaded PDF.
type ReportFile struct {
	Filename string
	Content  []byte
}

// AttendanceReport backs the report form.
type AttendanceReport struct {
	client   *Client
	notifier Notifier
}

// NewAttendanceReport constructs the form.
func NewAttendanceReport(client *Client, notifier Notifier) *AttendanceReport {
	return &AttendanceReport{client: client, notifier: notifier}
}

// Validate checks the report type and its required filters before submitting.
func (r *AttendanceReport) Validate(req dto.AttendanceReportRequest) error {
	switch req.ReportType {
	case dto.ReportDaily, dto.ReportMonthly, dto.ReportSemester, dto.ReportYearly:
	default:
		return &ValidationError{Fields: map[string]string{"reportType": "is required"}}
	}

	missing := req.MissingFields()
	if len(missing) == 0 {
		return nil
	}
	fields := make(map[string]string, len(missing))
	for _, name := range missing {
		fields[name] = "is required"
	}
	return &ValidationError{Fields: fields}
}

// Download validates, requests the PDF and applies the small-file heuristic.
// Every failure is also surfaced as an error toast.
func (r *AttendanceReport) Download(ctx context.Context, req dto.AttendanceReportRequest) (ReportFile, error) {
	if err := r.Validate(req); err != nil {
		r.notifier.Error(err.Error())
		return ReportFile{}, err
	}

	content, header, err := r.client.Download(ctx, http.MethodPost, "/api/pdf-generate/generate-attendance-report", nil, req)
	if err != nil {
		r.notifier.Error("Failed to generate report: " + err.Error())
		return ReportFile{}, err
	}

	if len(content) < EmptyReportThreshold {
		r.notifier.Error(ErrReportEmpty.Error())
		return ReportFile{}, ErrReportEmpty
	}

	file := ReportFile{Filename: "attendance-report.pdf", Content: content}
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		file.Filename = params["filename"]
	}
	r.notifier.Success("Report downloaded")
	return file, nil
}
