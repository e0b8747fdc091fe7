package console

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sala-api/internal/dto"
)

func TestCourseBoardBulkCreateReportsPartialFailure(t *testing.T) {
	var order []int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/courses", func(w http.ResponseWriter, r *http.Request) {
		var req dto.CourseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		order = append(order, int(req.Grade))
		if req.Grade == 5 {
			writeEnvelope(t, w, http.StatusConflict, false, "record already exists", nil)
			return
		}
		writeEnvelope(t, w, http.StatusCreated, true, "course created", dto.CourseResponse{ID: uint(req.Grade), Grade: int(req.Grade)})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := NewStore()
	store.Set("courses:list", []dto.CourseResponse{})
	notifier := &recordingNotifier{}
	board := NewCourseBoard(NewClient(server.URL, testLogger()), store, notifier)

	grades := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	outcome, err := board.BulkCreate(context.Background(), 1, "A", grades)
	require.Error(t, err)
	require.Equal(t, grades, order)
	require.Equal(t, "created 11 of 12", outcome.Message)
	require.Len(t, outcome.Created, 11)
	require.Equal(t, []dto.BulkCourseFailure{{Grade: 5, Reason: "record already exists"}}, outcome.Failed)
	require.Equal(t, []string{"created 11 of 12"}, notifier.errorToasts())

	_, cached := store.Get("courses:list")
	require.False(t, cached)
}

func TestAttendanceReportValidatePerType(t *testing.T) {
	report := NewAttendanceReport(NewClient("http://unused", testLogger()), &recordingNotifier{})

	var invalid *ValidationError
	require.ErrorAs(t, report.Validate(dto.AttendanceReportRequest{}), &invalid)
	require.Contains(t, invalid.Fields, "reportType")

	require.ErrorAs(t, report.Validate(dto.AttendanceReportRequest{ReportType: dto.ReportMonthly, AcademicYear: 1}), &invalid)
	require.Equal(t, map[string]string{"month": "is required", "year": "is required", "class": "is required"}, invalid.Fields)

	require.NoError(t, report.Validate(dto.AttendanceReportRequest{ReportType: dto.ReportDaily, StartDate: "2025-03-01", EndDate: "2025-03-02"}))
	require.NoError(t, report.Validate(dto.AttendanceReportRequest{ReportType: dto.ReportYearly, AcademicYear: 1, Class: 4}))
}

func TestAttendanceReportDownloadDetectsEmptyPDF(t *testing.T) {
	size := 2048
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pdf-generate/generate-attendance-report", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="attendance-yearly-2024-11-01-2025-08-31.pdf"`)
		_, _ = w.Write(append([]byte("%PDF-1.3\n"), bytes.Repeat([]byte("x"), size)...))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	notifier := &recordingNotifier{}
	report := NewAttendanceReport(NewClient(server.URL, testLogger()), notifier)
	req := dto.AttendanceReportRequest{ReportType: dto.ReportYearly, AcademicYear: 1, Class: 4}

	_, err := report.Download(context.Background(), req)
	require.ErrorIs(t, err, ErrReportEmpty)
	require.Equal(t, []string{ErrReportEmpty.Error()}, notifier.errorToasts())

	size = 20 * 1024
	file, err := report.Download(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "attendance-yearly-2024-11-01-2025-08-31.pdf", file.Filename)
	require.Greater(t, len(file.Content), EmptyReportThreshold)
}

func TestAttendanceReportDownloadSurfacesAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pdf-generate/generate-attendance-report", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusNotFound, false, "school year not found", nil)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	notifier := &recordingNotifier{}
	report := NewAttendanceReport(NewClient(server.URL, testLogger()), notifier)

	_, err := report.Download(context.Background(), dto.AttendanceReportRequest{ReportType: dto.ReportYearly, AcademicYear: 9, Class: 4})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Equal(t, "school year not found", apiErr.Message)
	require.Len(t, notifier.errorToasts(), 1)
}

func TestStoreInvalidateNotifiesOverlappingSubscribers(t *testing.T) {
	store := NewStore()
	store.Set("students:list", 1)
	store.Set("students:enrolled?courseId=3", 2)
	store.Set("grades:studentId=3", 3)

	var students, grades []string
	cancel := store.Subscribe("students", func(key string) { students = append(students, key) })
	store.Subscribe("grades:studentId=3", func(key string) { grades = append(grades, key) })

	require.Equal(t, 2, store.Invalidate(PrefixForTopic("students:updated")))
	_, ok := store.Get("grades:studentId=3")
	require.True(t, ok)
	require.Equal(t, []string{"students"}, students)
	require.Empty(t, grades)

	require.Equal(t, 1, store.Invalidate("grades"))
	require.Equal(t, []string{"grades"}, grades)

	cancel()
	store.Invalidate("students")
	require.Len(t, students, 1)
}

func TestEventFeedInvalidatesStore(t *testing.T) {
	upgrader := websocket.Upgrader{}
	tokens := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/events/ws", func(w http.ResponseWriter, r *http.Request) {
		tokens <- r.URL.Query().Get("access_token")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(dto.Event{ID: "1", Topic: "courses:updated", At: time.Now()})
		_, _, _ = conn.ReadMessage()
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := NewStore()
	store.Set("courses:list", []dto.CourseResponse{})
	invalidated := make(chan string, 1)
	store.Subscribe("courses", func(key string) { invalidated <- key })

	feed := NewEventFeed(NewClient(server.URL, testLogger(), WithToken("secret")), store, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()

	select {
	case key := <-invalidated:
		require.Equal(t, "courses", key)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
	require.Equal(t, "secret", <-tokens)
	_, cached := store.Get("courses:list")
	require.False(t, cached)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("feed did not stop")
	}
}
