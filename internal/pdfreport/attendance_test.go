package pdfreport

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sala-api/internal/dto"
)

func TestRenderAttendanceProducesPDF(t *testing.T) {
	rows := make([]dto.AttendanceReportRow, 0, 80)
	for i := 0; i < 80; i++ {
		rows = append(rows, dto.AttendanceReportRow{
			StudentID:   uint(i + 1),
			StudentName: fmt.Sprintf("Student %02d", i+1),
			Gender:      "F",
			Present:     18,
			Absent:      1,
			Late:        1,
			Total:       20,
			Rate:        95,
		})
	}

	content, err := RenderAttendance(dto.AttendanceReport{
		Type:       dto.ReportMonthly,
		Title:      "Monthly Attendance Report",
		Period:     "2025-03-01 - 2025-03-31",
		CourseName: "Grade 7A",
		Rows:       rows,
	}, Options{GeneratedAt: time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
	require.Greater(t, len(content), 1024)
}

func TestRenderAttendanceWithoutRows(t *testing.T) {
	content, err := RenderAttendance(dto.AttendanceReport{
		Type:   dto.ReportDaily,
		Title:  "Daily Attendance Report",
		Period: "2025-03-01 - 2025-03-02",
	}, Options{FontPath: "/does/not/exist.ttf"})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestAttendanceRate(t *testing.T) {
	require.Equal(t, 0.0, AttendanceRate(0, 0, 0))
	require.Equal(t, 75.0, AttendanceRate(2, 1, 4))
	require.Equal(t, 66.67, AttendanceRate(2, 0, 3))
}
