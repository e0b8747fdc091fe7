package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sala-api/internal/models"
)

func TestAttendanceRepositoryUpsertReplacesSameDay(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)
	ctx := context.Background()
	_, course := seedCourse(t, db, 10)

	student := models.Student{Name: "កែវ វិចិត្រ", Gender: "male"}
	require.NoError(t, db.Create(&student).Error)

	day := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, []models.Attendance{
		{StudentID: student.ID, CourseID: course.ID, Date: day, Status: models.AttendanceStatusAbsent},
	}))
	require.NoError(t, repo.Upsert(ctx, []models.Attendance{
		{StudentID: student.ID, CourseID: course.ID, Date: day, Status: models.AttendanceStatusLate, Note: "bus"},
		{StudentID: student.ID, CourseID: course.ID, Date: day.AddDate(0, 0, 1), Status: models.AttendanceStatusPresent},
	}))

	records, err := repo.List(ctx, AttendanceFilter{CourseID: course.ID, From: day, To: day})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, models.AttendanceStatusLate, records[0].Status)
	require.Equal(t, "bus", records[0].Note)

	records, err = repo.List(ctx, AttendanceFilter{StudentID: student.ID})
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.NoError(t, repo.Upsert(ctx, nil))
}
