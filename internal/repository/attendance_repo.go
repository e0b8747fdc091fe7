package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/sala-api/internal/models"
)

// AttendanceFilter narrows attendance queries. From and To are inclusive days.
type AttendanceFilter struct {
	CourseID  uint
	StudentID uint
	From      time.Time
	To        time.Time
}

// AttendanceRepository persists daily attendance marks.
type AttendanceRepository interface {
	List(ctx context.Context, filter AttendanceFilter) ([]models.Attendance, error)
	Upsert(ctx context.Context, records []models.Attendance) error
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository constructs the attendance repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) List(ctx context.Context, filter AttendanceFilter) ([]models.Attendance, error) {
	query := r.db.WithContext(ctx).Model(&models.Attendance{}).Preload("Student")

	if filter.CourseID > 0 {
		query = query.Where("course_id = ?", filter.CourseID)
	}
	if filter.StudentID > 0 {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if !filter.From.IsZero() {
		query = query.Where("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("date < ?", filter.To.AddDate(0, 0, 1))
	}

	var records []models.Attendance
	if err := query.Order("date ASC, student_id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Upsert writes the marks, replacing status and note of any existing mark for
// the same student, course and day.
func (r *attendanceRepository) Upsert(ctx context.Context, records []models.Attendance) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "note", "updated_at"}),
		}).
		Create(&records).Error
}
