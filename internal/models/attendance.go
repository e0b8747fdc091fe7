package models

import "time"

// Attendance statuses.
const (
	AttendanceStatusPresent    = "present"
	AttendanceStatusAbsent     = "absent"
	AttendanceStatusPermission = "permission"
	AttendanceStatusLate       = "late"
)

// Attendance records a student's presence on a date for a course.
type Attendance struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"uniqueIndex:idx_attendance_day;not null" json:"studentId"`
	CourseID  uint      `gorm:"uniqueIndex:idx_attendance_day;not null;index" json:"courseId"`
	Date      time.Time `gorm:"uniqueIndex:idx_attendance_day;not null;index" json:"date"`
	Status    string    `gorm:"size:16;not null" json:"status"`
	Note      string    `gorm:"size:512" json:"note"`
	Student   Student   `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
