package models

import "time"

// Grade is one scored entry for a student, subject, course, semester and month.
// GradeDate is stored as "MM/YY"; legacy rows may hold ISO dates.
type Grade struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"index;not null" json:"studentId"`
	SubjectID  uint      `gorm:"index;not null" json:"subjectId"`
	CourseID   uint      `gorm:"index;not null" json:"courseId"`
	SemesterID uint      `gorm:"index;not null" json:"semesterId"`
	Score      float64   `gorm:"column:grade;not null" json:"grade"`
	GradeDate  string    `gorm:"size:32;not null" json:"gradeDate"`
	Comment    string    `gorm:"type:text" json:"comment"`
	UserID     *uint     `gorm:"index" json:"userId"`
	Student    Student   `json:"-"`
	Subject    Subject   `json:"-"`
	Course     Course    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
