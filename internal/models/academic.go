package models

import "time"

// SchoolYear is an academic year identified by its code, e.g. "2024-2025".
type SchoolYear struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:9;uniqueIndex;not null" json:"code"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Semester is a named half-year period inside a school year.
type Semester struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SchoolYearID uint       `gorm:"index;not null" json:"schoolYearId"`
	SchoolYear   SchoolYear `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name         string     `gorm:"size:64;not null" json:"name"`
	Number       int        `gorm:"not null" json:"number"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      time.Time  `json:"endDate"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Contains reports whether the date falls inside the semester (inclusive).
func (s Semester) Contains(t time.Time) bool {
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return false
	}
	return !t.Before(s.StartDate) && !t.After(s.EndDate)
}

// Subject is a taught discipline referenced by grade records.
type Subject struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Course is a grade+section offering within a school year, taught by up to three teachers.
type Course struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SchoolYearID uint       `gorm:"index;not null" json:"schoolYearId"`
	SchoolYear   SchoolYear `json:"-"`
	Grade        int        `gorm:"not null;index" json:"grade"`
	Section      string     `gorm:"size:16" json:"section"`
	CourseName   string     `gorm:"size:128;not null" json:"courseName"`
	TeacherID1   *uint      `gorm:"column:teacher_id1" json:"teacherId1"`
	TeacherID2   *uint      `gorm:"column:teacher_id2" json:"teacherId2"`
	TeacherID3   *uint      `gorm:"column:teacher_id3" json:"teacherId3"`
	Teacher1     *User      `gorm:"foreignKey:TeacherID1" json:"-"`
	Teacher2     *User      `gorm:"foreignKey:TeacherID2" json:"-"`
	Teacher3     *User      `gorm:"foreignKey:TeacherID3" json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TeacherIDs returns the assigned teacher identifiers in slot order, skipping empty slots.
func (c Course) TeacherIDs() []uint {
	ids := make([]uint, 0, 3)
	for _, id := range []*uint{c.TeacherID1, c.TeacherID2, c.TeacherID3} {
		if id != nil && *id > 0 {
			ids = append(ids, *id)
		}
	}
	return ids
}
