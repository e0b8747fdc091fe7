package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Student statuses.
const (
	StudentStatusActive   = "active"
	StudentStatusInactive = "inactive"
	StudentStatusGraduate = "graduated"
)

// Student is a learner registered with the school.
type Student struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:255;not null;index" json:"name"`
	LatinName   string         `gorm:"size:255" json:"latinName"`
	Gender      string         `gorm:"size:16;not null" json:"gender"`
	DateOfBirth *time.Time     `json:"dob"`
	Class       string         `gorm:"size:64;index" json:"class"`
	Status      string         `gorm:"size:32;not null;default:active;index" json:"status"`
	Phone       string         `gorm:"size:32" json:"phone"`
	Photo       string         `gorm:"size:512" json:"photo"`
	Village     string         `gorm:"size:128" json:"village"`
	Commune     string         `gorm:"size:128" json:"commune"`
	District    string         `gorm:"size:128" json:"district"`
	Province    string         `gorm:"size:128" json:"province"`
	Family      *FamilyInfo    `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"family,omitempty"`
	Guardians   []Guardian     `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"guardians,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Guardian is a person responsible for a student.
type Guardian struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	StudentID     uint      `gorm:"index;not null" json:"studentId"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Relation      string    `gorm:"size:64;not null" json:"relation"`
	Phone         string    `gorm:"size:32" json:"phone"`
	Occupation    string    `gorm:"size:128" json:"occupation"`
	Address       string    `gorm:"size:512" json:"address"`
	MonthlyIncome float64   `json:"monthlyIncome"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FamilyInfo is household survey data, one row per student.
type FamilyInfo struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	StudentID  uint              `gorm:"uniqueIndex;not null" json:"studentId"`
	LivingWith string            `gorm:"size:64" json:"livingWith"`
	OwnHouse   bool              `json:"ownHouse"`
	Religion   string            `gorm:"size:64" json:"religion"`
	Support    datatypes.JSONMap `gorm:"type:json" json:"support"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Enrollment links a student to a course. Dropped enrollments are kept for history.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"uniqueIndex:idx_enrollment_student_course;not null" json:"studentId"`
	CourseID   uint      `gorm:"uniqueIndex:idx_enrollment_student_course;not null;index" json:"courseId"`
	Student    Student   `json:"-"`
	Course     Course    `json:"-"`
	Dropped    bool      `gorm:"not null;default:false" json:"dropped"`
	EnrolledAt time.Time `json:"enrolledAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
