package models

import "time"

// User roles recognised by the admin console.
const (
	UserRoleAdmin   = "admin"
	UserRoleTeacher = "teacher"
)

// User is a staff account (administrator or teacher).
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Role         string    `gorm:"size:16;not null;index" json:"role"`
	Position     string    `gorm:"size:128" json:"position"`
	Photo        string    `gorm:"size:512" json:"photo"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	IsActive     bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
