package dto

import (
	"time"

	"github.com/noah-isme/sala-api/internal/models"
)

// UserCreateRequest captures a new staff account.
type UserCreateRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Name     string `json:"name" validate:"required,max=255"`
	Role     string `json:"role" validate:"required,oneof=admin teacher"`
	Position string `json:"position" validate:"max=128"`
	Photo    string `json:"photo" validate:"max=512"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	IsActive *bool  `json:"isActive"`
}

// UserUpdateRequest replaces the mutable fields of a staff account.
type UserUpdateRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Name     string `json:"name" validate:"required,max=255"`
	Role     string `json:"role" validate:"required,oneof=admin teacher"`
	Position string `json:"position" validate:"max=128"`
	Photo    string `json:"photo" validate:"max=512"`
	// Password is only changed when provided.
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
	IsActive *bool  `json:"isActive"`
}

// UserStatusRequest flips the active flag.
type UserStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// UserListRequest filters the user list.
type UserListRequest struct {
	Role   string
	Search string
}

// UserResponse serializes a staff account without credentials.
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Position  string    `json:"position"`
	Photo     string    `json:"photo"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUserResponse converts the model.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:        model.ID,
		Username:  model.Username,
		Name:      model.Name,
		Role:      model.Role,
		Position:  model.Position,
		Photo:     model.Photo,
		IsActive:  model.IsActive,
		CreatedAt: model.CreatedAt,
	}
}
