package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/models"
	"github.com/noah-isme/sala-api/internal/repository"
)

// UserService manages staff accounts.
type UserService interface {
	List(ctx context.Context, req dto.UserListRequest) ([]dto.UserResponse, error)
	Create(ctx context.Context, payload dto.UserCreateRequest, actor ActivityActor) (dto.UserResponse, error)
	Update(ctx context.Context, id uint, payload dto.UserUpdateRequest, actor ActivityActor) (dto.UserResponse, error)
	SetStatus(ctx context.Context, id uint, payload dto.UserStatusRequest, actor ActivityActor) (dto.UserResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.Validate
	audit     auditTrail
	cost      int
}

// NewUserService constructs the user service.
func NewUserService(repo repository.UserRepository, validate *validator.Validate, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) UserService {
	log := logger.With().Str("component", "user_service").Logger()
	return &userService{
		repo:      repo,
		validator: validate,
		audit:     auditTrail{activity: activity, events: events, logger: log},
		cost:      bcrypt.DefaultCost,
	}
}

func (s *userService) List(ctx context.Context, req dto.UserListRequest) ([]dto.UserResponse, error) {
	users, err := s.repo.List(ctx, repository.UserFilter{
		Role:   strings.ToLower(strings.TrimSpace(req.Role)),
		Search: strings.TrimSpace(req.Search),
	})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.NewUserResponse(user))
	}
	return responses, nil
}

func (s *userService) Create(ctx context.Context, payload dto.UserCreateRequest, actor ActivityActor) (dto.UserResponse, error) {
	payload.Username = strings.TrimSpace(payload.Username)
	payload.Role = strings.ToLower(strings.TrimSpace(payload.Role))
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.cost)
	if err != nil {
		return dto.UserResponse{}, err
	}

	user := models.User{
		Username:     payload.Username,
		Name:         strings.TrimSpace(payload.Name),
		Role:         payload.Role,
		Position:     strings.TrimSpace(payload.Position),
		Photo:        strings.TrimSpace(payload.Photo),
		PasswordHash: string(hash),
		IsActive:     true,
	}
	active := payload.IsActive == nil || *payload.IsActive

	if err := s.repo.Create(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}
	// is_active defaults to true in the schema; gorm writes that default back on insert.
	if !active {
		updated, err := s.repo.Update(ctx, user.ID, map[string]interface{}{"is_active": false})
		if err != nil {
			return dto.UserResponse{}, err
		}
		user = updated
	}

	s.audit.done(ctx, actor, "user.created", "user", user.ID, map[string]interface{}{"role": user.Role}, TopicUsersUpdated)
	return dto.NewUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, id uint, payload dto.UserUpdateRequest, actor ActivityActor) (dto.UserResponse, error) {
	payload.Username = strings.TrimSpace(payload.Username)
	payload.Role = strings.ToLower(strings.TrimSpace(payload.Role))
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	updates := map[string]interface{}{
		"username": payload.Username,
		"name":     strings.TrimSpace(payload.Name),
		"role":     payload.Role,
		"position": strings.TrimSpace(payload.Position),
		"photo":    strings.TrimSpace(payload.Photo),
	}
	if payload.IsActive != nil {
		updates["is_active"] = *payload.IsActive
	}
	if payload.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.cost)
		if err != nil {
			return dto.UserResponse{}, err
		}
		updates["password_hash"] = string(hash)
	}

	user, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	s.audit.done(ctx, actor, "user.updated", "user", id, map[string]interface{}{
		"role":            user.Role,
		"passwordChanged": payload.Password != "",
	}, TopicUsersUpdated)
	return dto.NewUserResponse(user), nil
}

func (s *userService) SetStatus(ctx context.Context, id uint, payload dto.UserStatusRequest, actor ActivityActor) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.repo.Update(ctx, id, map[string]interface{}{"is_active": *payload.IsActive})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	s.audit.done(ctx, actor, "user.status_changed", "user", id, map[string]interface{}{"isActive": user.IsActive}, TopicUsersUpdated)
	return dto.NewUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.audit.done(ctx, actor, "user.deleted", "user", id, nil, TopicUsersUpdated)
	return nil
}
