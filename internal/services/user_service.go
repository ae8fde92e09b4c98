// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/javajoker/storefront/internal/models"
)

type UserService struct {
	users UserRepository
	auth  *AuthService
}

// UpdateProfileRequest fields are applied only when non-empty.
type UpdateProfileRequest struct {
	Name     string `json:"name" validate:"omitempty,max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// AdminUpdateUserRequest always applies IsAdmin; Name only when non-empty.
type AdminUpdateUserRequest struct {
	Name    string `json:"name" validate:"omitempty,max=100"`
	IsAdmin bool   `json:"isAdmin"`
}

func NewUserService(users UserRepository, auth *AuthService) *UserService {
	return &UserService{
		users: users,
		auth:  auth,
	}
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return user, nil
}

// UpdateProfile patches the caller's own account and returns a token
// re-signed with the new identity.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*AuthResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}

	if email := normalizeEmail(req.Email); email != "" && email != user.Email {
		existing, err := s.users.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, ErrEmailTaken
		case err != nil && !errors.Is(err, ErrNotFound):
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		user.Email = email
	}

	if req.Password != "" {
		if err := user.SetPassword(req.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.auth.IssueToken(user)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) AdminUpdateUser(ctx context.Context, userID uuid.UUID, req *AdminUpdateUserRequest) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	user.IsAdmin = req.IsAdmin

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", userID, err)
	}
	return nil
}
