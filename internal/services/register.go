package services

import (
	"context"
	"fmt"
	"strings"

	"todo-manager/backend/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// RegistrationRequest is the sign-up body. There is deliberately no role
// field: every account starts as a user.
type RegistrationRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

func (s *AuthServiceImpl) Register(ctx context.Context, req RegistrationRequest) (*models.User, error) {
	return s.CreateUser(ctx, req, models.RoleUser)
}

// CreateUser is the operator path that may pick a role. HTTP sign-up
// always goes through Register.
func (s *AuthServiceImpl) CreateUser(ctx context.Context, req RegistrationRequest, role models.Role) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := newUUID()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           id,
		Name:         name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
