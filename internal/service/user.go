package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sentrabank/sentra-api/internal/domain"
	"github.com/sentrabank/sentra-api/internal/logging"
	"github.com/sentrabank/sentra-api/internal/secret"
)

var userSearchFields = []string{"name", "email"}

// UserService covers the operator-facing user records: same CRUD and
// listing shape as accounts, minus anything financial.
type UserService struct {
	users userRepository
}

func NewUserService(users userRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Create(ctx context.Context, name, email, password string) (*domain.User, error) {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("Create: %w", domain.ErrEmailTaken)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("Create: check email: %w", err)
	}

	passwordHash, err := secret.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	logging.FromContext(ctx).Info("user created", "user_id", user.ID)
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return user, nil
}

// Update changes name and email. The email uniqueness check runs here
// too, not only at creation.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, name, email string) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil && existing.ID != id {
		return fmt.Errorf("Update: %w", domain.ErrEmailTaken)
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("Update: check email: %w", err)
	}

	if err := s.users.Update(ctx, id, name, email); err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return nil
}

// ChangePassword verifies the current password before storing the new
// hash. Missing user and wrong password both read as bad credentials.
func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("ChangePassword: %w", domain.ErrInvalidCredentials)
		}
		return fmt.Errorf("ChangePassword: %w", err)
	}
	if !secret.Matches(user.PasswordHash, oldPassword) {
		return fmt.Errorf("ChangePassword: %w", domain.ErrInvalidCredentials)
	}

	passwordHash, err := secret.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, id, passwordHash); err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}

	logging.FromContext(ctx).Info("password changed", "user_id", id)
	return nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

func (s *UserService) List(ctx context.Context, p ListParams) (*Page[domain.User], error) {
	q, pageSize, pageNumber, err := buildListQuery(p, userSearchFields)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	count, err := s.users.Count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	users, err := s.users.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	page := newPage(users, count, pageSize, pageNumber)
	return &page, nil
}
