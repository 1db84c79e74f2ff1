package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sentrabank/sentra-api/internal/auth"
	"github.com/sentrabank/sentra-api/internal/domain"
	"github.com/sentrabank/sentra-api/internal/logging"
	"github.com/sentrabank/sentra-api/internal/secret"
)

type loginLimiter interface {
	Allowed(key string) bool
	RecordFailure(key string)
	RecordSuccess(key string)
}

type AuthService struct {
	users     userRepository
	limiter   loginLimiter
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthService(users userRepository, limiter loginLimiter, jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		limiter:   limiter,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

// Login checks the credentials and issues a JWT. An unknown email and a
// wrong password both count as a failed attempt against the limiter and
// come back as ErrInvalidCredentials; a locked-out email is rejected
// before any lookup, even with the right password.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if !s.limiter.Allowed(email) {
		return "", nil, fmt.Errorf("Login: %w", domain.ErrTooManyAttempts)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.limiter.RecordFailure(email)
			return "", nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("Login: %w", err)
	}

	if !secret.Matches(user.PasswordHash, password) {
		s.limiter.RecordFailure(email)
		return "", nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
	}
	s.limiter.RecordSuccess(email)

	token, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("Login: %w", err)
	}

	logging.FromContext(ctx).Info("login succeeded", "user_id", user.ID)
	return token, user, nil
}
