package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spec-kit/auth-gate/internal/auth"
	"github.com/spec-kit/auth-gate/internal/config"
	"github.com/spec-kit/auth-gate/internal/domain"
	"github.com/spec-kit/auth-gate/internal/repository"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken is returned by Register for duplicate usernames.
	ErrUsernameTaken = errors.New("username already taken")
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a user account and issues its first token.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, "", time.Time{}, ErrUsernameTaken
		}
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return user, token, exp, nil
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Spend the same bcrypt time as a real comparison.
			_ = auth.ComparePassword(s.dummyPasswordHash(), password)
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return user, token, exp, nil
}

// TokenManager exposes the underlying token manager for the gate.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("not-a-real-password", s.bcryptCost)
	})
	return s.dummyHash
}
