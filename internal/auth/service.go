package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lingobuddy/server/internal/avatar"
	"github.com/lingobuddy/server/internal/model"
	"github.com/lingobuddy/server/internal/repo"
)

// ErrInvalidCredentials is the single generic login failure. It never says
// which of email or password was wrong.
var ErrInvalidCredentials = errors.New("Invalid email or password")

// Service orchestrates registration, login and onboarding
type Service struct {
	jwtService *JWTService
	userRepo   repo.UserRepo
}

// NewService creates a new auth service
func NewService(jwtService *JWTService, userRepo repo.UserRepo) *Service {
	return &Service{
		jwtService: jwtService,
		userRepo:   userRepo,
	}
}

// Register creates a user with a hashed password and a placeholder avatar,
// then issues a session token.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (model.User, string, error) {
	if err := ValidateEmail(email); err != nil {
		return model.User{}, "", err
	}
	if err := ValidatePassword(password); err != nil {
		return model.User{}, "", err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, email, hash, fullName, avatar.For(fullName))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return model.User{}, "", err
		}
		return model.User{}, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.jwtService.SignToken(user.ID)
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// Login authenticates against the stored hash and issues a session token.
// Every credential failure collapses to ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (model.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return model.User{}, "", ErrInvalidCredentials
		}
		return model.User{}, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		return model.User{}, "", ErrInvalidCredentials
	}

	token, err := s.jwtService.SignToken(user.ID)
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// Onboard completes the mandatory profile step
func (s *Service) Onboard(ctx context.Context, userID uuid.UUID, fullName, bio, nativeLanguage, learningLanguage, location string) (model.User, error) {
	user, err := s.userRepo.CompleteOnboarding(ctx, userID, fullName, bio, nativeLanguage, learningLanguage, location)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("failed to complete onboarding: %w", err)
	}
	return user, nil
}
