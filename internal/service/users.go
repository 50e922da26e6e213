package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"wg-vpn-service/internal/models"
	"wg-vpn-service/internal/repository"
)

// UserService registers and looks up Telegram users
type UserService struct {
	users  UserRepository
	logger *logrus.Logger
}

// NewUserService creates a new UserService
func NewUserService(users UserRepository, logger *logrus.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// GetOrCreate returns the user for a Telegram profile, creating it on first
// contact and refreshing the stored profile fields otherwise
func (s *UserService) GetOrCreate(ctx context.Context, profile models.TelegramProfile) (*models.User, bool, error) {
	return getOrCreateUser(ctx, s.users, s.logger, profile)
}

// GetByTelegramID returns a non-blocked user by Telegram ID
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return resolveUser(ctx, s.users, telegramID)
}

// SetBlocked blocks or unblocks a user by Telegram ID
func (s *UserService) SetBlocked(ctx context.Context, telegramID int64, blocked bool) error {
	if err := s.users.SetUserBlocked(ctx, telegramID, blocked); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.Infof("User %d blocked=%t", telegramID, blocked)
	return nil
}

// getOrCreateUser is shared with the peer flow, which registers users that
// appear for the first time through a config request
func getOrCreateUser(ctx context.Context, users UserRepository, logger *logrus.Logger, profile models.TelegramProfile) (*models.User, bool, error) {
	user, err := users.GetUserByTelegramID(ctx, profile.TelegramID)
	if err == nil {
		if user.IsBlocked {
			return nil, false, ErrUserBlocked
		}
		if profileChanged(user, profile) {
			user.Username = profile.Username
			user.FirstName = profile.FirstName
			user.LastName = profile.LastName
			user.LanguageCode = profile.LanguageCode
			if err := users.UpdateUserProfile(ctx, user); err != nil {
				return nil, false, fmt.Errorf("failed to refresh user profile: %w", err)
			}
		}
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	user = &models.User{
		TelegramID:   profile.TelegramID,
		Username:     profile.Username,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		LanguageCode: profile.LanguageCode,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	logger.Infof("Registered new user %d", profile.TelegramID)
	return user, true, nil
}

func resolveUser(ctx context.Context, users UserRepository, telegramID int64) (*models.User, error) {
	user, err := users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}
	return user, nil
}

func profileChanged(user *models.User, profile models.TelegramProfile) bool {
	return !strPtrEq(user.Username, profile.Username) ||
		!strPtrEq(user.FirstName, profile.FirstName) ||
		!strPtrEq(user.LastName, profile.LastName) ||
		!strPtrEq(user.LanguageCode, profile.LanguageCode)
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
