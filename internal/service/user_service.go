package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/store"
)

// UserService provides user directory operations
type UserService interface {
	// Upsert creates the user on first sign-in or switches the recorded auth
	// method. It reports whether the user was created.
	Upsert(
		ctx context.Context,
		email, displayName, photoURL string,
		authMethod domain.AuthMethod,
	) (*domain.User, bool, error)

	// RecordLogin stamps the user's last login time
	RecordLogin(ctx context.Context, email string) (*domain.User, error)

	// Get retrieves a user by email
	Get(ctx context.Context, email string) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userStore store.UserStore, logger *slog.Logger) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		userStore: userStore,
		logger:    logger.With("component", "user_service"),
	}
}

// Upsert implements UserService.Upsert
func (s *UserServiceImpl) Upsert(
	ctx context.Context,
	email, displayName, photoURL string,
	authMethod domain.AuthMethod,
) (*domain.User, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(email, displayName, photoURL, authMethod, time.Now().UTC())
	if err != nil {
		log.Debug("rejected user upsert", "error", err)
		return nil, false, err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mutationTimeout)
	defer cancel()

	current, created, err := s.userStore.Upsert(ctx, user)
	if err != nil {
		log.Error("failed to upsert user", "error", err)
		return nil, false, NewServiceError("upsert_user", "failed to save user", err)
	}

	log.Info("user upserted",
		"created", created,
		"auth_method", string(current.AuthMethod))

	return current, created, nil
}

// RecordLogin implements UserService.RecordLogin
func (s *UserServiceImpl) RecordLogin(ctx context.Context, email string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mutationTimeout)
	defer cancel()

	user, err := s.userStore.RecordLogin(ctx, email, time.Now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login recorded for unknown user")
		} else {
			log.Error("failed to record login", "error", err)
		}
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	return user, nil
}

// Get implements UserService.Get
func (s *UserServiceImpl) Get(ctx context.Context, email string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("user not found by email")
		} else {
			log.Error("failed to retrieve user by email", "error", err)
		}
		return nil, fmt.Errorf("failed to retrieve user by email: %w", err)
	}

	return user, nil
}
