package memory

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/store"
)

// UserStore implements store.UserStore over a map keyed by email.
type UserStore struct {
	mu    sync.Mutex
	users map[string]domain.User
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]domain.User)}
}

// Upsert implements store.UserStore.Upsert.
func (s *UserStore) Upsert(_ context.Context, user *domain.User) (*domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.Email]
	if !ok {
		stored := *user
		stored.UpdatedAt = nil
		s.users[user.Email] = stored
		return copyUser(stored), true, nil
	}

	if existing.AuthMethod != user.AuthMethod {
		at := user.LastLogin
		existing.AuthMethod = user.AuthMethod
		existing.LastLogin = at
		existing.UpdatedAt = &at
		s.users[user.Email] = existing
	}
	return copyUser(existing), false, nil
}

// RecordLogin implements store.UserStore.RecordLogin.
func (s *UserStore) RecordLogin(_ context.Context, email string, at time.Time) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	existing.LastLogin = at
	s.users[email] = existing
	return copyUser(existing), nil
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return copyUser(existing), nil
}

func copyUser(u domain.User) *domain.User {
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		u.UpdatedAt = &t
	}
	return &u
}
