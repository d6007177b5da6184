package mocks

import (
	"context"

	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockTaskService is a testify mock of service.TaskService
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) AddTask(ctx context.Context, userEmail string, task domain.Task) (store.WriteResult, error) {
	args := m.Called(ctx, userEmail, task)
	return args.Get(0).(store.WriteResult), args.Error(1)
}

func (m *MockTaskService) ReplaceAll(
	ctx context.Context,
	userEmail string,
	tasks []domain.Task,
) (store.WriteResult, error) {
	args := m.Called(ctx, userEmail, tasks)
	return args.Get(0).(store.WriteResult), args.Error(1)
}

func (m *MockTaskService) UpdateTask(
	ctx context.Context,
	userEmail, taskID string,
	patch domain.Task,
) (store.MutationResult, error) {
	args := m.Called(ctx, userEmail, taskID, patch)
	return args.Get(0).(store.MutationResult), args.Error(1)
}

func (m *MockTaskService) RemoveTask(ctx context.Context, userEmail, taskID string) (store.MutationResult, error) {
	args := m.Called(ctx, userEmail, taskID)
	return args.Get(0).(store.MutationResult), args.Error(1)
}

func (m *MockTaskService) ListTasks(ctx context.Context, userEmail string) ([]domain.Task, error) {
	args := m.Called(ctx, userEmail)
	if tasks, ok := args.Get(0).([]domain.Task); ok {
		return tasks, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserService is a testify mock of service.UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Upsert(
	ctx context.Context,
	email, displayName, photoURL string,
	authMethod domain.AuthMethod,
) (*domain.User, bool, error) {
	args := m.Called(ctx, email, displayName, photoURL, authMethod)
	if u, ok := args.Get(0).(*domain.User); ok {
		return u, args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *MockUserService) RecordLogin(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*domain.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*domain.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
