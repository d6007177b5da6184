package mocks

import (
	"context"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TestifyMockTaskListStore is a mock of store.TaskListStore for use with testify/mock
type TestifyMockTaskListStore struct {
	mock.Mock
}

var _ store.TaskListStore = (*TestifyMockTaskListStore)(nil)

func (m *TestifyMockTaskListStore) Append(
	ctx context.Context,
	userEmail string,
	task domain.Task,
	now time.Time,
) (store.WriteResult, error) {
	args := m.Called(ctx, userEmail, task, now)
	return args.Get(0).(store.WriteResult), args.Error(1)
}

func (m *TestifyMockTaskListStore) Replace(
	ctx context.Context,
	userEmail string,
	tasks []domain.Task,
	now time.Time,
) (store.WriteResult, error) {
	args := m.Called(ctx, userEmail, tasks, now)
	return args.Get(0).(store.WriteResult), args.Error(1)
}

func (m *TestifyMockTaskListStore) UpdateTask(
	ctx context.Context,
	userEmail, taskID string,
	task domain.Task,
	now time.Time,
) (store.MutationResult, error) {
	args := m.Called(ctx, userEmail, taskID, task, now)
	return args.Get(0).(store.MutationResult), args.Error(1)
}

func (m *TestifyMockTaskListStore) RemoveTask(
	ctx context.Context,
	userEmail, taskID string,
	now time.Time,
) (store.MutationResult, error) {
	args := m.Called(ctx, userEmail, taskID, now)
	return args.Get(0).(store.MutationResult), args.Error(1)
}

func (m *TestifyMockTaskListStore) Get(ctx context.Context, userEmail string) (*domain.TaskList, error) {
	args := m.Called(ctx, userEmail)
	if l, ok := args.Get(0).(*domain.TaskList); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}
