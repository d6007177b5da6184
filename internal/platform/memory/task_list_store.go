package memory

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/store"
)

// TaskListStore implements store.TaskListStore over a map keyed by user email.
// Tasks are cloned on the way in and out so callers never share state with
// the store.
type TaskListStore struct {
	mu    sync.Mutex
	lists map[string]*domain.TaskList
}

var _ store.TaskListStore = (*TaskListStore)(nil)

// NewTaskListStore creates an empty TaskListStore.
func NewTaskListStore() *TaskListStore {
	return &TaskListStore{lists: make(map[string]*domain.TaskList)}
}

// upsert returns the user's list, creating it when absent. Callers hold s.mu.
func (s *TaskListStore) upsert(userEmail string, now time.Time) *domain.TaskList {
	list, ok := s.lists[userEmail]
	if !ok {
		list = &domain.TaskList{
			UserEmail: userEmail,
			Tasks:     []domain.Task{},
			CreatedAt: now,
		}
		s.lists[userEmail] = list
	}
	return list
}

func bump(list *domain.TaskList, now time.Time) {
	list.Revision++
	list.UpdatedAt = now
}

// Append implements store.TaskListStore.Append.
func (s *TaskListStore) Append(
	_ context.Context,
	userEmail string,
	task domain.Task,
	now time.Time,
) (store.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.upsert(userEmail, now)
	list.Tasks = append(list.Tasks, task.Clone())
	bump(list, now)

	return store.WriteResult{
		Size:     len(list.Tasks),
		Created:  list.Revision == 1,
		Revision: list.Revision,
	}, nil
}

// Replace implements store.TaskListStore.Replace.
func (s *TaskListStore) Replace(
	_ context.Context,
	userEmail string,
	tasks []domain.Task,
	now time.Time,
) (store.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.upsert(userEmail, now)
	list.Tasks = cloneTasks(tasks)
	bump(list, now)

	return store.WriteResult{
		Size:     len(list.Tasks),
		Created:  list.Revision == 1,
		Revision: list.Revision,
	}, nil
}

// UpdateTask implements store.TaskListStore.UpdateTask.
func (s *TaskListStore) UpdateTask(
	_ context.Context,
	userEmail, taskID string,
	task domain.Task,
	now time.Time,
) (store.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[userEmail]
	if !ok {
		return store.MutationResult{}, nil
	}
	i := list.IndexOf(taskID)
	if i < 0 {
		return store.MutationResult{}, nil
	}

	list.Tasks[i] = task.Clone()
	bump(list, now)
	return store.MutationResult{Matched: 1, Modified: 1, Revision: list.Revision}, nil
}

// RemoveTask implements store.TaskListStore.RemoveTask.
func (s *TaskListStore) RemoveTask(
	_ context.Context,
	userEmail, taskID string,
	now time.Time,
) (store.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[userEmail]
	if !ok {
		return store.MutationResult{}, nil
	}
	i := list.IndexOf(taskID)
	if i < 0 {
		return store.MutationResult{}, nil
	}

	list.Tasks = append(list.Tasks[:i:i], list.Tasks[i+1:]...)
	bump(list, now)
	return store.MutationResult{Matched: 1, Modified: 1, Revision: list.Revision}, nil
}

// Get implements store.TaskListStore.Get.
func (s *TaskListStore) Get(_ context.Context, userEmail string) (*domain.TaskList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[userEmail]
	if !ok {
		return nil, store.ErrTaskListNotFound
	}

	out := *list
	out.Tasks = cloneTasks(list.Tasks)
	return &out, nil
}

func cloneTasks(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
