package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/events"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/store"
)

// TaskService manages the ordered task list of each user.
type TaskService interface {
	// AddTask appends task to the user's list, creating the list if needed.
	AddTask(ctx context.Context, userEmail string, task domain.Task) (store.WriteResult, error)

	// ReplaceAll overwrites the user's list with tasks in the given order.
	ReplaceAll(ctx context.Context, userEmail string, tasks []domain.Task) (store.WriteResult, error)

	// UpdateTask replaces the first task with taskID by patch. A missing
	// list or task yields a zero result and no error.
	UpdateTask(
		ctx context.Context,
		userEmail, taskID string,
		patch domain.Task,
	) (store.MutationResult, error)

	// RemoveTask deletes the first task with taskID. A missing list or task
	// yields a zero result and no error.
	RemoveTask(ctx context.Context, userEmail, taskID string) (store.MutationResult, error)

	// ListTasks returns the user's tasks in order, or an empty slice.
	ListTasks(ctx context.Context, userEmail string) ([]domain.Task, error)
}

type taskServiceImpl struct {
	tasks        store.TaskListStore
	eventEmitter events.EventEmitter
	logger       *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	tasks store.TaskListStore,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "task list store cannot be nil"}
	}
	if eventEmitter == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "eventEmitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		tasks:        tasks,
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "task_service"),
	}, nil
}

func (s *taskServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// AddTask implements TaskService.AddTask.
func (s *taskServiceImpl) AddTask(
	ctx context.Context,
	userEmail string,
	task domain.Task,
) (store.WriteResult, error) {
	if err := domain.ValidateEmail(userEmail); err != nil {
		return store.WriteResult{}, err
	}
	if err := task.Validate(); err != nil {
		return store.WriteResult{}, err
	}
	task = task.WithID(task.ID())

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mutationTimeout)
	defer cancel()

	res, err := s.tasks.Append(ctx, userEmail, task, time.Now().UTC())
	if err != nil {
		s.log(ctx).Error("failed to add task", "error", err, "task_id", task.ID())
		return store.WriteResult{}, NewServiceError("add_task", "failed to add task", err)
	}

	s.log(ctx).Info("task added",
		"task_id", task.ID(),
		"size", res.Size,
		"list_created", res.Created,
		"revision", res.Revision)

	s.emit(ctx, userEmail, events.KindAdd, "", task, res.Revision)
	return res, nil
}

// ReplaceAll implements TaskService.ReplaceAll.
func (s *taskServiceImpl) ReplaceAll(
	ctx context.Context,
	userEmail string,
	tasks []domain.Task,
) (store.WriteResult, error) {
	if err := domain.ValidateEmail(userEmail); err != nil {
		return store.WriteResult{}, err
	}
	if err := domain.ValidateTasks(tasks); err != nil {
		return store.WriteResult{}, err
	}

	normalized := make([]domain.Task, len(tasks))
	for i, task := range tasks {
		normalized[i] = task.WithID(task.ID())
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mutationTimeout)
	defer cancel()

	res, err := s.tasks.Replace(ctx, userEmail, normalized, time.Now().UTC())
	if err != nil {
		s.log(ctx).Error("failed to replace tasks", "error", err, "size", len(normalized))
		return store.WriteResult{}, NewServiceError("replace_all", "failed to replace tasks", err)
	}

	s.log(ctx).Info("task list replaced", "size", res.Size, "revision", res.Revision)

	s.emit(ctx, userEmail, events.KindReplaceAll, "", normalized, res.Revision)
	return res, nil
}

// UpdateTask implements TaskService.UpdateTask. The path id is written onto
// the replacement so the task stays addressable.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	userEmail, taskID string,
	patch domain.Task,
) (store.MutationResult, error) {
	if err := validateTaskRef(userEmail, taskID); err != nil {
		return store.MutationResult{}, err
	}
	task := patch.WithID(taskID)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mutationTimeout)
	defer cancel()

	res, err := s.tasks.UpdateTask(ctx, userEmail, taskID, task, time.Now().UTC())
	if err != nil {
		s.log(ctx).Error("failed to update task", "error", err, "task_id", taskID)
		return store.MutationResult{}, NewServiceError("update_task", "failed to update task", err)
	}
	if res.Matched == 0 {
		s.log(ctx).Debug("update matched no task", "task_id", taskID)
		return res, nil
	}

	s.log(ctx).Info("task updated", "task_id", taskID, "revision", res.Revision)

	s.emit(ctx, userEmail, events.KindPositionalUpdate, taskID, task, res.Revision)
	return res, nil
}

// RemoveTask implements TaskService.RemoveTask.
func (s *taskServiceImpl) RemoveTask(
	ctx context.Context,
	userEmail, taskID string,
) (store.MutationResult, error) {
	if err := validateTaskRef(userEmail, taskID); err != nil {
		return store.MutationResult{}, err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mutationTimeout)
	defer cancel()

	res, err := s.tasks.RemoveTask(ctx, userEmail, taskID, time.Now().UTC())
	if err != nil {
		s.log(ctx).Error("failed to remove task", "error", err, "task_id", taskID)
		return store.MutationResult{}, NewServiceError("remove_task", "failed to remove task", err)
	}
	if res.Matched == 0 {
		s.log(ctx).Debug("remove matched no task", "task_id", taskID)
		return res, nil
	}

	s.log(ctx).Info("task removed", "task_id", taskID, "revision", res.Revision)

	s.emit(ctx, userEmail, events.KindRemove, taskID, domain.Task{domain.TaskIDField: taskID}, res.Revision)
	return res, nil
}

// ListTasks implements TaskService.ListTasks. Read failures are logged and
// reported as an empty list.
func (s *taskServiceImpl) ListTasks(ctx context.Context, userEmail string) ([]domain.Task, error) {
	if err := domain.ValidateEmail(userEmail); err != nil {
		return nil, err
	}

	list, err := s.tasks.Get(ctx, userEmail)
	if err != nil {
		if !errors.Is(err, store.ErrTaskListNotFound) {
			s.log(ctx).Error("failed to load task list, returning empty list", "error", err)
		}
		return []domain.Task{}, nil
	}

	return list.Tasks, nil
}

// emit announces a committed mutation. Failures are logged and never
// reach the caller; the write has already happened.
func (s *taskServiceImpl) emit(
	ctx context.Context,
	userEmail string,
	kind events.Kind,
	taskID string,
	payload any,
	revision int64,
) {
	event, err := events.NewChangeEvent(userEmail, kind, taskID, payload, revision)
	if err != nil {
		s.log(ctx).Error("failed to create change event", "error", err, "event_kind", kind)
		return
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		s.log(ctx).Error("failed to emit change event",
			"error", err,
			"event_id", event.ID,
			"event_kind", kind)
	}
}

func validateTaskRef(userEmail, taskID string) error {
	if err := domain.ValidateEmail(userEmail); err != nil {
		return err
	}
	if taskID == "" {
		return domain.NewValidationError("taskId", "is required", domain.ErrEmptyTaskID)
	}
	return nil
}
