package store

import (
	"context"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
)

// WriteResult describes a committed append or full replacement.
type WriteResult struct {
	// Size is the number of tasks in the list after the write.
	Size int
	// Created is true when the write created the list.
	Created bool
	// Revision is the list revision after the write.
	Revision int64
}

// MutationResult describes a positional update or removal. Matched is zero
// when the list or task did not exist, in which case nothing was written.
type MutationResult struct {
	Matched  int64
	Modified int64
	Revision int64
}

// TaskListStore persists per-user ordered task lists. Every mutating
// method is a single atomic operation on the user's list; concurrent
// writers for the same user are serialized by the backend and the last
// commit wins.
type TaskListStore interface {
	// Append adds task to the end of the user's list, creating the list
	// when absent. Duplicate ids are not detected.
	Append(ctx context.Context, userEmail string, task domain.Task, now time.Time) (WriteResult, error)

	// Replace overwrites the user's list with tasks in the given order,
	// creating the list when absent.
	Replace(ctx context.Context, userEmail string, tasks []domain.Task, now time.Time) (WriteResult, error)

	// UpdateTask replaces the first task whose id equals taskID with task.
	UpdateTask(ctx context.Context, userEmail, taskID string, task domain.Task, now time.Time) (MutationResult, error)

	// RemoveTask removes the first task whose id equals taskID.
	RemoveTask(ctx context.Context, userEmail, taskID string, now time.Time) (MutationResult, error)

	// Get returns the user's list.
	// Returns ErrTaskListNotFound if the user has none.
	Get(ctx context.Context, userEmail string) (*domain.TaskList, error)
}
