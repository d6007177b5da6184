package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/store"
)

// Each mutation below is a single statement over the user's row. Postgres
// locks the row for INSERT ... ON CONFLICT DO UPDATE and UPDATE, and the SET
// expressions are evaluated against the latest committed version, so two
// concurrent writers for one user never lose each other's changes.
const (
	appendTaskQuery = `
		INSERT INTO task_lists (user_email, tasks, revision, created_at, updated_at)
		VALUES ($1, jsonb_build_array($2::jsonb), 1, $3, $3)
		ON CONFLICT (user_email) DO UPDATE
		SET tasks      = task_lists.tasks || jsonb_build_array($2::jsonb),
		    revision   = task_lists.revision + 1,
		    updated_at = EXCLUDED.updated_at
		RETURNING jsonb_array_length(tasks), revision
	`

	replaceTasksQuery = `
		INSERT INTO task_lists (user_email, tasks, revision, created_at, updated_at)
		VALUES ($1, $2::jsonb, 1, $3, $3)
		ON CONFLICT (user_email) DO UPDATE
		SET tasks      = EXCLUDED.tasks,
		    revision   = task_lists.revision + 1,
		    updated_at = EXCLUDED.updated_at
		RETURNING jsonb_array_length(tasks), revision
	`

	// firstMatch selects the 1-based position of the first task with id $2.
	firstMatch = `(
		SELECT min(s.ord)
		FROM jsonb_array_elements(task_lists.tasks) WITH ORDINALITY AS s(elem, ord)
		WHERE s.elem->>'id' = $2::text
	)`

	hasMatch = `EXISTS (
		SELECT 1 FROM jsonb_array_elements(task_lists.tasks) AS e(elem)
		WHERE e.elem->>'id' = $2::text
	)`

	updateTaskQuery = `
		UPDATE task_lists
		SET tasks = (
		        SELECT jsonb_agg(CASE WHEN t.ord = ` + firstMatch + ` THEN $3::jsonb ELSE t.elem END ORDER BY t.ord)
		        FROM jsonb_array_elements(task_lists.tasks) WITH ORDINALITY AS t(elem, ord)
		    ),
		    revision   = revision + 1,
		    updated_at = $4
		WHERE user_email = $1 AND ` + hasMatch + `
		RETURNING revision
	`

	removeTaskQuery = `
		UPDATE task_lists
		SET tasks = COALESCE((
		        SELECT jsonb_agg(t.elem ORDER BY t.ord)
		        FROM jsonb_array_elements(task_lists.tasks) WITH ORDINALITY AS t(elem, ord)
		        WHERE t.ord <> ` + firstMatch + `
		    ), '[]'::jsonb),
		    revision   = revision + 1,
		    updated_at = $3
		WHERE user_email = $1 AND ` + hasMatch + `
		RETURNING revision
	`

	getTaskListQuery = `
		SELECT user_email, tasks, revision, created_at, updated_at
		FROM task_lists
		WHERE user_email = $1
	`
)

// PostgresTaskListStore implements the store.TaskListStore interface
// using a JSONB column per user.
type PostgresTaskListStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// Ensure PostgresTaskListStore implements store.TaskListStore interface
var _ store.TaskListStore = (*PostgresTaskListStore)(nil)

// NewPostgresTaskListStore creates a new PostgreSQL implementation of the TaskListStore interface.
// It accepts a database connection or transaction managed by the caller.
func NewPostgresTaskListStore(db store.DBTX, logger *slog.Logger) *PostgresTaskListStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskListStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_list_store")),
	}
}

// Append implements store.TaskListStore.Append.
func (s *PostgresTaskListStore) Append(
	ctx context.Context,
	userEmail string,
	task domain.Task,
	now time.Time,
) (store.WriteResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	payload, err := json.Marshal(task)
	if err != nil {
		return store.WriteResult{}, store.NewStoreError("task_list", "append", "failed to encode task", err)
	}

	var result store.WriteResult
	err = s.db.QueryRowContext(ctx, appendTaskQuery, userEmail, string(payload), now).
		Scan(&result.Size, &result.Revision)
	if err != nil {
		log.Error("failed to append task", "error", err, "task_id", task.ID())
		return store.WriteResult{}, MapError(err, "task_list", "append")
	}

	result.Created = result.Revision == 1
	log.Debug("task appended",
		"task_id", task.ID(),
		"size", result.Size,
		"revision", result.Revision)
	return result, nil
}

// Replace implements store.TaskListStore.Replace.
func (s *PostgresTaskListStore) Replace(
	ctx context.Context,
	userEmail string,
	tasks []domain.Task,
	now time.Time,
) (store.WriteResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if tasks == nil {
		tasks = []domain.Task{}
	}
	payload, err := json.Marshal(tasks)
	if err != nil {
		return store.WriteResult{}, store.NewStoreError("task_list", "replace", "failed to encode tasks", err)
	}

	var result store.WriteResult
	err = s.db.QueryRowContext(ctx, replaceTasksQuery, userEmail, string(payload), now).
		Scan(&result.Size, &result.Revision)
	if err != nil {
		log.Error("failed to replace tasks", "error", err, "size", len(tasks))
		return store.WriteResult{}, MapError(err, "task_list", "replace")
	}

	result.Created = result.Revision == 1
	log.Debug("task list replaced", "size", result.Size, "revision", result.Revision)
	return result, nil
}

// UpdateTask implements store.TaskListStore.UpdateTask.
func (s *PostgresTaskListStore) UpdateTask(
	ctx context.Context,
	userEmail, taskID string,
	task domain.Task,
	now time.Time,
) (store.MutationResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	payload, err := json.Marshal(task)
	if err != nil {
		return store.MutationResult{}, store.NewStoreError("task_list", "update_task", "failed to encode task", err)
	}

	return s.mutate(ctx, log, "update_task", taskID, updateTaskQuery, userEmail, taskID, string(payload), now)
}

// RemoveTask implements store.TaskListStore.RemoveTask.
func (s *PostgresTaskListStore) RemoveTask(
	ctx context.Context,
	userEmail, taskID string,
	now time.Time,
) (store.MutationResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	return s.mutate(ctx, log, "remove_task", taskID, removeTaskQuery, userEmail, taskID, now)
}

// mutate runs a positional UPDATE that returns the new revision, treating
// "no row" as zero matches.
func (s *PostgresTaskListStore) mutate(
	ctx context.Context,
	log *slog.Logger,
	operation, taskID, query string,
	args ...any,
) (store.MutationResult, error) {
	var revision int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no task matched", "operation", operation, "task_id", taskID)
		return store.MutationResult{}, nil
	}
	if err != nil {
		log.Error("task list mutation failed", "operation", operation, "error", err, "task_id", taskID)
		return store.MutationResult{}, MapError(err, "task_list", operation)
	}

	log.Debug("task list mutated", "operation", operation, "task_id", taskID, "revision", revision)
	return store.MutationResult{Matched: 1, Modified: 1, Revision: revision}, nil
}

// Get implements store.TaskListStore.Get.
func (s *PostgresTaskListStore) Get(ctx context.Context, userEmail string) (*domain.TaskList, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		list     domain.TaskList
		rawTasks []byte
	)
	err := s.db.QueryRowContext(ctx, getTaskListQuery, userEmail).Scan(
		&list.UserEmail,
		&rawTasks,
		&list.Revision,
		&list.CreatedAt,
		&list.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskListNotFound
		}
		log.Error("failed to get task list", "error", err)
		return nil, MapError(err, "task_list", "get")
	}

	if err := json.Unmarshal(rawTasks, &list.Tasks); err != nil {
		return nil, store.NewStoreError("task_list", "get", "failed to decode tasks", err)
	}
	if list.Tasks == nil {
		list.Tasks = []domain.Task{}
	}

	return &list, nil
}
