package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type taskListDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserEmail string             `bson:"userEmail"`
	Tasks     []domain.Task      `bson:"tasks"`
	Revision  int64              `bson:"revision"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d taskListDocument) toDomain() *domain.TaskList {
	tasks := make([]domain.Task, len(d.Tasks))
	for i, t := range d.Tasks {
		tasks[i] = normalizeTask(t)
	}
	return &domain.TaskList{
		UserEmail: d.UserEmail,
		Tasks:     tasks,
		Revision:  d.Revision,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// normalizeTask turns decoded BSON containers back into plain maps and
// slices so tasks render the same way regardless of backend.
func normalizeTask(t domain.Task) domain.Task {
	out := make(domain.Task, len(t))
	for k, v := range t {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case bson.M:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = normalizeValue(e)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(val))
		for _, e := range val {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case bson.A:
		s := make([]any, len(val))
		for i, e := range val {
			s[i] = normalizeValue(e)
		}
		return s
	case primitive.DateTime:
		return val.Time().UTC()
	default:
		return v
	}
}

// writeSummary is projected from the document returned by a write.
type writeSummary struct {
	Size     int   `bson:"size"`
	Revision int64 `bson:"revision"`
}

var writeProjection = bson.D{
	{Key: "_id", Value: 0},
	{Key: "size", Value: bson.D{{Key: "$size", Value: "$tasks"}}},
	{Key: "revision", Value: 1},
}

// TaskListStore implements store.TaskListStore on the Tasks collection.
type TaskListStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

var _ store.TaskListStore = (*TaskListStore)(nil)

// NewTaskListStore creates a TaskListStore over db.
func NewTaskListStore(db *mongo.Database, logger *slog.Logger) *TaskListStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskListStore{
		coll:   db.Collection(TasksCollection),
		logger: logger.With(slog.String("component", "task_list_store")),
	}
}

// upsertWrite applies update to the user's document, creating it when
// absent. With an equality filter on the uniquely indexed userEmail the
// server retries an upsert that loses an insert race, so concurrent first
// writes both land on one document.
func (s *TaskListStore) upsertWrite(
	ctx context.Context,
	operation, userEmail string,
	update bson.D,
) (store.WriteResult, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(writeProjection)

	var summary writeSummary
	err := s.coll.FindOneAndUpdate(ctx, bson.D{{Key: "userEmail", Value: userEmail}}, update, opts).
		Decode(&summary)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).
			Error("task list write failed", "operation", operation, "error", err)
		return store.WriteResult{}, MapError(err, "task_list", operation)
	}

	return store.WriteResult{
		Size:     summary.Size,
		Created:  summary.Revision == 1,
		Revision: summary.Revision,
	}, nil
}

// Append implements store.TaskListStore.Append.
func (s *TaskListStore) Append(
	ctx context.Context,
	userEmail string,
	task domain.Task,
	now time.Time,
) (store.WriteResult, error) {
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "tasks", Value: task}}},
		{Key: "$inc", Value: bson.D{{Key: "revision", Value: int64(1)}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: now}}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: now}}},
	}
	return s.upsertWrite(ctx, "append", userEmail, update)
}

// Replace implements store.TaskListStore.Replace.
func (s *TaskListStore) Replace(
	ctx context.Context,
	userEmail string,
	tasks []domain.Task,
	now time.Time,
) (store.WriteResult, error) {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "tasks", Value: tasks},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$inc", Value: bson.D{{Key: "revision", Value: int64(1)}}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: now}}},
	}
	return s.upsertWrite(ctx, "replace", userEmail, update)
}

// UpdateTask implements store.TaskListStore.UpdateTask. The positional
// operator targets the first array element matched by the filter.
func (s *TaskListStore) UpdateTask(
	ctx context.Context,
	userEmail, taskID string,
	task domain.Task,
	now time.Time,
) (store.MutationResult, error) {
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "tasks.$", Value: task},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$inc", Value: bson.D{{Key: "revision", Value: int64(1)}}},
	}
	return s.mutate(ctx, "update_task", userEmail, taskID, update)
}

// RemoveTask implements store.TaskListStore.RemoveTask. An update pipeline
// splices out the first element with the id so later duplicates survive.
func (s *TaskListStore) RemoveTask(
	ctx context.Context,
	userEmail, taskID string,
	now time.Time,
) (store.MutationResult, error) {
	spliced := bson.D{{Key: "$let", Value: bson.D{
		{Key: "vars", Value: bson.D{
			{Key: "i", Value: bson.D{{Key: "$indexOfArray", Value: bson.A{"$tasks.id", taskID}}}},
		}},
		{Key: "in", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
			bson.D{{Key: "$slice", Value: bson.A{"$tasks", "$$i"}}},
			bson.D{{Key: "$slice", Value: bson.A{
				"$tasks",
				bson.D{{Key: "$add", Value: bson.A{"$$i", 1}}},
				bson.D{{Key: "$size", Value: "$tasks"}},
			}}},
		}}}},
	}}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "tasks", Value: spliced},
			{Key: "revision", Value: bson.D{{Key: "$add", Value: bson.A{"$revision", int64(1)}}}},
			{Key: "updatedAt", Value: now},
		}}},
	}
	return s.mutate(ctx, "remove_task", userEmail, taskID, pipeline)
}

// mutate applies update to the user's document when it holds a task with
// taskID. No matching document means zero matches, not an error.
func (s *TaskListStore) mutate(
	ctx context.Context,
	operation, userEmail, taskID string,
	update any,
) (store.MutationResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	filter := bson.D{
		{Key: "userEmail", Value: userEmail},
		{Key: "tasks.id", Value: taskID},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "_id", Value: 0}, {Key: "revision", Value: 1}})

	var summary writeSummary
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&summary)
	if errors.Is(err, mongo.ErrNoDocuments) {
		log.Debug("no task matched", "operation", operation, "task_id", taskID)
		return store.MutationResult{}, nil
	}
	if err != nil {
		log.Error("task list mutation failed", "operation", operation, "error", err, "task_id", taskID)
		return store.MutationResult{}, MapError(err, "task_list", operation)
	}

	return store.MutationResult{Matched: 1, Modified: 1, Revision: summary.Revision}, nil
}

// Get implements store.TaskListStore.Get.
func (s *TaskListStore) Get(ctx context.Context, userEmail string) (*domain.TaskList, error) {
	var doc taskListDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: "userEmail", Value: userEmail}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrTaskListNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task list", "error", err)
		return nil, MapError(err, "task_list", "get")
	}
	return doc.toDomain(), nil
}
