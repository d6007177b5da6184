package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskIDField is the JSON key holding a task's identifier.
const TaskIDField = "id"

// Task is a caller-owned JSON object. Only the "id" key has meaning to the
// service; title, status, due date and any other fields pass through untouched.
type Task map[string]any

// ID returns the task identifier, or an empty string if it is missing.
// Numeric ids are rendered in their JSON form so that {"id": 7} and
// {"id": "7"} address the same task.
func (t Task) ID() string {
	switch v := t[TaskIDField].(type) {
	case string:
		return v
	case nil:
		return ""
	case json.Number:
		return v.String()
	case float64, int, int64, int32:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// Validate checks that the task carries a non-empty id.
func (t Task) Validate() error {
	if t == nil {
		return NewValidationError("task", "is required", ErrMissingTask)
	}
	if t.ID() == "" {
		return NewValidationError("task.id", "is required", ErrEmptyTaskID)
	}
	return nil
}

// Clone returns a shallow copy of the task.
func (t Task) Clone() Task {
	if t == nil {
		return nil
	}
	c := make(Task, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// WithID returns a copy of t whose id is set to id. The stored id is always
// a string.
func (t Task) WithID(id string) Task {
	c := t.Clone()
	if c == nil {
		c = Task{}
	}
	c[TaskIDField] = id
	return c
}

// ValidateTasks validates every task of a full-list submission.
func ValidateTasks(tasks []Task) error {
	for i, task := range tasks {
		if err := task.Validate(); err != nil {
			return NewValidationError(fmt.Sprintf("tasks[%d]", i), "must have an id", ErrEmptyTaskID)
		}
	}
	return nil
}

// TaskList is the ordered task sequence of one user. Revision increases by
// one with every committed mutation and is 1 right after creation.
type TaskList struct {
	UserEmail string    `json:"userEmail"`
	Tasks     []Task    `json:"tasks"`
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IndexOf returns the position of the first task with the given id, or -1.
func (l *TaskList) IndexOf(id string) int {
	for i, task := range l.Tasks {
		if task.ID() == id {
			return i
		}
	}
	return -1
}
