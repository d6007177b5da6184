package api

import (
	"github.com/phrazzld/taskmaster-api/internal/domain"
)

// Response messages, kept stable for existing clients.
const (
	MsgUserCreated   = "User created"
	MsgUserExists    = "User already exists"
	MsgLoginRecorded = "Login recorded"
	MsgTaskAdded     = "Task added"
	MsgTaskListNew   = "Task list created"
	MsgTasksReplaced = "Tasks updated"
	MsgTaskUpdated   = "Task updated"
	MsgTaskRemoved   = "Task deleted"
	MsgTaskNoMatch   = "No matching task"
)

// UpsertUserRequest defines the payload for POST /users.
type UpsertUserRequest struct {
	Email       string `json:"email"       validate:"required"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	AuthMethod  string `json:"authMethod"  validate:"required"`
}

// UserResponse wraps a user record with a status message.
type UserResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

// AddTaskRequest defines the payload for POST /tasks.
type AddTaskRequest struct {
	UserEmail string      `json:"userEmail" validate:"required"`
	Task      domain.Task `json:"task"      validate:"required"`
}

// ReplaceTasksRequest defines the payload for PUT /tasks/{email}.
type ReplaceTasksRequest struct {
	Tasks []domain.Task `json:"tasks" validate:"required"`
}

// TaskWriteResponse is returned by the append and replace endpoints.
type TaskWriteResponse struct {
	Message  string `json:"message"`
	Size     int    `json:"size"`
	Revision int64  `json:"revision"`
}

// UpdateTaskResponse is returned by PATCH /tasks/{email}/{taskId}.
type UpdateTaskResponse struct {
	Message       string `json:"message"`
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
}

// DeleteTaskResponse is returned by DELETE /tasks/{email}/{taskId}.
type DeleteTaskResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}
