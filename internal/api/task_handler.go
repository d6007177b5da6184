package api

import (
	"net/http"

	"github.com/phrazzld/taskmaster-api/internal/api/shared"
	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/service"
)

// TaskHandler handles task list HTTP requests
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks handles GET /tasks/{email}
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	email, err := getPathParam(r, "email")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, err := h.taskService.ListTasks(r.Context(), email)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// AddTask handles POST /tasks. It answers 201 when the call created the
// user's list and 200 when it appended to an existing one.
func (h *TaskHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	var req AddTaskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	res, err := h.taskService.AddTask(r.Context(), req.UserEmail, req.Task)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add task")
		return
	}

	status, message := http.StatusOK, MsgTaskAdded
	if res.Created {
		status, message = http.StatusCreated, MsgTaskListNew
	}
	shared.RespondWithJSON(w, r, status, TaskWriteResponse{
		Message:  message,
		Size:     res.Size,
		Revision: res.Revision,
	})
}

// ReplaceTasks handles PUT /tasks/{email}
func (h *TaskHandler) ReplaceTasks(w http.ResponseWriter, r *http.Request) {
	email, err := getPathParam(r, "email")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req ReplaceTasksRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	res, err := h.taskService.ReplaceAll(r.Context(), email, req.Tasks)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskWriteResponse{
		Message:  MsgTasksReplaced,
		Size:     res.Size,
		Revision: res.Revision,
	})
}

// UpdateTask handles PATCH /tasks/{email}/{taskId}. The body replaces the
// task wholesale.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	email, taskID, ok := h.taskRef(w, r)
	if !ok {
		return
	}

	var patch domain.Task
	if err := shared.DecodeJSON(w, r, &patch); err != nil || patch == nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	res, err := h.taskService.UpdateTask(r.Context(), email, taskID, patch)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	message := MsgTaskUpdated
	if res.Matched == 0 {
		message = MsgTaskNoMatch
	}
	shared.RespondWithJSON(w, r, http.StatusOK, UpdateTaskResponse{
		Message:       message,
		MatchedCount:  res.Matched,
		ModifiedCount: res.Modified,
	})
}

// DeleteTask handles DELETE /tasks/{email}/{taskId}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	email, taskID, ok := h.taskRef(w, r)
	if !ok {
		return
	}

	res, err := h.taskService.RemoveTask(r.Context(), email, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	message := MsgTaskRemoved
	if res.Matched == 0 {
		message = MsgTaskNoMatch
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DeleteTaskResponse{
		Message:      message,
		DeletedCount: res.Modified,
	})
}

// taskRef extracts the email and task id path parameters, writing a 400 on
// failure.
func (h *TaskHandler) taskRef(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	email, err := getPathParam(r, "email")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return "", "", false
	}
	taskID, err := getPathParam(r, "taskId")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return "", "", false
	}
	return email, taskID, true
}
