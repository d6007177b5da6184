package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskmaster-api/internal/api/shared"
	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/service"
	"github.com/phrazzld/taskmaster-api/internal/store"
)

// UserHandler handles user directory HTTP requests
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// UpsertUser handles POST /users. It answers 201 when the user was created
// and 200 when the user already existed.
func (h *UserHandler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	var req UpsertUserRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	user, created, err := h.userService.Upsert(
		r.Context(),
		req.Email,
		req.DisplayName,
		req.PhotoURL,
		domain.AuthMethod(req.AuthMethod),
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save user")
		return
	}

	if created {
		shared.RespondWithJSON(w, r, http.StatusCreated, UserResponse{Message: MsgUserCreated, User: user})
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, UserResponse{Message: MsgUserExists, User: user})
}

// GetUser handles GET /users/{email}. An unknown user yields a JSON null.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	email, err := getPathParam(r, "email")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.userService.Get(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithJSON(w, r, http.StatusOK, nil)
			return
		}
		HandleAPIError(w, r, err, "Failed to get user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// RecordLogin handles PATCH /users/{email}.
func (h *UserHandler) RecordLogin(w http.ResponseWriter, r *http.Request) {
	email, err := getPathParam(r, "email")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.userService.RecordLogin(r.Context(), email)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record login")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UserResponse{Message: MsgLoginRecorded, User: user})
}
