package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind names the mutation a ChangeEvent describes.
type Kind string

const (
	KindAdd              Kind = "add"
	KindReplaceAll       Kind = "replace-all"
	KindPositionalUpdate Kind = "positional-update"
	KindRemove           Kind = "remove"
)

// ChangeEvent describes one committed mutation of a user's task list.
// Events are immutable once created; handlers must not modify them.
type ChangeEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	UserEmail string `json:"userEmail"`
	Kind      Kind   `json:"kind"`

	// TaskID is set for positional updates and removals
	TaskID string `json:"taskId,omitempty"`

	// Payload is the added task, the full list, the new task or {"id": ...}
	// depending on Kind
	Payload json.RawMessage `json:"payload"`

	// Revision is the task list revision produced by the mutation
	Revision int64 `json:"revision"`

	CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *ChangeEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewChangeEvent creates a ChangeEvent with a fresh ID and the payload
// serialized as JSON.
func NewChangeEvent(
	userEmail string,
	kind Kind,
	taskID string,
	payload interface{},
	revision int64,
) (*ChangeEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &ChangeEvent{
		ID:        uuid.New(),
		UserEmail: userEmail,
		Kind:      kind,
		TaskID:    taskID,
		Payload:   payloadBytes,
		Revision:  revision,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *ChangeEvent) error
}

// HandlerFunc adapts an ordinary function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *ChangeEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *ChangeEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *ChangeEvent) error
}
