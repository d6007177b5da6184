package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/taskmaster-api/internal/events"
	"github.com/stretchr/testify/mock"
)

// MockEventEmitter is a testify mock of events.EventEmitter
type MockEventEmitter struct {
	mock.Mock
}

// EmitEvent is a mock implementation of events.EventEmitter.EmitEvent
func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.ChangeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// RecordingEmitter captures emitted events in order.
type RecordingEmitter struct {
	mu     sync.Mutex
	events []*events.ChangeEvent
}

// EmitEvent implements events.EventEmitter.
func (r *RecordingEmitter) EmitEvent(_ context.Context, event *events.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the captured events.
func (r *RecordingEmitter) Events() []*events.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*events.ChangeEvent, len(r.events))
	copy(out, r.events)
	return out
}
