package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// InMemoryEventEmitter fans each committed ChangeEvent out to the sinks
// registered at startup: the local Hub always, and the Redis bridge when one
// is configured. Delivery is synchronous and follows registration order, so
// local subscribers see an event before peers are told about it.
//
// A failing or panicking sink never stops the others from receiving the
// event.
type InMemoryEventEmitter struct {
	mu     sync.Mutex
	sinks  []EventHandler // replaced, never mutated in place
	logger *slog.Logger
}

var _ EventEmitter = (*InMemoryEventEmitter)(nil)

// NewInMemoryEventEmitter returns an emitter with no sinks.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{logger: logger.With("component", "change_emitter")}
}

// RegisterHandler appends a sink.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make([]EventHandler, len(e.sinks), len(e.sinks)+1)
	copy(next, e.sinks)
	e.sinks = append(next, handler)
	e.logger.Debug("registered change sink", "sink", fmt.Sprintf("%T", handler), "sink_count", len(e.sinks))
}

func (e *InMemoryEventEmitter) snapshot() []EventHandler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sinks
}

// EmitEvent delivers event to every sink and returns the first sink error.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *ChangeEvent) error {
	sinks := e.snapshot()
	log := e.logger.With("event_id", event.ID, "event_kind", event.Kind)

	if len(sinks) == 0 {
		log.Warn("change event has no sinks")
		return nil
	}
	log.Debug("emitting change event", "revision", event.Revision, "sink_count", len(sinks))

	var firstErr error
	for i, sink := range sinks {
		if err := deliver(ctx, sink, event); err != nil {
			log.Error("change sink failed", "error", err, "sink", fmt.Sprintf("%T", sink), "sink_index", i)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// deliver turns a sink panic into an error.
func deliver(ctx context.Context, sink EventHandler, event *ChangeEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("change sink panicked: %v", r)
		}
	}()
	return sink.HandleEvent(ctx, event)
}
