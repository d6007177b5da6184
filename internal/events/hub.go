package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultQueueSize is the per-subscriber buffer used when none is configured.
const DefaultQueueSize = 256

// Subscription is one registered listener of a Hub. Events arrive on
// Events() in publish order; the channel is closed on Unsubscribe or Close.
type Subscription struct {
	id        uuid.UUID
	userEmail string
	events    chan *ChangeEvent
	dropped   atomic.Uint64

	mu     sync.Mutex // serializes enqueue and close
	closed bool
}

// ID returns the subscription identifier.
func (s *Subscription) ID() uuid.UUID { return s.id }

// UserEmail returns the user filter, or "" for a broadcast subscription.
func (s *Subscription) UserEmail() string { return s.userEmail }

// Events returns the receive side of the subscription queue.
func (s *Subscription) Events() <-chan *ChangeEvent { return s.events }

// Dropped returns how many events were discarded because the queue was full.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

func (s *Subscription) wants(event *ChangeEvent) bool {
	return s.userEmail == "" || s.userEmail == event.UserEmail
}

// enqueue adds event without blocking. When the queue is full the oldest
// queued event is discarded. Reports whether an event was dropped.
func (s *Subscription) enqueue(event *ChangeEvent) (dropped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	for {
		select {
		case s.events <- event:
			return dropped
		default:
		}

		select {
		case <-s.events:
			s.dropped.Add(1)
			dropped = true
		default:
			// the reader drained the queue in between; retry the send
		}
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// Hub fans change events out to its subscribers. It implements EventHandler
// so it can be registered with an EventEmitter; publishing never blocks on a
// slow subscriber and never fails.
type Hub struct {
	mu        sync.RWMutex
	subs      map[uuid.UUID]*Subscription
	closed    bool
	queueSize int
	logger    *slog.Logger
}

var _ EventHandler = (*Hub)(nil)

// NewHub creates a Hub whose subscribers each buffer up to queueSize events.
// A non-positive queueSize selects DefaultQueueSize.
func NewHub(queueSize int, logger *slog.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:      make(map[uuid.UUID]*Subscription),
		queueSize: queueSize,
		logger:    logger.With("component", "change_hub"),
	}
}

// Subscribe registers a subscriber for the events of every user.
func (h *Hub) Subscribe() *Subscription {
	return h.subscribe("")
}

// SubscribeUser registers a subscriber for the events of a single user.
func (h *Hub) SubscribeUser(email string) *Subscription {
	return h.subscribe(email)
}

func (h *Hub) subscribe(email string) *Subscription {
	sub := &Subscription{
		id:        uuid.New(),
		userEmail: email,
		events:    make(chan *ChangeEvent, h.queueSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.close()
		return sub
	}
	h.subs[sub.id] = sub

	h.logger.Debug("subscriber registered",
		"subscription_id", sub.id,
		"filtered", email != "",
		"subscriber_count", len(h.subs))
	return sub
}

// Unsubscribe removes sub and closes its channel. It is safe to call more
// than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	_, ok := h.subs[sub.id]
	delete(h.subs, sub.id)
	count := len(h.subs)
	h.mu.Unlock()

	sub.close()
	if ok {
		h.logger.Debug("subscriber removed",
			"subscription_id", sub.id,
			"dropped", sub.Dropped(),
			"subscriber_count", count)
	}
}

// HandleEvent publishes event to every matching subscriber. It always
// returns nil.
func (h *Hub) HandleEvent(_ context.Context, event *ChangeEvent) error {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.wants(event) {
			subs = append(subs, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		if sub.enqueue(event) {
			h.logger.Warn("subscriber queue full, dropped oldest event",
				"subscription_id", sub.id,
				"event_id", event.ID,
				"dropped_total", sub.Dropped())
		}
	}
	return nil
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close unregisters every subscriber and closes their channels. Later
// subscriptions are returned already closed.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[uuid.UUID]*Subscription)
	h.closed = true
	h.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
	h.logger.Info("change hub closed", "subscribers", len(subs))
}
