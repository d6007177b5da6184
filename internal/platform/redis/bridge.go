package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmaster-api/internal/events"
	goredis "github.com/redis/go-redis/v9"
)

const (
	// DefaultChannel is the pub/sub channel used when none is configured.
	DefaultChannel = "taskmaster:changes"

	outboxSize     = 1024
	publishTimeout = 2 * time.Second
)

// ErrAlreadyStarted is returned by Start on a running bridge.
var ErrAlreadyStarted = errors.New("bridge already started")

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

type subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *goredis.PubSub
}

// Client is the subset of *goredis.Client the bridge needs.
type Client interface {
	publisher
	subscriber
}

// envelope is the wire format on the channel. Origin identifies the
// publishing instance so it can ignore its own messages.
type envelope struct {
	Origin string              `json:"origin"`
	Event  *events.ChangeEvent `json:"event"`
}

// Bridge forwards locally committed events to Redis and remote events to a
// local handler. It implements events.EventHandler; HandleEvent only
// enqueues and never blocks the committing request.
type Bridge struct {
	pub     publisher
	sub     subscriber
	channel string
	origin  string
	local   events.EventHandler
	outbox  chan *events.ChangeEvent
	logger  *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	pubsub  *goredis.PubSub
	wg      sync.WaitGroup
	started bool
}

var _ events.EventHandler = (*Bridge)(nil)

// NewBridge creates a bridge over client. Events received from other
// instances are passed to local, typically the process's Hub.
func NewBridge(client Client, channel string, local events.EventHandler, logger *slog.Logger) *Bridge {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	origin := uuid.NewString()
	return &Bridge{
		pub:     client,
		sub:     client,
		channel: channel,
		origin:  origin,
		local:   local,
		outbox:  make(chan *events.ChangeEvent, outboxSize),
		logger:  logger.With("component", "redis_bridge", "instance_id", origin),
	}
}

// Origin returns the identifier this instance stamps on published events.
func (b *Bridge) Origin() string { return b.origin }

// HandleEvent queues a locally committed event for publication. When the
// outbox is full the event is dropped for remote instances and logged.
func (b *Bridge) HandleEvent(_ context.Context, event *events.ChangeEvent) error {
	select {
	case b.outbox <- event:
	default:
		b.logger.Warn("redis outbox full, event not relayed",
			"event_id", event.ID,
			"user_email_present", event.UserEmail != "")
	}
	return nil
}

// Start subscribes to the channel and launches the publish and receive
// loops. They run until Stop is called or ctx is done.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	pubsub := b.sub.Subscribe(runCtx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	b.cancel = cancel
	b.pubsub = pubsub
	b.started = true

	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		b.publishLoop(runCtx)
	}()
	go func() {
		defer b.wg.Done()
		b.receiveLoop(runCtx, pubsub.Channel())
	}()

	b.logger.Info("redis bridge started", "channel", b.channel)
	return nil
}

// Stop ends both loops and closes the subscription. Events still in the
// outbox are published first, bounded by ctx.
func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}

	b.drain(ctx)
	b.cancel()
	err := b.pubsub.Close()
	b.wg.Wait()
	b.started = false

	b.logger.Info("redis bridge stopped")
	return err
}

func (b *Bridge) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-b.outbox:
			b.publish(ctx, event)
		}
	}
}

// drain publishes whatever is queued without waiting for more.
func (b *Bridge) drain(ctx context.Context) {
	for {
		select {
		case event := <-b.outbox:
			b.publish(ctx, event)
		default:
			return
		}
	}
}

func (b *Bridge) publish(ctx context.Context, event *events.ChangeEvent) {
	payload, err := json.Marshal(envelope{Origin: b.origin, Event: event})
	if err != nil {
		b.logger.Error("failed to encode event", "error", err, "event_id", event.ID)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := b.pub.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Error("failed to publish event", "error", err, "event_id", event.ID)
	}
}

func (b *Bridge) receiveLoop(ctx context.Context, messages <-chan *goredis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			b.relay(ctx, msg.Payload)
		}
	}
}

// relay hands a message from another instance to the local handler.
func (b *Bridge) relay(ctx context.Context, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil || env.Event == nil {
		b.logger.Warn("ignoring malformed bridge message", "error", err)
		return
	}
	if env.Origin == b.origin {
		return
	}

	if err := b.local.HandleEvent(ctx, env.Event); err != nil {
		b.logger.Error("local handler rejected remote event",
			"error", err,
			"event_id", env.Event.ID,
			"origin", env.Origin)
	}
}
