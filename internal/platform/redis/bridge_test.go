package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmaster-api/internal/events"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu        sync.Mutex
	published []string
	channels  []string
	err       error
}

func (f *fakeClient) Publish(_ context.Context, channel string, message interface{}) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, channel)
	f.published = append(f.published, string(message.([]byte)))
	return goredis.NewIntResult(1, f.err)
}

func (f *fakeClient) Subscribe(context.Context, ...string) *goredis.PubSub {
	panic("not used in unit tests")
}

type recorder struct {
	mu     sync.Mutex
	events []*events.ChangeEvent
}

func (r *recorder) HandleEvent(_ context.Context, e *events.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func newEvent(t *testing.T) *events.ChangeEvent {
	t.Helper()
	e, err := events.NewChangeEvent("a@x.com", events.KindAdd, "", map[string]string{"id": "1"}, 1)
	require.NoError(t, err)
	return e
}

func TestBridge_PublishesEnvelope(t *testing.T) {
	client := &fakeClient{}
	b := NewBridge(client, "", &recorder{}, nil)
	event := newEvent(t)

	require.NoError(t, b.HandleEvent(context.Background(), event))
	b.drain(context.Background())

	require.Len(t, client.published, 1)
	assert.Equal(t, DefaultChannel, client.channels[0])

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(client.published[0]), &env))
	assert.Equal(t, b.Origin(), env.Origin)
	assert.Equal(t, event.ID, env.Event.ID)
	assert.Equal(t, event.Revision, env.Event.Revision)
}

func TestBridge_PublishErrorIsLogged(t *testing.T) {
	log, buf := logger.NewTestLogger()
	client := &fakeClient{err: errors.New("connection refused")}
	b := NewBridge(client, "custom", &recorder{}, log)

	require.NoError(t, b.HandleEvent(context.Background(), newEvent(t)))
	b.drain(context.Background())

	assert.Equal(t, "custom", client.channels[0])
	assert.Contains(t, buf.String(), "failed to publish event")
}

func TestBridge_HandleEventNeverBlocks(t *testing.T) {
	log, buf := logger.NewTestLogger()
	b := NewBridge(&fakeClient{}, "", &recorder{}, log)

	for i := 0; i < outboxSize+5; i++ {
		require.NoError(t, b.HandleEvent(context.Background(), newEvent(t)))
	}

	assert.Len(t, b.outbox, outboxSize)
	assert.Contains(t, buf.String(), "redis outbox full")
}

func TestBridge_Relay(t *testing.T) {
	local := &recorder{}
	b := NewBridge(&fakeClient{}, "", local, nil)
	event := newEvent(t)

	encode := func(origin string) string {
		raw, err := json.Marshal(envelope{Origin: origin, Event: event})
		require.NoError(t, err)
		return string(raw)
	}

	b.relay(context.Background(), encode(b.Origin()))
	assert.Empty(t, local.events, "own messages are skipped")

	b.relay(context.Background(), encode(uuid.NewString()))
	require.Len(t, local.events, 1)
	assert.Equal(t, event.ID, local.events[0].ID)

	b.relay(context.Background(), "not json")
	b.relay(context.Background(), `{"origin":"x"}`)
	assert.Len(t, local.events, 1)
}

func TestBridge_StopWithoutStart(t *testing.T) {
	b := NewBridge(&fakeClient{}, "", &recorder{}, nil)
	assert.NoError(t, b.Stop(context.Background()))
}
