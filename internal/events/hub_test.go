package events

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publish(t *testing.T, h *Hub, email string, revision int64) *ChangeEvent {
	t.Helper()
	event, err := NewChangeEvent(email, KindAdd, "", map[string]any{"id": fmt.Sprint(revision)}, revision)
	require.NoError(t, err)
	require.NoError(t, h.HandleEvent(context.Background(), event))
	return event
}

func receive(t *testing.T, sub *Subscription) *ChangeEvent {
	t.Helper()
	select {
	case e, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func assertEmpty(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case e := <-sub.Events():
		t.Fatalf("unexpected event: %+v", e)
	default:
	}
}

func TestHub_BroadcastInOrder(t *testing.T) {
	log, _ := logger.NewTestLogger()
	h := NewHub(16, log)
	a := h.Subscribe()
	b := h.Subscribe()

	for rev := int64(1); rev <= 5; rev++ {
		publish(t, h, "a@x.com", rev)
	}

	for _, sub := range []*Subscription{a, b} {
		for rev := int64(1); rev <= 5; rev++ {
			assert.Equal(t, rev, receive(t, sub).Revision)
		}
		assertEmpty(t, sub)
	}
}

func TestHub_NoReplay(t *testing.T) {
	h := NewHub(4, nil)
	publish(t, h, "a@x.com", 1)

	sub := h.Subscribe()
	assertEmpty(t, sub)

	publish(t, h, "a@x.com", 2)
	assert.Equal(t, int64(2), receive(t, sub).Revision)
}

func TestHub_SubscribeUserFilters(t *testing.T) {
	h := NewHub(4, nil)
	ann := h.SubscribeUser("ann@x.com")
	all := h.Subscribe()

	publish(t, h, "bob@x.com", 1)
	publish(t, h, "ann@x.com", 2)

	assert.Equal(t, int64(2), receive(t, ann).Revision)
	assertEmpty(t, ann)
	assert.Equal(t, "ann@x.com", ann.UserEmail())

	assert.Equal(t, int64(1), receive(t, all).Revision)
	assert.Equal(t, int64(2), receive(t, all).Revision)
}

func TestHub_DropsOldestWhenFull(t *testing.T) {
	log, buf := logger.NewTestLogger()
	h := NewHub(2, log)
	slow := h.Subscribe()
	fast := h.Subscribe()

	publish(t, h, "a@x.com", 1)
	assert.Equal(t, int64(1), receive(t, fast).Revision)
	publish(t, h, "a@x.com", 2)
	assert.Equal(t, int64(2), receive(t, fast).Revision)
	publish(t, h, "a@x.com", 3)
	assert.Equal(t, int64(3), receive(t, fast).Revision)

	assert.Equal(t, uint64(1), slow.Dropped())
	assert.Equal(t, uint64(0), fast.Dropped())
	assert.Equal(t, int64(2), receive(t, slow).Revision)
	assert.Equal(t, int64(3), receive(t, slow).Revision)
	assert.Contains(t, buf.String(), "dropped oldest event")
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub(4, nil)
	sub := h.Subscribe()
	other := h.Subscribe()
	require.Equal(t, 2, h.Len())

	h.Unsubscribe(sub)
	h.Unsubscribe(sub)
	h.Unsubscribe(nil)
	assert.Equal(t, 1, h.Len())

	_, ok := <-sub.Events()
	assert.False(t, ok)

	publish(t, h, "a@x.com", 1)
	assert.Equal(t, int64(1), receive(t, other).Revision)
}

func TestHub_Close(t *testing.T) {
	h := NewHub(4, nil)
	sub := h.Subscribe()

	h.Close()
	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.Equal(t, 0, h.Len())

	late := h.Subscribe()
	_, ok = <-late.Events()
	assert.False(t, ok)

	// Publishing after close is a no-op
	publish(t, h, "a@x.com", 1)
}

func TestHub_ConcurrentPublishAndUnsubscribe(t *testing.T) {
	h := NewHub(8, nil)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := h.Subscribe()
			for j := 0; j < 20; j++ {
				select {
				case <-sub.Events():
				default:
				}
			}
			h.Unsubscribe(sub)
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				event := &ChangeEvent{UserEmail: "a@x.com", Kind: KindAdd, Revision: int64(i*100 + j)}
				assert.NoError(t, h.HandleEvent(context.Background(), event))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, h.Len())
}
