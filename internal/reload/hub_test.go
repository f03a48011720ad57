package reload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func waitSignal(t *testing.T, sub *Subscriber) {
	t.Helper()
	select {
	case _, ok := <-sub.C:
		require.True(t, ok, "subscriber channel closed unexpectedly")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload signal")
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := startHub(t)

	a := hub.Subscribe()
	b := hub.Subscribe()
	assert.Equal(t, 2, hub.Count())

	hub.Publish()

	waitSignal(t, a)
	waitSignal(t, b)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := startHub(t)

	sub := hub.Subscribe()
	hub.Unsubscribe(sub)

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Count())
}

func TestUnsubscribeAfterHubStopped(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	sub := hub.Subscribe()
	cancel()

	// Detaching after the hub loop exits must not block.
	done := make(chan struct{})
	go func() {
		hub.Unsubscribe(sub)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Unsubscribe blocked after hub stopped")
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := startHub(t)

	slow := hub.Subscribe()
	fast := hub.Subscribe()

	// Overflow the slow subscriber's buffer; Publish must stay
	// non-blocking throughout.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*16; i++ {
			hub.Publish()
			// Let the hub goroutine drain its intake.
			time.Sleep(time.Millisecond)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	// Both still receive signals afterwards.
	drain(slow)
	drain(fast)
	hub.Publish()
	waitSignal(t, slow)
	waitSignal(t, fast)
}

func drain(sub *Subscriber) {
	for {
		select {
		case <-sub.C:
		default:
			return
		}
	}
}

func TestSubscribersAttachAndDetachIndependently(t *testing.T) {
	hub := startHub(t)

	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.Unsubscribe(a)

	hub.Publish()
	waitSignal(t, b)
	assert.Equal(t, 1, hub.Count())
}
