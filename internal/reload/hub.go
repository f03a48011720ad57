// Package reload implements the broadcast channel that fans reload signals
// out to every connected streaming client.
//
// Publishing is non-blocking and lossy: a subscriber whose buffer is full
// simply misses that signal, which is fine because reload is idempotent and a
// later signal or keep-alive still reaches it. Fan-out is serialized by a
// single Run goroutine; subscribers attach and detach independently without
// affecting each other.
package reload

import (
	"context"
	"sync"
)

const subscriberBuffer = 4

// Subscriber is one streaming connection's view of the hub.
type Subscriber struct {
	// C receives one value per reload signal the subscriber did not miss.
	// Closed on Unsubscribe.
	C    <-chan struct{}
	send chan struct{}
}

// Hub is the process-lifetime broadcast medium.
type Hub struct {
	publish chan struct{}

	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

// NewHub creates a hub. Call Run before publishing.
func NewHub() *Hub {
	return &Hub{
		publish: make(chan struct{}, 64),
		subs:    make(map[*Subscriber]struct{}),
	}
}

// Run fans published signals out to subscribers until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.publish:
			h.mu.RLock()
			for sub := range h.subs {
				select {
				case sub.send <- struct{}{}:
				default:
					// Subscriber not keeping up; drop the signal.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Subscribe attaches a new subscriber.
func (h *Hub) Subscribe() *Subscriber {
	send := make(chan struct{}, subscriberBuffer)
	sub := &Subscriber{C: send, send: send}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Unsubscribe detaches a subscriber and closes its channel. Call at most
// once per subscriber.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.send)
	}
}

// Publish emits one reload signal to all current subscribers. Never blocks
// the caller; if the hub's intake is saturated the signal is dropped, which
// collapses bursts without losing the reload (an earlier queued signal is
// still in flight).
func (h *Hub) Publish() {
	select {
	case h.publish <- struct{}{}:
	default:
	}
}

// Count returns the number of attached subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
