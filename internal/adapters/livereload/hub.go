// Package livereload implements the live-reload coordinator (§4.9): it
// subscribes to the storage watch stream, classifies each change, and
// fans out JSON events to WebSocket subscribers; a subscriber whose queue is
// full misses that event rather than blocking publishers.
package livereload

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// EventType is the wire-level event kind pushed to subscribers.
type EventType string

const (
	EventContent   EventType = "content"
	EventStructure EventType = "structure"
)

// Event is the JSON payload pushed over the WebSocket (§6 HTTP surface).
type Event struct {
	Type EventType `json:"type"`
	Path string    `json:"path"`
}

const subscriberQueueSize = 16

// Hub broadcasts Events to any number of WebSocket subscribers. An event for
// a subscriber whose queue is full is discarded rather than allowed to block
// the broadcaster; the subscriber itself stays subscribed and is not
// disconnected (§4.9, §5 shared-resource policy).
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
}

// NewHub builds an empty Hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan Event]struct{})}
}

// Broadcast sends ev to every current subscriber, skipping any whose queue
// is full; those subscribers stay subscribed.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop this event for them rather than block.
		}
	}
}

func (h *Hub) subscribe() chan Event {
	ch := make(chan Event, subscriberQueueSize)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	h.mu.Unlock()
	close(ch)
}

// SubscriberCount reports the current number of connected subscribers
// (exposed for tests and for server health/metrics surfaces).
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// ServeHTTP upgrades the request to a WebSocket and streams Events to it
// until the client disconnects or the request context is canceled.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "context canceled")
			return
		case ev, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "hub closed")
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}
