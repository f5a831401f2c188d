// Package realtime fans out newly stored chat messages to the connections
// subscribed to their thread.
package realtime

import (
	"log"
	"sync"

	"github.com/shinyyama/bidboard-backend/internal/model"
)

const DefaultBuffer = 32

// Hub keeps subscriptions per thread. It is process local; a message
// published on one instance is not seen by subscribers on another.
type Hub struct {
	mu      sync.Mutex
	buffer  int
	threads map[string]map[*Subscription]struct{}
	closed  bool
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		buffer:  buffer,
		threads: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscription receives the messages of one thread on C. C is closed when
// the subscription is closed, when the hub shuts down, or when the receiver
// falls so far behind that its buffer fills up. In the last case the receiver
// should list messages after its last seen seq to catch up.
type Subscription struct {
	ThreadID string
	C        <-chan model.Message

	ch  chan model.Message
	hub *Hub
}

func (s *Subscription) Close() {
	s.hub.remove(s, "closed")
}

func (h *Hub) Subscribe(threadID string) *Subscription {
	ch := make(chan model.Message, h.buffer)
	s := &Subscription{ThreadID: threadID, C: ch, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return s
	}
	set, ok := h.threads[threadID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.threads[threadID] = set
	}
	set[s] = struct{}{}
	return s
}

// Publish hands msg to every subscriber of msg.ThreadID without blocking and
// returns how many received it.
func (h *Hub) Publish(msg model.Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	delivered := 0
	for s := range h.threads[msg.ThreadID] {
		select {
		case s.ch <- msg:
			delivered++
		default:
			h.removeLocked(s, "slow")
		}
	}
	return delivered
}

func (h *Hub) Subscribers(threadID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.threads[threadID])
}

// Close drops every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, set := range h.threads {
		for s := range set {
			h.removeLocked(s, "shutdown")
		}
	}
}

func (h *Hub) remove(s *Subscription, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s, reason)
}

func (h *Hub) removeLocked(s *Subscription, reason string) {
	set, ok := h.threads[s.ThreadID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	close(s.ch)
	if len(set) == 0 {
		delete(h.threads, s.ThreadID)
	}
	if reason == "slow" {
		log.Printf("[realtime] dropped slow subscriber thread=%s", s.ThreadID)
	}
}
