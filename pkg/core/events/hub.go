package events

import "sync"

// Hub fans events out to subscribers over buffered channels. The core never
// blocks on a subscriber: when a subscriber's buffer is full the event is
// dropped for that subscriber. Slow readers should rebuild from the journal.
type Hub struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	buffer int
	closed bool
}

// NewHub creates a hub whose subscriber channels buffer `buffer` events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[chan Event]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber and returns its channel together with
// an unsubscribe function. The channel is closed on unsubscribe or hub close.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Record broadcasts one event to all subscribers. Implements Recorder.
func (h *Hub) Record(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			// subscriber buffer full, drop
		}
	}
}

// Close unsubscribes everyone and closes their channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
