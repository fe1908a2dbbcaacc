package upi

import (
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Hub fans inbound deep-link URLs out to subscribers
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription
	logger *log.Logger
}

type subscription struct {
	id       int
	callback func(url string)
	active   *atomic.Bool
}

// NewHub creates an empty hub
func NewHub(logger *log.Logger) *Hub {
	return &Hub{logger: logger}
}

// Subscribe registers callback for every inbound URL until the returned
// function is called. The owner must call it when it goes away; calling it
// more than once is harmless.
func (h *Hub) Subscribe(callback func(url string)) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	active := &atomic.Bool{}
	active.Store(true)
	h.subs = append(h.subs, subscription{id: id, callback: callback, active: active})
	h.mu.Unlock()

	h.logger.Debug("Deep link listener registered", "id", id)

	var once sync.Once
	return func() {
		once.Do(func() {
			active.Store(false)
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, s := range h.subs {
				if s.id == id {
					h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
					break
				}
			}
			h.logger.Debug("Deep link listener removed", "id", id)
		})
	}
}

// Publish delivers url to every current subscriber, in subscription order.
// A subscriber removed while delivery is under way is skipped.
func (h *Hub) Publish(url string) {
	h.mu.Lock()
	subs := make([]subscription, len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()

	h.logger.Debug("Delivering deep link", "url", url, "listeners", len(subs))
	for _, s := range subs {
		if !s.active.Load() {
			continue
		}
		s.callback(url)
	}
}

// Len returns the number of active subscriptions
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
