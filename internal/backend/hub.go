package backend

import (
	"log/slog"
	"sync"
)

// EventHub fans auth events out to subscribers. Implementations embed one
// to provide Subscribe; delivery is non-blocking so a stalled subscriber
// cannot wedge the provider.
type EventHub struct {
	mu     sync.Mutex
	subs   map[int]chan AuthEvent
	nextID int
}

func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[int]chan AuthEvent)}
}

// Add registers a subscriber and returns its channel plus an idempotent
// release function that closes the channel.
func (h *EventHub) Add() (<-chan AuthEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan AuthEvent, 8)
	h.subs[id] = ch

	var once sync.Once
	release := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
	return ch, release
}

// Publish delivers ev to every subscriber, dropping it for any whose
// buffer is full.
func (h *EventHub) Publish(ev AuthEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("Auth event dropped for slow subscriber", "subscriber", id, "event", ev.Type)
		}
	}
}

// CloseAll releases every subscriber, closing their channels.
func (h *EventHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
