package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// Hub fans MessageCreated events out to per-conversation subscribers. The
// API process feeds it from the Kafka consumer; SSE handlers subscribe for
// the lifetime of their request.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan MessageCreated]struct{} // conversation id -> subscribers
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan MessageCreated]struct{})}
}

// Subscribe returns a channel of events for one conversation and a cancel
// function. Cancel must be called when the viewer goes away; it closes the
// channel.
func (h *Hub) Subscribe(conversationID string) (<-chan MessageCreated, func()) {
	ch := make(chan MessageCreated, 16)

	h.mu.Lock()
	if h.subs[conversationID] == nil {
		h.subs[conversationID] = make(map[chan MessageCreated]struct{})
	}
	h.subs[conversationID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[conversationID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
				if len(set) == 0 {
					delete(h.subs, conversationID)
				}
			}
		}
	}
	return ch, cancel
}

// Broadcast delivers an event to every subscriber of its conversation. A
// subscriber whose buffer is full misses the event rather than blocking
// delivery to the others.
func (h *Hub) Broadcast(ev MessageCreated) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[ev.ConversationID] {
		select {
		case ch <- ev:
		default:
			log.Printf("[Hub] Dropping event for slow subscriber on conversation %s", ev.ConversationID)
		}
	}
}

// HandleEvent plugs the hub into a Consumer: it decodes envelopes and
// broadcasts MessageCreated events, ignoring everything else.
func (h *Hub) HandleEvent(_ context.Context, _, value []byte) error {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		log.Printf("[Hub] Failed to unmarshal envelope: %v", err)
		return err
	}
	if env.Type != TypeMessageCreated {
		return nil
	}

	var ev MessageCreated
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		log.Printf("[Hub] Failed to unmarshal MessageCreated: %v", err)
		return err
	}
	h.Broadcast(ev)
	return nil
}
