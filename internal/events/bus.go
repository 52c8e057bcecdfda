// Package events provides an in-process publish/subscribe bus. The
// repository publishes an entity-type event after every successful local
// mutation so views can refresh without polling.
package events

import "sync"

// Event names. Each carries the entity type that changed.
const (
	EntityChanged = "entity.changed"
	SyncStarted   = "sync.started"
	SyncFinished  = "sync.finished"
	ConnChanged   = "connection.changed"
)

// Handler receives the event payload. For EntityChanged the payload is
// the entity type string; subscribers re-query the store for the data
// itself.
type Handler func(payload string)

// Bus is a minimal topic-based dispatcher. Publish never blocks on a
// subscriber: handlers run synchronously and must be fast.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish delivers the payload to every handler subscribed to the topic.
func (b *Bus) Publish(topic, payload string) {
	b.mu.RLock()
	handlers := b.handlers[topic]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}
