// internal/events/bus.go
// In-process domain event bus.
// Delivery is synchronous and at-most-once per registered listener.

package events

import (
	"sync"
)

// Topics published by the application
const (
	TopicPreferencesUpdated = "preferences.updated"
	TopicLocationUpdated    = "location.updated"
)

// PreferencesUpdated is the payload for TopicPreferencesUpdated
type PreferencesUpdated struct {
	UserID        int64
	ChangedFields []string
}

// LocationUpdated is the payload for TopicLocationUpdated
type LocationUpdated struct {
	UserID    int64
	Latitude  float64
	Longitude float64
}

// Listener receives a published event payload
type Listener func(payload interface{})

// Bus is an explicit observer registry keyed by topic
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

// NewBus creates an empty event bus
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[string][]Listener),
	}
}

// Subscribe registers a listener for a topic
func (b *Bus) Subscribe(topic string, fn Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[topic] = append(b.listeners[topic], fn)
}

// Publish delivers the payload to every listener registered for the topic.
// Listeners run synchronously on the caller's goroutine.
func (b *Bus) Publish(topic string, payload interface{}) {
	b.mu.RLock()
	subs := make([]Listener, len(b.listeners[topic]))
	copy(subs, b.listeners[topic])
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(payload)
	}
}
