package events

import (
	"sync"
	"time"
)

// Handler receives published events. Handlers run synchronously on the
// publisher's goroutine and must not block.
type Handler func(event *Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is an in-process publish/subscribe hub, safe for concurrent use
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[EventType][]subscription
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]subscription)}
}

// Subscribe registers handler for eventType. The returned function removes it.
func (b *Bus) Subscribe(eventType EventType, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[eventType] = append(b.subs[eventType], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(eventType, id) })
	}
}

// SubscribeAll registers handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) func() {
	unsubs := make([]func(), 0, len(AllEventTypes))
	for _, t := range AllEventTypes {
		unsubs = append(unsubs, b.Subscribe(t, handler))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (b *Bus) remove(eventType EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[eventType]
	for i, s := range subs {
		if s.id == id {
			b.subs[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit publishes an event to the subscribers of its type
func (b *Bus) Emit(eventType EventType, module string, data map[string]interface{}) {
	b.Publish(&Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	})
}

// Publish delivers a prepared event to the subscribers of its type
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[event.Type]...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// SubscriberCount returns the number of handlers for eventType
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[eventType])
}
