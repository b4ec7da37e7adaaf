package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultHistorySize is how many recent events the manager keeps for replay
const DefaultHistorySize = 50

// Manager converts typed event data, publishes it on the bus and keeps a
// bounded history of recent events for late subscribers
type Manager struct {
	bus *Bus
	now func() time.Time
	log zerolog.Logger

	mu      sync.Mutex
	history []Event
	next    int
	full    bool
}

// NewManager creates a new event manager
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus:     bus,
		now:     time.Now,
		history: make([]Event, DefaultHistorySize),
		log:     log.With().Str("service", "events").Logger(),
	}
}

// Bus returns the underlying bus for subscribers
func (m *Manager) Bus() *Bus {
	return m.bus
}

// EmitTyped publishes data under its event type and records it in the history
func (m *Manager) EmitTyped(module string, data EventData) {
	event := &Event{
		Type:      data.EventType(),
		Timestamp: m.now(),
		Data:      toMap(data),
		Module:    module,
	}

	m.remember(*event)
	m.bus.Publish(event)

	if e := m.log.Debug(); e.Enabled() {
		e.Str("event_type", string(event.Type)).
			Str("module", module).
			Interface("data", event.Data).
			Msg("Event emitted")
	}
}

// EmitError emits an ERROR_OCCURRED event
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	m.EmitTyped(module, &ErrorEventData{
		Error:   err.Error(),
		Context: context,
	})
}

// Recent returns the remembered events, oldest first. A nil filter matches
// every type.
func (m *Manager) Recent(filter map[EventType]bool) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := m.history[:m.next]
	if m.full {
		ordered = append(append([]Event(nil), m.history[m.next:]...), m.history[:m.next]...)
	}

	out := make([]Event, 0, len(ordered))
	for _, e := range ordered {
		if filter == nil || filter[e.Type] {
			out = append(out, e)
		}
	}
	return out
}

func (m *Manager) remember(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history[m.next] = e
	m.next++
	if m.next == len(m.history) {
		m.next = 0
		m.full = true
	}
}

// toMap flattens typed data through its JSON form so websocket clients and
// generic subscribers see the same field names
func toMap(data EventData) map[string]interface{} {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	return result
}
