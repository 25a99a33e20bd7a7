package events

import (
	"sync"
)

// Store is an in-memory event log. Delivery to subscribers is
// synchronous so tests can assert on emitted events without waiting.
type Store struct {
	mu          sync.RWMutex
	streams     map[string][]Event
	all         []Event
	subscribers []Handler
}

// NewStore creates an empty event store
func NewStore() *Store {
	return &Store{
		streams: make(map[string][]Event),
	}
}

// Append records the event and notifies interested subscribers.
// Handler errors are ignored; recording must not fail a workflow call.
func (s *Store) Append(event Event) {
	s.mu.Lock()
	s.streams[event.StreamID()] = append(s.streams[event.StreamID()], event)
	s.all = append(s.all, event)
	subs := append([]Handler(nil), s.subscribers...)
	s.mu.Unlock()

	for _, h := range subs {
		if h.CanHandle(event.Type()) {
			_ = h.Handle(event)
		}
	}
}

// Emit builds and appends an event in one call
func (s *Store) Emit(eventType, streamID string, data interface{}) {
	s.Append(New(eventType, streamID, data))
}

// ByStream returns the events recorded for one stream
func (s *Store) ByStream(streamID string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event(nil), s.streams[streamID]...)
}

// ByType returns all events of the given type, in append order
func (s *Store) ByType(eventType string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.all {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// All returns every recorded event in append order
func (s *Store) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event(nil), s.all...)
}

// Subscribe registers a handler for future events
func (s *Store) Subscribe(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, h)
}
