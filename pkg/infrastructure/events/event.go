package events

import (
	"time"
)

// Event is one recorded engine occurrence, appended to a per-operator
// stream
type Event interface {
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
}

// Handler consumes events it declares interest in
type Handler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// BaseEvent is the standard Event implementation
type BaseEvent struct {
	EventType string
	Stream    string
	EventData interface{}
	EventTime time.Time
}

func (e BaseEvent) Type() string         { return e.EventType }
func (e BaseEvent) StreamID() string     { return e.Stream }
func (e BaseEvent) Data() interface{}    { return e.EventData }
func (e BaseEvent) Timestamp() time.Time { return e.EventTime }

// New creates an event stamped with the current time
func New(eventType, streamID string, data interface{}) Event {
	return BaseEvent{
		EventType: eventType,
		Stream:    streamID,
		EventData: data,
		EventTime: time.Now(),
	}
}
