package events

import (
	"github.com/kelindar/event"
)

// Bus wraps the kelindar/event dispatcher for diagnostics broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(DeviceBrokenEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case DeviceBrokenEvent:
		event.Publish(b.dispatcher, e)
	case DeviceReopenedEvent:
		event.Publish(b.dispatcher, e)
	case HookFiredEvent:
		event.Publish(b.dispatcher, e)
	case OutputRecreatedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function; the handler's
// parameter type determines which events it receives. Returns an
// unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e DeviceBrokenEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(DeviceBrokenEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceReopenedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(HookFiredEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(OutputRecreatedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
