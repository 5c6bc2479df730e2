// Package events implements a small observational pub/sub of runtime
// state transitions — device broken/reopened, hook fired, output device
// recreated — consumed only by logging. It decouples the dispatch loop
// from its own telemetry and never sits on the hot event path
// (stream.Setup's RunEvent/RunWakeup/RunCaps).
package events

// Event type constants for kelindar/event.
const (
	TypeDeviceBroken uint32 = iota + 1
	TypeDeviceReopened
	TypeHookFired
	TypeOutputRecreated
)

// Event is the interface kelindar/event requires of every published
// value: a stable numeric type tag used to route it to subscribers
// without reflecting on the payload itself.
type Event interface {
	Type() uint32
}

// DeviceBrokenEvent reports that an input device's read failed and it
// was ejected from the poller.
type DeviceBrokenEvent struct {
	Path   string
	Domain string
	Reason string
}

// Type implements Event.
func (e DeviceBrokenEvent) Type() uint32 { return TypeDeviceBroken }

// DeviceReopenedEvent reports that a device blueprint was successfully
// reopened by the persistence helper and re-registered with the poller.
type DeviceReopenedEvent struct {
	Path   string
	Domain string
}

// Type implements Event.
func (e DeviceReopenedEvent) Type() uint32 { return TypeDeviceReopened }

// HookFiredEvent reports that a Hook stream entry's chord transition ran
// an exec action, published from the Supervisor that actually performs
// the spawn rather than from inside the stream pipeline, keeping
// internal/stream free of this package's import.
type HookFiredEvent struct {
	Argv []string
}

// Type implements Event.
func (e HookFiredEvent) Type() uint32 { return TypeHookFired }

// OutputRecreatedEvent reports that the uinput output device was
// created, or destroyed and rebuilt because the derived capability set
// widened.
type OutputRecreatedEvent struct {
	Name  string
	Codes int
}

// Type implements Event.
func (e OutputRecreatedEvent) Type() uint32 { return TypeOutputRecreated }
