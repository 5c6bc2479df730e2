//go:build linux

package output

import (
	"log/slog"

	"github.com/evflow/evflow/internal/capability"
	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/internal/events"
	"github.com/evflow/evflow/internal/everr"
)

// Router implements stream.OutputRouter over a single uinput virtual
// device. It recreates the device only when the derived capability set
// is no longer compatible with what the existing device already
// advertises (capability.DeviceCapabilities.IsCompatibleWith), matching
// the strict "never silently broaden" recreation rule.
type Router struct {
	name string
	log  *slog.Logger
	bus  *events.Bus

	dev  *Device
	caps capability.DeviceCapabilities
}

// NewRouter returns a Router that lazily creates its uinput device on
// the first UpdateCaps call. bus may be nil; when set, each recreation
// is published for logging to observe.
func NewRouter(name string, log *slog.Logger, bus *events.Bus) *Router {
	return &Router{name: name, log: log, bus: bus, caps: capability.NewDeviceCapabilities()}
}

// Route writes every Output-namespace event to the device and issues a
// single trailing SYN_REPORT.
func (r *Router) Route(events []event.Event) error {
	if r.dev == nil || len(events) == 0 {
		return nil
	}
	for _, e := range events {
		if err := r.dev.Write(e); err != nil {
			return err
		}
	}
	return r.dev.Syn()
}

// UpdateCaps recreates the uinput device when the new capability set is
// not a subset of what the existing device already advertises (new
// codes, or a widened abs range); a shrinking set is left alone so a
// reopened device with fewer codes than before doesn't force a
// recreation the consumer doesn't need.
func (r *Router) UpdateCaps(caps []capability.Capability) error {
	next := toDeviceCapabilities(caps)
	if r.dev != nil && next.IsCompatibleWith(r.caps) {
		return nil
	}
	if r.dev != nil {
		if err := r.dev.Destroy(); err != nil {
			r.log.Warn("destroying output device for recreation", "error", err)
		}
	}
	if len(caps) == 0 {
		r.dev = nil
		r.caps = capability.NewDeviceCapabilities()
		return nil
	}
	dev, err := NewDevice(r.name, caps)
	if err != nil {
		return everr.NewFatal(everr.Context(err, "recreating output device %s", r.name))
	}
	r.dev = dev
	r.caps = next
	r.log.Info("output device recreated", "name", r.name, "codes", len(next.Codes))
	if r.bus != nil {
		r.bus.Publish(events.OutputRecreatedEvent{Name: r.name, Codes: len(next.Codes)})
	}
	return nil
}

func toDeviceCapabilities(caps []capability.Capability) capability.DeviceCapabilities {
	dc := capability.NewDeviceCapabilities()
	for _, c := range caps {
		id := capability.EventID{Type: c.Type, Code: c.Code}
		dc.Add(id)
		if c.AbsInfo != nil {
			dc.AbsInfo[id] = *c.AbsInfo
		}
		if c.RepeatInfo != nil {
			rep := *c.RepeatInfo
			dc.Repeat = &rep
		}
	}
	return dc
}
