//go:build linux

// Package evdevio implements the input-device driver: open, grab/ungrab,
// poll-driven reads translated into internal events, static capability
// queries, and the blueprint needed to reopen a device after disconnect.
// Its raw open/ioctl/close pattern follows the same shape as a V4L2
// capture driver, adapted from video capture devices to evdev character
// devices.
package evdevio

import (
	"fmt"
	"math"
	"syscall"
	"unsafe"

	"github.com/evflow/evflow/internal/capability"
	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/internal/everr"
	"github.com/evflow/evflow/pkg/evdev"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

// queriedTypes is the set of EV_* types this driver enumerates
// capabilities for; EV_SYN is excluded since every device implicitly
// supports it and the kernel does not report it via EVIOCGBIT.
var queriedTypes = []ecodes.EventType{
	ecodes.EV_KEY, ecodes.EV_REL, ecodes.EV_ABS, ecodes.EV_MSC, ecodes.EV_SW, ecodes.EV_LED,
}

// bitmapBytes is large enough to hold the widest queried type's bitmap
// (EV_KEY's codes run up to KEY_MAX, 0x2ff).
const bitmapBytes = (0x300 + 7) / 8

// GrabMode controls whether and when Device.GrabIfDesired attempts
// exclusive capture.
type GrabMode int

const (
	// GrabNone never grabs the device.
	GrabNone GrabMode = iota
	// GrabAuto grabs only once no key is currently held down in the
	// device's state, to avoid leaving a key stuck down for whichever
	// process was reading the device before the grab.
	GrabAuto
	// GrabForce grabs on open and retries on every poll until it
	// succeeds.
	GrabForce
)

// Device is one open evdev character device.
type Device struct {
	path     string
	domain   domain.Domain
	fd       int
	grabMode GrabMode
	grabbed  bool
	prev     map[capability.EventID]int32
}

// Open opens path in non-blocking read/write mode, tags future events
// from it with dom, and queries its supported capabilities and initial
// per-code state so the first event of each code reports a correct
// previous_value and GrabIfDesired has state to consult immediately.
// It does not itself attempt a grab; call GrabIfDesired once the
// device is registered with the poller.
func Open(path string, dom domain.Domain, grab GrabMode) (*Device, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, everr.NewDevice(everr.Context(err, "opening input device %s", path))
	}
	d := &Device{path: path, domain: dom, fd: fd, grabMode: grab}
	_, d.prev = d.queryCapsAndState()
	return d, nil
}

// Fd returns the device's file descriptor, for poller registration.
func (d *Device) Fd() int { return d.fd }

// Domain returns the logical domain events from this device are tagged with.
func (d *Device) Domain() domain.Domain { return d.domain }

// Path returns the device node this Device was opened from.
func (d *Device) Path() string { return d.path }

// Grab requests exclusive kernel-level capture of the device.
func (d *Device) Grab() error {
	v := int32(1)
	if err := evdev.Ioctl(d.fd, evdev.Eviocgrab, unsafe.Pointer(&v)); err != nil {
		return everr.NewWarning(everr.Context(err, "grabbing %s", d.path))
	}
	d.grabbed = true
	return nil
}

// GrabIfDesired attempts a grab if the device isn't already grabbed and
// its grab mode calls for one: Force retries on every call until it
// succeeds, Auto only grabs once no key is currently held down
// (consulting the per-code state seeded at open and updated by every
// ReadEvents call), None never grabs.
func (d *Device) GrabIfDesired() error {
	if d.grabbed {
		return nil
	}
	switch d.grabMode {
	case GrabForce:
		return d.Grab()
	case GrabAuto:
		for id, v := range d.prev {
			if id.Type == ecodes.EV_KEY && v > 0 {
				return nil
			}
		}
		return d.Grab()
	default:
		return nil
	}
}

// Ungrab releases a prior Grab. It passes a distinct value (0) on the
// same EVIOCGRAB request rather than reusing the value Grab used.
func (d *Device) Ungrab() error {
	if !d.grabbed {
		return nil
	}
	// EVIOCGRAB reads its argument as a value: any non-null argument
	// grabs, so 0 goes in directly rather than through a pointer.
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(d.fd), evdev.Eviocgrab, 0); errno != 0 {
		return everr.NewWarning(everr.Context(errno, "ungrabbing %s", d.path))
	}
	d.grabbed = false
	return nil
}

// Close releases the device's file descriptor.
func (d *Device) Close() error {
	return syscall.Close(d.fd)
}

// ReadEvents drains every kernel input_event record available without
// blocking (looping the read until EAGAIN, since one readiness
// notification may cover more than one fixed-size read buffer) and
// translates them into internal events tagged Namespace Input and this
// device's domain, filling in previous_value from the last value seen
// for each (type, code). A SYN_DROPPED record means the kernel discarded
// some events before the driver could read them; the per-code state is
// resynced from the device directly so the next previous_value is still
// meaningful despite the gap.
func (d *Device) ReadEvents() ([]event.Event, error) {
	buf := make([]byte, 24*64)
	var out []event.Event
	for {
		n, err := syscall.Read(d.fd, buf)
		if err != nil {
			if err == syscall.EAGAIN {
				return out, nil
			}
			return nil, everr.NewDevice(everr.Context(err, "reading %s", d.path))
		}
		if n == 0 {
			return nil, everr.NewDevice(fmt.Errorf("input device %s closed", d.path))
		}
		for off := 0; off+24 <= n; off += 24 {
			raw, err := evdev.DecodeRawEvent(buf[off : off+24])
			if err != nil {
				return nil, everr.NewDevice(everr.Context(err, "decoding event from %s", d.path))
			}
			t := ecodes.EventType(raw.Type)
			c := ecodes.EventCode(raw.Code)
			id := capability.EventID{Type: t, Code: c}
			prev := d.prev[id]
			out = append(out, event.New(t, c, raw.Value, prev, d.domain, event.Input))
			switch {
			case t.IsSyn() && c == ecodes.SYN_DROPPED:
				_, d.prev = d.queryCapsAndState()
			case !t.IsSyn():
				d.prev[id] = raw.Value
			}
		}
	}
}

// QueryCapabilities reads the device's EVIOCGBIT bitmaps, per-code
// abs_info, and key-repeat settings.
func (d *Device) QueryCapabilities() (capability.DeviceCapabilities, error) {
	caps, _ := d.queryCapsAndState()
	return caps, nil
}

// queryCapsAndState reads the device's EVIOCGBIT bitmaps, per-code
// abs_info, and key-repeat settings, and in the same pass derives each
// supported code's initial value: EVIOCGKEY's bitmap for EV_KEY codes,
// abs_info's current value for EV_ABS codes, and a placeholder of
// (min+max)/2 for the ABS_MT_* sub-range, whose current value
// EVIOCGABS does not meaningfully report. Other types have no queryable
// resting state and start at 0.
func (d *Device) queryCapsAndState() (capability.DeviceCapabilities, map[capability.EventID]int32) {
	caps := capability.NewDeviceCapabilities()
	state := make(map[capability.EventID]int32)
	bitmap := make([]byte, bitmapBytes)
	keyBits := make([]byte, bitmapBytes)
	haveKeyBits := evdev.Ioctl(d.fd, evdev.Eviocgkey(len(keyBits)), unsafe.Pointer(&keyBits[0])) == nil

	for _, t := range queriedTypes {
		for i := range bitmap {
			bitmap[i] = 0
		}
		if err := evdev.Ioctl(d.fd, evdev.Eviocgbit(uint16(t), len(bitmap)), unsafe.Pointer(&bitmap[0])); err != nil {
			continue
		}
		for code := 0; code < len(bitmap)*8; code++ {
			if bitmap[code/8]&(1<<uint(code%8)) == 0 {
				continue
			}
			id := capability.EventID{Type: t, Code: ecodes.EventCode(code)}
			caps.Add(id)
			switch {
			case t == ecodes.EV_ABS:
				var abs evdev.RawAbsInfo
				if err := evdev.Ioctl(d.fd, evdev.Eviocgabs(uint16(code)), unsafe.Pointer(&abs)); err == nil {
					caps.AbsInfo[id] = capability.AbsInfo{
						Min: abs.Min, Max: abs.Max, Fuzz: abs.Fuzz, Flat: abs.Flat, Resolution: abs.Resolution,
					}
					if ecodes.IsAbsMT(t, id.Code) {
						state[id] = absMTPlaceholder(abs.Min, abs.Max)
					} else {
						state[id] = abs.Value
					}
				}
			case t == ecodes.EV_KEY && haveKeyBits:
				if keyBits[code/8]&(1<<uint(code%8)) != 0 {
					state[id] = 1
				}
			}
		}
	}
	var rep evdev.RawRepeatInfo
	if err := evdev.Ioctl(d.fd, evdev.EviocgRep, unsafe.Pointer(&rep)); err == nil {
		caps.Repeat = &capability.RepeatInfo{Delay: int32(rep.Delay), Period: int32(rep.Period)}
	}
	return caps, state
}

// absMTPlaceholder mirrors checked_add(min, max)/2, falling back to 0
// on overflow: ABS_MT_* codes have no meaningful "current value" until
// a multi-touch slot is active, so this is only ever a placeholder.
func absMTPlaceholder(min, max int32) int32 {
	sum := int64(min) + int64(max)
	if sum > math.MaxInt32 || sum < math.MinInt32 {
		return 0
	}
	return int32(sum / 2)
}

// Blueprint captures the minimal description needed to reopen this
// device later.
type Blueprint struct {
	Path   string
	Domain domain.Domain
	Grab   GrabMode
}

// Blueprint returns the device's reopen descriptor.
func (d *Device) Blueprint() Blueprint {
	return Blueprint{Path: d.path, Domain: d.domain, Grab: d.grabMode}
}

// Open reopens the device described by the blueprint, preserving its
// original grab mode.
func (b Blueprint) Open() (*Device, error) {
	return Open(b.Path, b.Domain, b.Grab)
}
