//go:build linux

// Package output implements the staging and synchronization boundary
// (C7) and the uinput-backed virtual output devices (C8) that realize
// whatever capabilities the stream pipeline derives. It implements
// stream.OutputRouter so internal/stream never imports this package.
package output

import (
	"encoding/binary"
	"syscall"
	"unsafe"

	"github.com/evflow/evflow/internal/capability"
	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/internal/everr"
	"github.com/evflow/evflow/pkg/evdev"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

const uinputPath = "/dev/uinput"
const uinputMaxNameSize = 80

// Device is one virtual output device created with uinput, routing
// events for a single set of capabilities drawn from one or more
// domains (domain grouping is the caller's choice; Router below uses
// one device for the whole Output namespace).
type Device struct {
	fd   int
	name string
}

// uinputID mirrors struct input_id's on-wire layout.
type uinputID struct {
	Bustype, Vendor, Product, Version uint16
}

func setupPayload(name string) []byte {
	buf := make([]byte, 8+uinputMaxNameSize+4)
	id := uinputID{Bustype: 0x06 /* BUS_VIRTUAL */}
	binary.LittleEndian.PutUint16(buf[0:2], id.Bustype)
	binary.LittleEndian.PutUint16(buf[2:4], id.Vendor)
	binary.LittleEndian.PutUint16(buf[4:6], id.Product)
	binary.LittleEndian.PutUint16(buf[6:8], id.Version)
	copy(buf[8:8+uinputMaxNameSize], name)
	// ff_effects_max left zero
	return buf
}

func absSetupPayload(code ecodes.EventCode, abs capability.AbsInfo) []byte {
	buf := make([]byte, 28)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(code))
	// 2 bytes padding at [2:4]
	binary.LittleEndian.PutUint32(buf[4:8], uint32(abs.Min))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(abs.Min))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(abs.Max))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(abs.Fuzz))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(abs.Flat))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(abs.Resolution))
	return buf
}

// NewDevice opens /dev/uinput and configures it to emit exactly the
// given capabilities, then creates the device node.
func NewDevice(name string, caps []capability.Capability) (*Device, error) {
	fd, err := syscall.Open(uinputPath, syscall.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, everr.NewFatal(everr.Context(err, "opening %s", uinputPath))
	}
	d := &Device{fd: fd, name: name}
	if err := d.configure(caps); err != nil {
		_ = syscall.Close(fd)
		return nil, err
	}
	payload := setupPayload(name)
	if err := evdev.Ioctl(fd, evdev.UiDevSetup, unsafe.Pointer(&payload[0])); err != nil {
		_ = syscall.Close(fd)
		return nil, everr.NewFatal(everr.Context(err, "UI_DEV_SETUP on %s", name))
	}
	if err := evdev.Ioctl(fd, evdev.UiDevCreate, nil); err != nil {
		_ = syscall.Close(fd)
		return nil, everr.NewFatal(everr.Context(err, "UI_DEV_CREATE on %s", name))
	}
	return d, nil
}

func (d *Device) configure(caps []capability.Capability) error {
	types := map[ecodes.EventType]struct{}{}
	for _, c := range caps {
		types[c.Type] = struct{}{}
	}
	for t := range types {
		// UI_SET_*BIT take the bit number by value, not through a pointer.
		if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(d.fd), evdev.UiSetEvbit, uintptr(t)); errno != 0 {
			return everr.NewFatal(everr.Context(errno, "UI_SET_EVBIT %d", t))
		}
	}
	for _, c := range caps {
		var bitReq uintptr
		switch c.Type {
		case ecodes.EV_KEY:
			bitReq = evdev.UiSetKeybit
		case ecodes.EV_REL:
			bitReq = evdev.UiSetRelbit
		case ecodes.EV_ABS:
			bitReq = evdev.UiSetAbsbit
		default:
			continue
		}
		if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(d.fd), bitReq, uintptr(c.Code)); errno != 0 {
			return everr.NewFatal(everr.Context(errno, "setting bit for code %d", c.Code))
		}
		if c.Type == ecodes.EV_ABS && c.AbsInfo != nil {
			payload := absSetupPayload(c.Code, *c.AbsInfo)
			if err := evdev.Ioctl(d.fd, evdev.UiAbsSetup, unsafe.Pointer(&payload[0])); err != nil {
				return everr.NewFatal(everr.Context(err, "UI_ABS_SETUP code %d", c.Code))
			}
		}
	}
	return nil
}

// Write emits one raw event to the virtual device.
func (d *Device) Write(e event.Event) error {
	buf := evdev.EncodeRawEvent(uint16(e.Type), uint16(e.Code), e.Value)
	if _, err := syscall.Write(d.fd, buf); err != nil {
		return everr.NewDevice(everr.Context(err, "writing to %s", d.name))
	}
	return nil
}

// Syn emits a SYN_REPORT on this device.
func (d *Device) Syn() error {
	return d.Write(event.New(ecodes.EV_SYN, ecodes.SYN_REPORT, 0, 0, domain.None, event.Output))
}

// Destroy tears down the uinput device and closes its fd.
func (d *Device) Destroy() error {
	_ = evdev.Ioctl(d.fd, evdev.UiDevDestroy, nil)
	return syscall.Close(d.fd)
}
