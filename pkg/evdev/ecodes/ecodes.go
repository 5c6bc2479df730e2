// Package ecodes mirrors the event type/code constants from
// linux/input-event-codes.h that this module needs, plus small helpers
// for classifying and naming them. It intentionally does not attempt to
// be an exhaustive transliteration of the kernel header: only the
// type/code space the rest of the module actually reasons about is
// represented, grounded in the subset the kernel itself groups under
// EV_SYN, EV_KEY, EV_REL, EV_ABS and EV_MSC.
package ecodes

import "strconv"

// EventType is the 16-bit kernel event type (EV_*).
type EventType uint16

// EventCode is the 16-bit kernel event code, meaningful within its type.
type EventCode uint16

// Event types.
const (
	EV_SYN EventType = 0x00
	EV_KEY EventType = 0x01
	EV_REL EventType = 0x02
	EV_ABS EventType = 0x03
	EV_MSC EventType = 0x04
	EV_SW  EventType = 0x05
	EV_LED EventType = 0x11
	EV_REP EventType = 0x14
)

// EV_SYN codes.
const (
	SYN_REPORT   EventCode = 0
	SYN_CONFIG   EventCode = 1
	SYN_MT_REPORT EventCode = 2
	SYN_DROPPED  EventCode = 3
)

// EV_REL codes.
const (
	REL_X      EventCode = 0x00
	REL_Y      EventCode = 0x01
	REL_Z      EventCode = 0x02
	REL_WHEEL  EventCode = 0x08
	REL_HWHEEL EventCode = 0x06
)

// EV_ABS codes, including the multi-touch range.
const (
	ABS_X      EventCode = 0x00
	ABS_Y      EventCode = 0x01
	ABS_Z      EventCode = 0x02
	ABS_MT_SLOT       EventCode = 0x2f
	ABS_MT_TOUCH_MAJOR EventCode = 0x30
	ABS_MT_POSITION_X EventCode = 0x35
	ABS_MT_POSITION_Y EventCode = 0x36
	absMTFirst        EventCode = 0x2f
	absMTLast         EventCode = 0x3f
)

// EV_REP codes.
const (
	REP_DELAY  EventCode = 0x00
	REP_PERIOD EventCode = 0x01
)

// A selection of EV_KEY codes commonly used in stream filters and tests.
const (
	KEY_RESERVED   EventCode = 0
	KEY_ESC        EventCode = 1
	KEY_1          EventCode = 2
	KEY_A          EventCode = 30
	KEY_B          EventCode = 48
	KEY_C          EventCode = 46
	KEY_LEFTCTRL   EventCode = 29
	KEY_LEFTSHIFT  EventCode = 42
	KEY_LEFTALT    EventCode = 56
	BTN_LEFT       EventCode = 0x110
	BTN_RIGHT      EventCode = 0x111
	KEY_MAX        EventCode = 0x2ff
)

// IsSyn reports whether t is EV_SYN.
func (t EventType) IsSyn() bool { return t == EV_SYN }

// IsKey reports whether t is EV_KEY (keys and buttons share this type).
func (t EventType) IsKey() bool { return t == EV_KEY }

// IsAbs reports whether t is EV_ABS.
func (t EventType) IsAbs() bool { return t == EV_ABS }

// IsRel reports whether t is EV_REL.
func (t EventType) IsRel() bool { return t == EV_REL }

// IsAbsMT reports whether (type, code) falls in the ABS_MT_* sub-range.
// Multi-touch semantics beyond placeholder initial state are out of
// scope; this classification only gates that placeholder logic.
func IsAbsMT(evType EventType, code EventCode) bool {
	return evType == EV_ABS && code >= absMTFirst && code <= absMTLast
}

var typeNames = map[EventType]string{
	EV_SYN: "EV_SYN", EV_KEY: "EV_KEY", EV_REL: "EV_REL", EV_ABS: "EV_ABS",
	EV_MSC: "EV_MSC", EV_SW: "EV_SW", EV_LED: "EV_LED", EV_REP: "EV_REP",
}

var keyNames = map[EventCode]string{
	KEY_ESC: "KEY_ESC", KEY_1: "KEY_1", KEY_A: "KEY_A", KEY_B: "KEY_B",
	KEY_C: "KEY_C", KEY_LEFTCTRL: "KEY_LEFTCTRL", KEY_LEFTSHIFT: "KEY_LEFTSHIFT",
	KEY_LEFTALT: "KEY_LEFTALT", BTN_LEFT: "BTN_LEFT", BTN_RIGHT: "BTN_RIGHT",
}

var relNames = map[EventCode]string{
	REL_X: "REL_X", REL_Y: "REL_Y", REL_Z: "REL_Z", REL_WHEEL: "REL_WHEEL", REL_HWHEEL: "REL_HWHEEL",
}

var absNames = map[EventCode]string{
	ABS_X: "ABS_X", ABS_Y: "ABS_Y", ABS_Z: "ABS_Z",
	ABS_MT_SLOT: "ABS_MT_SLOT", ABS_MT_TOUCH_MAJOR: "ABS_MT_TOUCH_MAJOR",
	ABS_MT_POSITION_X: "ABS_MT_POSITION_X", ABS_MT_POSITION_Y: "ABS_MT_POSITION_Y",
}

var synNames = map[EventCode]string{
	SYN_REPORT: "SYN_REPORT", SYN_CONFIG: "SYN_CONFIG",
	SYN_MT_REPORT: "SYN_MT_REPORT", SYN_DROPPED: "SYN_DROPPED",
}

// TypeName returns the symbolic name of an event type, or a numeric
// fallback if unrecognized.
func TypeName(t EventType) string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return numericType(t)
}

// EventName returns a "TYPE:CODE"-free symbolic rendering of a single
// (type, code) pair, such as "KEY_A" or "REL_X", matching the style of
// the kernel's own code names. Falls back to a numeric form.
func EventName(t EventType, code EventCode) string {
	var table map[EventCode]string
	switch t {
	case EV_KEY:
		table = keyNames
	case EV_REL:
		table = relNames
	case EV_ABS:
		table = absNames
	case EV_SYN:
		table = synNames
	}
	if table != nil {
		if name, ok := table[code]; ok {
			return name
		}
	}
	return numericCode(t, code)
}

func numericType(t EventType) string {
	return "EV_" + strconv.Itoa(int(t))
}

func numericCode(t EventType, code EventCode) string {
	return TypeName(t) + ":" + strconv.Itoa(int(code))
}

var nameToType = func() map[string]EventType {
	m := make(map[string]EventType, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

// ParseTypeName looks up an EventType by its symbolic name ("EV_KEY"),
// for decoding setup files.
func ParseTypeName(name string) (EventType, bool) {
	t, ok := nameToType[name]
	return t, ok
}

var nameToCode = func() map[string]EventCode {
	m := make(map[string]EventCode)
	for _, table := range []map[EventCode]string{keyNames, relNames, absNames, synNames} {
		for code, name := range table {
			m[name] = code
		}
	}
	return m
}()

// ParseCodeName looks up an EventCode by its symbolic name ("KEY_A"),
// for decoding setup files. The name space is shared across event
// types, matching how the kernel's own code names are namespaced by
// prefix rather than by (type) alone.
func ParseCodeName(name string) (EventCode, bool) {
	c, ok := nameToCode[name]
	return c, ok
}
