//go:build linux

package evdev

import (
	"encoding/binary"
	"fmt"
)

// rawEventSize is sizeof(struct input_event) on a 64-bit kernel: a
// 16-byte timeval, then two uint16 and one int32 field.
const rawEventSize = 24

// RawAbsInfo mirrors struct input_absinfo's on-wire layout.
type RawAbsInfo struct {
	Value, Min, Max, Fuzz, Flat, Resolution int32
}

// RawRepeatInfo mirrors the two-uint32 EVIOCGREP/EVIOCSREP payload.
type RawRepeatInfo struct {
	Delay, Period uint32
}

// RawEvent is one decoded struct input_event. The kernel timestamp is
// read but discarded: this module's Event type (internal/event) has no
// wall-clock field, only type/code/value/previous_value/domain.
type RawEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

// DecodeRawEvent parses one kernel input_event record from buf.
func DecodeRawEvent(buf []byte) (RawEvent, error) {
	if len(buf) < rawEventSize {
		return RawEvent{}, fmt.Errorf("short input_event: got %d bytes, want %d", len(buf), rawEventSize)
	}
	return RawEvent{
		Type:  binary.LittleEndian.Uint16(buf[16:18]),
		Code:  binary.LittleEndian.Uint16(buf[18:20]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}, nil
}

// EncodeRawEvent serializes a struct input_event for writing to a
// uinput virtual device's fd, zeroing the timestamp (the kernel fills in
// its own timestamp for uinput writes only on some paths; writing zero
// is the conventional choice userspace uinput clients make).
func EncodeRawEvent(evType, code uint16, value int32) []byte {
	buf := make([]byte, rawEventSize)
	binary.LittleEndian.PutUint16(buf[16:18], evType)
	binary.LittleEndian.PutUint16(buf[18:20], code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(value))
	return buf
}
