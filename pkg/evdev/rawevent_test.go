//go:build linux

package evdev

import "testing"

func TestDecodeRawEventReadsTypeCodeValue(t *testing.T) {
	buf := EncodeRawEvent(1, 30, -5)
	raw, err := DecodeRawEvent(buf)
	if err != nil {
		t.Fatalf("DecodeRawEvent returned error: %v", err)
	}
	if raw.Type != 1 || raw.Code != 30 || raw.Value != -5 {
		t.Fatalf("raw = %+v, want Type=1 Code=30 Value=-5", raw)
	}
}

func TestDecodeRawEventIgnoresTimestampBytes(t *testing.T) {
	buf := EncodeRawEvent(3, 0, 512)
	for i := 0; i < 16; i++ {
		buf[i] = 0xff
	}
	raw, err := DecodeRawEvent(buf)
	if err != nil {
		t.Fatalf("DecodeRawEvent returned error: %v", err)
	}
	if raw.Type != 3 || raw.Value != 512 {
		t.Fatalf("corrupting the timestamp bytes should not affect decode, got %+v", raw)
	}
}

func TestDecodeRawEventShortBufferErrors(t *testing.T) {
	_, err := DecodeRawEvent(make([]byte, 10))
	if err == nil {
		t.Fatal("expected an error for a short buffer")
	}
}

func TestEncodeRawEventRoundTrip(t *testing.T) {
	buf := EncodeRawEvent(4, 0x10, -1)
	raw, err := DecodeRawEvent(buf)
	if err != nil {
		t.Fatalf("DecodeRawEvent returned error: %v", err)
	}
	if raw.Type != 4 || raw.Code != 0x10 || raw.Value != -1 {
		t.Fatalf("round trip = %+v, want Type=4 Code=16 Value=-1", raw)
	}
	if len(buf) != rawEventSize {
		t.Fatalf("len(buf) = %d, want %d", len(buf), rawEventSize)
	}
}
