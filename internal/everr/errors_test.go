package everr

import (
	"errors"
	"testing"
)

func TestFatalUnwrapsToInnerError(t *testing.T) {
	inner := errors.New("boom")
	err := NewFatal(inner)
	if !errors.Is(err, inner) {
		t.Fatal("errors.Is should see through Fatal to the wrapped error")
	}
	var target *Fatal
	if !errors.As(err, &target) {
		t.Fatal("errors.As should recognize a Fatal-severity error")
	}
}

func TestDeviceAndWarningAreDistinctSeverities(t *testing.T) {
	inner := errors.New("broken")
	dev := NewDevice(inner)
	warn := NewWarning(inner)

	var asDevice *Device
	if !errors.As(dev, &asDevice) {
		t.Fatal("errors.As should recognize a Device-severity error")
	}
	var asWarning *Warning
	if errors.As(dev, &asWarning) {
		t.Fatal("a Device error should not also match Warning")
	}
	if !errors.As(warn, &asWarning) {
		t.Fatal("errors.As should recognize a Warning-severity error")
	}
}

func TestContextPrependsFrameAndPreservesChain(t *testing.T) {
	inner := NewFatal(errors.New("disk full"))
	wrapped := Context(inner, "writing %s", "/tmp/x")

	var target *Fatal
	if !errors.As(wrapped, &target) {
		t.Fatal("Context should preserve the severity for errors.As")
	}
	if wrapped.Error() == "" {
		t.Fatal("Context should produce a non-empty message")
	}
}

func TestContextNilIsNil(t *testing.T) {
	if Context(nil, "doing %s", "nothing") != nil {
		t.Fatal("Context(nil, ...) should return nil")
	}
}
