// Package everr implements the three error severities and the
// "while doing X:" context-chain convention used throughout the
// dispatch loop and its collaborators.
package everr

import "fmt"

// Fatal wraps an error that must abort the dispatch loop: poller
// creation, signal-descriptor read failure, or an uncaught panic
// converted at the top level.
type Fatal struct{ Err error }

func (e *Fatal) Error() string { return "fatal: " + e.Err.Error() }
func (e *Fatal) Unwrap() error { return e.Err }

// NewFatal wraps err as a Fatal error.
func NewFatal(err error) *Fatal { return &Fatal{Err: err} }

// Device wraps an error that ejects one source from the poller but
// leaves the dispatch loop running: a read failure on an input device,
// an unknown read status, or a crashed persistence helper.
type Device struct{ Err error }

func (e *Device) Error() string { return e.Err.Error() }
func (e *Device) Unwrap() error { return e.Err }

// NewDevice wraps err as a Device-level error.
func NewDevice(err error) *Device { return &Device{Err: err} }

// Warning wraps an error that is logged and then ignored: a grab
// failure, an inotify creation failure, a capability-update error, or a
// subprocess spawn failure.
type Warning struct{ Err error }

func (e *Warning) Error() string { return e.Err.Error() }
func (e *Warning) Unwrap() error { return e.Err }

// NewWarning wraps err as a Warning.
func NewWarning(err error) *Warning { return &Warning{Err: err} }

// Context prepends a "while doing X:" frame to err, preserving the
// wrapped chain so errors.As/errors.Is still see through to the
// original severity and cause.
func Context(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
