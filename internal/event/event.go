// Package event defines the immutable-by-convention Event value that
// flows through the processing stream, along with the Namespace gate
// that controls which stream entries may touch it.
package event

import (
	"fmt"

	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

// Namespace is an internal phase marker, invisible to user-facing
// filters, that controls which stream entries may act on an event.
type Namespace int

const (
	// Input events have not yet entered the user-visible stream. Only a
	// stream entry that declares itself an input source acts on them.
	Input Namespace = iota
	// User events are in the regular processing stream; most entries
	// operate on these.
	User
	// Yielded events were produced by a map action that injects into the
	// stream bypassing input-source entries; only output-gateway entries
	// act on them.
	Yielded
	// Output events have been captured for emission; no further stream
	// entry mutates them.
	Output
)

// String renders a Namespace for logging and test failure messages.
func (n Namespace) String() string {
	switch n {
	case Input:
		return "Input"
	case User:
		return "User"
	case Yielded:
		return "Yielded"
	case Output:
		return "Output"
	default:
		return "Namespace(?)"
	}
}

// Event is the typed value that flows through the stream. Entries treat
// it as immutable: a transformation produces a new Event rather than
// mutating one shared across entries.
type Event struct {
	Type  ecodes.EventType
	Code  ecodes.EventCode
	Value int32

	// PreviousValue is the value this (type, code) pair had the last time
	// its originating device emitted it (0 if never seen).
	PreviousValue int32

	Domain    domain.Domain
	Namespace Namespace
}

// New constructs an Event with the given fields.
func New(evType ecodes.EventType, code ecodes.EventCode, value, previousValue int32, d domain.Domain, ns Namespace) Event {
	return Event{
		Type: evType, Code: code, Value: value, PreviousValue: previousValue,
		Domain: d, Namespace: ns,
	}
}

// WithDomain returns a copy of the event with its domain rewritten,
// leaving everything else unchanged. Used by Merge and by Map's
// domain-rewrite action.
func (e Event) WithDomain(d domain.Domain) Event {
	e.Domain = d
	return e
}

// WithNamespace returns a copy of the event with its namespace rewritten.
func (e Event) WithNamespace(ns Namespace) Event {
	e.Namespace = ns
	return e
}

// IsSyn reports whether this event is of type EV_SYN, whatever its code
// (SYN_REPORT, SYN_DROPPED, ...).
func (e Event) IsSyn() bool {
	return e.Type.IsSyn()
}

// String renders the event as "NAME:VALUE", for logging and the Print
// stream entry.
func (e Event) String() string {
	return fmt.Sprintf("%s:%d", ecodes.EventName(e.Type, e.Code), e.Value)
}
