package stream

import (
	"time"

	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/internal/loopback"
)

type delayedEvent struct {
	at time.Time
	ev event.Event
}

// DelayEntry reschedules matched events by a fixed delay, keeping a FIFO
// keyed by scheduled instant and emitting due entries on wakeup in
// insertion order.
type DelayEntry struct {
	Match Predicate
	Delay time.Duration
	Token loopback.Token

	fifo []delayedEvent
}

// NewDelayEntry constructs a DelayEntry. token must be unique within the
// owning Setup's loopback.
func NewDelayEntry(match Predicate, delay time.Duration, token loopback.Token) *DelayEntry {
	return &DelayEntry{Match: match, Delay: delay, Token: token}
}

// Apply implements the Delay stream entry's per-event transform.
func (d *DelayEntry) Apply(in []event.Event, out *[]event.Event, lb *loopback.Handle) {
	for _, e := range in {
		if e.Namespace != event.User || !d.Match.Matches(e) {
			*out = append(*out, e)
			continue
		}
		d.fifo = append(d.fifo, delayedEvent{at: lb.Now().Add(d.Delay), ev: e})
		lb.Schedule(d.Delay, d.Token)
	}
}

// Wakeup emits every FIFO entry due at or before now, in insertion order.
func (d *DelayEntry) Wakeup(token loopback.Token, now time.Time, out *[]event.Event) {
	if token != d.Token {
		return
	}
	i := 0
	for i < len(d.fifo) && !d.fifo[i].at.After(now) {
		*out = append(*out, d.fifo[i].ev)
		i++
	}
	d.fifo = d.fifo[i:]
}
