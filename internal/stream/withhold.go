package stream

import (
	"time"

	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/internal/loopback"
)

// WithholdEntry buffers events belonging to a potential chord instead of
// forwarding them immediately. If the whole chord it guards completes, the
// buffered events are consumed silently — the paired Hook entry's own
// action is the visible effect. If the chord times out incomplete, the
// buffered events are released in arrival order.
type WithholdEntry struct {
	Keys    []Predicate
	Timeout time.Duration
	Token   loopback.Token

	buffered []event.Event
	down     map[int]bool
	hasToken bool
}

// NewWithholdEntry constructs a WithholdEntry. token must be unique
// within the owning Setup's loopback.
func NewWithholdEntry(keys []Predicate, timeout time.Duration, token loopback.Token) *WithholdEntry {
	return &WithholdEntry{Keys: keys, Timeout: timeout, Token: token, down: make(map[int]bool, len(keys))}
}

func (w *WithholdEntry) matchIndex(e event.Event) int {
	for i, p := range w.Keys {
		if p.Matches(e) {
			return i
		}
	}
	return -1
}

func (w *WithholdEntry) allDown() bool {
	if len(w.down) < len(w.Keys) {
		return false
	}
	for i := range w.Keys {
		if !w.down[i] {
			return false
		}
	}
	return true
}

// Apply implements the Withhold stream entry's per-event transform.
func (w *WithholdEntry) Apply(in []event.Event, out *[]event.Event, lb *loopback.Handle) {
	for _, e := range in {
		if e.Namespace != event.User {
			*out = append(*out, e)
			continue
		}
		idx := w.matchIndex(e)
		if idx < 0 {
			*out = append(*out, e)
			continue
		}
		w.buffered = append(w.buffered, e)
		w.down[idx] = e.Value != 0
		if w.allDown() {
			// Chord completed: the paired Hook consumes it, drop the buffer.
			w.buffered = nil
			w.hasToken = false
			continue
		}
		if !w.hasToken {
			w.hasToken = true
			lb.Schedule(w.Timeout, w.Token)
		}
	}
}

// Wakeup releases the withheld events in arrival order when the timeout
// fires without the chord completing.
func (w *WithholdEntry) Wakeup(token loopback.Token, out *[]event.Event) {
	if !w.hasToken || token != w.Token {
		return
	}
	*out = append(*out, w.buffered...)
	w.buffered = nil
	w.hasToken = false
	w.down = make(map[int]bool, len(w.Keys))
}
