package stream

import "github.com/evflow/evflow/internal/event"

// Printer is anything that can record an observed event, matching the
// teacher's logger interface shape so Print entries can be wired to the
// module logger registry.
type Printer interface {
	Print(e event.Event)
}

// PrintEntry is pure observation: it never writes to an output buffer at
// all, so the pipeline runner leaves the current event vector untouched
// rather than swapping it.
type PrintEntry struct {
	Match   Predicate
	Printer Printer
}

// Observe reports every User-namespace event matching the entry's
// predicate to the printer.
func (p *PrintEntry) Observe(events []event.Event) {
	if p.Printer == nil {
		return
	}
	for _, e := range events {
		if e.Namespace == event.User && p.Match.Matches(e) {
			p.Printer.Print(e)
		}
	}
}
