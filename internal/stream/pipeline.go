// Package stream implements the processing pipeline: an ordered list of
// entries (Map, Toggle, Merge, Hook, Withhold, Delay, Print) that events
// and capabilities are driven through, plus the Setup that owns the
// pipeline, the shared State, the loopback schedule, and the
// per-report staged output buffer.
package stream

import (
	"time"

	"github.com/evflow/evflow/internal/capability"
	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/internal/loopback"
	"github.com/evflow/evflow/internal/state"
)

// OutputRouter is the boundary between the pipeline's staged events and
// the output-device system (internal/output). Kept as an interface here
// so this package never needs to import the device layer.
type OutputRouter interface {
	// Route delivers one report's worth of Output-namespace events to
	// their destination devices and causes each touched device to emit
	// its own SYN_REPORT.
	Route(events []event.Event) error
	// UpdateCaps is called whenever the pipeline's derived output
	// capabilities change, so devices can be recreated if needed.
	UpdateCaps(caps []capability.Capability) error
}

// TokenAllocator hands out unique loopback tokens while a stream is
// being built, so Hook/Withhold/Delay entries constructed independently
// never collide in the shared Loopback queue.
type TokenAllocator struct{ next loopback.Token }

// Next returns a fresh, never-before-issued token.
func (a *TokenAllocator) Next() loopback.Token {
	a.next++
	return a.next
}

// Setup owns one fully-wired pipeline: its entries (including the
// synthesized source/output gates), shared State, loopback schedule,
// input capability table, and per-report staged buffer.
type Setup struct {
	entries   []Entry
	state     *state.State
	lb        *loopback.Loopback
	inputCaps capability.InputCapabilities
	staged    []event.Event
	router    OutputRouter
	spawn     Spawner
}

// NewSetup builds a Setup from user-declared entries, prepending one
// sourceGate per domain present in inputCaps and appending one
// outputGate over outputDomains (nil means every domain) to realize the
// namespace-promotion invariants every entry relies on.
func NewSetup(entries []Entry, inputCaps capability.InputCapabilities, outputDomains []domain.Domain, router OutputRouter, spawn Spawner) *Setup {
	wired := make([]Entry, 0, len(entries)+2)
	for dom := range inputCaps {
		wired = append(wired, newSourceGate(&sourceGate{domain: dom}))
	}
	wired = append(wired, entries...)
	var accept map[domain.Domain]struct{}
	if outputDomains != nil {
		accept = make(map[domain.Domain]struct{}, len(outputDomains))
		for _, d := range outputDomains {
			accept[d] = struct{}{}
		}
	}
	wired = append(wired, newOutputGate(&outputGate{domains: accept}))

	return &Setup{
		entries:   wired,
		state:     state.New(),
		lb:        loopback.New(),
		inputCaps: inputCaps,
		router:    router,
		spawn:     spawn,
	}
}

// State returns the pipeline's shared runtime state, for callers that
// need to seed or inspect it directly.
func (s *Setup) State() *state.State { return s.state }

// Loopback returns the pipeline's timer schedule, so the dispatch loop
// can compute its poll timeout and drain due wakeups.
func (s *Setup) Loopback() *loopback.Loopback { return s.lb }

func (s *Setup) dispatchApply(ent *Entry, in []event.Event, out *[]event.Event, handle *loopback.Handle) {
	switch ent.Kind {
	case KindMap:
		ent.Map.Apply(in, out)
	case KindToggle:
		ent.Toggle.Apply(in, out, s.state)
	case KindMerge:
		ent.Merge.Apply(in, out)
	case KindHook:
		ent.Hook.Apply(in, out, s.state, handle, s.spawn)
	case KindWithhold:
		ent.Withhold.Apply(in, out, handle)
	case KindDelay:
		ent.Delay.Apply(in, out, handle)
	case kindSourceGate:
		ent.sourceGate.apply(in, out)
	case kindOutputGate:
		ent.outputGate.apply(in, out)
	}
}

// runEventFrom drives events through entries[start:], honoring the Print
// no-swap rule, and stages any resulting Output-namespace events. It is
// shared by RunEvent (start=0) and RunWakeup's re-entry rule
// (start=entry_index+1).
func (s *Setup) runEventFrom(events []event.Event, start int, handle *loopback.Handle) {
	buf := make([]event.Event, 0, len(events)+4)
	for i := start; i < len(s.entries); i++ {
		ent := &s.entries[i]
		if ent.Kind == KindPrint {
			ent.Print.Observe(events)
			continue
		}
		buf = buf[:0]
		s.dispatchApply(ent, events, &buf, handle)
		events, buf = buf, events
	}
	for _, e := range events {
		if e.Namespace == event.Output {
			s.staged = append(s.staged, e)
		}
	}
}

// RunEvent drives a single freshly-polled event through the entire
// pipeline. Callers must not call this for SYN_REPORT events — those
// trigger Syn instead.
func (s *Setup) RunEvent(e event.Event) {
	s.runEventFrom([]event.Event{e}, 0, s.lb.GetHandleLazy())
}

// RunWakeup drains whichever entry scheduled token, feeding any events
// it produces back into the pipeline starting at the *next* entry (this
// re-entry rule forbids a Delay→Delay self-trigger within one wakeup),
// then issues an explicit Syn so time-based emissions form their own
// report.
func (s *Setup) RunWakeup(token loopback.Token, at time.Time) error {
	handle := s.lb.GetHandle(at)
	for i := range s.entries {
		ent := &s.entries[i]
		var produced []event.Event
		switch ent.Kind {
		case KindHook:
			ent.Hook.Wakeup(token, s.state, s.spawn)
		case KindWithhold:
			ent.Withhold.Wakeup(token, &produced)
		case KindDelay:
			ent.Delay.Wakeup(token, at, &produced)
		}
		if len(produced) > 0 {
			s.runEventFrom(produced, i+1, handle)
		}
	}
	return s.Syn()
}

// Syn routes the staged buffer to the output system and clears it.
// Called by the dispatch loop whenever the input side emits SYN_REPORT,
// and once more at the end of every wakeup pass.
func (s *Setup) Syn() error {
	if len(s.staged) == 0 {
		return nil
	}
	events := s.staged
	s.staged = nil
	return s.router.Route(events)
}

// RunCaps recomputes the pipeline's derived output capabilities from the
// current input capability table, aggregating whenever the working set
// has doubled since the last
// aggregation to bound the worst-case blow-up.
func (s *Setup) RunCaps() []capability.Capability {
	caps := s.inputCaps.ToVec()
	lastAgg := len(caps)
	if lastAgg == 0 {
		lastAgg = 1
	}
	for i := range s.entries {
		ent := &s.entries[i]
		var next []capability.Capability
		switch ent.Kind {
		case KindMap:
			ent.Map.ApplyCaps(caps, &next)
		case KindToggle:
			ent.Toggle.ApplyCaps(caps, &next)
		case KindHook:
			ent.Hook.ApplyCaps(caps, &next)
		case KindMerge:
			ent.Merge.ApplyCaps(caps, &next)
		case kindSourceGate:
			ent.sourceGate.applyCaps(caps, &next)
		case kindOutputGate:
			ent.outputGate.applyCaps(caps, &next)
		default:
			// Withhold, Delay, Print have no apply_caps: caps pass
			// through this entry untouched.
			next = caps
		}
		caps = next
		if len(caps) >= 2*lastAgg {
			caps = capability.Aggregate(caps)
			lastAgg = len(caps)
		}
	}
	out := make([]capability.Capability, 0, len(caps))
	for _, c := range caps {
		if c.Namespace == event.Output {
			out = append(out, c)
		}
	}
	return out
}

// UpdateInputCaps records a domain's (re)opened device capabilities and
// pushes the recomputed output capability set to the router.
func (s *Setup) UpdateInputCaps(dom domain.Domain, caps capability.DeviceCapabilities) error {
	if s.inputCaps == nil {
		s.inputCaps = make(capability.InputCapabilities)
	}
	if _, known := s.inputCaps[dom]; !known {
		s.entries = append([]Entry{newSourceGate(&sourceGate{domain: dom})}, s.entries...)
	}
	s.inputCaps[dom] = caps
	return s.router.UpdateCaps(s.RunCaps())
}
