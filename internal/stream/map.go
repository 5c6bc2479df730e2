package stream

import (
	"github.com/evflow/evflow/internal/capability"
	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

// MapAction rewrites a single matched event into one output event. Zero
// actions on a MapEntry means "filter only": matched events are dropped.
type MapAction struct {
	SetType   *ecodes.EventType
	SetCode   *ecodes.EventCode
	SetDomain *domain.Domain
	SetValue  *int32
	// Yield routes the produced event to the Yielded namespace instead of
	// User, bypassing every later entry except the output gateway.
	Yield bool
}

func (a MapAction) apply(e event.Event) event.Event {
	out := e
	if a.SetType != nil {
		out.Type = *a.SetType
	}
	if a.SetCode != nil {
		out.Code = *a.SetCode
	}
	if a.SetDomain != nil {
		out.Domain = *a.SetDomain
	}
	if a.SetValue != nil {
		out.Value = *a.SetValue
	}
	if a.Yield {
		out.Namespace = event.Yielded
	} else {
		out.Namespace = event.User
	}
	return out
}

func (a MapAction) applyCap(c capability.Capability) capability.Capability {
	out := c
	if a.SetType != nil {
		out.Type = *a.SetType
	}
	if a.SetCode != nil {
		out.Code = *a.SetCode
	}
	if a.SetDomain != nil {
		out.Domain = *a.SetDomain
	}
	if a.SetValue != nil {
		out.ValueRange = capability.Range{Min: *a.SetValue, Max: *a.SetValue}
	}
	if a.Yield {
		out.Namespace = event.Yielded
	} else {
		out.Namespace = event.User
	}
	return out
}

// MapEntry matches events against a predicate and, on match, emits zero
// or more rewritten events. Non-matching events and events outside the
// User namespace pass through unchanged.
type MapEntry struct {
	Match   Predicate
	Actions []MapAction
}

// Apply implements the Map stream entry's per-event transform.
func (m *MapEntry) Apply(in []event.Event, out *[]event.Event) {
	for _, e := range in {
		if e.Namespace != event.User || !m.Match.Matches(e) {
			*out = append(*out, e)
			continue
		}
		for _, a := range m.Actions {
			*out = append(*out, a.apply(e))
		}
	}
}

// ApplyCaps implements the Map stream entry's deterministic capability
// transform, splitting a capability's value range when the predicate
// only partially covers it so unmatched values still propagate.
func (m *MapEntry) ApplyCaps(in []capability.Capability, out *[]capability.Capability) {
	for _, c := range in {
		if c.Namespace != event.User || !m.Match.matchesCapTypeCodeDomain(c) {
			*out = append(*out, c)
			continue
		}
		matched, remainder := m.Match.splitRange(c.ValueRange)
		for _, r := range remainder {
			cc := c
			cc.ValueRange = r
			*out = append(*out, cc)
		}
		if matched == nil {
			continue
		}
		base := c
		base.ValueRange = *matched
		for _, a := range m.Actions {
			*out = append(*out, a.applyCap(base))
		}
	}
}
