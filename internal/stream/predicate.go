package stream

import (
	"github.com/evflow/evflow/internal/capability"
	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

// Predicate matches events and capabilities on type/code/value-range/
// domain, the way Map and Hook triggers are declared. A nil field
// matches anything.
type Predicate struct {
	Type   *ecodes.EventType
	Code   *ecodes.EventCode
	Domain *domain.Domain
	Value  *capability.Range
}

func (p Predicate) typeCodeDomainMatch(t ecodes.EventType, c ecodes.EventCode, d domain.Domain) bool {
	if p.Type != nil && *p.Type != t {
		return false
	}
	if p.Code != nil && *p.Code != c {
		return false
	}
	if p.Domain != nil && *p.Domain != d {
		return false
	}
	return true
}

// Matches reports whether an event satisfies every constrained field of
// the predicate.
func (p Predicate) Matches(e event.Event) bool {
	if !p.typeCodeDomainMatch(e.Type, e.Code, e.Domain) {
		return false
	}
	if p.Value != nil && !p.Value.Contains(e.Value) {
		return false
	}
	return true
}

// splitRange divides a capability's value range into the portion that
// satisfies the predicate's value constraint (if any) and the remaining
// portions that do not, so a Map entry splitting part of a code's value
// space can leave the rest of that code's capability untouched. Returns
// a nil matched range if the predicate's value constraint excludes the
// capability entirely.
func (p Predicate) splitRange(full capability.Range) (matched *capability.Range, remainder []capability.Range) {
	if p.Value == nil {
		m := full
		return &m, nil
	}
	lo, hi := full.Min, full.Max
	if p.Value.Min > lo {
		lo = p.Value.Min
	}
	if p.Value.Max < hi {
		hi = p.Value.Max
	}
	if lo > hi {
		return nil, []capability.Range{full}
	}
	inter := capability.Range{Min: lo, Max: hi}
	if full.Min < inter.Min {
		remainder = append(remainder, capability.Range{Min: full.Min, Max: inter.Min - 1})
	}
	if full.Max > inter.Max {
		remainder = append(remainder, capability.Range{Min: inter.Max + 1, Max: full.Max})
	}
	return &inter, remainder
}

// matchesCapTypeCodeDomain reports whether a capability's type/code/
// domain (ignoring its value range) satisfies the predicate.
func (p Predicate) matchesCapTypeCodeDomain(c capability.Capability) bool {
	return p.typeCodeDomainMatch(c.Type, c.Code, c.Domain)
}
