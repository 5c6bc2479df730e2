package stream

import (
	"github.com/evflow/evflow/internal/capability"
	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/event"
)

// MergeEntry collapses events of the matched (type, code) pairs, arriving
// from any of a set of source domains, into a single synthetic domain
// based on whichever physical domain last reported the code as active.
// A stale release from a domain that is no longer the tracked source is
// dropped, so two physical keyboards sharing one
// logical "keyboard" domain don't produce phantom double-releases.
type MergeEntry struct {
	Match   Predicate
	Domains []domain.Domain // empty means any domain is a valid source
	Target  domain.Domain

	last map[capability.EventID]domain.Domain
}

// NewMergeEntry constructs a MergeEntry with its tracking state ready.
func NewMergeEntry(match Predicate, domains []domain.Domain, target domain.Domain) *MergeEntry {
	return &MergeEntry{
		Match: match, Domains: domains, Target: target,
		last: make(map[capability.EventID]domain.Domain),
	}
}

func (m *MergeEntry) sourceAllowed(d domain.Domain) bool {
	if len(m.Domains) == 0 {
		return true
	}
	for _, x := range m.Domains {
		if x == d {
			return true
		}
	}
	return false
}

// Apply implements the Merge stream entry's per-event transform.
func (m *MergeEntry) Apply(in []event.Event, out *[]event.Event) {
	for _, e := range in {
		if e.Namespace != event.User || !m.Match.Matches(e) || !m.sourceAllowed(e.Domain) {
			*out = append(*out, e)
			continue
		}
		id := capability.EventID{Type: e.Type, Code: e.Code}
		if e.Type.IsKey() {
			if e.Value != 0 {
				m.last[id] = e.Domain
			} else if active, ok := m.last[id]; ok && active != e.Domain {
				continue
			}
		}
		*out = append(*out, e.WithDomain(m.Target))
	}
}

// ApplyCaps is the identity transform: Merge's output capabilities equal
// its input capabilities.
func (m *MergeEntry) ApplyCaps(in []capability.Capability, out *[]capability.Capability) {
	*out = append(*out, in...)
}
