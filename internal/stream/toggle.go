package stream

import (
	"github.com/evflow/evflow/internal/capability"
	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/internal/state"
)

// ToggleEntry branches its rewrite behaviour on a named shared-state
// counter: the same matched trigger is routed through whichever branch
// is currently active. apply_caps unions every branch, since at runtime
// the active branch can change.
type ToggleEntry struct {
	Name     string
	Match    Predicate
	Branches [][]MapAction
}

// Apply implements the Toggle stream entry's per-event transform.
func (t *ToggleEntry) Apply(in []event.Event, out *[]event.Event, st *state.State) {
	active := st.Get(t.Name)
	for _, e := range in {
		if e.Namespace != event.User || !t.Match.Matches(e) {
			*out = append(*out, e)
			continue
		}
		if active < 0 || active >= len(t.Branches) {
			*out = append(*out, e)
			continue
		}
		for _, a := range t.Branches[active] {
			*out = append(*out, a.apply(e))
		}
	}
}

// ApplyCaps implements Toggle's deterministic capability transform: the
// matched value range is split off as with Map, then fanned out through
// every branch's actions so the union of everything any branch could
// ever produce is advertised.
func (t *ToggleEntry) ApplyCaps(in []capability.Capability, out *[]capability.Capability) {
	for _, c := range in {
		if c.Namespace != event.User || !t.Match.matchesCapTypeCodeDomain(c) {
			*out = append(*out, c)
			continue
		}
		matched, remainder := t.Match.splitRange(c.ValueRange)
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
		for _, branch := range t.Branches {
			for _, a := range branch {
				*out = append(*out, a.applyCap(base))
			}
		}
	}
}
