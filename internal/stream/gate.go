package stream

import (
	"github.com/evflow/evflow/internal/capability"
	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/event"
)

// sourceGate and outputGate are not user-authorable stream entries —
// there is no CLI syntax that produces one directly. They are how Setup
// enforces that only a declared input source acts on Input events, and
// that Yielded events are unaffected by anything but the output gateway:
// Setup synthesizes one sourceGate per declared input domain at the
// front of the stream, and one outputGate at the back, so every
// user-authored entry (Map, Toggle, Merge, Hook, Withhold, Delay, Print)
// only ever has to reason about the User namespace.

// sourceGate promotes Input-namespace events of one domain to User,
// leaving every other domain's Input events untouched so a later
// sourceGate for a different domain can still claim them.
type sourceGate struct {
	domain domain.Domain
}

func (g *sourceGate) apply(in []event.Event, out *[]event.Event) {
	for _, e := range in {
		if e.Namespace == event.Input && e.Domain == g.domain {
			*out = append(*out, e.WithNamespace(event.User))
			continue
		}
		*out = append(*out, e)
	}
}

func (g *sourceGate) applyCaps(in []capability.Capability, out *[]capability.Capability) {
	for _, c := range in {
		if c.Namespace == event.Input && c.Domain == g.domain {
			cc := c
			cc.Namespace = event.User
			*out = append(*out, cc)
			continue
		}
		*out = append(*out, c)
	}
}

// outputGate promotes User- and Yielded-namespace events matching an
// accepted-domain set to Output. A nil domain set accepts every domain.
type outputGate struct {
	domains map[domain.Domain]struct{} // nil means accept all
}

func (g *outputGate) accepts(d domain.Domain) bool {
	if g.domains == nil {
		return true
	}
	_, ok := g.domains[d]
	return ok
}

func (g *outputGate) apply(in []event.Event, out *[]event.Event) {
	for _, e := range in {
		if (e.Namespace == event.User || e.Namespace == event.Yielded) && g.accepts(e.Domain) {
			*out = append(*out, e.WithNamespace(event.Output))
			continue
		}
		*out = append(*out, e)
	}
}

func (g *outputGate) applyCaps(in []capability.Capability, out *[]capability.Capability) {
	for _, c := range in {
		if (c.Namespace == event.User || c.Namespace == event.Yielded) && g.accepts(c.Domain) {
			cc := c
			cc.Namespace = event.Output
			*out = append(*out, cc)
			continue
		}
		*out = append(*out, c)
	}
}
