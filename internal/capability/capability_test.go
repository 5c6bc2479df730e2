package capability

import (
	"testing"

	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

func TestRangeContains(t *testing.T) {
	r := Range{Min: 0, Max: 10}
	if !r.Contains(5) {
		t.Fatal("Range{0,10}.Contains(5) = false")
	}
	if r.Contains(11) {
		t.Fatal("Range{0,10}.Contains(11) = true")
	}
}

func TestAggregateMergesAdjacentRanges(t *testing.T) {
	dom := domain.Intern("kb1")
	caps := []Capability{
		{Type: ecodes.EV_KEY, Code: ecodes.KEY_A, ValueRange: Range{Min: 0, Max: 0}, Domain: dom, Namespace: event.Output},
		{Type: ecodes.EV_KEY, Code: ecodes.KEY_A, ValueRange: Range{Min: 1, Max: 1}, Domain: dom, Namespace: event.Output},
	}
	out := Aggregate(caps)
	if len(out) != 1 {
		t.Fatalf("Aggregate produced %d capabilities, want 1", len(out))
	}
	if out[0].ValueRange != (Range{Min: 0, Max: 1}) {
		t.Fatalf("Aggregate merged range = %+v, want {0 1}", out[0].ValueRange)
	}
}

func TestAggregateKeepsDistinctCodesSeparate(t *testing.T) {
	dom := domain.Intern("kb1")
	caps := []Capability{
		{Type: ecodes.EV_KEY, Code: ecodes.KEY_A, ValueRange: FullRange, Domain: dom, Namespace: event.Output},
		{Type: ecodes.EV_KEY, Code: ecodes.KEY_B, ValueRange: FullRange, Domain: dom, Namespace: event.Output},
	}
	out := Aggregate(caps)
	if len(out) != 2 {
		t.Fatalf("Aggregate collapsed distinct codes: got %d, want 2", len(out))
	}
}

func TestDeviceCapabilitiesIsCompatibleSubset(t *testing.T) {
	old := NewDeviceCapabilities()
	old.Add(EventID{Type: ecodes.EV_KEY, Code: ecodes.KEY_A})
	old.Add(EventID{Type: ecodes.EV_KEY, Code: ecodes.KEY_B})

	next := NewDeviceCapabilities()
	next.Add(EventID{Type: ecodes.EV_KEY, Code: ecodes.KEY_A})

	if !next.IsCompatibleWith(old) {
		t.Fatal("subset of old capabilities should be compatible")
	}
}

func TestDeviceCapabilitiesIsNotCompatibleWhenWidened(t *testing.T) {
	old := NewDeviceCapabilities()
	old.Add(EventID{Type: ecodes.EV_KEY, Code: ecodes.KEY_A})

	next := NewDeviceCapabilities()
	next.Add(EventID{Type: ecodes.EV_KEY, Code: ecodes.KEY_A})
	next.Add(EventID{Type: ecodes.EV_KEY, Code: ecodes.KEY_B})

	if next.IsCompatibleWith(old) {
		t.Fatal("adding a new code should require recreation")
	}
}

func TestDeviceCapabilitiesAbsWideningRequiresRecreation(t *testing.T) {
	id := EventID{Type: ecodes.EV_ABS, Code: ecodes.ABS_X}
	old := NewDeviceCapabilities()
	old.Add(id)
	old.AbsInfo[id] = AbsInfo{Min: 0, Max: 100}

	next := NewDeviceCapabilities()
	next.Add(id)
	next.AbsInfo[id] = AbsInfo{Min: 0, Max: 200}

	if next.IsCompatibleWith(old) {
		t.Fatal("widened abs range should require recreation")
	}
}

func TestInputCapabilitiesToVecTagsNamespaceInput(t *testing.T) {
	dom := domain.Intern("kb1")
	dc := NewDeviceCapabilities()
	dc.Add(EventID{Type: ecodes.EV_KEY, Code: ecodes.KEY_A})
	ic := InputCapabilities{dom: dc}

	vec := ic.ToVec()
	if len(vec) != 1 {
		t.Fatalf("ToVec returned %d capabilities, want 1", len(vec))
	}
	if vec[0].Namespace != event.Input {
		t.Fatalf("ToVec namespace = %v, want Input", vec[0].Namespace)
	}
	if vec[0].Domain != dom {
		t.Fatalf("ToVec domain = %v, want %v", vec[0].Domain, dom)
	}
}
