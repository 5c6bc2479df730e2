package stream

import (
	"testing"

	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/internal/state"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

func TestToggleEntryRoutesThroughActiveBranch(t *testing.T) {
	codeB, codeC := ecodes.KEY_B, ecodes.KEY_C
	tg := &ToggleEntry{
		Name:  "layer",
		Match: Predicate{Code: ptr(ecodes.KEY_A)},
		Branches: [][]MapAction{
			{{SetCode: &codeB}},
			{{SetCode: &codeC}},
		},
	}
	st := state.New()
	st.Set("layer", 1)

	var out []event.Event
	tg.Apply([]event.Event{keyEvent(ecodes.KEY_A, 1, event.User)}, &out, st)
	if len(out) != 1 || out[0].Code != ecodes.KEY_C {
		t.Fatalf("Apply with active=1 = %+v, want one KEY_C event", out)
	}
}

func TestToggleEntryOutOfRangeActivePassesThrough(t *testing.T) {
	codeB := ecodes.KEY_B
	tg := &ToggleEntry{
		Name:     "layer",
		Match:    Predicate{Code: ptr(ecodes.KEY_A)},
		Branches: [][]MapAction{{{SetCode: &codeB}}},
	}
	st := state.New()
	st.Set("layer", 5) // no branch 5

	var out []event.Event
	in := keyEvent(ecodes.KEY_A, 1, event.User)
	tg.Apply([]event.Event{in}, &out, st)
	if len(out) != 1 || out[0] != in {
		t.Fatalf("out-of-range active branch should pass event through unchanged, got %+v", out)
	}
}
