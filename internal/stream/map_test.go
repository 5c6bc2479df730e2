package stream

import (
	"testing"

	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

func keyEvent(code ecodes.EventCode, value int32, ns event.Namespace) event.Event {
	return event.New(ecodes.EV_KEY, code, value, 0, domain.None, ns)
}

func TestMapEntryRewritesMatchedEvent(t *testing.T) {
	codeB := ecodes.KEY_B
	m := &MapEntry{
		Match:   Predicate{Code: ptr(ecodes.KEY_A)},
		Actions: []MapAction{{SetCode: &codeB}},
	}
	var out []event.Event
	m.Apply([]event.Event{keyEvent(ecodes.KEY_A, 1, event.User)}, &out)
	if len(out) != 1 || out[0].Code != ecodes.KEY_B || out[0].Namespace != event.User {
		t.Fatalf("Apply result = %+v, want one KEY_B User event", out)
	}
}

func TestMapEntryPassesThroughNonMatching(t *testing.T) {
	m := &MapEntry{Match: Predicate{Code: ptr(ecodes.KEY_A)}}
	var out []event.Event
	in := keyEvent(ecodes.KEY_B, 1, event.User)
	m.Apply([]event.Event{in}, &out)
	if len(out) != 1 || out[0] != in {
		t.Fatalf("non-matching event should pass through unchanged, got %+v", out)
	}
}

func TestMapEntryIgnoresNonUserNamespace(t *testing.T) {
	codeB := ecodes.KEY_B
	m := &MapEntry{
		Match:   Predicate{Code: ptr(ecodes.KEY_A)},
		Actions: []MapAction{{SetCode: &codeB}},
	}
	var out []event.Event
	in := keyEvent(ecodes.KEY_A, 1, event.Input)
	m.Apply([]event.Event{in}, &out)
	if len(out) != 1 || out[0] != in {
		t.Fatalf("Input-namespace event should pass through unchanged, got %+v", out)
	}
}

func TestMapEntryZeroActionsFilters(t *testing.T) {
	m := &MapEntry{Match: Predicate{Code: ptr(ecodes.KEY_A)}}
	var out []event.Event
	m.Apply([]event.Event{keyEvent(ecodes.KEY_A, 1, event.User)}, &out)
	if len(out) != 0 {
		t.Fatalf("zero-action Map entry should drop matched events, got %+v", out)
	}
}

func TestMapActionYieldSetsYieldedNamespace(t *testing.T) {
	a := MapAction{Yield: true}
	out := a.apply(keyEvent(ecodes.KEY_A, 1, event.User))
	if out.Namespace != event.Yielded {
		t.Fatalf("Yield action namespace = %v, want Yielded", out.Namespace)
	}
}

func ptr[T any](v T) *T { return &v }
