package stream

import (
	"testing"

	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

func TestMergeEntryTagsTargetDomain(t *testing.T) {
	kb1, kb2, logical := domain.Intern("kb1"), domain.Intern("kb2"), domain.Intern("keyboard")
	m := NewMergeEntry(Predicate{Code: ptr(ecodes.KEY_A)}, []domain.Domain{kb1, kb2}, logical)

	var out []event.Event
	e := event.New(ecodes.EV_KEY, ecodes.KEY_A, 1, 0, kb1, event.User)
	m.Apply([]event.Event{e}, &out)
	if len(out) != 1 || out[0].Domain != logical {
		t.Fatalf("Apply result = %+v, want domain rewritten to %v", out, logical)
	}
}

func TestMergeEntryDropsStaleReleaseFromNonActiveSource(t *testing.T) {
	kb1, kb2, logical := domain.Intern("kb1-merge"), domain.Intern("kb2-merge"), domain.Intern("keyboard-merge")
	m := NewMergeEntry(Predicate{Code: ptr(ecodes.KEY_A)}, []domain.Domain{kb1, kb2}, logical)

	var out []event.Event
	press := event.New(ecodes.EV_KEY, ecodes.KEY_A, 1, 0, kb1, event.User)
	m.Apply([]event.Event{press}, &out)

	staleRelease := event.New(ecodes.EV_KEY, ecodes.KEY_A, 0, 1, kb2, event.User)
	out = out[:0]
	m.Apply([]event.Event{staleRelease}, &out)
	if len(out) != 0 {
		t.Fatalf("stale release from non-tracked source should be dropped, got %+v", out)
	}
}

func TestMergeEntryPassesUnmatchedDomainThrough(t *testing.T) {
	kb1, logical := domain.Intern("kb1-other"), domain.Intern("keyboard-other")
	other := domain.Intern("not-a-source")
	m := NewMergeEntry(Predicate{Code: ptr(ecodes.KEY_A)}, []domain.Domain{kb1}, logical)

	var out []event.Event
	e := event.New(ecodes.EV_KEY, ecodes.KEY_A, 1, 0, other, event.User)
	m.Apply([]event.Event{e}, &out)
	if len(out) != 1 || out[0] != e {
		t.Fatalf("event from a source outside Domains should pass through unchanged, got %+v", out)
	}
}
