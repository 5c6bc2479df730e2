package stream

import (
	"testing"
	"time"

	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/internal/loopback"
	"github.com/evflow/evflow/internal/state"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

func TestHookEntryFiresOnPressAndRelease(t *testing.T) {
	var pressed, released int
	spawnCount := func(n *int) Spawner { return func([]string) { *n++ } }

	h := NewHookEntry(
		[]Predicate{{Code: ptr(ecodes.KEY_LEFTCTRL)}, {Code: ptr(ecodes.KEY_A)}},
		[]HookAction{{Exec: []string{"true"}}},
		[]HookAction{{Exec: []string{"true"}}},
		nil, 0, loopback.Token(1),
	)
	st := state.New()
	lb := loopback.New()

	press := func(code ecodes.EventCode) {
		handle := lb.GetHandleLazy()
		var out []event.Event
		h.Apply([]event.Event{keyEvent(code, 1, event.User)}, &out, st, handle, spawnCount(&pressed))
	}
	release := func(code ecodes.EventCode) {
		handle := lb.GetHandleLazy()
		var out []event.Event
		h.Apply([]event.Event{keyEvent(code, 0, event.User)}, &out, st, handle, spawnCount(&released))
	}

	press(ecodes.KEY_LEFTCTRL)
	if pressed != 0 {
		t.Fatalf("OnPress fired before the full chord was down: pressed=%d", pressed)
	}
	press(ecodes.KEY_A)
	if pressed != 1 {
		t.Fatalf("OnPress did not fire once the full chord was down: pressed=%d", pressed)
	}
	press(ecodes.KEY_A)
	if pressed != 1 {
		t.Fatalf("OnPress re-fired on a repeat while the chord was already complete: pressed=%d", pressed)
	}
	release(ecodes.KEY_A)
	if released != 1 {
		t.Fatalf("OnRelease did not fire once the chord broke: released=%d", released)
	}
}

func TestHookEntryNeverMutatesEvents(t *testing.T) {
	h := NewHookEntry([]Predicate{{Code: ptr(ecodes.KEY_A)}}, nil, nil, nil, 0, loopback.Token(2))
	st := state.New()
	lb := loopback.New()
	in := keyEvent(ecodes.KEY_A, 1, event.User)
	var out []event.Event
	h.Apply([]event.Event{in}, &out, st, lb.GetHandleLazy(), nil)
	if len(out) != 1 || out[0] != in {
		t.Fatalf("Hook should pass every observed event through unchanged, got %+v", out)
	}
}

func TestHookEntryHoldFiresAfterDelay(t *testing.T) {
	var held int
	h := NewHookEntry(
		[]Predicate{{Code: ptr(ecodes.KEY_A)}},
		nil, nil,
		[]HookAction{{Exec: []string{"true"}}},
		50*time.Millisecond, loopback.Token(3),
	)
	st := state.New()
	lb := loopback.New()
	past := time.Now().Add(-time.Hour)

	var out []event.Event
	h.Apply([]event.Event{keyEvent(ecodes.KEY_A, 1, event.User)}, &out, st, lb.GetHandle(past), func([]string) { held++ })

	_, token, ok := lb.PollOnce()
	if !ok {
		t.Fatal("hold delay was not scheduled")
	}
	h.Wakeup(token, st, func([]string) { held++ })
	if held != 1 {
		t.Fatalf("OnHold fired %d times on Wakeup, want 1", held)
	}
}
