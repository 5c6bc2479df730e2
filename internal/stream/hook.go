package stream

import (
	"time"

	"github.com/evflow/evflow/internal/capability"
	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/internal/loopback"
	"github.com/evflow/evflow/internal/state"
)

// Spawner fires a subprocess and forgets about it; HookEntry never waits
// on or inspects the result.
type Spawner func(argv []string)

// HookAction is one side effect a Hook entry runs on a chord transition:
// a subprocess invocation, a shared-state write, or both.
type HookAction struct {
	Exec     []string
	SetState string
	SetValue int
}

func (a HookAction) run(st *state.State, spawn Spawner) {
	if len(a.Exec) > 0 && spawn != nil {
		spawn(a.Exec)
	}
	if a.SetState != "" {
		st.Set(a.SetState, a.SetValue)
	}
}

// HookEntry pattern-matches a chord — a set of keys that must all be
// simultaneously down — and fires actions on press, release, and
// optionally on a long hold. It never drops or rewrites the events it
// observes; it only watches them, and passes every capability through
// unchanged.
type HookEntry struct {
	Keys      []Predicate
	OnPress   []HookAction
	OnRelease []HookAction
	HoldDelay time.Duration // zero disables long-hold detection
	OnHold    []HookAction
	Token     loopback.Token

	down     map[int]bool
	fired    bool
	hasToken bool
}

// NewHookEntry constructs a HookEntry with its chord-tracking state
// ready. token must be unique within the owning Setup's loopback.
func NewHookEntry(keys []Predicate, onPress, onRelease, onHold []HookAction, holdDelay time.Duration, token loopback.Token) *HookEntry {
	return &HookEntry{
		Keys: keys, OnPress: onPress, OnRelease: onRelease, OnHold: onHold,
		HoldDelay: holdDelay, Token: token, down: make(map[int]bool, len(keys)),
	}
}

func (h *HookEntry) allDown() bool {
	if len(h.down) < len(h.Keys) {
		return false
	}
	for i := range h.Keys {
		if !h.down[i] {
			return false
		}
	}
	return true
}

func (h *HookEntry) observe(e event.Event, st *state.State, lb *loopback.Handle, spawn Spawner) {
	matched := -1
	for i, p := range h.Keys {
		if p.Matches(e) {
			matched = i
			break
		}
	}
	if matched < 0 {
		return
	}
	h.down[matched] = e.Value != 0

	switch {
	case h.allDown() && !h.fired:
		h.fired = true
		for _, a := range h.OnPress {
			a.run(st, spawn)
		}
		if h.HoldDelay > 0 {
			h.hasToken = true
			lb.Schedule(h.HoldDelay, h.Token)
		}
	case !h.allDown() && h.fired:
		h.fired = false
		h.hasToken = false
		for _, a := range h.OnRelease {
			a.run(st, spawn)
		}
	}
}

// Apply implements the Hook stream entry's per-event transform: observe,
// then forward the event unchanged.
func (h *HookEntry) Apply(in []event.Event, out *[]event.Event, st *state.State, lb *loopback.Handle, spawn Spawner) {
	for _, e := range in {
		if e.Namespace != event.User {
			*out = append(*out, e)
			continue
		}
		h.observe(e, st, lb, spawn)
		*out = append(*out, e)
	}
}

// Wakeup fires the long-hold actions if the chord is still held when the
// scheduled token comes due.
func (h *HookEntry) Wakeup(token loopback.Token, st *state.State, spawn Spawner) {
	if !h.hasToken || token != h.Token {
		return
	}
	h.hasToken = false
	if h.fired {
		for _, a := range h.OnHold {
			a.run(st, spawn)
		}
	}
}

// ApplyCaps is the identity transform: Hook never rewrites a capability.
func (h *HookEntry) ApplyCaps(in []capability.Capability, out *[]capability.Capability) {
	*out = append(*out, in...)
}
