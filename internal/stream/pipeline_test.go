package stream

import (
	"testing"

	"github.com/evflow/evflow/internal/capability"
	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

type fakeRouter struct {
	routed   [][]event.Event
	lastCaps []capability.Capability
}

func (f *fakeRouter) Route(events []event.Event) error {
	f.routed = append(f.routed, events)
	return nil
}

func (f *fakeRouter) UpdateCaps(caps []capability.Capability) error {
	f.lastCaps = caps
	return nil
}

func TestNewSetupPromotesSourceDomainThroughToOutput(t *testing.T) {
	kb := domain.Intern("pipeline-kb")
	router := &fakeRouter{}
	caps := capability.InputCapabilities{kb: capability.NewDeviceCapabilities()}

	setup := NewSetup(nil, caps, nil, router, nil)
	setup.RunEvent(event.New(ecodes.EV_KEY, ecodes.KEY_A, 1, 0, kb, event.Input))
	if err := setup.Syn(); err != nil {
		t.Fatalf("Syn returned error: %v", err)
	}

	if len(router.routed) != 1 || len(router.routed[0]) != 1 {
		t.Fatalf("routed = %+v, want one report of one event", router.routed)
	}
	if router.routed[0][0].Namespace != event.Output {
		t.Fatalf("routed event namespace = %v, want Output", router.routed[0][0].Namespace)
	}
}

func TestNewSetupOutputGateRestrictsDomains(t *testing.T) {
	kb := domain.Intern("pipeline-kb-restricted")
	other := domain.Intern("pipeline-not-allowed")
	router := &fakeRouter{}
	caps := capability.InputCapabilities{
		kb:    capability.NewDeviceCapabilities(),
		other: capability.NewDeviceCapabilities(),
	}

	setup := NewSetup(nil, caps, []domain.Domain{kb}, router, nil)
	setup.RunEvent(event.New(ecodes.EV_KEY, ecodes.KEY_A, 1, 0, other, event.Input))
	setup.Syn()

	if len(router.routed) != 0 {
		t.Fatalf("event from a domain outside outputDomains should never reach the router, got %+v", router.routed)
	}
}

func TestSynNoOpWhenNothingStaged(t *testing.T) {
	router := &fakeRouter{}
	setup := NewSetup(nil, nil, nil, router, nil)
	if err := setup.Syn(); err != nil {
		t.Fatalf("Syn on empty stage returned error: %v", err)
	}
	if len(router.routed) != 0 {
		t.Fatalf("Syn with nothing staged should not call Route, got %+v", router.routed)
	}
}

func TestUpdateInputCapsPushesRunCapsToRouter(t *testing.T) {
	kb := domain.Intern("pipeline-caps-kb")
	router := &fakeRouter{}
	setup := NewSetup(nil, nil, nil, router, nil)

	dc := capability.NewDeviceCapabilities()
	dc.Add(capability.EventID{Type: ecodes.EV_KEY, Code: ecodes.KEY_A})
	if err := setup.UpdateInputCaps(kb, dc); err != nil {
		t.Fatalf("UpdateInputCaps returned error: %v", err)
	}

	if len(router.lastCaps) != 1 {
		t.Fatalf("router.lastCaps = %+v, want the single KEY_A capability surfaced", router.lastCaps)
	}
	if router.lastCaps[0].Namespace != event.Output {
		t.Fatalf("surfaced capability namespace = %v, want Output (RunCaps filters to Output)", router.lastCaps[0].Namespace)
	}
}

func TestRunWakeupDrainsDelayEntryAndSyns(t *testing.T) {
	kb := domain.Intern("pipeline-delay-kb")
	router := &fakeRouter{}
	caps := capability.InputCapabilities{kb: capability.NewDeviceCapabilities()}

	tokens := &TokenAllocator{}
	delayEntry := NewDelayEntry(Predicate{Code: ptr(ecodes.KEY_A)}, 0, tokens.Next())
	setup := NewSetup([]Entry{NewDelay(delayEntry)}, caps, nil, router, nil)

	setup.RunEvent(event.New(ecodes.EV_KEY, ecodes.KEY_A, 1, 0, kb, event.Input))
	if len(router.routed) != 0 {
		t.Fatalf("delayed event should not route before its wakeup fires, got %+v", router.routed)
	}

	at, token, ok := setup.Loopback().PollOnce()
	if !ok {
		t.Fatal("delay did not schedule a wakeup")
	}
	if err := setup.RunWakeup(token, at); err != nil {
		t.Fatalf("RunWakeup returned error: %v", err)
	}
	if len(router.routed) != 1 || len(router.routed[0]) != 1 {
		t.Fatalf("routed after wakeup = %+v, want one report of one event", router.routed)
	}
}
