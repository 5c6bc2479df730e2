package events

import "testing"

func TestBusDeliversToMatchingSubscriber(t *testing.T) {
	bus := New()
	got := make(chan DeviceBrokenEvent, 1)
	unsub := bus.Subscribe(func(e DeviceBrokenEvent) { got <- e })
	defer unsub()

	bus.Publish(DeviceBrokenEvent{Path: "/dev/input/event3", Domain: "kb1", Reason: "read error"})

	select {
	case e := <-got:
		if e.Path != "/dev/input/event3" {
			t.Fatalf("Path = %q, want /dev/input/event3", e.Path)
		}
	default:
		t.Fatal("subscriber did not receive published event")
	}
}

func TestBusIgnoresOtherEventTypes(t *testing.T) {
	bus := New()
	got := make(chan HookFiredEvent, 1)
	bus.Subscribe(func(e HookFiredEvent) { got <- e })

	bus.Publish(OutputRecreatedEvent{Name: "evflow output", Codes: 3})

	select {
	case <-got:
		t.Fatal("HookFiredEvent subscriber received an OutputRecreatedEvent")
	default:
	}
}

func TestBusPublishesHookFired(t *testing.T) {
	bus := New()
	got := make(chan HookFiredEvent, 1)
	bus.Subscribe(func(e HookFiredEvent) { got <- e })

	bus.Publish(HookFiredEvent{Argv: []string{"notify-send", "hello"}})

	select {
	case e := <-got:
		if len(e.Argv) != 2 {
			t.Fatalf("Argv = %v, want len 2", e.Argv)
		}
	default:
		t.Fatal("subscriber did not receive published event")
	}
}

func TestSubscribeUnrecognizedHandlerIsNoop(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(int) {})
	unsub() // must not panic
}
