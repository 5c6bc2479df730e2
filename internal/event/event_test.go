package event

import (
	"testing"

	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

func TestWithDomainLeavesOtherFieldsUnchanged(t *testing.T) {
	kb := domain.Intern("event-kb")
	mouse := domain.Intern("event-mouse")
	e := New(ecodes.EV_KEY, ecodes.KEY_A, 1, 0, kb, User)

	got := e.WithDomain(mouse)
	if got.Domain != mouse {
		t.Fatalf("WithDomain did not rewrite the domain, got %v", got.Domain)
	}
	if got.Type != e.Type || got.Code != e.Code || got.Value != e.Value || got.Namespace != e.Namespace {
		t.Fatalf("WithDomain changed an unrelated field: got %+v, want same as %+v except Domain", got, e)
	}
	if e.Domain != kb {
		t.Fatal("WithDomain mutated the receiver instead of returning a copy")
	}
}

func TestWithNamespaceLeavesOtherFieldsUnchanged(t *testing.T) {
	e := New(ecodes.EV_KEY, ecodes.KEY_A, 1, 0, domain.Intern("event-ns"), Input)
	got := e.WithNamespace(Output)
	if got.Namespace != Output {
		t.Fatalf("WithNamespace did not rewrite the namespace, got %v", got.Namespace)
	}
	if e.Namespace != Input {
		t.Fatal("WithNamespace mutated the receiver instead of returning a copy")
	}
}

func TestIsSynTrueOnlyForEvSyn(t *testing.T) {
	syn := New(ecodes.EV_SYN, ecodes.SYN_REPORT, 0, 0, domain.None, Output)
	if !syn.IsSyn() {
		t.Fatal("EV_SYN event should report IsSyn true")
	}
	key := New(ecodes.EV_KEY, ecodes.KEY_A, 1, 0, domain.None, User)
	if key.IsSyn() {
		t.Fatal("EV_KEY event should report IsSyn false")
	}
}

func TestNamespaceStringCoversEveryValue(t *testing.T) {
	cases := map[Namespace]string{Input: "Input", User: "User", Yielded: "Yielded", Output: "Output"}
	for ns, want := range cases {
		if got := ns.String(); got != want {
			t.Fatalf("%v.String() = %q, want %q", ns, got, want)
		}
	}
	if got := Namespace(99).String(); got == "" {
		t.Fatal("an unknown Namespace value should still render a non-empty string")
	}
}
