//go:build linux

package evdevio

import (
	"testing"

	"github.com/evflow/evflow/internal/domain"
)

func TestBlueprintCapturesPathAndDomain(t *testing.T) {
	dom := domain.Intern("evdevio-blueprint")
	d := &Device{path: "/dev/input/event7", domain: dom}

	bp := d.Blueprint()
	if bp.Path != "/dev/input/event7" || bp.Domain != dom {
		t.Fatalf("Blueprint() = %+v, want Path=/dev/input/event7 Domain=%v", bp, dom)
	}
}

func TestBlueprintOpenFailsOnMissingPath(t *testing.T) {
	bp := Blueprint{Path: "/dev/input/does-not-exist-evflow-test", Domain: domain.Intern("evdevio-missing")}
	if _, err := bp.Open(); err == nil {
		t.Fatal("expected an error opening a nonexistent device path")
	}
}
