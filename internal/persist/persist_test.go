//go:build linux

package persist

import (
	"testing"
	"time"

	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/evdevio"
)

func TestClientDrainsEmptyWithNothingOpened(t *testing.T) {
	c, err := NewClient(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(c.Shutdown)

	if got := c.Drain(); len(got) != 0 {
		t.Fatalf("Drain on a fresh client = %+v, want none", got)
	}
}

func TestClientRetriesMissingBlueprintWithoutPanicking(t *testing.T) {
	c, err := NewClient(20 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(c.Shutdown)

	c.AddBlueprint(evdevio.Blueprint{Path: "/dev/input/does-not-exist-evflow-test", Domain: domain.Intern("persist-missing")})
	time.Sleep(60 * time.Millisecond)

	if got := c.Drain(); len(got) != 0 {
		t.Fatalf("Drain for a permanently missing device = %+v, want none", got)
	}
}
