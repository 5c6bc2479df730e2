//go:build linux

package poller

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInotifyDrainReportsCreatedFile(t *testing.T) {
	dir := t.TempDir()
	iw, err := NewInotify()
	if err != nil {
		t.Fatalf("NewInotify: %v", err)
	}
	t.Cleanup(func() { iw.Close() })

	if _, err := iw.Watch(dir); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	target := filepath.Join(dir, "event9")
	if err := os.WriteFile(target, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var events []InotifyEvent
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := iw.Drain()
		if err != nil {
			t.Fatalf("Drain: %v", err)
		}
		events = append(events, got...)
		if len(events) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	found := false
	for _, e := range events {
		if e.Name == "event9" {
			found = true
		}
	}
	if !found {
		t.Fatalf("events = %+v, want one naming %q", events, "event9")
	}
}
