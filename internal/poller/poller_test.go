//go:build linux

package poller

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/evflow/evflow/internal/loopback"
)

type pipeSource struct{ fd int }

func (p pipeSource) Fd() int { return p.fd }

func newPipe(t *testing.T) (read, write int) {
	t.Helper()
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		t.Fatalf("Pipe2: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestPollerReportsReadyOnWrite(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	r, w := newPipe(t)
	idx, err := p.Add(pipeSource{fd: r})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := unix.Write(w, []byte{1}); err != nil {
		t.Fatalf("write: %v", err)
	}

	msgs, err := p.Poll(loopback.Delay{At: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Kind != Ready || msgs[0].Index != idx {
		t.Fatalf("msgs = %+v, want one Ready message for idx %d", msgs, idx)
	}
}

func TestPollerTimesOutWithNothingReady(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	r, _ := newPipe(t)
	if _, err := p.Add(pipeSource{fd: r}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	msgs, err := p.Poll(loopback.Delay{At: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("msgs = %+v, want none", msgs)
	}
}

func TestPollerRemoveStopsReporting(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	r, w := newPipe(t)
	idx, err := p.Add(pipeSource{fd: r})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, ok := p.Remove(idx); !ok {
		t.Fatal("Remove reported idx not found")
	}
	unix.Write(w, []byte{1})

	msgs, err := p.Poll(loopback.Delay{At: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("msgs after Remove = %+v, want none", msgs)
	}
}
