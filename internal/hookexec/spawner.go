//go:build linux

// Package hookexec implements the fire-and-forget subprocess side effect
// of a Hook stream entry, scaled down from a heavier process lifecycle
// manager to its essential shape: start and forget, reaping children
// only when SIGCHLD arrives rather than blocking a goroutine on Wait for
// each one.
package hookexec

import (
	"os/exec"
	"syscall"

	"github.com/evflow/evflow/internal/events"
)

// Supervisor spawns hook subprocesses and reaps their exit status.
type Supervisor struct {
	bus *events.Bus
}

// NewSupervisor returns a ready Supervisor. bus may be nil; when set,
// every spawn is published for logging to observe, off the stream
// pipeline's hot path.
func NewSupervisor(bus *events.Bus) *Supervisor { return &Supervisor{bus: bus} }

// Spawn starts argv[0] with the remaining elements as arguments, closing
// over none of the caller's file descriptors beyond what exec.Cmd wires
// by default, and does not wait for it to exit.
func (s *Supervisor) Spawn(argv []string) error {
	if len(argv) == 0 {
		return nil
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	err := cmd.Start()
	if err == nil && s.bus != nil {
		s.bus.Publish(events.HookFiredEvent{Argv: argv})
	}
	return err
}

// Reap collects every child that has already exited, preventing zombies
// from accumulating. Called from the dispatch loop when the blocked
// SIGCHLD signal is observed via the signalfd.
func (s *Supervisor) Reap() {
	for {
		var ws syscall.WaitStatus
		pid, err := syscall.Wait4(-1, &ws, syscall.WNOHANG, nil)
		if err != nil || pid <= 0 {
			return
		}
	}
}
