//go:build linux

// Package dispatch implements the single-threaded cooperative loop that
// composes the poller, the stream pipeline, the input devices, the
// persistence interface, and signal handling, converting readiness into
// event and wake-up application.
package dispatch

import (
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/evdevio"
	"github.com/evflow/evflow/internal/events"
	"github.com/evflow/evflow/internal/everr"
	"github.com/evflow/evflow/internal/hookexec"
	"github.com/evflow/evflow/internal/persist"
	"github.com/evflow/evflow/internal/poller"
	"github.com/evflow/evflow/internal/stream"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

type sourceKind int

const (
	kindDevice sourceKind = iota
	kindSignal
	kindPersistence
	kindInotify
)

type source struct {
	kind    sourceKind
	device  *evdevio.Device
	signal  *SignalSource
	persist *persist.Client
	inotify *poller.Inotify
	reopen  bool
}

// Program owns every pollable resource and drives the dispatch loop.
type Program struct {
	poll      *poller.Poller
	setup     *stream.Setup
	sources   map[poller.FileIndex]*source
	supervisr *hookexec.Supervisor
	devDir    string
	log       *slog.Logger
	bus       *events.Bus

	persistIdx    poller.FileIndex
	hasPersist    bool
	inotifyIdx    poller.FileIndex
	hasInotify    bool
	retryInterval time.Duration
}

// NewProgram builds a Program around an already-wired Setup. devDir is
// the directory watched for device-reopen candidates once inotify is
// lazily added. bus may be nil; when set, device and reopen transitions
// are published to it for logging to observe off the hot path. supervisor
// must be the same Supervisor whose Spawn method was handed to the Setup
// as its stream.Spawner, so that SIGCHLD reaping and hook spawning stay
// on one accounting.
func NewProgram(setup *stream.Setup, devDir string, log *slog.Logger, bus *events.Bus, supervisor *hookexec.Supervisor) (*Program, error) {
	p, err := poller.New()
	if err != nil {
		return nil, everr.NewFatal(everr.Context(err, "creating poller"))
	}
	sig, err := NewSignalSource()
	if err != nil {
		return nil, everr.NewFatal(everr.Context(err, "creating signal source"))
	}
	prog := &Program{
		poll: p, setup: setup, sources: make(map[poller.FileIndex]*source),
		supervisr: supervisor, devDir: devDir, log: log, bus: bus,
		retryInterval: 2 * time.Second,
	}
	idx, err := p.Add(sig)
	if err != nil {
		return nil, everr.NewFatal(everr.Context(err, "registering signal source"))
	}
	prog.sources[idx] = &source{kind: kindSignal, signal: sig}
	return prog, nil
}

// AddDevice registers an opened input device. reopen marks it for
// blueprint-based reopening (PersistMode::Reopen) if it later breaks.
func (prog *Program) AddDevice(d *evdevio.Device, reopen bool) (poller.FileIndex, error) {
	idx, err := prog.poll.Add(d)
	if err != nil {
		return 0, everr.NewFatal(everr.Context(err, "registering device %s", d.Path()))
	}
	prog.sources[idx] = &source{kind: kindDevice, device: d, reopen: reopen}
	return idx, nil
}

func (prog *Program) ensurePersistence() error {
	if prog.hasPersist {
		return nil
	}
	c, err := persist.NewClient(prog.retryInterval)
	if err != nil {
		return everr.NewWarning(everr.Context(err, "starting persistence helper"))
	}
	idx, err := prog.poll.Add(c)
	if err != nil {
		return everr.NewWarning(everr.Context(err, "registering persistence helper"))
	}
	prog.sources[idx] = &source{kind: kindPersistence, persist: c}
	prog.persistIdx = idx
	prog.hasPersist = true
	return nil
}

func (prog *Program) ensureInotify() error {
	if prog.hasInotify {
		return nil
	}
	iw, err := poller.NewInotify()
	if err != nil {
		return everr.NewWarning(everr.Context(err, "creating inotify watcher"))
	}
	if _, err := iw.Watch(prog.devDir); err != nil {
		_ = iw.Close()
		return everr.NewWarning(everr.Context(err, "watching %s", prog.devDir))
	}
	idx, err := prog.poll.Add(iw)
	if err != nil {
		_ = iw.Close()
		return everr.NewWarning(everr.Context(err, "registering inotify watcher"))
	}
	prog.sources[idx] = &source{kind: kindInotify, inotify: iw}
	prog.inotifyIdx = idx
	prog.hasInotify = true
	return nil
}

// countInputDevices returns the exact number of currently registered
// input devices, used to decide whether the loop has run out of input
// sources and should exit.
func (prog *Program) countInputDevices() int {
	n := 0
	for _, s := range prog.sources {
		if s.kind == kindDevice {
			n++
		}
	}
	return n
}

// Run executes the dispatch loop until a termination signal arrives or
// every input device is gone.
func (prog *Program) Run() error {
	for {
		timeout := prog.setup.Loopback().TimeUntilNextWakeup()
		msgs, err := prog.poll.Poll(timeout)
		if err != nil {
			return everr.NewFatal(everr.Context(err, "polling"))
		}
		for _, m := range msgs {
			var exit bool
			switch m.Kind {
			case poller.Ready:
				exit = prog.onReady(m.Index)
			case poller.Broken:
				exit = prog.onBroken(m.Index)
			}
			if exit {
				prog.shutdown()
				return nil
			}
		}
		prog.wakeup()
	}
}

func (prog *Program) wakeup() {
	for {
		at, token, ok := prog.setup.Loopback().PollOnce()
		if !ok {
			return
		}
		if err := prog.setup.RunWakeup(token, at); err != nil {
			prog.log.Warn("routing wakeup output", "error", err)
		}
	}
}

func (prog *Program) onReady(idx poller.FileIndex) (exit bool) {
	src, ok := prog.sources[idx]
	if !ok {
		return false
	}
	switch src.kind {
	case kindDevice:
		events, err := src.device.ReadEvents()
		if err != nil {
			prog.log.Warn("device read failed", "path", src.device.Path(), "error", err)
			return prog.onBroken(idx)
		}
		for _, e := range events {
			if e.IsSyn() && e.Code == ecodes.SYN_REPORT {
				if err := prog.setup.Syn(); err != nil {
					prog.log.Warn("routing staged output", "error", err)
				}
				continue
			}
			prog.setup.RunEvent(e)
		}
		if err := src.device.GrabIfDesired(); err != nil {
			prog.log.Warn("grabbing input device", "path", src.device.Path(), "error", err)
		}
	case kindSignal:
		sig, err := src.signal.Read()
		if err != nil {
			prog.log.Warn("reading signalfd", "error", err)
			return false
		}
		switch sig {
		case unix.SIGTERM, unix.SIGINT, unix.SIGHUP:
			return true
		case unix.SIGCHLD:
			prog.supervisr.Reap()
		case unix.SIGPIPE:
			// a broken output pipe is reported through device breakage, not here
		}
	case kindPersistence:
		for _, od := range src.persist.Drain() {
			if err := od.Device.GrabIfDesired(); err != nil {
				prog.log.Warn("grabbing reopened input device", "path", od.Device.Path(), "error", err)
			}
			caps, err := od.Device.QueryCapabilities()
			if err != nil {
				prog.log.Warn("querying reopened device capabilities", "path", od.Device.Path(), "error", err)
			}
			newIdx, err := prog.AddDevice(od.Device, true)
			if err != nil {
				prog.log.Warn("re-registering reopened device", "path", od.Device.Path(), "error", err)
				continue
			}
			if err := prog.setup.UpdateInputCaps(od.Device.Domain(), caps); err != nil {
				prog.log.Warn("updating output capabilities", "error", err)
			}
			if prog.bus != nil {
				prog.bus.Publish(events.DeviceReopenedEvent{Path: od.Device.Path(), Domain: domain.Name(od.Device.Domain())})
			}
			_ = newIdx
		}
	case kindInotify:
		if _, err := src.inotify.Drain(); err != nil {
			prog.log.Warn("draining inotify", "error", err)
		}
		if prog.hasPersist {
			prog.sources[prog.persistIdx].persist.RetryNow()
		}
	}
	return false
}

func (prog *Program) onBroken(idx poller.FileIndex) (exit bool) {
	src, ok := prog.sources[idx]
	if !ok {
		return false
	}
	prog.poll.Remove(idx)
	delete(prog.sources, idx)

	if src.kind != kindDevice {
		return false
	}
	if prog.bus != nil {
		prog.bus.Publish(events.DeviceBrokenEvent{Path: src.device.Path(), Domain: domain.Name(src.device.Domain()), Reason: "read failure"})
	}
	if err := src.device.Ungrab(); err != nil {
		prog.log.Warn("ungrab on broken device", "path", src.device.Path(), "error", err)
	}
	if src.reopen {
		bp := src.device.Blueprint()
		_ = src.device.Close()
		if err := prog.ensureInotify(); err != nil {
			prog.log.Warn("lazy inotify init", "error", err)
		}
		if err := prog.ensurePersistence(); err != nil {
			prog.log.Warn("lazy persistence init", "error", err)
		} else {
			prog.sources[prog.persistIdx].persist.AddBlueprint(bp)
		}
	} else {
		_ = src.device.Close()
	}
	if prog.countInputDevices() == 0 {
		prog.log.Info("no input devices left to poll events from; exiting")
		return true
	}
	return false
}

func (prog *Program) shutdown() {
	for idx, src := range prog.sources {
		prog.poll.Remove(idx)
		delete(prog.sources, idx)
		switch src.kind {
		case kindDevice:
			_ = src.device.Ungrab()
			_ = src.device.Close()
		case kindSignal:
			_ = src.signal.Close()
		case kindPersistence:
			src.persist.Shutdown()
		case kindInotify:
			_ = src.inotify.Close()
		}
	}
	_ = prog.poll.Close()
}
