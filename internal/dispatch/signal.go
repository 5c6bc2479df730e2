//go:build linux

package dispatch

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// SignalSource delivers SIGTERM/SIGINT/SIGHUP/SIGPIPE/SIGCHLD as
// readiness on a signalfd: these signals are blocked at process scope
// so a blocking epoll_wait is never interrupted by them;
// they are only observed by reading this fd once the poller reports it
// ready. Must be constructed on the main OS thread before any other
// goroutine unblocks these signals for itself.
type SignalSource struct {
	fd int
}

func addSignal(set *unix.Sigset_t, sig unix.Signal) {
	idx := (sig - 1) / 64
	bit := uint((sig - 1) % 64)
	set.Val[idx] |= 1 << bit
}

// NewSignalSource blocks the handled signals and opens a signalfd over
// them.
func NewSignalSource() (*SignalSource, error) {
	var set unix.Sigset_t
	for _, sig := range []unix.Signal{unix.SIGTERM, unix.SIGINT, unix.SIGHUP, unix.SIGPIPE, unix.SIGCHLD} {
		addSignal(&set, sig)
	}
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &set, nil); err != nil {
		return nil, err
	}
	fd, err := unix.Signalfd(-1, &set, unix.SFD_NONBLOCK|unix.SFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &SignalSource{fd: fd}, nil
}

// Fd implements poller.Source.
func (s *SignalSource) Fd() int { return s.fd }

// Read consumes one pending signal, or returns 0 if none is pending.
func (s *SignalSource) Read() (unix.Signal, error) {
	var info unix.SignalfdSiginfo
	buf := (*[unsafe.Sizeof(info)]byte)(unsafe.Pointer(&info))[:]
	n, err := unix.Read(s.fd, buf)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return unix.Signal(info.Signo), nil
}

// Close releases the signalfd.
func (s *SignalSource) Close() error { return unix.Close(s.fd) }
