//go:build linux

// Package poller implements a type-erased readiness multiplexer:
// epoll-backed, addressing each registered source by a stable FileIndex
// that is never reused within a session. Grounded in
// the direct-fd-indexed FastPoller pattern from the retrieval pack's
// eventloop package, simplified for this module's single-threaded
// cooperative dispatch loop (no concurrent access, so no locking).
package poller

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/evflow/evflow/internal/loopback"
)

// FileIndex addresses one registered pollable source.
type FileIndex uint64

// Source is anything the poller can watch for readiness.
type Source interface {
	Fd() int
}

// Kind distinguishes a readiness message from a failure message for the
// same source.
type Kind int

const (
	Ready Kind = iota
	Broken
)

// Message reports one source's readiness or terminal failure.
type Message struct {
	Kind  Kind
	Index FileIndex
}

// Poller is an epoll instance keyed by FileIndex.
type Poller struct {
	epfd      int
	sources   map[FileIndex]Source
	fdToIndex map[int]FileIndex
	nextIndex FileIndex
}

// New creates an epoll instance.
func New() (*Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Poller{
		epfd:      epfd,
		sources:   make(map[FileIndex]Source),
		fdToIndex: make(map[int]FileIndex),
	}, nil
}

// Close releases the epoll instance. It does not close registered
// sources; each source's fd is owned by whoever added it.
func (p *Poller) Close() error {
	return unix.Close(p.epfd)
}

// Add registers src for read readiness and returns its stable index.
func (p *Poller) Add(src Source) (FileIndex, error) {
	fd := src.Fd()
	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		return 0, err
	}
	idx := p.nextIndex
	p.nextIndex++
	p.sources[idx] = src
	p.fdToIndex[fd] = idx
	return idx, nil
}

// Remove unregisters the source at idx and returns it, if present.
func (p *Poller) Remove(idx FileIndex) (Source, bool) {
	src, ok := p.sources[idx]
	if !ok {
		return nil, false
	}
	_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, src.Fd(), nil)
	delete(p.sources, idx)
	delete(p.fdToIndex, src.Fd())
	return src, true
}

// GetMut returns the source registered at idx, if any.
func (p *Poller) GetMut(idx FileIndex) (Source, bool) {
	src, ok := p.sources[idx]
	return src, ok
}

const maxEvents = 64

// Poll blocks for readiness, up to timeout (Never means block
// indefinitely), and returns one Message per ready or broken source. A
// syscall interrupted by an unblocked signal yields an empty, non-error
// result rather than propagating EINTR.
func (p *Poller) Poll(timeout loopback.Delay) ([]Message, error) {
	ms := -1
	if !timeout.Never {
		ms = int(timeout.At / time.Millisecond)
		if ms < 0 {
			ms = 0
		}
	}
	var buf [maxEvents]unix.EpollEvent
	n, err := unix.EpollWait(p.epfd, buf[:], ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	msgs := make([]Message, 0, n)
	for i := 0; i < n; i++ {
		fd := int(buf[i].Fd)
		idx, ok := p.fdToIndex[fd]
		if !ok {
			continue
		}
		if buf[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			msgs = append(msgs, Message{Kind: Broken, Index: idx})
			continue
		}
		msgs = append(msgs, Message{Kind: Ready, Index: idx})
	}
	return msgs, nil
}
