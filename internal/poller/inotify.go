//go:build linux

package poller

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// inotifyEventHeaderSize is sizeof(struct inotify_event) before the
// variable-length name.
const inotifyEventHeaderSize = 16

// Inotify is the poller's optional, lazily-added source watching input
// device directories for reopen candidates. It deliberately does not
// use fsnotify: fsnotify hides
// its fd behind its own goroutine, which is incompatible with this
// module's single-threaded epoll-driven dispatch loop.
type Inotify struct {
	fd int
}

// NewInotify creates a non-blocking inotify instance.
func NewInotify() (*Inotify, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &Inotify{fd: fd}, nil
}

// Fd implements Source.
func (w *Inotify) Fd() int { return w.fd }

// Watch adds path to the watch list for create/move-in/attribute events
// — the signals a device node reappearing after reconnect produces.
func (w *Inotify) Watch(path string) (int32, error) {
	wd, err := unix.InotifyAddWatch(w.fd, path, unix.IN_CREATE|unix.IN_MOVED_TO|unix.IN_ATTRIB)
	return int32(wd), err
}

// Close releases the inotify fd.
func (w *Inotify) Close() error { return unix.Close(w.fd) }

// InotifyEvent is one decoded record from a Drain call.
type InotifyEvent struct {
	Watch int32
	Mask  uint32
	Name  string
}

// Drain reads every pending inotify event. Called once the fd reports
// readiness; the dispatch loop does not otherwise interpret the event
// beyond "something changed, ask the persistence interface to retry."
func (w *Inotify) Drain() ([]InotifyEvent, error) {
	buf := make([]byte, 4096)
	n, err := unix.Read(w.fd, buf)
	if err != nil {
		if err == unix.EAGAIN {
			return nil, nil
		}
		return nil, err
	}
	var out []InotifyEvent
	off := 0
	for off+inotifyEventHeaderSize <= n {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[off]))
		nameLen := int(raw.Len)
		name := ""
		if nameLen > 0 {
			nameBytes := buf[off+inotifyEventHeaderSize : off+inotifyEventHeaderSize+nameLen]
			end := 0
			for end < len(nameBytes) && nameBytes[end] != 0 {
				end++
			}
			name = string(nameBytes[:end])
		}
		out = append(out, InotifyEvent{Watch: raw.Wd, Mask: raw.Mask, Name: name})
		off += inotifyEventHeaderSize + nameLen
	}
	return out, nil
}
