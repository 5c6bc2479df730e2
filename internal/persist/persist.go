//go:build linux

// Package persist implements the asynchronous boundary to a helper that
// owns blueprint retry for devices that disappeared and need reopening.
// Here the helper runs as a goroutine rather than a separate process,
// communicating results back to the dispatch loop over a channel plus a
// self-pipe so it remains a poller.Source like any other.
package persist

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/evflow/evflow/internal/evdevio"
)

// OpenedDevice is the message the helper sends back once a blueprint's
// device node reappears and reopens successfully.
type OpenedDevice struct {
	Device    *evdevio.Device
	Blueprint evdevio.Blueprint
}

// Client is the dispatch loop's handle to the persistence helper.
type Client struct {
	mu      sync.Mutex
	pending []evdevio.Blueprint

	readFd, writeFd int
	results         chan OpenedDevice
	retry           chan struct{}
	done            chan struct{}
}

// NewClient starts the helper goroutine, retrying pending blueprints
// every interval, or immediately whenever RetryNow is called.
func NewClient(interval time.Duration) (*Client, error) {
	fds := [2]int{}
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, err
	}
	c := &Client{
		readFd: fds[0], writeFd: fds[1],
		results: make(chan OpenedDevice, 16),
		retry:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go c.loop(interval)
	return c, nil
}

// Fd implements poller.Source: the helper's self-pipe read end.
func (c *Client) Fd() int { return c.readFd }

// AddBlueprint queues a device for reopen attempts.
func (c *Client) AddBlueprint(bp evdevio.Blueprint) {
	c.mu.Lock()
	c.pending = append(c.pending, bp)
	c.mu.Unlock()
	c.RetryNow()
}

// RetryNow wakes the helper to try every pending blueprint immediately,
// used when the lazily-added inotify source reports device-directory
// activity.
func (c *Client) RetryNow() {
	select {
	case c.retry <- struct{}{}:
	default:
	}
}

// Shutdown stops the helper goroutine and closes the self-pipe.
func (c *Client) Shutdown() {
	close(c.done)
	_ = unix.Close(c.writeFd)
	_ = unix.Close(c.readFd)
}

// Drain returns every device opened since the last Drain call and
// consumes the self-pipe's wakeup byte.
func (c *Client) Drain() []OpenedDevice {
	buf := make([]byte, 64)
	for {
		n, err := unix.Read(c.readFd, buf)
		if n <= 0 || err != nil {
			break
		}
	}
	var out []OpenedDevice
	for {
		select {
		case od := <-c.results:
			out = append(out, od)
		default:
			return out
		}
	}
}

func (c *Client) loop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	attempt := func() {
		c.mu.Lock()
		remaining := c.pending[:0]
		opened := make([]OpenedDevice, 0)
		for _, bp := range c.pending {
			dev, err := bp.Open()
			if err != nil {
				remaining = append(remaining, bp)
				continue
			}
			opened = append(opened, OpenedDevice{Device: dev, Blueprint: bp})
		}
		c.pending = remaining
		c.mu.Unlock()
		for _, od := range opened {
			c.results <- od
			_, _ = unix.Write(c.writeFd, []byte{1})
		}
	}
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			attempt()
		case <-c.retry:
			attempt()
		}
	}
}
