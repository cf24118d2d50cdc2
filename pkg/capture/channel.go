package capture

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
)

// Policy - what producer does when the channel is full
type Policy byte

const (
	Block Policy = iota
	DropOldest
)

func (p Policy) String() string {
	switch p {
	case Block:
		return "block"
	case DropOldest:
		return "drop_oldest"
	}
	return "unknown"
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "drop_oldest", "drop":
		return DropOldest, nil
	case "block":
		return Block, nil
	}
	return 0, errors.New("capture: wrong queue policy: " + s)
}

const (
	DefaultQueueSize = 2
	MaxQueueSize     = 16
)

// Channel - bounded FIFO from one producer to one consumer
type Channel struct {
	queue  chan *Frame
	stop   chan struct{}
	policy Policy

	closeOnce sync.Once
	stopOnce  sync.Once
	mu        sync.Mutex // serialize Send and Close

	closed  bool
	sent    atomic.Uint64
	dropped atomic.Uint64
}

func NewChannel(size int, policy Policy) *Channel {
	if size <= 0 {
		size = DefaultQueueSize
	} else if size > MaxQueueSize {
		size = MaxQueueSize
	}
	return &Channel{
		queue:  make(chan *Frame, size),
		stop:   make(chan struct{}),
		policy: policy,
	}
}

// Send - false if the channel is closed or stopped, frame is not delivered then
func (c *Channel) Send(frame *Frame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case <-c.stop:
		return false
	default:
	}

	if c.policy == Block {
		select {
		case c.queue <- frame:
			c.sent.Add(1)
			return true
		case <-c.stop:
			return false
		}
	}

	for {
		select {
		case c.queue <- frame:
			c.sent.Add(1)
			return true
		default:
		}

		// consumer may take the oldest frame first, so no drop then
		select {
		case <-c.queue:
			c.dropped.Add(1)
		default:
		}
	}
}

// Recv - block until frame or end of stream (ok is false)
func (c *Channel) Recv() (frame *Frame, ok bool) {
	frame, ok = <-c.queue
	return
}

// Close - producer side end of stream, queued frames are still delivered
func (c *Channel) Close() {
	c.Stop()
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.queue)
		c.mu.Unlock()
	})
}

// Stop - release producer blocked in Send, doesn't close the channel
func (c *Channel) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Channel) Len() int {
	return len(c.queue)
}

func (c *Channel) Cap() int {
	return cap(c.queue)
}

func (c *Channel) Policy() Policy {
	return c.policy
}

func (c *Channel) Sent() uint64 {
	return c.sent.Load()
}

func (c *Channel) Dropped() uint64 {
	return c.dropped.Load()
}
