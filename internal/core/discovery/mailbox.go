package discovery

import (
	"context"
	"sync"
	"time"

	"netaudit/internal/domain"
)

// Message is one discovery protocol message
type Message struct {
	From string
	Type domain.MessageType
}

// Mailbox is an unbounded FIFO queue with many senders and one receiver.
// Send never blocks.
type Mailbox struct {
	mu     sync.Mutex
	queue  []Message
	notify chan struct{} // capacity 1, coalesces wakeups
}

// NewMailbox creates an empty mailbox
func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Send enqueues a message and wakes the receiver if it is waiting
func (m *Mailbox) Send(msg Message) {
	m.mu.Lock()
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Receive dequeues the oldest message, waiting at most timeout for one to
// arrive. It returns false on timeout or context cancellation.
func (m *Mailbox) Receive(ctx context.Context, timeout time.Duration) (Message, bool) {
	if msg, ok := m.pop(); ok {
		return msg, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-m.notify:
			if msg, ok := m.pop(); ok {
				return msg, true
			}
		case <-timer.C:
			return m.pop()
		case <-ctx.Done():
			return Message{}, false
		}
	}
}

// Len returns the number of queued messages
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Mailbox) pop() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return Message{}, false
	}
	msg := m.queue[0]
	m.queue[0] = Message{}
	m.queue = m.queue[1:]
	return msg, true
}

// Registry maps router names to their mailboxes. It is built before any
// worker starts and never modified afterwards.
type Registry struct {
	boxes map[string]*Mailbox
}

// NewRegistry creates one mailbox per name
func NewRegistry(names []string) *Registry {
	boxes := make(map[string]*Mailbox, len(names))
	for _, n := range names {
		boxes[n] = NewMailbox()
	}
	return &Registry{boxes: boxes}
}

// Lookup returns the mailbox of a router
func (r *Registry) Lookup(name string) (*Mailbox, bool) {
	box, ok := r.boxes[name]
	return box, ok
}

// Len returns the number of registered mailboxes
func (r *Registry) Len() int {
	return len(r.boxes)
}
