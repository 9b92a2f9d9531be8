/*
Package chat contains the connection/session core of the relay: the concurrent
user pool, per-user outbound queues, and the per-connection session state
machine.

This file implements Queue, the unbounded FIFO of server frames owned by one
user's session. Peer sessions push through producer handles obtained from the
pool; only the owning session consumes.
*/
package chat

import (
	"sync"

	"minichat/internal/frame"
)

// Queue is an unbounded multi-producer, single-consumer FIFO of server frames.
// Pushes never block, so pool critical sections that enqueue stay short.
type Queue struct {
	mu     sync.Mutex
	items  []frame.Server
	closed bool

	// wake is a one-slot doorbell for the single consumer.
	wake chan struct{}
}

// NewQueue returns an open, empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Push appends a frame in FIFO position. Pushing to a closed queue is a no-op:
// the consumer is gone and delivery is best-effort.
func (q *Queue) Push(f frame.Server) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, f)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Close marks the queue closed, discards anything still buffered, and wakes
// the consumer. Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Next blocks until a frame is available, the queue is closed, or stop is
// closed. It reports false once no more frames will be delivered. Frames
// buffered before stop closes are still drained in order.
func (q *Queue) Next(stop <-chan struct{}) (frame.Server, bool) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, false
		}
		if len(q.items) > 0 {
			f := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return f, true
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-stop:
			return nil, false
		}
	}
}
