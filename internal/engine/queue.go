package engine

import "sync"

// DefaultQueueCapacity bounds the edge event queue. Edges arriving
// while the queue is full are dropped rather than blocking the
// capture callback.
const DefaultQueueCapacity = 1024

// eventQueue is a bounded FIFO of strobe events.
//
// Single producer (the edge callback), single consumer (the worker).
// The producer side never blocks: TryEnqueue fails fast when the
// queue is full, because a lost edge is better than a stalled capture
// context.
//
// A buffered signal channel lets the consumer wait for availability
// without polling; the buffer of one coalesces bursts of signals.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	cap    int
	closed bool
	signal chan struct{}
}

func newEventQueue(capacity int) *eventQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &eventQueue{
		events: make([]Event, 0, capacity),
		cap:    capacity,
		signal: make(chan struct{}, 1),
	}
}

// TryEnqueue appends an event without blocking.
// Returns false if the queue is full or closed; the event is dropped.
func (q *eventQueue) TryEnqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || len(q.events) >= q.cap {
		return false
	}

	q.events = append(q.events, e)

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front event without blocking.
// Returns (Event{}, false) if the queue is empty.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]

	// Reset the slice when drained so the backing array is reused
	// instead of creeping forward.
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// Use with select alongside the cancellation context; always follow a
// wakeup with TryDequeue. The channel is closed when the queue closes.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending events.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops intake. Idempotent. Outstanding events are left in
// place; whether they are consumed is the caller's policy (the worker
// discards them on shutdown).
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
