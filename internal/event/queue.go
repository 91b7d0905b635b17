package event

import (
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Emit after the bus has been stopped.
var ErrQueueClosed = errors.New("event queue closed")

// priorityQueue holds one FIFO tier per priority level. Dequeue always
// drains the lowest-numbered non-empty tier, so critical events
// pre-empt background work between events.
//
// The signal channel carries at most one pending wakeup; a consumer
// that finds nothing via TryDequeue blocks on Wait until the next
// enqueue or close.
type priorityQueue struct {
	mu     sync.Mutex
	tiers  [numPriorities][]Event
	signal chan struct{}
	closed bool
}

func newPriorityQueue() *priorityQueue {
	return &priorityQueue{signal: make(chan struct{}, 1)}
}

// Enqueue appends the event to its priority tier and wakes the
// consumer.
func (q *priorityQueue) Enqueue(e Event) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.tiers[e.Priority] = append(q.tiers[e.Priority], e)
	q.mu.Unlock()

	q.wake()
	return nil
}

// TryDequeue pops the head of the highest-priority non-empty tier.
func (q *priorityQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.tiers {
		if len(q.tiers[i]) == 0 {
			continue
		}
		e := q.tiers[i][0]
		q.tiers[i] = q.tiers[i][1:]
		return e, true
	}
	return Event{}, false
}

// Wait returns the wakeup channel. A receive means new work may be
// available or the queue has closed; callers must loop on TryDequeue.
func (q *priorityQueue) Wait() <-chan struct{} {
	return q.signal
}

// Close marks the queue closed and wakes the consumer so it can drain
// the remaining events and exit.
func (q *priorityQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

// Drained reports whether the queue is closed with no events left.
func (q *priorityQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		return false
	}
	for i := range q.tiers {
		if len(q.tiers[i]) > 0 {
			return false
		}
	}
	return true
}

// Len returns the total queued event count.
func (q *priorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for i := range q.tiers {
		n += len(q.tiers[i])
	}
	return n
}

// Lens returns the per-tier queued counts.
func (q *priorityQueue) Lens() [numPriorities]int {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out [numPriorities]int
	for i := range q.tiers {
		out[i] = len(q.tiers[i])
	}
	return out
}

func (q *priorityQueue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
