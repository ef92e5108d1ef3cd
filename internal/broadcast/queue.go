package broadcast

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bobthearsonist/meeting-coach/internal/event"
	"github.com/bobthearsonist/meeting-coach/internal/metrics"
)

const defaultQueueCapacity = 256

// Queue is the handoff point between blocking producer goroutines and the
// hub's event loop. Enqueue never blocks the caller beyond a negligible
// bound: when the buffer is full the oldest pending event is dropped to
// admit the new one, since the newest snapshot of a live stream is worth
// more than a stale one.
type Queue struct {
	ch    chan event.Event
	clock clockwork.Clock

	mu        sync.Mutex
	lastStamp time.Time
}

// NewQueue creates a queue with the given capacity (values < 1 use the
// default of 256).
func NewQueue(capacity int, clock clockwork.Clock) *Queue {
	if capacity < 1 {
		capacity = defaultQueueCapacity
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Queue{
		ch:    make(chan event.Event, capacity),
		clock: clock,
	}
}

// Enqueue stamps the event and hands it to the hub. Safe to call from any
// goroutine. The lock covers the channel send so stamps are non-decreasing
// in channel order even with concurrent producers or a wall clock stepping
// backwards; the send never blocks, so the critical section stays short.
func (q *Queue) Enqueue(ev event.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()
	if now.Before(q.lastStamp) {
		now = q.lastStamp
	}
	q.lastStamp = now
	ev.Stamp(now)

	for {
		select {
		case q.ch <- ev:
			metrics.QueueEnqueuedTotal.Inc()
			metrics.QueueDepth.Set(float64(len(q.ch)))
			return
		default:
		}
		// Full: drop the oldest pending event and retry.
		select {
		case <-q.ch:
			metrics.QueueDroppedTotal.Inc()
		default:
		}
	}
}

// Events exposes the drain side of the queue to the hub loop.
func (q *Queue) Events() <-chan event.Event {
	return q.ch
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	return len(q.ch)
}
