package link

import "sync"

// Queue is an unbounded, order-preserving event queue for driver
// implementations. Push never blocks, so drivers can emit events from inside
// Connect or Disconnect even when those are called from the dispatcher
// goroutine that drains the queue.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Event
	closed bool

	out  chan Event
	done chan struct{}
}

// NewQueue creates a queue and starts its pump goroutine.
func NewQueue() *Queue {
	q := &Queue{
		out:  make(chan Event),
		done: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.pump()
	return q
}

// Push appends an event. Events pushed after Close are dropped.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, ev)
	q.cond.Signal()
}

// C returns the receive side of the queue.
func (q *Queue) C() <-chan Event {
	return q.out
}

// Len returns the number of events not yet received.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops the pump and closes the output channel. Pending events are
// discarded.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.items = nil
	q.cond.Broadcast()
	q.mu.Unlock()

	close(q.done)
}

func (q *Queue) pump() {
	defer close(q.out)
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		ev := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		select {
		case q.out <- ev:
		case <-q.done:
			return
		}
	}
}
