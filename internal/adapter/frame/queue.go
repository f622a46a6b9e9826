// Package frame provides FrameScheduler implementations: a ticker driven one for
// the running application and a manually stepped one for tests.
package frame

import (
	"sync"
	"time"

	"github.com/tejashwikalptaru/specviz/internal/ports"
)

// queue holds the callbacks requested for the next frame.
type queue struct {
	mu      sync.Mutex
	next    ports.FrameHandle
	order   []ports.FrameHandle
	pending map[ports.FrameHandle]ports.FrameCallback
}

func newQueue() *queue {
	return &queue{pending: make(map[ports.FrameHandle]ports.FrameCallback)}
}

func (q *queue) request(cb ports.FrameCallback) ports.FrameHandle {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.next++
	q.pending[q.next] = cb
	q.order = append(q.order, q.next)
	return q.next
}

func (q *queue) cancel(h ports.FrameHandle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, h)
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// run invokes the callbacks that were pending when it was called, in request order.
// Callbacks requested meanwhile wait for the next run; callbacks cancelled before
// their turn are skipped. The lock is never held while a callback runs.
func (q *queue) run(now time.Time) int {
	q.mu.Lock()
	batch := q.order
	q.order = nil
	q.mu.Unlock()

	ran := 0
	for _, h := range batch {
		q.mu.Lock()
		cb, ok := q.pending[h]
		delete(q.pending, h)
		q.mu.Unlock()

		if !ok {
			continue
		}
		cb(now)
		ran++
	}
	return ran
}
