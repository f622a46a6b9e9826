package frame

import (
	"time"

	"github.com/tejashwikalptaru/specviz/internal/ports"
)

// ManualScheduler runs frames only when Step is called.
type ManualScheduler struct {
	q   *queue
	now time.Time
	dt  time.Duration
}

// NewManualScheduler creates a scheduler whose frame clock advances by 16ms per step.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{
		q:   newQueue(),
		now: time.Unix(0, 0),
		dt:  16 * time.Millisecond,
	}
}

// RequestFrame schedules cb for the next Step.
func (s *ManualScheduler) RequestFrame(cb ports.FrameCallback) ports.FrameHandle {
	return s.q.request(cb)
}

// CancelFrame removes a scheduled callback.
func (s *ManualScheduler) CancelFrame(h ports.FrameHandle) {
	s.q.cancel(h)
}

// Step runs one frame and returns how many callbacks were invoked.
func (s *ManualScheduler) Step() int {
	s.now = s.now.Add(s.dt)
	return s.q.run(s.now)
}

// StepN runs n frames and returns the total number of callbacks invoked.
func (s *ManualScheduler) StepN(n int) int {
	total := 0
	for range n {
		total += s.Step()
	}
	return total
}

// Pending returns the number of scheduled callbacks.
func (s *ManualScheduler) Pending() int {
	return s.q.len()
}

var _ ports.FrameScheduler = (*ManualScheduler)(nil)
