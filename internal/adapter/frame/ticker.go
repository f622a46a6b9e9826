package frame

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/specviz/internal/ports"
)

// TickerScheduler runs scheduled callbacks at a fixed display rate on its own
// goroutine. Callbacks never run concurrently with each other.
type TickerScheduler struct {
	logger   *slog.Logger
	q        *queue
	interval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTickerScheduler starts a scheduler firing every interval (60 fps when interval <= 0).
// Close must be called to stop its goroutine.
func NewTickerScheduler(logger *slog.Logger, interval time.Duration) *TickerScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second / 60
	}

	s := &TickerScheduler{
		logger:   logger.With(slog.String("component", "frame-scheduler")),
		q:        newQueue(),
		interval: interval,
		stop:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.loop()

	s.logger.Debug("frame scheduler started", slog.Duration("interval", interval))
	return s
}

func (s *TickerScheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.q.run(now)
		}
	}
}

// RequestFrame schedules cb for the next tick.
func (s *TickerScheduler) RequestFrame(cb ports.FrameCallback) ports.FrameHandle {
	return s.q.request(cb)
}

// CancelFrame removes a scheduled callback.
func (s *TickerScheduler) CancelFrame(h ports.FrameHandle) {
	s.q.cancel(h)
}

// Pending returns the number of scheduled callbacks.
func (s *TickerScheduler) Pending() int {
	return s.q.len()
}

// Close stops the scheduler goroutine and waits for it to exit.
// Must not be called from inside a frame callback.
func (s *TickerScheduler) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
	return nil
}

var _ ports.FrameScheduler = (*TickerScheduler)(nil)
