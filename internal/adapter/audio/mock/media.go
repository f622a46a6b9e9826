// Package mock provides silent implementations of the audio ports.
// They are used by the service tests and by the application when no output
// device is available.
package mock

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/ports"
)

// DefaultDuration is the length reported for sources without a configured duration.
const DefaultDuration = 180.0

var playableExt = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// Media is a mock implementation of the MediaElement interface.
// It keeps a virtual clock instead of decoding anything. Signals are only
// published by the Emit helpers, SimulateProgress or the optional clock goroutine.
//
// Thread-safety: This implementation is thread-safe.
type Media struct {
	logger *slog.Logger
	bus    ports.EventBus

	mu        sync.RWMutex
	source    domain.SourceHandle
	loaded    bool
	paused    bool
	current   float64
	duration  float64
	durations map[string]float64

	// Call counters for assertions
	loads, plays, pauses, seeks, unloads int

	// Behavior configuration (for testing error scenarios)
	failLoad bool
	failPlay bool
	rejected map[string]bool

	stop    chan struct{}
	clockWg sync.WaitGroup
	ticking bool
}

// NewMedia creates a mock media element publishing on bus (which may be nil).
func NewMedia(logger *slog.Logger, bus ports.EventBus) *Media {
	if logger == nil {
		logger = slog.Default()
	}

	return &Media{
		logger:    logger.With(slog.String("component", "mock-media")),
		bus:       bus,
		paused:    true,
		durations: make(map[string]float64),
		rejected:  make(map[string]bool),
	}
}

// SetDuration configures the duration reported when path is loaded.
func (m *Media) SetDuration(path string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[path] = seconds
}

// SetFailLoad configures the mock to fail loading sources (for testing).
func (m *Media) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Media) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// RejectMIME makes CanPlay refuse sources of the given MIME type, like a backend
// without a decoder for it.
func (m *Media) RejectMIME(mime string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[mime] = true
}

// CanPlay accepts non-empty sources with a common audio extension or an audio MIME type.
func (m *Media) CanPlay(source domain.SourceHandle) bool {
	if source.IsZero() {
		return false
	}

	m.mu.RLock()
	rejected := m.rejected[source.MIMEType]
	m.mu.RUnlock()
	if rejected {
		return false
	}
	return playableExt[source.Ext()] || strings.HasPrefix(source.MIMEType, "audio/")
}

// Load replaces the current source, paused at position 0.
func (m *Media) Load(source domain.SourceHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loads++
	if m.failLoad {
		m.loaded = false
		return domain.NewAudioEngineError("load", source.Path, "mock load failure", domain.ErrUnsupportedFormat)
	}

	duration, ok := m.durations[source.Path]
	if !ok {
		duration = DefaultDuration
	}

	m.source = source
	m.loaded = true
	m.paused = true
	m.current = 0
	m.duration = duration

	return nil
}

// Unload releases the current source.
func (m *Media) Unload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unloads++
	m.source = domain.SourceHandle{}
	m.loaded = false
	m.paused = true
	m.current = 0
	m.duration = 0
	return nil
}

// Play starts or resumes the virtual clock.
func (m *Media) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.plays++
	if m.failPlay {
		return domain.NewAudioEngineError("play", m.source.Path, "mock play failure", domain.ErrPlaybackFailed)
	}
	if !m.loaded {
		return domain.ErrNoTrackLoaded
	}

	// Playing from the end restarts
	if m.current >= m.duration {
		m.current = 0
	}
	m.paused = false
	return nil
}

// Pause stops the virtual clock.
func (m *Media) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pauses++
	m.paused = true
	return nil
}

// Paused reports whether the clock is stopped.
func (m *Media) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Seek moves the clock, clamped to [0, duration].
func (m *Media) Seek(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seeks++
	if !m.loaded {
		return domain.ErrNoTrackLoaded
	}
	m.current = min(max(seconds, 0), m.duration)
	return nil
}

// CurrentTime returns the clock position.
func (m *Media) CurrentTime() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Duration returns the duration of the loaded source.
func (m *Media) Duration() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.duration
}

// Source returns the loaded source.
func (m *Media) Source() domain.SourceHandle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.source
}

// Calls returns the number of Load, Play, Pause and Seek calls so far.
func (m *Media) Calls() (loads, plays, pauses, seeks int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads, m.plays, m.pauses, m.seeks
}

// Unloads returns the number of Unload calls so far.
func (m *Media) Unloads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.unloads
}

// EmitReady publishes a ready signal for the loaded source.
func (m *Media) EmitReady() {
	m.mu.RLock()
	path, duration := m.source.Path, m.duration
	m.mu.RUnlock()

	m.publish(domain.NewMediaReadyEvent(path, duration))
}

// EmitTimeUpdate publishes a time update for the loaded source.
func (m *Media) EmitTimeUpdate() {
	m.mu.RLock()
	path, current := m.source.Path, m.current
	m.mu.RUnlock()

	m.publish(domain.NewMediaTimeUpdateEvent(path, current))
}

// EmitEnded moves the clock to the end and publishes an ended signal.
func (m *Media) EmitEnded() {
	m.mu.Lock()
	m.current = m.duration
	m.paused = true
	path := m.source.Path
	m.mu.Unlock()

	m.publish(domain.NewMediaEndedEvent(path))
}

// SimulateProgress advances a playing clock by delta and publishes the matching
// signals: a time update, and an ended signal when the end is reached.
func (m *Media) SimulateProgress(delta time.Duration) {
	m.mu.Lock()
	if !m.loaded || m.paused {
		m.mu.Unlock()
		return
	}
	m.current = min(m.current+delta.Seconds(), m.duration)
	ended := m.current >= m.duration
	path, current := m.source.Path, m.current
	if ended {
		m.paused = true
	}
	m.mu.Unlock()

	m.publish(domain.NewMediaTimeUpdateEvent(path, current))
	if ended {
		m.publish(domain.NewMediaEndedEvent(path))
	}
}

// Start runs the virtual clock in real time, publishing signals every interval,
// until Close is called.
func (m *Media) Start(interval time.Duration) {
	m.mu.Lock()
	if m.ticking {
		m.mu.Unlock()
		return
	}
	m.ticking = true
	m.stop = make(chan struct{})
	stop := m.stop
	m.clockWg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.clockWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.SimulateProgress(interval)
			}
		}
	}()
}

// Close stops the clock goroutine, if running.
func (m *Media) Close() error {
	m.mu.Lock()
	if m.ticking {
		close(m.stop)
		m.ticking = false
	}
	m.mu.Unlock()

	m.clockWg.Wait()
	return nil
}

func (m *Media) publish(event domain.Event) {
	if m.bus != nil {
		m.bus.Publish(event)
	}
}

var _ ports.MediaElement = (*Media)(nil)
