package beepaudio

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/ports"
)

// StreamSource is implemented by media elements whose output can be connected to
// an analysis graph.
type StreamSource interface {
	// Output returns the endless output streamer of the media element.
	Output() beep.Streamer

	// OutputRate returns the sample rate of Output.
	OutputRate() beep.SampleRate
}

// Media decodes one source at a time and transports it: play, pause and seek.
//
// Its output is an endless streamer: after the source is drained it produces
// silence and raises the ended flag, so the graph streamer is never removed from
// the speaker mixer. Media signals are published by an update goroutine, never by
// the methods themselves.
//
// Lock order: mu, then the speaker lock. The speaker goroutine only touches
// atomics and the stream chain, never mu.
//
// Thread-safety: This implementation is thread-safe.
type Media struct {
	logger   *slog.Logger
	bus      ports.EventBus
	rate     beep.SampleRate
	interval time.Duration

	mu      sync.Mutex
	source  domain.SourceHandle
	stream  beep.StreamSeekCloser
	format  beep.Format
	ctrl    *beep.Ctrl
	ready   bool // ready signal not yet published
	closed  bool
	output  *endGuard
	stop    chan struct{}
	updates sync.WaitGroup
}

// NewMedia creates a media element resampling every source to rate and
// publishing its signals on bus every interval. Close must be called to stop the
// update goroutine.
func NewMedia(logger *slog.Logger, bus ports.EventBus, rate int, interval time.Duration) *Media {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	m := &Media{
		logger:   logger.With(slog.String("component", "media")),
		bus:      bus,
		rate:     beep.SampleRate(rate),
		interval: interval,
		ctrl:     &beep.Ctrl{Streamer: silence{}, Paused: true},
		stop:     make(chan struct{}),
	}
	m.output = &endGuard{s: m.ctrl}

	m.updates.Add(1)
	go m.updateRoutine()

	return m
}

// CanPlay reports whether a decoder exists for the source.
func (m *Media) CanPlay(source domain.SourceHandle) bool {
	return Supported(source)
}

// Load decodes source and makes it current, paused at position 0.
// The previous source is closed, even when loading fails.
func (m *Media) Load(source domain.SourceHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return domain.ErrMediaClosed
	}

	m.releaseLocked()

	stream, format, err := Decode(source)
	if err != nil {
		return err
	}

	var s beep.Streamer = stream
	if format.SampleRate != m.rate {
		s = beep.Resample(4, format.SampleRate, m.rate, s)
	}

	speaker.Lock()
	m.ctrl.Streamer = s
	m.ctrl.Paused = true
	m.output.ended.Store(false)
	speaker.Unlock()

	m.source = source
	m.stream = stream
	m.format = format
	m.ready = true

	m.logger.Debug("source loaded",
		slog.String("path", source.Path),
		slog.Int("sample_rate", int(format.SampleRate)),
		slog.Float64("duration", m.durationLocked()))

	return nil
}

// releaseLocked closes the current stream; must be called with mu held.
func (m *Media) releaseLocked() {
	if m.stream == nil {
		return
	}

	speaker.Lock()
	m.ctrl.Streamer = silence{}
	m.ctrl.Paused = true
	speaker.Unlock()

	if err := m.stream.Close(); err != nil {
		m.logger.Warn("failed to close stream", slog.String("path", m.source.Path), slog.Any("error", err))
	}

	m.stream = nil
	m.source = domain.SourceHandle{}
	m.format = beep.Format{}
	m.ready = false
}

// Unload releases the current source.
func (m *Media) Unload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseLocked()
	return nil
}

// Play resumes the output. Playing a drained source restarts it.
func (m *Media) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return domain.ErrNoTrackLoaded
	}

	speaker.Lock()
	defer speaker.Unlock()

	if m.output.ended.Load() || m.stream.Position() >= m.stream.Len() {
		if err := m.stream.Seek(0); err != nil {
			return domain.NewAudioEngineError("play", m.source.Path, "cannot rewind", err)
		}
		m.output.ended.Store(false)
	}
	m.ctrl.Paused = false

	return nil
}

// Pause pauses the output, keeping the position.
func (m *Media) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	speaker.Lock()
	m.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Paused reports whether the output is paused.
func (m *Media) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	speaker.Lock()
	defer speaker.Unlock()
	return m.ctrl.Paused
}

// Seek moves to seconds, clamped to the stream.
func (m *Media) Seek(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return domain.ErrNoTrackLoaded
	}

	speaker.Lock()
	defer speaker.Unlock()

	n := m.format.SampleRate.N(time.Duration(max(0, seconds) * float64(time.Second)))
	n = min(max(n, 0), max(0, m.stream.Len()-1))
	if err := m.stream.Seek(n); err != nil {
		return domain.NewAudioEngineError("seek", m.source.Path, "seek failed", err)
	}
	m.output.ended.Store(false)

	return nil
}

// CurrentTime returns the position in seconds.
func (m *Media) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return 0
	}

	speaker.Lock()
	defer speaker.Unlock()
	return m.format.SampleRate.D(m.stream.Position()).Seconds()
}

// Duration returns the length of the source in seconds.
func (m *Media) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.durationLocked()
}

func (m *Media) durationLocked() float64 {
	if m.stream == nil {
		return 0
	}
	return m.format.SampleRate.D(m.stream.Len()).Seconds()
}

// Output returns the streamer the analysis graph plays.
func (m *Media) Output() beep.Streamer {
	return m.output
}

// OutputRate returns the rate every source is resampled to.
func (m *Media) OutputRate() beep.SampleRate {
	return m.rate
}

// Close stops the update goroutine and releases the source.
func (m *Media) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.stop)
	m.releaseLocked()
	m.mu.Unlock()

	m.updates.Wait()
	m.logger.Debug("media closed")
	return nil
}

// updateRoutine publishes the media signals.
func (m *Media) updateRoutine() {
	defer m.updates.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			for _, e := range m.pollSignals() {
				m.bus.Publish(e)
			}
		}
	}
}

// pollSignals collects the signals due since the last poll.
func (m *Media) pollSignals() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return nil
	}

	var events []domain.Event
	path := m.source.Path

	if m.ready {
		m.ready = false
		events = append(events, domain.NewMediaReadyEvent(path, m.durationLocked()))
	}

	speaker.Lock()
	paused := m.ctrl.Paused
	ended := m.output.ended.Load()
	if ended && !paused {
		m.ctrl.Paused = true
	}
	position := m.format.SampleRate.D(m.stream.Position()).Seconds()
	speaker.Unlock()

	switch {
	case ended && !paused:
		events = append(events,
			domain.NewMediaTimeUpdateEvent(path, m.durationLocked()),
			domain.NewMediaEndedEvent(path))
	case !paused:
		events = append(events, domain.NewMediaTimeUpdateEvent(path, position))
	}

	return events
}

// endGuard keeps the output alive past the end of the source.
type endGuard struct {
	s     beep.Streamer
	ended atomic.Bool
}

func (g *endGuard) Stream(samples [][2]float64) (int, bool) {
	n, _ := g.s.Stream(samples)
	if n < len(samples) {
		clear(samples[n:])
		g.ended.Store(true)
	}
	return len(samples), true
}

func (g *endGuard) Err() error {
	return g.s.Err()
}

// silence is the placeholder stream of an empty media element. It reports
// itself as drained.
type silence struct{}

func (silence) Stream([][2]float64) (int, bool) { return 0, false }
func (silence) Err() error                       { return nil }

var (
	_ ports.MediaElement = (*Media)(nil)
	_ StreamSource       = (*Media)(nil)
)
