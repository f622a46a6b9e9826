// Package service implements the application logic of SpecViz.
// Services coordinate the media layer, the analysis graph and the render loop.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/specviz/internal/analysis"
	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/ports"
	"github.com/tejashwikalptaru/specviz/internal/visualizer"
)

// PlaybackController owns the playback state machine of the visualizer.
//
// It builds the analysis graph lazily on the first play, keeps the render loop
// running exactly while the state is Playing, and tears the graph down when the
// track is replaced or the controller is destroyed.
//
// Thread-safety: all methods are safe for concurrent use. Events are published
// after the internal lock is released, so handlers may call back into the
// controller.
type PlaybackController struct {
	// Dependencies
	logger   *slog.Logger
	media    ports.MediaElement
	graphs   ports.AudioGraphFactory
	analyzer *analysis.FrequencyAnalyzer
	loop     *visualizer.RenderLoop
	bus      ports.EventBus

	// mu protects every field below
	mu        sync.Mutex
	state     domain.PlaybackState
	track     *domain.Track
	graph     ports.AudioGraph
	destroyed bool
	subs      []domain.SubscriptionID

	// outbox collects events raised under mu, flushed by unlock
	outbox []domain.Event
}

// NewPlaybackController creates a controller in the Idle state and subscribes it
// to the media signals on the bus.
func NewPlaybackController(
	logger *slog.Logger,
	media ports.MediaElement,
	graphs ports.AudioGraphFactory,
	analyzer *analysis.FrequencyAnalyzer,
	loop *visualizer.RenderLoop,
	bus ports.EventBus,
) *PlaybackController {
	if logger == nil {
		logger = slog.Default()
	}

	c := &PlaybackController{
		logger:   logger.With(slog.String("service", "playback")),
		media:    media,
		graphs:   graphs,
		analyzer: analyzer,
		loop:     loop,
		bus:      bus,
		state:    domain.StateIdle,
	}

	c.subs = []domain.SubscriptionID{
		bus.Subscribe(domain.EventMediaReady, c.onMediaReady),
		bus.Subscribe(domain.EventMediaTimeUpdate, c.onMediaTimeUpdate),
		bus.Subscribe(domain.EventMediaEnded, c.onMediaEnded),
	}

	c.logger.Debug("playback controller initialized")
	return c
}

// unlock releases mu and publishes the events raised while it was held.
func (c *PlaybackController) unlock() {
	events := c.outbox
	c.outbox = nil
	c.mu.Unlock()

	for _, e := range events {
		c.bus.Publish(e)
	}
}

// emit queues an event; must be called with mu held.
func (c *PlaybackController) emit(e domain.Event) {
	c.outbox = append(c.outbox, e)
}

// setState must be called with mu held.
func (c *PlaybackController) setState(to domain.PlaybackState) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.logger.Debug("state changed", slog.String("from", from.String()), slog.String("to", to.String()))
	c.emit(domain.NewPlaybackStateChangedEvent(from, to))
}

// LoadTrack replaces the current track with src.
//
// An empty source, or one the media layer cannot play, is ignored and nil is
// returned. Otherwise the render loop is stopped, the analysis graph of the previous
// track is released and the new track starts in the Loaded state at position 0.
// If the media layer fails to load src the controller ends up Idle and the error
// is returned.
func (c *PlaybackController) LoadTrack(src domain.SourceHandle) error {
	c.mu.Lock()
	defer c.unlock()

	if c.destroyed {
		return domain.ErrControllerDestroyed
	}

	if src.IsZero() || !c.media.CanPlay(src) {
		c.logger.Debug("ignoring unplayable source", slog.String("path", src.Path))
		return nil
	}

	c.logger.Info("loading track", slog.String("path", src.Path))

	c.loop.Stop()
	c.releaseGraph()

	if err := c.media.Load(src); err != nil {
		c.logger.Warn("failed to load track", slog.String("path", src.Path), slog.Any("error", err))
		c.track = nil
		c.loop.ClearSurface()
		c.setState(domain.StateIdle)
		c.emit(domain.NewTrackErrorEvent(src, err))
		return err
	}

	c.track = &domain.Track{
		ID:              uuid.NewString(),
		Source:          src,
		DurationSeconds: max(0, c.media.Duration()),
	}

	c.loop.ClearSurface()
	c.setState(domain.StateLoaded)
	c.emit(domain.NewTrackLoadedEvent(*c.track))
	c.emit(domain.NewPlaybackProgressEvent(0, c.track.DurationSeconds))

	return nil
}

// CanPlay reports whether LoadTrack would accept src.
func (c *PlaybackController) CanPlay(src domain.SourceHandle) bool {
	return !src.IsZero() && c.media.CanPlay(src)
}

// TogglePlay starts playback when Loaded, Paused or Ended, and pauses it when Playing.
//
// Without a track it returns NeedsTrack so the host can ask for a file. The first
// play of a track builds the analysis graph; if that fails the state is unchanged
// and an error wrapping domain.ErrGraphConstruction is returned.
func (c *PlaybackController) TogglePlay(ctx context.Context) (domain.ToggleOutcome, error) {
	c.mu.Lock()
	defer c.unlock()

	if c.destroyed {
		return domain.ToggleOutcome{}, domain.ErrControllerDestroyed
	}

	if c.track == nil {
		return domain.ToggleOutcome{NeedsTrack: true}, nil
	}

	if c.state == domain.StatePlaying {
		return domain.ToggleOutcome{}, c.pause()
	}

	if err := c.play(ctx); err != nil {
		return domain.ToggleOutcome{}, err
	}
	return domain.ToggleOutcome{Started: true}, nil
}

// play must be called with mu held and a track loaded.
func (c *PlaybackController) play(ctx context.Context) error {
	if c.graph == nil {
		graph, err := c.graphs.NewGraph(c.media)
		if err != nil {
			c.logger.Error("failed to build analysis graph", slog.Any("error", err))
			return domain.NewAudioEngineError("build graph", c.track.Source.Path,
				"analysis graph unavailable", fmt.Errorf("%w: %w", domain.ErrGraphConstruction, err))
		}

		c.graph = graph
		c.analyzer.Attach(graph.Tap(), graph.SampleRate())
		c.emit(domain.NewGraphBuiltEvent(c.track.ID))
		c.logger.Debug("analysis graph built", slog.Int("sample_rate", graph.SampleRate()))
	}

	if c.graph.Suspended() {
		if err := c.graph.Resume(ctx); err != nil {
			return domain.NewAudioEngineError("resume", c.track.Source.Path, "output context did not resume", err)
		}
	}

	if err := c.media.Play(ctx); err != nil {
		return domain.NewAudioEngineError("play", c.track.Source.Path, "media refused to play",
			fmt.Errorf("%w: %w", domain.ErrPlaybackFailed, err))
	}

	c.setState(domain.StatePlaying)
	c.loop.Start()
	return nil
}

// pause must be called with mu held while Playing.
func (c *PlaybackController) pause() error {
	if err := c.media.Pause(); err != nil {
		return domain.NewAudioEngineError("pause", c.track.Source.Path, "media refused to pause", err)
	}

	c.track.CurrentTimeSeconds = c.clampTime(c.media.CurrentTime())
	c.setState(domain.StatePaused)
	c.loop.Stop()
	return nil
}

// Reset stops playback, rewinds to 0 and clears the surface. The state becomes
// Loaded, or Idle without a track.
func (c *PlaybackController) Reset() {
	c.mu.Lock()
	defer c.unlock()

	if c.destroyed {
		return
	}

	c.rewind(domain.StateLoaded)
	c.emit(domain.NewVisualizerResetEvent(false))
}

// onEnded must be called with mu held.
func (c *PlaybackController) onEnded() {
	c.logger.Debug("track ended")
	c.rewind(domain.StateEnded)
	c.emit(domain.NewVisualizerResetEvent(true))
}

// rewind must be called with mu held.
func (c *PlaybackController) rewind(to domain.PlaybackState) {
	c.loop.Stop()

	if c.track == nil {
		c.loop.ClearSurface()
		c.setState(domain.StateIdle)
		return
	}

	if err := c.media.Pause(); err != nil {
		c.logger.Warn("failed to pause media", slog.Any("error", err))
	}
	if err := c.media.Seek(0); err != nil {
		c.logger.Warn("failed to rewind media", slog.Any("error", err))
	}
	c.track.CurrentTimeSeconds = 0

	c.loop.ClearSurface()
	c.setState(to)
	c.emit(domain.NewPlaybackProgressEvent(0, c.track.DurationSeconds))
}

// Seek moves playback to percent of the duration. percent is clamped to [0,1].
// Seeking an ended track leaves it Paused at the new position.
func (c *PlaybackController) Seek(percent float64) error {
	c.mu.Lock()
	defer c.unlock()

	if c.destroyed {
		return domain.ErrControllerDestroyed
	}
	if c.track == nil {
		return domain.ErrNoTrackLoaded
	}

	if math.IsNaN(percent) {
		percent = 0
	}
	percent = min(max(percent, 0), 1)
	target := percent * c.track.DurationSeconds

	if err := c.media.Seek(target); err != nil {
		return domain.NewAudioEngineError("seek", c.track.Source.Path, "media refused to seek", err)
	}

	c.track.CurrentTimeSeconds = target
	if c.state == domain.StateEnded {
		c.setState(domain.StatePaused)
	}
	c.emit(domain.NewPlaybackProgressEvent(target, c.track.DurationSeconds))

	c.logger.Debug("seeked", slog.Float64("percent", percent), slog.Float64("seconds", target))
	return nil
}

// Destroy stops the render loop, releases the graph and the media source and
// detaches from the bus. Later calls do nothing.
func (c *PlaybackController) Destroy() {
	c.mu.Lock()
	defer c.unlock()

	if c.destroyed {
		return
	}
	c.destroyed = true

	c.loop.Stop()
	c.releaseGraph()

	if c.track != nil {
		if err := c.media.Unload(); err != nil {
			c.logger.Warn("failed to unload media", slog.Any("error", err))
		}
		c.track = nil
	}

	for _, id := range c.subs {
		c.bus.Unsubscribe(id)
	}
	c.subs = nil

	c.setState(domain.StateIdle)
	c.logger.Debug("playback controller destroyed")
}

// releaseGraph detaches the analyser and closes the graph; must be called with mu
// held and the render loop stopped.
func (c *PlaybackController) releaseGraph() {
	if c.graph == nil {
		return
	}

	c.analyzer.Detach()
	if err := c.graph.Close(); err != nil {
		c.logger.Warn("failed to close analysis graph", slog.Any("error", err))
	}
	c.graph = nil

	trackID := ""
	if c.track != nil {
		trackID = c.track.ID
	}
	c.emit(domain.NewGraphReleasedEvent(trackID))
	c.logger.Debug("analysis graph released", slog.String("track_id", trackID))
}

// clampTime must be called with mu held and a track loaded.
func (c *PlaybackController) clampTime(seconds float64) float64 {
	if math.IsNaN(seconds) || seconds < 0 {
		return 0
	}
	if c.track.DurationSeconds > 0 {
		return min(seconds, c.track.DurationSeconds)
	}
	return seconds
}

// current reports whether a media signal belongs to the loaded track; must be
// called with mu held.
func (c *PlaybackController) current(sourcePath string) bool {
	return !c.destroyed && c.track != nil && c.track.Source.Path == sourcePath
}

func (c *PlaybackController) onMediaReady(event domain.Event) {
	e, ok := event.(domain.MediaReadyEvent)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.unlock()

	if !c.current(e.SourcePath) {
		return
	}

	c.track.DurationSeconds = max(0, e.DurationSeconds)
	c.emit(domain.NewPlaybackProgressEvent(c.track.CurrentTimeSeconds, c.track.DurationSeconds))
}

func (c *PlaybackController) onMediaTimeUpdate(event domain.Event) {
	e, ok := event.(domain.MediaTimeUpdateEvent)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.unlock()

	// Updates racing a pause, seek or reset would move the position back
	if !c.current(e.SourcePath) || c.state != domain.StatePlaying {
		return
	}

	c.track.CurrentTimeSeconds = c.clampTime(e.CurrentTimeSeconds)
	c.emit(domain.NewPlaybackProgressEvent(c.track.CurrentTimeSeconds, c.track.DurationSeconds))
}

func (c *PlaybackController) onMediaEnded(event domain.Event) {
	e, ok := event.(domain.MediaEndedEvent)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.unlock()

	if !c.current(e.SourcePath) || c.state != domain.StatePlaying {
		return
	}

	c.onEnded()
}

// Status returns a snapshot of the observable playback state.
func (c *PlaybackController) Status() domain.PlaybackStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := domain.PlaybackStatus{State: c.state}
	if c.track != nil {
		track := *c.track
		status.Track = &track
		status.CurrentTimeSeconds = track.CurrentTimeSeconds
		status.DurationSeconds = track.DurationSeconds
	}
	return status
}

// State returns the current playback state.
func (c *PlaybackController) State() domain.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentTime returns the playback position in seconds.
func (c *PlaybackController) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.track == nil {
		return 0
	}
	return c.track.CurrentTimeSeconds
}

// Duration returns the duration of the loaded track in seconds.
func (c *PlaybackController) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.track == nil {
		return 0
	}
	return c.track.DurationSeconds
}

// HasGraph reports whether an analysis graph is currently built.
func (c *PlaybackController) HasGraph() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graph != nil
}
