// Package fyne provides the Fyne UI adapter of SpecViz.
// The presenter maps domain events to view updates and user actions to the core.
package fyne

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/tejashwikalptaru/specviz/internal/adapter/source"
	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/ports"
	"github.com/tejashwikalptaru/specviz/internal/progress"
	"github.com/tejashwikalptaru/specviz/internal/service"
)

// Defaults shown while the settings are empty.
const (
	DefaultTitle       = "Title"
	DefaultDescription = "Description"
)

// CoverSettleDelay is the pause between a reset and the cover coming back to its
// paused pose.
const CoverSettleDelay = 100 * time.Millisecond

// playTimeout bounds the wait for the audio output when starting playback.
const playTimeout = 3 * time.Second

// UIView defines the interface for UI updates.
// The actual UI implementation (MainWindow) must implement this interface.
// Implementations must be safe to call from any goroutine.
type UIView interface {
	// Playback state
	SetPlayState(playing bool)
	SetCoverState(state domain.CoverState)
	SetAudioPickerEnabled(enabled bool)

	// Presentation settings
	SetTitle(title string)
	SetDescription(description string)
	SetBackground(path string)
	SetCoverArt(data []byte)
	SetAudioName(name string)
	SetImageName(name string)

	// Footer
	SetElapsed(text string)
	SetTotal(text string)
	SetProgress(percent float64)
	SetKnob(x float64)

	// Settings drawer and notifications
	OpenSettings()
	ShowError(title string, err error)
}

// Playback is the part of the playback controller the presenter drives.
type Playback interface {
	CanPlay(src domain.SourceHandle) bool
	LoadTrack(src domain.SourceHandle) error
	TogglePlay(ctx context.Context) (domain.ToggleOutcome, error)
	Reset()
	Seek(percent float64) error
	Status() domain.PlaybackStatus
}

// Presenter implements the Presenter pattern (MVP architecture).
// It coordinates between the core and the UI, handling all event-driven updates.
//
// Thread-safety: All operations are thread-safe; the view is always called
// without the presenter lock held.
type Presenter struct {
	// Dependencies
	logger   *slog.Logger
	playback Playback
	settings *service.SettingsService
	metadata ports.MetadataReader
	bus      ports.EventBus
	view     UIView
	tracker  *progress.Tracker

	// Presentation state
	mu         sync.Mutex
	trackTitle string
	cover      domain.CoverState
	settle     *time.Timer
	settleGen  uint64
	subs       []domain.SubscriptionID
	settleWait time.Duration

	shutdownOnce sync.Once
}

// NewPresenter creates a new presenter and syncs the view with the current state.
func NewPresenter(
	logger *slog.Logger,
	playback Playback,
	settings *service.SettingsService,
	metadata ports.MetadataReader,
	bus ports.EventBus,
	view UIView,
) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Presenter{
		logger:     logger.With(slog.String("component", "presenter")),
		playback:   playback,
		settings:   settings,
		metadata:   metadata,
		bus:        bus,
		view:       view,
		tracker:    progress.NewTracker(),
		settleWait: CoverSettleDelay,
	}

	p.subscribeToEvents()
	p.syncInitialState()

	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	subscriptions := []struct {
		eventType domain.EventType
		handler   domain.EventHandler
	}{
		{domain.EventTrackLoaded, p.onTrackLoaded},
		{domain.EventTrackError, p.onTrackError},
		{domain.EventPlaybackStateChanged, p.onStateChanged},
		{domain.EventPlaybackProgress, p.onProgress},
		{domain.EventVisualizerReset, p.onVisualizerReset},
		{domain.EventSettingsChanged, p.onSettingsChanged},
		{domain.EventBackgroundChanged, p.onBackgroundChanged},
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range subscriptions {
		p.subs = append(p.subs, p.bus.Subscribe(s.eventType, s.handler))
	}
}

// syncInitialState pushes the saved settings and the playback state to the view.
func (p *Presenter) syncInitialState() {
	p.applySettings(p.settings.Settings())

	status := p.playback.Status()
	p.view.SetPlayState(status.State == domain.StatePlaying)
	p.view.SetAudioPickerEnabled(status.State != domain.StatePlaying)
	p.view.SetCoverState(domain.CoverRest)

	p.tracker.SetDuration(status.DurationSeconds)
	p.tracker.SetCurrent(status.CurrentTimeSeconds)
	p.pushProgress()
}

func (p *Presenter) applySettings(s domain.Settings) {
	p.mu.Lock()
	trackTitle := p.trackTitle
	p.mu.Unlock()

	title := s.Title
	if title == "" {
		title = trackTitle
	}
	if title == "" {
		title = DefaultTitle
	}
	description := s.Description
	if description == "" {
		description = DefaultDescription
	}

	p.view.SetTitle(title)
	p.view.SetDescription(description)
	p.view.SetBackground(s.BackgroundPath)
	p.view.SetImageName(baseName(s.BackgroundPath))
}

func (p *Presenter) pushProgress() {
	p.view.SetElapsed(p.tracker.Elapsed())
	p.view.SetTotal(p.tracker.Total())
	p.view.SetProgress(p.tracker.Percent())
}

// setCover changes the cover state and cancels a pending settle.
func (p *Presenter) setCover(state domain.CoverState) {
	p.mu.Lock()
	p.settleGen++
	if p.settle != nil {
		p.settle.Stop()
		p.settle = nil
	}
	p.cover = state
	p.mu.Unlock()

	p.view.SetCoverState(state)
}

// CoverState returns the current cover state.
func (p *Presenter) CoverState() domain.CoverState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cover
}

// Event handlers

func (p *Presenter) onTrackLoaded(event domain.Event) {
	e, ok := event.(domain.TrackLoadedEvent)
	if !ok {
		return
	}

	p.tracker.Reset()
	p.tracker.SetDuration(e.Track.DurationSeconds)
	p.pushProgress()
	p.view.SetAudioName(e.Track.Source.Name)
	p.setCover(domain.CoverRest)
}

func (p *Presenter) onTrackError(event domain.Event) {
	e, ok := event.(domain.TrackErrorEvent)
	if !ok {
		return
	}

	p.logger.Warn("track failed to load", slog.String("path", e.Source.Path), slog.Any("error", e.Error))
	p.view.SetAudioName("")
}

func (p *Presenter) onStateChanged(event domain.Event) {
	e, ok := event.(domain.PlaybackStateChangedEvent)
	if !ok {
		return
	}

	playing := e.To == domain.StatePlaying
	p.view.SetPlayState(playing)
	p.view.SetAudioPickerEnabled(!playing)

	switch e.To {
	case domain.StatePlaying:
		p.setCover(domain.CoverPlaying)
	case domain.StatePaused:
		p.setCover(domain.CoverPaused)
	case domain.StateIdle:
		p.setCover(domain.CoverRest)
	}
}

func (p *Presenter) onProgress(event domain.Event) {
	e, ok := event.(domain.PlaybackProgressEvent)
	if !ok {
		return
	}

	p.tracker.SetDuration(e.DurationSeconds)
	p.tracker.SetCurrent(e.CurrentTimeSeconds)
	p.pushProgress()
}

// onVisualizerReset puts the cover at rest, then settles it into the paused pose.
func (p *Presenter) onVisualizerReset(event domain.Event) {
	if _, ok := event.(domain.VisualizerResetEvent); !ok {
		return
	}

	p.mu.Lock()
	p.settleGen++
	gen := p.settleGen
	if p.settle != nil {
		p.settle.Stop()
	}
	p.cover = domain.CoverRest
	p.settle = time.AfterFunc(p.settleWait, func() {
		p.mu.Lock()
		if gen != p.settleGen {
			p.mu.Unlock()
			return
		}
		p.settle = nil
		p.cover = domain.CoverPaused
		p.mu.Unlock()

		p.view.SetCoverState(domain.CoverPaused)
	})
	p.mu.Unlock()

	p.view.SetCoverState(domain.CoverRest)
}

func (p *Presenter) onSettingsChanged(event domain.Event) {
	e, ok := event.(domain.SettingsChangedEvent)
	if !ok {
		return
	}
	p.applySettings(e.Settings)
}

func (p *Presenter) onBackgroundChanged(event domain.Event) {
	e, ok := event.(domain.BackgroundChangedEvent)
	if !ok {
		return
	}

	if e.Removed {
		p.view.SetBackground("")
		return
	}
	p.view.SetBackground(e.Path)
}

// UI Command handlers (called by UI)

// OnPlayClicked toggles playback. Without a track the settings drawer opens.
func (p *Presenter) OnPlayClicked() {
	ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
	defer cancel()

	outcome, err := p.playback.TogglePlay(ctx)
	if err != nil {
		p.logger.Error("play/pause failed", slog.Any("error", err))
		p.view.ShowError("Playback Error", err)
		return
	}
	if outcome.NeedsTrack {
		p.view.OpenSettings()
	}
}

// OnResetClicked rewinds the track and clears the visualization.
func (p *Presenter) OnResetClicked() {
	p.playback.Reset()
}

// OnAudioSelected loads the audio file at path. Files that are not audio, or that
// the playback backend cannot decode, are rejected before reaching the core.
func (p *Presenter) OnAudioSelected(path string) {
	src, err := source.Audio(path)
	if err != nil {
		p.logger.Warn("rejected audio file", slog.String("path", path), slog.Any("error", err))
		p.view.ShowError("Invalid Audio File", err)
		return
	}

	if !p.playback.CanPlay(src) {
		p.logger.Warn("no decoder for audio file", slog.String("path", path), slog.String("mime", src.MIMEType))
		p.view.ShowError("Invalid Audio File", fmt.Errorf("%w: %s is not supported", domain.ErrInvalidSource, src.MIMEType))
		return
	}

	if err := p.playback.LoadTrack(src); err != nil {
		p.logger.Error("failed to load track", slog.String("path", path), slog.Any("error", err))
		p.view.ShowError("Load Error", err)
		return
	}

	p.applyMetadata(path)
}

// applyMetadata uses the track tags as default title and cover art.
func (p *Presenter) applyMetadata(path string) {
	var meta *domain.TrackMetadata
	if p.metadata != nil {
		m, err := p.metadata.ReadMetadata(path)
		if err != nil {
			p.logger.Debug("no metadata", slog.String("path", path), slog.Any("error", err))
		} else {
			meta = m
		}
	}

	p.mu.Lock()
	p.trackTitle = ""
	if meta != nil {
		p.trackTitle = meta.DisplayTitle()
	}
	p.mu.Unlock()

	if meta != nil && len(meta.Picture) > 0 {
		p.view.SetCoverArt(meta.Picture)
	} else {
		p.view.SetCoverArt(nil)
	}
	p.applySettings(p.settings.Settings())
}

// OnImageSelected sets the image at path as background.
func (p *Presenter) OnImageSelected(path string) {
	if _, err := source.Image(path); err != nil {
		p.logger.Warn("rejected image file", slog.String("path", path), slog.Any("error", err))
		p.view.ShowError("Invalid Image File", err)
		return
	}

	if err := p.settings.SetBackground(path); err != nil {
		p.view.ShowError("Settings Error", err)
	}
}

// OnTitleChanged stores a new title.
func (p *Presenter) OnTitleChanged(title string) {
	if err := p.settings.SetTitle(title); err != nil {
		p.view.ShowError("Invalid Title", err)
	}
}

// OnDescriptionChanged stores a new description.
func (p *Presenter) OnDescriptionChanged(description string) {
	if err := p.settings.SetDescription(description); err != nil {
		p.view.ShowError("Invalid Description", err)
	}
}

// OnScrubberHover moves the knob under the pointer. x is relative to the scrubber.
func (p *Presenter) OnScrubberHover(x, width float64) {
	percent := progress.PercentFromPointer(x, 0, width)
	p.view.SetKnob(percent * max(0, width))
}

// OnScrubberTapped seeks to the tapped position. Without a track nothing happens.
func (p *Presenter) OnScrubberTapped(x, width float64) {
	percent := progress.PercentFromPointer(x, 0, width)
	if err := p.playback.Seek(percent); err != nil {
		if errors.Is(err, domain.ErrNoTrackLoaded) {
			return
		}
		p.logger.Error("seek failed", slog.Any("error", err))
		p.view.ShowError("Seek Error", err)
	}
}

func baseName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

// Shutdown unsubscribes from the bus and stops a pending cover settle.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		subs := p.subs
		p.subs = nil
		p.settleGen++
		if p.settle != nil {
			p.settle.Stop()
			p.settle = nil
		}
		p.mu.Unlock()

		for _, id := range subs {
			p.bus.Unsubscribe(id)
		}
	})
}
