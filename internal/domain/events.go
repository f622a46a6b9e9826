// Package domain defines events for the event-driven architecture.
// Events replace the callback system and enable loose coupling between components.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Media layer signals (host -> core)
	EventMediaReady      EventType = "media.ready"
	EventMediaTimeUpdate EventType = "media.time_update"
	EventMediaEnded      EventType = "media.ended"

	// Playback events (core -> host)
	EventTrackLoaded          EventType = "track.loaded"
	EventTrackError           EventType = "track.error"
	EventPlaybackStateChanged EventType = "playback.state_changed"
	EventPlaybackProgress     EventType = "playback.progress"

	// Visualizer events
	EventVisualizerReset EventType = "visualizer.reset"
	EventGraphBuilt      EventType = "graph.built"
	EventGraphReleased   EventType = "graph.released"

	// Host events
	EventSettingsChanged   EventType = "settings.changed"
	EventBackgroundChanged EventType = "background.changed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// MediaReadyEvent is published by the media layer once the duration of a source is known.
type MediaReadyEvent struct {
	baseEvent
	SourcePath      string
	DurationSeconds float64
}

// Type returns the event type.
func (e MediaReadyEvent) Type() EventType {
	return EventMediaReady
}

// NewMediaReadyEvent creates a new MediaReadyEvent.
func NewMediaReadyEvent(sourcePath string, duration float64) MediaReadyEvent {
	return MediaReadyEvent{
		baseEvent:       newBaseEvent(),
		SourcePath:      sourcePath,
		DurationSeconds: duration,
	}
}

// MediaTimeUpdateEvent is published by the media layer while the playback position advances.
type MediaTimeUpdateEvent struct {
	baseEvent
	SourcePath         string
	CurrentTimeSeconds float64
}

// Type returns the event type.
func (e MediaTimeUpdateEvent) Type() EventType {
	return EventMediaTimeUpdate
}

// NewMediaTimeUpdateEvent creates a new MediaTimeUpdateEvent.
func NewMediaTimeUpdateEvent(sourcePath string, current float64) MediaTimeUpdateEvent {
	return MediaTimeUpdateEvent{
		baseEvent:          newBaseEvent(),
		SourcePath:         sourcePath,
		CurrentTimeSeconds: current,
	}
}

// MediaEndedEvent is published by the media layer when a source plays to its end.
type MediaEndedEvent struct {
	baseEvent
	SourcePath string
}

// Type returns the event type.
func (e MediaEndedEvent) Type() EventType {
	return EventMediaEnded
}

// NewMediaEndedEvent creates a new MediaEndedEvent.
func NewMediaEndedEvent(sourcePath string) MediaEndedEvent {
	return MediaEndedEvent{
		baseEvent:  newBaseEvent(),
		SourcePath: sourcePath,
	}
}

// TrackLoadedEvent is published when a track is successfully loaded.
type TrackLoadedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(track Track) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// TrackErrorEvent is published when a track cannot be loaded or played.
type TrackErrorEvent struct {
	baseEvent
	Source SourceHandle
	Error  error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(source SourceHandle, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Source:    source,
		Error:     err,
	}
}

// PlaybackStateChangedEvent is published on every state machine transition.
type PlaybackStateChangedEvent struct {
	baseEvent
	From PlaybackState
	To   PlaybackState
}

// Type returns the event type.
func (e PlaybackStateChangedEvent) Type() EventType {
	return EventPlaybackStateChanged
}

// NewPlaybackStateChangedEvent creates a new PlaybackStateChangedEvent.
func NewPlaybackStateChangedEvent(from, to PlaybackState) PlaybackStateChangedEvent {
	return PlaybackStateChangedEvent{
		baseEvent: newBaseEvent(),
		From:      from,
		To:        to,
	}
}

// PlaybackProgressEvent is published whenever the elapsed time or duration changes.
type PlaybackProgressEvent struct {
	baseEvent
	CurrentTimeSeconds float64
	DurationSeconds    float64
}

// Type returns the event type.
func (e PlaybackProgressEvent) Type() EventType {
	return EventPlaybackProgress
}

// NewPlaybackProgressEvent creates a new PlaybackProgressEvent.
func NewPlaybackProgressEvent(current, duration float64) PlaybackProgressEvent {
	return PlaybackProgressEvent{
		baseEvent:          newBaseEvent(),
		CurrentTimeSeconds: current,
		DurationSeconds:    duration,
	}
}

// VisualizerResetEvent is published after a reset or an end of track cleared the surface.
type VisualizerResetEvent struct {
	baseEvent
	Ended bool // true when triggered by the end of the track
}

// Type returns the event type.
func (e VisualizerResetEvent) Type() EventType {
	return EventVisualizerReset
}

// NewVisualizerResetEvent creates a new VisualizerResetEvent.
func NewVisualizerResetEvent(ended bool) VisualizerResetEvent {
	return VisualizerResetEvent{
		baseEvent: newBaseEvent(),
		Ended:     ended,
	}
}

// GraphBuiltEvent is published when an analysis graph is connected.
type GraphBuiltEvent struct {
	baseEvent
	TrackID string
}

// Type returns the event type.
func (e GraphBuiltEvent) Type() EventType {
	return EventGraphBuilt
}

// NewGraphBuiltEvent creates a new GraphBuiltEvent.
func NewGraphBuiltEvent(trackID string) GraphBuiltEvent {
	return GraphBuiltEvent{
		baseEvent: newBaseEvent(),
		TrackID:   trackID,
	}
}

// GraphReleasedEvent is published when an analysis graph is disconnected and closed.
type GraphReleasedEvent struct {
	baseEvent
	TrackID string
}

// Type returns the event type.
func (e GraphReleasedEvent) Type() EventType {
	return EventGraphReleased
}

// NewGraphReleasedEvent creates a new GraphReleasedEvent.
func NewGraphReleasedEvent(trackID string) GraphReleasedEvent {
	return GraphReleasedEvent{
		baseEvent: newBaseEvent(),
		TrackID:   trackID,
	}
}

// SettingsChangedEvent is published when the view settings change.
type SettingsChangedEvent struct {
	baseEvent
	Settings Settings
}

// Type returns the event type.
func (e SettingsChangedEvent) Type() EventType {
	return EventSettingsChanged
}

// NewSettingsChangedEvent creates a new SettingsChangedEvent.
func NewSettingsChangedEvent(settings Settings) SettingsChangedEvent {
	return SettingsChangedEvent{
		baseEvent: newBaseEvent(),
		Settings:  settings,
	}
}

// BackgroundChangedEvent is published when the background image file changes on disk.
type BackgroundChangedEvent struct {
	baseEvent
	Path    string
	Removed bool
}

// Type returns the event type.
func (e BackgroundChangedEvent) Type() EventType {
	return EventBackgroundChanged
}

// NewBackgroundChangedEvent creates a new BackgroundChangedEvent.
func NewBackgroundChangedEvent(path string, removed bool) BackgroundChangedEvent {
	return BackgroundChangedEvent{
		baseEvent: newBaseEvent(),
		Path:      path,
		Removed:   removed,
	}
}
