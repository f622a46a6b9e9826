// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the SpecViz visualizer engine.
package domain

import (
	"path/filepath"
	"strings"
)

// SourceHandle is an opaque reference to a playable media source.
// It is produced by the host (file picker) and consumed by the media layer.
type SourceHandle struct {
	// Path is the absolute path to the media file
	Path string

	// Name is the display name (usually the file name)
	Name string

	// MIMEType is the detected content type (e.g. audio/mpeg)
	MIMEType string
}

// IsZero reports whether the handle references nothing.
func (h SourceHandle) IsZero() bool {
	return h.Path == ""
}

// Ext returns the lower-cased file extension of the source, including the dot.
func (h SourceHandle) Ext() string {
	return strings.ToLower(filepath.Ext(h.Path))
}

// Track is the currently loaded audio track.
// It is created on file selection and replaced on the next selection.
type Track struct {
	// ID is a unique identifier for the track (UUID)
	ID string

	// Source is the media source the track was loaded from
	Source SourceHandle

	// DurationSeconds is the total length of the track (>= 0)
	DurationSeconds float64

	// CurrentTimeSeconds is the playback position in [0, DurationSeconds]
	CurrentTimeSeconds float64
}

// PlaybackState is the state of the playback state machine.
type PlaybackState int

const (
	// StateIdle means no track is loaded
	StateIdle PlaybackState = iota

	// StateLoaded means a track is present but not started
	StateLoaded

	// StatePlaying means playback is active
	StatePlaying

	// StatePaused means playback was started and is now paused
	StatePaused

	// StateEnded means the track played to its end
	StateEnded
)

// String returns a human-readable representation of the playback state.
func (s PlaybackState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// FrequencySnapshot is one sampled set of bin magnitudes (0-255), lowest frequency first.
type FrequencySnapshot []uint8

// RenderGeometry describes the drawing surface and the bar layout, in pixels.
type RenderGeometry struct {
	SurfaceWidth  int
	SurfaceHeight int
	BarWidth      int
	BarGap        int
}

// Capacity returns how many bars fit across the surface.
// Zero means the geometry is degenerate and nothing can be drawn.
func (g RenderGeometry) Capacity() int {
	step := g.BarWidth + g.BarGap
	if step <= 0 || g.SurfaceWidth <= 0 {
		return 0
	}
	return g.SurfaceWidth / step
}

// BarRect is a single bottom-aligned bar draw instruction.
type BarRect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// ToggleOutcome is the result of a play/pause toggle.
type ToggleOutcome struct {
	// Started is true when playback was started by the toggle
	Started bool

	// NeedsTrack is true when no track is loaded and the caller should
	// present its load affordance
	NeedsTrack bool
}

// PlaybackStatus is a read-only view of the controller state.
type PlaybackStatus struct {
	State              PlaybackState
	Track              *Track
	CurrentTimeSeconds float64
	DurationSeconds    float64
}

// TrackMetadata contains tag information extracted from an audio file.
type TrackMetadata struct {
	Title  string
	Artist string
	Album  string

	// Picture is the embedded cover art as raw bytes (nil if absent)
	Picture []byte

	// PictureMIME is the content type of Picture
	PictureMIME string
}

// DisplayTitle returns "Artist - Title", the title alone, or an empty string.
func (m TrackMetadata) DisplayTitle() string {
	switch {
	case m.Artist != "" && m.Title != "":
		return m.Artist + " - " + m.Title
	default:
		return m.Title
	}
}

// Settings contain the user-editable presentation settings of the visualizer view.
type Settings struct {
	// Title is shown above the cover (max 30 characters)
	Title string

	// Description is shown below the title (max 200 characters)
	Description string

	// BackgroundPath is the image used as background and cover
	BackgroundPath string
}

// CoverState is the presentation state of the cover art.
type CoverState int

const (
	// CoverRest is the initial state, cover is not animated
	CoverRest CoverState = iota

	// CoverPlaying means the cover spins
	CoverPlaying

	// CoverPaused means the cover is frozen at its current angle
	CoverPaused
)

// String returns a human-readable representation of the cover state.
func (s CoverState) String() string {
	switch s {
	case CoverRest:
		return "rest"
	case CoverPlaying:
		return "playing"
	case CoverPaused:
		return "paused"
	default:
		return "unknown"
	}
}
