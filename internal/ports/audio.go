// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"context"

	"github.com/tejashwikalptaru/specviz/internal/domain"
)

// MediaElement is the host media layer: it decodes a source and transports it
// (play, pause, seek). It plays nothing audible on its own; its output only reaches
// the speakers through an AudioGraph built on top of it.
//
// Implementations publish media signals (domain.MediaReadyEvent,
// domain.MediaTimeUpdateEvent, domain.MediaEndedEvent) on the event bus from their
// own goroutine, never from inside one of the methods below.
//
// Implementations must be thread-safe.
type MediaElement interface {
	// CanPlay reports whether the media layer has a decoder for the source.
	CanPlay(source domain.SourceHandle) bool

	// Load replaces the current source. Playback starts paused at position 0.
	//
	// Returns an error if the source cannot be opened or decoded.
	Load(source domain.SourceHandle) error

	// Unload releases the current source, if any.
	Unload() error

	// Play starts or resumes playback.
	// ctx bounds the wait for the media layer to acknowledge the request.
	Play(ctx context.Context) error

	// Pause pauses playback, preserving the position.
	Pause() error

	// Paused reports whether playback is paused (true when nothing is loaded).
	Paused() bool

	// Seek sets the playback position in seconds. Out of range values are clamped.
	Seek(seconds float64) error

	// CurrentTime returns the playback position in seconds.
	CurrentTime() float64

	// Duration returns the duration of the loaded source in seconds (0 if none).
	Duration() float64
}

// SampleTap exposes the most recent mono samples flowing through an AudioGraph.
type SampleTap interface {
	// Latest copies the newest len(dst) samples into dst, oldest first, and returns
	// how many were written.
	Latest(dst []float64) int
}

// AudioGraph is the exclusive chain source -> analysis tap -> output sink.
type AudioGraph interface {
	// Tap returns the analysis tap of the graph.
	Tap() SampleTap

	// SampleRate returns the rate of the samples delivered by the tap, in Hz.
	SampleRate() int

	// Suspended reports whether the processing context is suspended.
	Suspended() bool

	// Resume resumes a suspended processing context.
	// Returns once the output acknowledged the request or ctx is done.
	Resume(ctx context.Context) error

	// Close disconnects the chain and closes the processing context.
	// It is safe to call multiple times.
	Close() error
}

// AudioGraphFactory builds analysis graphs on top of a media element.
//
// At most one graph built by a factory may be live at a time: NewGraph returns
// domain.ErrGraphActive until the previous graph is closed.
type AudioGraphFactory interface {
	NewGraph(media MediaElement) (AudioGraph, error)

	// Live returns the number of graphs currently connected to the output.
	Live() int
}
