// Package ports define the drawing and scheduling interfaces of the visualizer.
package ports

import (
	"image/color"
	"time"

	"github.com/tejashwikalptaru/specviz/internal/domain"
)

// Surface is a 2D drawing surface with mutable geometry.
//
// The geometry may change between frames (resize). Implementations must be
// thread-safe: the host reads the surface while the render loop draws on it.
type Surface interface {
	// Geometry returns the current surface size and bar layout.
	Geometry() domain.RenderGeometry

	// Clear erases the whole surface.
	Clear()

	// FillRect fills one rectangle, clipped to the surface bounds.
	FillRect(rect domain.BarRect, fill color.Color)

	// Present signals that a frame is complete and can be displayed.
	Present()
}

// FrameHandle identifies a scheduled frame callback. Zero is never a valid handle.
type FrameHandle uint64

// FrameCallback is invoked once per display frame with the frame time.
type FrameCallback func(frameTime time.Time)

// FrameScheduler is the per-frame callback mechanism of the host.
//
// Callbacks requested during a frame run on the next frame. A callback is invoked
// at most once. Callbacks are never invoked concurrently with each other.
type FrameScheduler interface {
	// RequestFrame schedules cb for the next frame.
	RequestFrame(cb FrameCallback) FrameHandle

	// CancelFrame removes a scheduled callback. Unknown handles are ignored.
	CancelFrame(handle FrameHandle)
}
