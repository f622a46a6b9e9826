package visualizer

import (
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/ports"
)

// SnapshotSource supplies the magnitudes drawn on each frame.
type SnapshotSource interface {
	Snapshot() domain.FrequencySnapshot
}

// RenderLoop repeatedly pulls a snapshot, computes the bars and draws them on the
// surface, once per display frame.
//
// Every Start opens a new generation. A tick only draws when its generation is
// still current, so a callback that was already dequeued by the scheduler when
// Stop ran is a no-op. Stop waits for an in-flight draw to finish.
type RenderLoop struct {
	logger    *slog.Logger
	scheduler ports.FrameScheduler
	source    SnapshotSource
	surface   ports.Surface
	renderer  SpectrumRenderer

	// mu protects every field below and serializes drawing
	mu      sync.Mutex
	fill    color.Color
	running bool
	gen     uint64
	handle  ports.FrameHandle
	frames  uint64
}

// NewRenderLoop creates a stopped render loop.
func NewRenderLoop(
	logger *slog.Logger,
	scheduler ports.FrameScheduler,
	source SnapshotSource,
	surface ports.Surface,
	renderer SpectrumRenderer,
	fill color.Color,
) *RenderLoop {
	if logger == nil {
		logger = slog.Default()
	}
	if fill == nil {
		fill = color.White
	}

	return &RenderLoop{
		logger:    logger.With(slog.String("component", "render-loop")),
		scheduler: scheduler,
		source:    source,
		surface:   surface,
		renderer:  renderer,
		fill:      fill,
	}
}

// Start schedules the first frame. Starting a running loop does nothing.
func (l *RenderLoop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return
	}

	l.running = true
	l.gen++
	l.schedule(l.gen)

	l.logger.Debug("render loop started", slog.Uint64("generation", l.gen))
}

// Stop cancels the pending frame. No frame is drawn after Stop returns.
// It is idempotent.
func (l *RenderLoop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return
	}

	l.running = false
	l.gen++
	if l.handle != 0 {
		l.scheduler.CancelFrame(l.handle)
		l.handle = 0
	}

	l.logger.Debug("render loop stopped", slog.Uint64("frames", l.frames))
}

// ClearSurface draws a blank frame.
func (l *RenderLoop) ClearSurface() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.surface.Clear()
	l.surface.Present()
}

// SetFill changes the bar color from the next frame on.
func (l *RenderLoop) SetFill(fill color.Color) {
	if fill == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.fill = fill
}

// Running reports whether the loop is started.
func (l *RenderLoop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Pending reports whether a frame callback is scheduled.
func (l *RenderLoop) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle != 0
}

// FramesDrawn returns the number of frames drawn since creation.
func (l *RenderLoop) FramesDrawn() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// schedule must be called with mu held.
func (l *RenderLoop) schedule(gen uint64) {
	l.handle = l.scheduler.RequestFrame(func(time.Time) {
		l.tick(gen)
	})
}

func (l *RenderLoop) tick(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running || gen != l.gen {
		return
	}
	l.handle = 0

	l.draw()
	l.frames++

	l.schedule(gen)
}

// draw must be called with mu held.
func (l *RenderLoop) draw() {
	snapshot := l.source.Snapshot()
	bars := l.renderer.Compute(snapshot, l.surface.Geometry())

	l.surface.Clear()
	for _, bar := range bars {
		if bar.Height > 0 {
			l.surface.FillRect(bar, l.fill)
		}
	}
	l.surface.Present()
}
