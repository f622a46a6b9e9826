package beepaudio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/ports"
)

// output is the device side of a graph. speakerOutput drives the real device.
type output interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Clear()
	Suspend() error
	Resume() error
}

type speakerOutput struct{}

func (speakerOutput) Init(rate beep.SampleRate, bufferSize int) error { return speaker.Init(rate, bufferSize) }
func (speakerOutput) Play(s beep.Streamer)                             { speaker.Play(s) }
func (speakerOutput) Clear()                                           { speaker.Clear() }
func (speakerOutput) Suspend() error                                   { return speaker.Suspend() }
func (speakerOutput) Resume() error                                    { return speaker.Resume() }

// GraphFactory connects media elements to the speaker through an analysis tap.
//
// The speaker is initialized on the first graph and then kept for the lifetime
// of the process, because the output driver cannot be re-created. Closing a graph
// clears the speaker mixer and suspends the output instead.
type GraphFactory struct {
	logger  *slog.Logger
	buffer  time.Duration
	tapSize int
	out     output

	mu       sync.Mutex
	initRate beep.SampleRate
	live     *Graph
}

// NewGraphFactory creates a factory. buffer is the speaker latency and tapSize the
// number of samples kept for analysis.
func NewGraphFactory(logger *slog.Logger, buffer time.Duration, tapSize int) *GraphFactory {
	return newGraphFactory(logger, buffer, tapSize, speakerOutput{})
}

func newGraphFactory(logger *slog.Logger, buffer time.Duration, tapSize int, out output) *GraphFactory {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 50 * time.Millisecond
	}

	return &GraphFactory{
		logger:  logger.With(slog.String("component", "graph-factory")),
		buffer:  buffer,
		tapSize: tapSize,
		out:     out,
	}
}

// NewGraph builds the chain media -> tap -> speaker. The output starts suspended.
func (f *GraphFactory) NewGraph(media ports.MediaElement) (ports.AudioGraph, error) {
	src, ok := media.(StreamSource)
	if !ok {
		return nil, domain.NewAudioEngineError("graph", "", fmt.Sprintf("media %T has no stream output", media),
			domain.ErrGraphConstruction)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.live != nil {
		return nil, domain.ErrGraphActive
	}

	rate := src.OutputRate()
	if err := f.initSpeaker(rate); err != nil {
		return nil, err
	}

	if err := f.out.Suspend(); err != nil {
		f.logger.Warn("failed to suspend output", slog.Any("error", err))
	}

	tap := NewTap(src.Output(), f.tapSize)
	f.out.Play(tap)

	g := &Graph{
		factory:   f,
		tap:       tap,
		rate:      int(rate),
		suspended: true,
	}
	f.live = g

	f.logger.Debug("analysis graph connected", slog.Int("sample_rate", int(rate)), slog.Int("tap_size", f.tapSize))
	return g, nil
}

// initSpeaker must be called with mu held.
func (f *GraphFactory) initSpeaker(rate beep.SampleRate) error {
	if f.initRate != 0 {
		if f.initRate != rate {
			return domain.NewAudioEngineError("graph", "",
				fmt.Sprintf("output already running at %d Hz", f.initRate), domain.ErrGraphConstruction)
		}
		return nil
	}

	if err := f.out.Init(rate, rate.N(f.buffer)); err != nil {
		return domain.NewAudioEngineError("graph", "", "cannot open audio output",
			fmt.Errorf("%w: %w", domain.ErrGraphConstruction, err))
	}
	f.initRate = rate

	f.logger.Info("audio output initialized", slog.Int("sample_rate", int(rate)), slog.Duration("buffer", f.buffer))
	return nil
}

// Live returns 1 while a graph is connected, 0 otherwise.
func (f *GraphFactory) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.live != nil {
		return 1
	}
	return 0
}

func (f *GraphFactory) release(g *Graph) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.live != g {
		return
	}

	f.out.Clear()
	if err := f.out.Suspend(); err != nil {
		f.logger.Warn("failed to suspend output", slog.Any("error", err))
	}
	f.live = nil
}

// Graph is a connected media -> tap -> speaker chain.
type Graph struct {
	factory *GraphFactory
	tap     *Tap
	rate    int

	mu        sync.Mutex
	suspended bool
	closed    bool
}

// Tap returns the analysis tap.
func (g *Graph) Tap() ports.SampleTap { return g.tap }

// SampleRate returns the output rate.
func (g *Graph) SampleRate() int { return g.rate }

// Suspended reports whether the output is suspended.
func (g *Graph) Suspended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.suspended
}

// Resume resumes the output.
func (g *Graph) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return domain.ErrGraphClosed
	}
	if err := g.factory.out.Resume(); err != nil {
		return domain.NewAudioEngineError("resume", "", "cannot resume audio output", err)
	}
	g.suspended = false
	return nil
}

// Close disconnects the chain. It is safe to call multiple times.
func (g *Graph) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.suspended = true
	g.mu.Unlock()

	g.factory.release(g)
	g.tap.Reset()
	return nil
}

var (
	_ ports.AudioGraphFactory = (*GraphFactory)(nil)
	_ ports.AudioGraph        = (*Graph)(nil)
)
