package mock

import (
	"context"
	"math"
	"sync"

	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/ports"
)

// GraphFactory is a mock implementation of the AudioGraphFactory interface.
// Like the real output sink it allows a single live graph.
type GraphFactory struct {
	mu         sync.Mutex
	live       int
	built      int
	sampleRate int
	failNext   bool
	toneHz     float64
}

// NewGraphFactory creates a factory whose graphs tap a 440 Hz tone at 44.1 kHz.
func NewGraphFactory() *GraphFactory {
	return &GraphFactory{sampleRate: 44100, toneHz: 440}
}

// SetFailNext makes the next NewGraph call fail (for testing).
func (f *GraphFactory) SetFailNext(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = fail
}

// NewGraph builds a graph unless another one is still live.
func (f *GraphFactory) NewGraph(media ports.MediaElement) (ports.AudioGraph, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNext {
		f.failNext = false
		return nil, domain.NewAudioEngineError("graph", "", "mock graph failure", domain.ErrGraphConstruction)
	}
	if f.live > 0 {
		return nil, domain.ErrGraphActive
	}

	f.live++
	f.built++

	return &Graph{
		factory:   f,
		media:     media,
		rate:      f.sampleRate,
		suspended: true,
		tap:       &ToneTap{Freq: f.toneHz, Rate: float64(f.sampleRate), Amp: 0.5},
	}, nil
}

// Live returns the number of unreleased graphs.
func (f *GraphFactory) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live
}

// Built returns how many graphs were built so far.
func (f *GraphFactory) Built() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.built
}

func (f *GraphFactory) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live--
}

// Graph is a mock AudioGraph. Its processing context starts suspended.
type Graph struct {
	factory *GraphFactory
	media   ports.MediaElement
	rate    int
	tap     *ToneTap

	mu        sync.Mutex
	suspended bool
	closed    bool
	resumes   int
}

// Tap returns the tone tap.
func (g *Graph) Tap() ports.SampleTap { return g.tap }

// SampleRate returns the tap sample rate.
func (g *Graph) SampleRate() int { return g.rate }

// Suspended reports whether the context is suspended.
func (g *Graph) Suspended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.suspended
}

// Resume resumes the context.
func (g *Graph) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return domain.ErrGraphClosed
	}
	g.suspended = false
	g.resumes++
	return nil
}

// Resumes returns the number of successful Resume calls.
func (g *Graph) Resumes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resumes
}

// Close releases the graph. Calling it again does nothing.
func (g *Graph) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.suspended = true
	g.mu.Unlock()

	g.factory.release()
	return nil
}

// Closed reports whether Close was called.
func (g *Graph) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// ToneTap produces a continuous sine wave.
type ToneTap struct {
	Freq, Rate, Amp float64

	mu    sync.Mutex
	phase float64
}

// Latest fills dst with the next len(dst) samples of the tone.
func (t *ToneTap) Latest(dst []float64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	step := 2 * math.Pi * t.Freq / t.Rate
	for i := range dst {
		dst[i] = t.Amp * math.Sin(t.phase)
		t.phase = math.Mod(t.phase+step, 2*math.Pi)
	}
	return len(dst)
}

var (
	_ ports.AudioGraphFactory = (*GraphFactory)(nil)
	_ ports.AudioGraph        = (*Graph)(nil)
)
