// Package analysis turns the samples flowing through an audio graph into
// byte-scaled frequency magnitudes.
package analysis

import (
	"log/slog"
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/ports"
)

// Transform size bounds accepted by Configure.
const (
	MinTransformSize = 32
	MaxTransformSize = 32768
)

// Config holds the analyser parameters.
type Config struct {
	TransformSize int     // power of two in [MinTransformSize, MaxTransformSize]
	Smoothing     float64 // weight of the previous frame, in [0,1]
	MinDecibels   float64 // level mapped to 0
	MaxDecibels   float64 // level mapped to 255
}

// DefaultConfig returns 256-point analysis with the usual analyser defaults.
func DefaultConfig() Config {
	return Config{
		TransformSize: 256,
		Smoothing:     0.8,
		MinDecibels:   -100,
		MaxDecibels:   -30,
	}
}

// FrequencyAnalyzer exposes byte frequency snapshots of the attached tap.
//
// Each snapshot windows the newest TransformSize samples (Blackman), runs a real
// FFT, smooths the normalized magnitudes over time and maps the resulting decibel
// levels linearly onto 0..255.
//
// Thread-safety: all methods are safe for concurrent use.
type FrequencyAnalyzer struct {
	logger *slog.Logger

	mu         sync.Mutex
	cfg        Config
	fft        *fourier.FFT
	window     []float64
	samples    []float64
	smoothed   []float64
	tap        ports.SampleTap
	sampleRate int
}

// New creates an analyser. Returns a ValidationError when cfg is invalid.
func New(logger *slog.Logger, cfg Config) (*FrequencyAnalyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	a := &FrequencyAnalyzer{
		logger: logger.With(slog.String("component", "analyzer")),
		cfg:    cfg,
	}
	a.resize(cfg.TransformSize)

	return a, nil
}

func validate(cfg Config) error {
	if err := validateSize(cfg.TransformSize); err != nil {
		return err
	}
	if cfg.Smoothing < 0 || cfg.Smoothing > 1 || math.IsNaN(cfg.Smoothing) {
		return domain.NewValidationError("smoothing", cfg.Smoothing, "must be within [0,1]")
	}
	if !(cfg.MinDecibels < cfg.MaxDecibels) {
		return domain.NewValidationError("decibels", [2]float64{cfg.MinDecibels, cfg.MaxDecibels},
			"minimum must be below maximum")
	}
	return nil
}

func validateSize(size int) error {
	if size < MinTransformSize || size > MaxTransformSize || size&(size-1) != 0 {
		verr := domain.NewValidationError("transformSize", size, "must be a power of two in [32, 32768]")
		verr.Err = domain.ErrInvalidTransformSize
		return verr
	}
	return nil
}

// resize must be called with mu held (or before the analyser is shared).
func (a *FrequencyAnalyzer) resize(size int) {
	a.cfg.TransformSize = size
	a.fft = fourier.NewFFT(size)
	a.window = window.Blackman(size)
	a.samples = make([]float64, size)
	a.smoothed = make([]float64, size/2)
}

// Configure sets the transform size; the bin count becomes transformSize/2.
// Smoothing history is discarded.
func (a *FrequencyAnalyzer) Configure(transformSize int) error {
	if err := validateSize(transformSize); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.resize(transformSize)
	a.logger.Debug("analyser configured", slog.Int("transform_size", transformSize))
	return nil
}

// Attach connects the analyser to the tap of a graph.
func (a *FrequencyAnalyzer) Attach(tap ports.SampleTap, sampleRate int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.tap = tap
	a.sampleRate = sampleRate
	clear(a.smoothed)
}

// Detach disconnects the analyser. Later snapshots are all zero.
func (a *FrequencyAnalyzer) Detach() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.tap = nil
	a.sampleRate = 0
	clear(a.smoothed)
}

// Attached reports whether a tap is connected.
func (a *FrequencyAnalyzer) Attached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tap != nil
}

// BinCount returns the number of magnitudes in a snapshot.
func (a *FrequencyAnalyzer) BinCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.TransformSize / 2
}

// TransformSize returns the configured FFT size.
func (a *FrequencyAnalyzer) TransformSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.TransformSize
}

// BinFrequency returns the centre frequency of bin i in Hz, 0 when detached.
func (a *FrequencyAnalyzer) BinFrequency(i int) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sampleRate == 0 {
		return 0
	}
	return float64(i) * float64(a.sampleRate) / float64(a.cfg.TransformSize)
}

// Snapshot returns the current magnitudes, BinCount() values in 0..255.
// It never fails: without a tap the snapshot is all zero.
func (a *FrequencyAnalyzer) Snapshot() domain.FrequencySnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.cfg.TransformSize
	out := make(domain.FrequencySnapshot, n/2)
	if a.tap == nil {
		return out
	}

	got := a.tap.Latest(a.samples)
	if got < n {
		// Not enough history yet: right-align and pad with silence
		copy(a.samples[n-got:], a.samples[:got])
		clear(a.samples[:n-got])
	}

	for i := range a.samples {
		a.samples[i] *= a.window[i]
	}

	coeffs := a.fft.Coefficients(nil, a.samples)

	tau := a.cfg.Smoothing
	scale := 255 / (a.cfg.MaxDecibels - a.cfg.MinDecibels)
	for k := range out {
		mag := cmplx.Abs(coeffs[k]) / float64(n)
		s := tau*a.smoothed[k] + (1-tau)*mag
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}
		a.smoothed[k] = s

		out[k] = toByte((linearToDecibels(s) - a.cfg.MinDecibels) * scale)
	}

	return out
}

func linearToDecibels(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}

func toByte(v float64) uint8 {
	switch {
	case math.IsInf(v, -1) || v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Floor(v))
	}
}
