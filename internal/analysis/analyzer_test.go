package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/logger"
)

// sliceTap serves fixed samples, newest last.
type sliceTap struct {
	samples []float64
	calls   int
}

func (s *sliceTap) Latest(dst []float64) int {
	s.calls++
	n := min(len(dst), len(s.samples))
	copy(dst, s.samples[len(s.samples)-n:])
	return n
}

func sine(n, bin, size int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*float64(bin)*float64(i)/float64(size))
	}
	return out
}

func newAnalyzer(t *testing.T, cfg Config) *FrequencyAnalyzer {
	t.Helper()
	a, err := New(logger.NewTestLogger(), cfg)
	require.NoError(t, err)
	return a
}

func TestNewDefaults(t *testing.T) {
	a := newAnalyzer(t, DefaultConfig())

	assert.Equal(t, 256, a.TransformSize())
	assert.Equal(t, 128, a.BinCount())
	assert.False(t, a.Attached())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"not a power of two", func(c *Config) { c.TransformSize = 300 }},
		{"too small", func(c *Config) { c.TransformSize = 16 }},
		{"too large", func(c *Config) { c.TransformSize = 65536 }},
		{"smoothing above one", func(c *Config) { c.Smoothing = 1.5 }},
		{"inverted decibels", func(c *Config) { c.MinDecibels = -20 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(&cfg)

			_, err := New(logger.NewTestLogger(), cfg)
			require.Error(t, err)

			var verr *domain.ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestConfigure(t *testing.T) {
	a := newAnalyzer(t, DefaultConfig())

	require.NoError(t, a.Configure(1024))
	assert.Equal(t, 512, a.BinCount())
	assert.Len(t, a.Snapshot(), 512)

	err := a.Configure(1000)
	assert.ErrorIs(t, err, domain.ErrInvalidTransformSize)
	assert.Equal(t, 1024, a.TransformSize(), "failed configure must keep the previous size")
}

func TestSnapshotDetachedIsZeroed(t *testing.T) {
	a := newAnalyzer(t, DefaultConfig())

	snap := a.Snapshot()
	require.Len(t, snap, 128)
	for i, v := range snap {
		assert.Zero(t, v, "bin %d", i)
	}
}

func TestSnapshotPeaksAtToneBin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Smoothing = 0
	a := newAnalyzer(t, cfg)

	tap := &sliceTap{samples: sine(1024, 16, 256, 1)}
	a.Attach(tap, 44100)

	snap := a.Snapshot()
	require.Len(t, snap, 128)

	assert.Equal(t, uint8(255), snap[16])
	assert.Less(t, snap[100], snap[16])
	assert.Less(t, snap[2], snap[16])
	assert.Equal(t, 1, tap.calls)
	assert.InDelta(t, 16*44100.0/256, a.BinFrequency(16), 1e-9)
}

func TestSnapshotSilenceIsZero(t *testing.T) {
	a := newAnalyzer(t, DefaultConfig())
	a.Attach(&sliceTap{samples: make([]float64, 512)}, 44100)

	for _, v := range a.Snapshot() {
		assert.Zero(t, v)
	}
}

func TestSnapshotShortHistory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Smoothing = 0
	a := newAnalyzer(t, cfg)

	// Fewer samples than the transform size still produce a full snapshot
	a.Attach(&sliceTap{samples: sine(64, 16, 256, 1)}, 44100)

	snap := a.Snapshot()
	assert.Len(t, snap, 128)
	assert.NotZero(t, snap[16])
}

func TestSmoothingDecays(t *testing.T) {
	a := newAnalyzer(t, DefaultConfig())

	tone := &sliceTap{samples: sine(256, 32, 256, 1)}
	a.Attach(tone, 48000)
	for range 20 {
		a.Snapshot()
	}
	loud := a.Snapshot()[32]

	// Silence after a tone fades out rather than dropping instantly
	tone.samples = make([]float64, 256)
	first := a.Snapshot()[32]
	assert.NotZero(t, first)
	assert.LessOrEqual(t, first, loud)

	var last uint8
	for range 200 {
		last = a.Snapshot()[32]
	}
	assert.Less(t, last, first)
}

func TestDetachClearsHistory(t *testing.T) {
	a := newAnalyzer(t, DefaultConfig())
	a.Attach(&sliceTap{samples: sine(256, 8, 256, 1)}, 44100)
	a.Snapshot()

	a.Detach()
	assert.False(t, a.Attached())
	assert.Zero(t, a.BinFrequency(8))
	for _, v := range a.Snapshot() {
		assert.Zero(t, v)
	}
}

func TestToByte(t *testing.T) {
	assert.Equal(t, uint8(0), toByte(math.Inf(-1)))
	assert.Equal(t, uint8(0), toByte(-5))
	assert.Equal(t, uint8(127), toByte(127.9))
	assert.Equal(t, uint8(255), toByte(300))
	assert.Equal(t, uint8(0), toByte(math.NaN()))
}
