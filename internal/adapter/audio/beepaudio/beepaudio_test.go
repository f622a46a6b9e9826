package beepaudio

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/specviz/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/logger"
	"github.com/tejashwikalptaru/specviz/internal/testutil"
)

const testRate = beep.SampleRate(8000)

// writeTone encodes seconds of a 440 Hz tone as a mono WAV file.
func writeTone(t *testing.T, seconds float64) domain.SourceHandle {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	phase := 0.0
	tone := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := 0.5 * math.Sin(phase)
			samples[i] = [2]float64{v, v}
			phase += 2 * math.Pi * 440 / float64(testRate)
		}
		return len(samples), true
	})

	format := beep.Format{SampleRate: testRate, NumChannels: 1, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Take(testRate.N(time.Duration(seconds*float64(time.Second))), tone), format))
	require.NoError(t, f.Close())

	return domain.SourceHandle{Path: path, Name: "tone.wav", MIMEType: "audio/wav"}
}

func newTestMedia(t *testing.T) *Media {
	t.Helper()

	bus := eventbus.NewSyncEventBus()
	m := NewMedia(logger.NewTestLogger(), bus, int(testRate), time.Hour)
	t.Cleanup(func() {
		_ = m.Close()
		_ = bus.Close()
	})
	return m
}

func TestTapLatest(t *testing.T) {
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{float64(i), float64(i) + 2}
		}
		return len(samples), true
	})
	tap := NewTap(src, 4)

	dst := make([]float64, 8)
	assert.Zero(t, tap.Latest(dst), "empty tap")

	buf := make([][2]float64, 3)
	tap.Stream(buf)
	assert.Equal(t, 3, tap.Latest(dst))
	assert.Equal(t, []float64{1, 2, 3}, dst[:3])

	tap.Stream(buf)
	assert.Equal(t, 4, tap.Latest(dst), "bounded by the ring size")
	assert.Equal(t, []float64{3, 1, 2, 3}, dst[:4])

	small := make([]float64, 2)
	assert.Equal(t, 2, tap.Latest(small))
	assert.Equal(t, []float64{2, 3}, small)

	tap.Reset()
	assert.Zero(t, tap.Latest(dst))
}

func TestEndGuardNeverDrains(t *testing.T) {
	g := &endGuard{s: beep.Take(3, beep.Silence(-1))}

	buf := make([][2]float64, 5)
	for i := range buf {
		buf[i] = [2]float64{1, 1}
	}

	n, ok := g.Stream(buf)
	assert.Equal(t, 5, n)
	assert.True(t, ok)
	assert.True(t, g.ended.Load())
	assert.Equal(t, [2]float64{}, buf[4], "padding is silent")

	n, ok = g.Stream(buf)
	assert.Equal(t, 5, n)
	assert.True(t, ok)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(domain.SourceHandle{Path: "/a/b.MP3"}))
	assert.True(t, Supported(domain.SourceHandle{Path: "/a/b.flac"}))
	assert.True(t, Supported(domain.SourceHandle{Path: "/a/noext", MIMEType: "audio/ogg"}))
	assert.True(t, Supported(domain.SourceHandle{Path: "/a/noext", MIMEType: "audio/x-wav; charset=binary"}))
	assert.False(t, Supported(domain.SourceHandle{Path: "/a/b.m4a"}))
	assert.False(t, Supported(domain.SourceHandle{}))
}

func TestDecodeErrors(t *testing.T) {
	_, _, err := Decode(domain.SourceHandle{Path: "/a/b.txt"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, _, err = Decode(domain.SourceHandle{Path: filepath.Join(t.TempDir(), "missing.mp3")})
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	garbage := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not a wave file"), 0o600))
	_, _, err = Decode(domain.SourceHandle{Path: garbage})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestDecodeWAV(t *testing.T) {
	src := writeTone(t, 0.5)

	stream, format, err := Decode(src)
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, testRate, format.SampleRate)
	assert.Equal(t, testRate.N(500*time.Millisecond), stream.Len())
}

func TestMediaLoadSeekAndSignals(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	m := newTestMedia(t)
	src := writeTone(t, 2)

	assert.True(t, m.CanPlay(src))
	require.NoError(t, m.Load(src))

	assert.True(t, m.Paused())
	assert.InDelta(t, 2.0, m.Duration(), 1e-3)
	assert.Zero(t, m.CurrentTime())

	require.NoError(t, m.Seek(1.5))
	assert.InDelta(t, 1.5, m.CurrentTime(), 1e-3)
	require.NoError(t, m.Seek(99))
	assert.InDelta(t, 2.0, m.CurrentTime(), 1e-3)

	events := m.pollSignals()
	require.Len(t, events, 1, "a paused source only reports readiness")
	ready := events[0].(domain.MediaReadyEvent)
	assert.Equal(t, src.Path, ready.SourcePath)
	assert.InDelta(t, 2.0, ready.DurationSeconds, 1e-3)
	assert.Empty(t, m.pollSignals(), "readiness is reported once")

	require.NoError(t, m.Close())
}

func TestMediaPlaysToEnd(t *testing.T) {
	m := newTestMedia(t)
	require.NoError(t, m.Load(writeTone(t, 0.25)))
	m.pollSignals()

	require.NoError(t, m.Play(context.Background()))
	assert.False(t, m.Paused())

	// Pull the output the way the speaker would
	out := m.Output()
	buf := make([][2]float64, 512)
	for range 10 {
		out.Stream(buf)
	}

	events := m.pollSignals()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventMediaTimeUpdate, events[0].Type())
	assert.Equal(t, domain.EventMediaEnded, events[1].Type())
	assert.True(t, m.Paused(), "an ended source pauses itself")

	// Playing again restarts from the beginning
	require.NoError(t, m.Play(context.Background()))
	assert.Zero(t, m.CurrentTime())
}

func TestMediaPlayingReportsTime(t *testing.T) {
	m := newTestMedia(t)
	require.NoError(t, m.Load(writeTone(t, 1)))
	m.pollSignals()
	require.NoError(t, m.Play(context.Background()))

	buf := make([][2]float64, 800)
	m.Output().Stream(buf)

	events := m.pollSignals()
	require.Len(t, events, 1)
	assert.InDelta(t, 0.1, events[0].(domain.MediaTimeUpdateEvent).CurrentTimeSeconds, 1e-3)

	require.NoError(t, m.Pause())
	assert.Empty(t, m.pollSignals())
}

func TestMediaWithoutSource(t *testing.T) {
	m := newTestMedia(t)

	assert.ErrorIs(t, m.Play(context.Background()), domain.ErrNoTrackLoaded)
	assert.ErrorIs(t, m.Seek(1), domain.ErrNoTrackLoaded)
	assert.Zero(t, m.Duration())
	assert.True(t, m.Paused())
	assert.Nil(t, m.pollSignals())

	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Load(domain.SourceHandle{Path: "/x.wav"}), domain.ErrMediaClosed)
}

func TestMediaLoadFailureDropsPreviousSource(t *testing.T) {
	m := newTestMedia(t)
	require.NoError(t, m.Load(writeTone(t, 1)))

	err := m.Load(domain.SourceHandle{Path: filepath.Join(t.TempDir(), "gone.wav")})
	require.Error(t, err)
	assert.Zero(t, m.Duration())
}

func TestGraphFactoryRejectsForeignMedia(t *testing.T) {
	f := NewGraphFactory(logger.NewTestLogger(), 0, 1024)

	_, err := f.NewGraph(nil)
	assert.ErrorIs(t, err, domain.ErrGraphConstruction)
	assert.Zero(t, f.Live())
}

// fakeOutput stands in for the speaker.
type fakeOutput struct {
	mu        sync.Mutex
	inits     int
	plays     int
	clears    int
	suspended bool
}

func (o *fakeOutput) Init(beep.SampleRate, int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inits++
	return nil
}

func (o *fakeOutput) Play(beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.plays++
}

func (o *fakeOutput) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clears++
}

func (o *fakeOutput) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suspended = true
	return nil
}

func (o *fakeOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suspended = false
	return nil
}

func (o *fakeOutput) state() (inits, plays, clears int, suspended bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inits, o.plays, o.clears, o.suspended
}

func TestGraphFactoryOneLiveGraph(t *testing.T) {
	out := &fakeOutput{}
	f := newGraphFactory(logger.NewTestLogger(), 0, 1024, out)
	m := newTestMedia(t)

	g, err := f.NewGraph(m)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Live())
	assert.True(t, g.Suspended())
	assert.Equal(t, int(testRate), g.SampleRate())

	_, err = f.NewGraph(m)
	assert.ErrorIs(t, err, domain.ErrGraphActive)

	require.NoError(t, g.Resume(context.Background()))
	assert.False(t, g.Suspended())

	inits, plays, clears, suspended := out.state()
	assert.Equal(t, 1, inits)
	assert.Equal(t, 1, plays)
	assert.Zero(t, clears)
	assert.False(t, suspended)
}

func TestGraphCloseReleasesOutput(t *testing.T) {
	out := &fakeOutput{}
	f := newGraphFactory(logger.NewTestLogger(), 0, 1024, out)
	m := newTestMedia(t)

	g, err := f.NewGraph(m)
	require.NoError(t, err)
	require.NoError(t, g.Resume(context.Background()))

	require.NoError(t, g.Close())
	assert.Zero(t, f.Live())
	assert.True(t, g.Suspended())
	assert.ErrorIs(t, g.Resume(context.Background()), domain.ErrGraphClosed)
	assert.NoError(t, g.Close())

	_, _, clears, suspended := out.state()
	assert.Equal(t, 1, clears, "second Close is a no-op")
	assert.True(t, suspended)

	// The output is opened once per process and reused by the next graph
	g2, err := f.NewGraph(m)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Live())

	// Closing a stale graph does not release the live one
	require.NoError(t, g.Close())
	assert.Equal(t, 1, f.Live())
	require.NoError(t, g2.Close())

	inits, plays, _, _ := out.state()
	assert.Equal(t, 1, inits)
	assert.Equal(t, 2, plays)
}

func TestGraphFactoryRejectsOtherRate(t *testing.T) {
	f := newGraphFactory(logger.NewTestLogger(), 0, 1024, &fakeOutput{})

	g, err := f.NewGraph(newTestMedia(t))
	require.NoError(t, err)
	require.NoError(t, g.Close())

	bus := eventbus.NewSyncEventBus()
	other := NewMedia(logger.NewTestLogger(), bus, 44100, time.Hour)
	t.Cleanup(func() {
		_ = other.Close()
		_ = bus.Close()
	})

	_, err = f.NewGraph(other)
	assert.ErrorIs(t, err, domain.ErrGraphConstruction)
	assert.Zero(t, f.Live())
}
