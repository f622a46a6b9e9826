package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/specviz/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/specviz/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/specviz/internal/adapter/frame"
	"github.com/tejashwikalptaru/specviz/internal/adapter/surface"
	"github.com/tejashwikalptaru/specviz/internal/analysis"
	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/logger"
	"github.com/tejashwikalptaru/specviz/internal/visualizer"
)

var (
	songA = domain.SourceHandle{Path: "/music/a.mp3", Name: "a.mp3", MIMEType: "audio/mpeg"}
	songB = domain.SourceHandle{Path: "/music/b.flac", Name: "b.flac", MIMEType: "audio/flac"}
)

// eventRecorder keeps every event published on the bus.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *eventRecorder) handle(e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) ofType(t domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Event
	for _, e := range r.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

type controllerFixture struct {
	ctrl     *PlaybackController
	media    *mock.Media
	graphs   *mock.GraphFactory
	sched    *frame.ManualScheduler
	surface  *surface.RasterSurface
	loop     *visualizer.RenderLoop
	analyzer *analysis.FrequencyAnalyzer
	bus      *eventbus.SyncEventBus
	events   *eventRecorder
}

// Helper to create a controller wired to mocks
func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()

	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus()
	bus.SetLogger(log)

	rec := &eventRecorder{}
	bus.SubscribeAll(rec.handle)

	media := mock.NewMedia(log, bus)
	media.SetDuration(songA.Path, 200)
	media.SetDuration(songB.Path, 90)

	graphs := mock.NewGraphFactory()

	analyzer, err := analysis.New(log, analysis.DefaultConfig())
	require.NoError(t, err)

	sched := frame.NewManualScheduler()
	surf := surface.NewRasterSurface(128, 64, 2, 2)
	loop := visualizer.NewRenderLoop(log, sched, analyzer, surf, visualizer.NewSpectrumRenderer(), nil)

	ctrl := NewPlaybackController(log, media, graphs, analyzer, loop, bus)
	t.Cleanup(func() {
		ctrl.Destroy()
		_ = bus.Close()
	})

	return &controllerFixture{
		ctrl:     ctrl,
		media:    media,
		graphs:   graphs,
		sched:    sched,
		surface:  surf,
		loop:     loop,
		analyzer: analyzer,
		bus:      bus,
		events:   rec,
	}
}

func (f *controllerFixture) loadAndPlay(t *testing.T, src domain.SourceHandle) {
	t.Helper()
	require.NoError(t, f.ctrl.LoadTrack(src))
	out, err := f.ctrl.TogglePlay(context.Background())
	require.NoError(t, err)
	require.True(t, out.Started)
}

func TestPlaybackController_InitialState(t *testing.T) {
	f := newControllerFixture(t)

	status := f.ctrl.Status()
	assert.Equal(t, domain.StateIdle, status.State)
	assert.Nil(t, status.Track)
	assert.False(t, f.ctrl.HasGraph())
	assert.Zero(t, f.ctrl.CurrentTime())
	assert.Zero(t, f.ctrl.Duration())
}

func TestPlaybackController_TogglePlayWithoutTrack(t *testing.T) {
	f := newControllerFixture(t)

	out, err := f.ctrl.TogglePlay(context.Background())
	require.NoError(t, err)

	assert.True(t, out.NeedsTrack)
	assert.False(t, out.Started)
	assert.Equal(t, domain.StateIdle, f.ctrl.State())
	assert.Zero(t, f.graphs.Built())
}

func TestPlaybackController_LoadTrackIgnoresInvalidSource(t *testing.T) {
	f := newControllerFixture(t)

	require.NoError(t, f.ctrl.LoadTrack(domain.SourceHandle{}))
	require.NoError(t, f.ctrl.LoadTrack(domain.SourceHandle{Path: "/img/cover.png", MIMEType: "image/png"}))

	assert.Equal(t, domain.StateIdle, f.ctrl.State())
	loads, _, _, _ := f.media.Calls()
	assert.Zero(t, loads)
	assert.Empty(t, f.events.ofType(domain.EventTrackLoaded))
}

func TestPlaybackController_CanPlay(t *testing.T) {
	f := newControllerFixture(t)

	assert.True(t, f.ctrl.CanPlay(songA))
	assert.False(t, f.ctrl.CanPlay(domain.SourceHandle{}))

	f.media.RejectMIME("audio/flac")
	assert.False(t, f.ctrl.CanPlay(songB))
}

func TestPlaybackController_LoadTrack(t *testing.T) {
	f := newControllerFixture(t)

	require.NoError(t, f.ctrl.LoadTrack(songA))

	status := f.ctrl.Status()
	assert.Equal(t, domain.StateLoaded, status.State)
	require.NotNil(t, status.Track)
	assert.NotEmpty(t, status.Track.ID)
	assert.Equal(t, songA, status.Track.Source)
	assert.Zero(t, status.CurrentTimeSeconds)
	assert.InDelta(t, 200.0, status.DurationSeconds, 1e-9)

	// The graph is built lazily on the first play
	assert.False(t, f.ctrl.HasGraph())
	assert.False(t, f.loop.Running())

	loaded := f.events.ofType(domain.EventTrackLoaded)
	require.Len(t, loaded, 1)
	assert.Equal(t, status.Track.ID, loaded[0].(domain.TrackLoadedEvent).Track.ID)

	changes := f.events.ofType(domain.EventPlaybackStateChanged)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.StateIdle, changes[0].(domain.PlaybackStateChangedEvent).From)
	assert.Equal(t, domain.StateLoaded, changes[0].(domain.PlaybackStateChangedEvent).To)
}

func TestPlaybackController_LoadTrackFailure(t *testing.T) {
	f := newControllerFixture(t)
	f.media.SetFailLoad(true)

	err := f.ctrl.LoadTrack(songA)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	assert.Equal(t, domain.StateIdle, f.ctrl.State())
	require.Len(t, f.events.ofType(domain.EventTrackError), 1)
	assert.Equal(t, songA, f.events.ofType(domain.EventTrackError)[0].(domain.TrackErrorEvent).Source)
}

func TestPlaybackController_TogglePlayStartsRendering(t *testing.T) {
	f := newControllerFixture(t)
	f.loadAndPlay(t, songA)

	assert.Equal(t, domain.StatePlaying, f.ctrl.State())
	assert.True(t, f.ctrl.HasGraph())
	assert.Equal(t, 1, f.graphs.Live())
	assert.True(t, f.analyzer.Attached())
	assert.True(t, f.loop.Running())
	assert.True(t, f.loop.Pending(), "a frame tick must be pending after play")
	assert.False(t, f.media.Paused())

	f.sched.StepN(3)
	assert.Equal(t, uint64(3), f.loop.FramesDrawn())
	assert.Positive(t, f.surface.CountFilled())

	require.Len(t, f.events.ofType(domain.EventGraphBuilt), 1)
}

func TestPlaybackController_TogglePauseStopsDrawing(t *testing.T) {
	f := newControllerFixture(t)
	f.loadAndPlay(t, songA)
	f.sched.StepN(2)

	out, err := f.ctrl.TogglePlay(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Started)
	assert.False(t, out.NeedsTrack)

	assert.Equal(t, domain.StatePaused, f.ctrl.State())
	assert.True(t, f.media.Paused())
	assert.False(t, f.loop.Running())
	assert.False(t, f.loop.Pending())

	drawn := f.loop.FramesDrawn()
	f.sched.StepN(10)
	assert.Equal(t, drawn, f.loop.FramesDrawn(), "no frame may be drawn while paused")

	// Resume reuses the graph
	f.resume(t)
	assert.Equal(t, 1, f.graphs.Built())
}

func (f *controllerFixture) resume(t *testing.T) {
	t.Helper()
	out, err := f.ctrl.TogglePlay(context.Background())
	require.NoError(t, err)
	require.True(t, out.Started)
	assert.Equal(t, domain.StatePlaying, f.ctrl.State())
}

func TestPlaybackController_Reset(t *testing.T) {
	f := newControllerFixture(t)
	f.loadAndPlay(t, songA)
	require.NoError(t, f.ctrl.Seek(0.5))
	f.sched.StepN(2)
	require.Positive(t, f.surface.CountFilled())

	f.ctrl.Reset()

	assert.Equal(t, domain.StateLoaded, f.ctrl.State())
	assert.Zero(t, f.ctrl.CurrentTime())
	assert.Zero(t, f.media.CurrentTime())
	assert.True(t, f.media.Paused())
	assert.False(t, f.loop.Running())
	assert.Zero(t, f.surface.CountFilled(), "reset must leave a blank surface")

	resets := f.events.ofType(domain.EventVisualizerReset)
	require.Len(t, resets, 1)
	assert.False(t, resets[0].(domain.VisualizerResetEvent).Ended)

	f.sched.StepN(5)
	assert.Zero(t, f.surface.CountFilled())
}

func TestPlaybackController_ResetWithoutTrack(t *testing.T) {
	f := newControllerFixture(t)

	f.ctrl.Reset()
	assert.Equal(t, domain.StateIdle, f.ctrl.State())
}

func TestPlaybackController_MediaEnded(t *testing.T) {
	f := newControllerFixture(t)
	f.loadAndPlay(t, songA)
	f.sched.Step()

	f.media.EmitEnded()

	assert.Equal(t, domain.StateEnded, f.ctrl.State())
	assert.Zero(t, f.ctrl.CurrentTime())
	assert.False(t, f.loop.Running())
	assert.Zero(t, f.surface.CountFilled())

	resets := f.events.ofType(domain.EventVisualizerReset)
	require.Len(t, resets, 1)
	assert.True(t, resets[0].(domain.VisualizerResetEvent).Ended)

	// Play again from the start with the same graph
	f.resume(t)
	assert.Equal(t, 1, f.graphs.Built())
	assert.Zero(t, f.media.CurrentTime())
}

func TestPlaybackController_EndedIgnoredWhenNotPlaying(t *testing.T) {
	f := newControllerFixture(t)
	require.NoError(t, f.ctrl.LoadTrack(songA))

	f.media.EmitEnded()
	assert.Equal(t, domain.StateLoaded, f.ctrl.State())
}

func TestPlaybackController_Seek(t *testing.T) {
	f := newControllerFixture(t)

	assert.ErrorIs(t, f.ctrl.Seek(0.5), domain.ErrNoTrackLoaded)

	require.NoError(t, f.ctrl.LoadTrack(songA))

	tests := []struct {
		percent float64
		want    float64
	}{
		{0.5, 100},
		{0.25, 50},
		{1.7, 200},
		{-0.2, 0},
		{math.NaN(), 0},
		{1, 200},
	}

	for _, tt := range tests {
		require.NoError(t, f.ctrl.Seek(tt.percent))
		assert.InDelta(t, tt.want, f.ctrl.CurrentTime(), 1e-9, "seek %v", tt.percent)
		assert.InDelta(t, tt.want, f.media.CurrentTime(), 1e-9, "media seek %v", tt.percent)
	}

	assert.Equal(t, domain.StateLoaded, f.ctrl.State())
}

func TestPlaybackController_SeekFromEnded(t *testing.T) {
	f := newControllerFixture(t)
	f.loadAndPlay(t, songA)
	f.media.EmitEnded()
	require.Equal(t, domain.StateEnded, f.ctrl.State())

	require.NoError(t, f.ctrl.Seek(0.1))

	assert.Equal(t, domain.StatePaused, f.ctrl.State())
	assert.InDelta(t, 20.0, f.ctrl.CurrentTime(), 1e-9)
	assert.False(t, f.loop.Running())
}

func TestPlaybackController_SeekWhilePlayingKeepsRendering(t *testing.T) {
	f := newControllerFixture(t)
	f.loadAndPlay(t, songA)

	require.NoError(t, f.ctrl.Seek(0.75))

	assert.Equal(t, domain.StatePlaying, f.ctrl.State())
	assert.True(t, f.loop.Running())
	assert.InDelta(t, 150.0, f.ctrl.CurrentTime(), 1e-9)
}

func TestPlaybackController_SecondLoadWhilePlaying(t *testing.T) {
	f := newControllerFixture(t)
	f.loadAndPlay(t, songA)
	f.media.SimulateProgress(30 * time.Second)
	require.InDelta(t, 30.0, f.ctrl.CurrentTime(), 1e-9)
	firstID := f.ctrl.Status().Track.ID

	require.NoError(t, f.ctrl.LoadTrack(songB))

	status := f.ctrl.Status()
	assert.Equal(t, domain.StateLoaded, status.State)
	assert.Zero(t, status.CurrentTimeSeconds)
	assert.InDelta(t, 90.0, status.DurationSeconds, 1e-9)
	assert.NotEqual(t, firstID, status.Track.ID)
	assert.False(t, f.ctrl.HasGraph())
	assert.False(t, f.loop.Running())
	assert.Equal(t, 0, f.graphs.Live())

	f.resume(t)
	assert.Equal(t, 1, f.graphs.Live(), "exactly one graph may be connected to the output")
	assert.Equal(t, 2, f.graphs.Built())

	released := f.events.ofType(domain.EventGraphReleased)
	require.Len(t, released, 1)
	assert.Equal(t, firstID, released[0].(domain.GraphReleasedEvent).TrackID)
}

func TestPlaybackController_GraphConstructionFailure(t *testing.T) {
	f := newControllerFixture(t)
	require.NoError(t, f.ctrl.LoadTrack(songA))
	f.graphs.SetFailNext(true)

	out, err := f.ctrl.TogglePlay(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGraphConstruction)

	var engineErr *domain.AudioEngineError
	assert.True(t, errors.As(err, &engineErr))

	assert.False(t, out.Started)
	assert.Equal(t, domain.StateLoaded, f.ctrl.State())
	assert.False(t, f.ctrl.HasGraph())
	assert.False(t, f.loop.Running())
	_, plays, _, _ := f.media.Calls()
	assert.Zero(t, plays)

	// A later toggle tries again
	f.resume(t)
	assert.True(t, f.ctrl.HasGraph())
}

func TestPlaybackController_PlayFailure(t *testing.T) {
	f := newControllerFixture(t)
	require.NoError(t, f.ctrl.LoadTrack(songA))
	f.media.SetFailPlay(true)

	_, err := f.ctrl.TogglePlay(context.Background())
	assert.ErrorIs(t, err, domain.ErrPlaybackFailed)
	assert.Equal(t, domain.StateLoaded, f.ctrl.State())
	assert.False(t, f.loop.Running())
}

func TestPlaybackController_PlayCancelledContext(t *testing.T) {
	f := newControllerFixture(t)
	require.NoError(t, f.ctrl.LoadTrack(songA))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.ctrl.TogglePlay(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.StateLoaded, f.ctrl.State())
}

func TestPlaybackController_TimeUpdates(t *testing.T) {
	f := newControllerFixture(t)
	f.loadAndPlay(t, songA)

	f.media.SimulateProgress(1500 * time.Millisecond)
	assert.InDelta(t, 1.5, f.ctrl.CurrentTime(), 1e-9)

	progress := f.events.ofType(domain.EventPlaybackProgress)
	require.NotEmpty(t, progress)
	last := progress[len(progress)-1].(domain.PlaybackProgressEvent)
	assert.InDelta(t, 1.5, last.CurrentTimeSeconds, 1e-9)
	assert.InDelta(t, 200.0, last.DurationSeconds, 1e-9)

	// Signals of another source are ignored
	f.bus.Publish(domain.NewMediaTimeUpdateEvent(songB.Path, 42))
	assert.InDelta(t, 1.5, f.ctrl.CurrentTime(), 1e-9)

	// Position beyond the duration is clamped
	f.bus.Publish(domain.NewMediaTimeUpdateEvent(songA.Path, 500))
	assert.InDelta(t, 200.0, f.ctrl.CurrentTime(), 1e-9)
}

func TestPlaybackController_TimeUpdateIgnoredWhilePaused(t *testing.T) {
	f := newControllerFixture(t)
	require.NoError(t, f.ctrl.LoadTrack(songA))
	require.NoError(t, f.ctrl.Seek(0.5))

	f.bus.Publish(domain.NewMediaTimeUpdateEvent(songA.Path, 3))
	assert.InDelta(t, 100.0, f.ctrl.CurrentTime(), 1e-9)
}

func TestPlaybackController_MediaReadyUpdatesDuration(t *testing.T) {
	f := newControllerFixture(t)
	require.NoError(t, f.ctrl.LoadTrack(songA))

	f.bus.Publish(domain.NewMediaReadyEvent(songA.Path, 321.5))
	assert.InDelta(t, 321.5, f.ctrl.Duration(), 1e-9)

	f.bus.Publish(domain.NewMediaReadyEvent(songB.Path, 10))
	assert.InDelta(t, 321.5, f.ctrl.Duration(), 1e-9)
}

func TestPlaybackController_Destroy(t *testing.T) {
	f := newControllerFixture(t)
	f.loadAndPlay(t, songA)

	f.ctrl.Destroy()

	assert.Equal(t, domain.StateIdle, f.ctrl.State())
	assert.False(t, f.ctrl.HasGraph())
	assert.Equal(t, 0, f.graphs.Live())
	assert.False(t, f.loop.Running())
	assert.False(t, f.analyzer.Attached())
	assert.Equal(t, 1, f.media.Unloads())
	assert.Equal(t, 1, f.bus.SubscriberCount(), "only the recorder may remain subscribed")

	// Idempotent
	f.ctrl.Destroy()
	assert.Equal(t, 1, f.media.Unloads())

	assert.ErrorIs(t, f.ctrl.LoadTrack(songB), domain.ErrControllerDestroyed)
	_, err := f.ctrl.TogglePlay(context.Background())
	assert.ErrorIs(t, err, domain.ErrControllerDestroyed)
	assert.ErrorIs(t, f.ctrl.Seek(0.5), domain.ErrControllerDestroyed)
}

func TestPlaybackController_HandlersMayCallBack(t *testing.T) {
	f := newControllerFixture(t)

	var seen []domain.PlaybackState
	f.bus.Subscribe(domain.EventPlaybackStateChanged, func(domain.Event) {
		seen = append(seen, f.ctrl.State())
	})

	f.loadAndPlay(t, songA)

	assert.Equal(t, []domain.PlaybackState{domain.StateLoaded, domain.StatePlaying}, seen)
}

func TestPlaybackController_ConcurrentAccess(t *testing.T) {
	f := newControllerFixture(t)
	require.NoError(t, f.ctrl.LoadTrack(songA))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 20 {
				switch (i + j) % 4 {
				case 0:
					_, _ = f.ctrl.TogglePlay(context.Background())
				case 1:
					_ = f.ctrl.Seek(float64(j) / 20)
				case 2:
					_ = f.ctrl.Status()
				case 3:
					f.ctrl.Reset()
				}
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, f.graphs.Live(), 1)
	assert.Equal(t, f.ctrl.State() == domain.StatePlaying, f.loop.Running())
}
