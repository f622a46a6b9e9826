package frame

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/specviz/internal/logger"
	"github.com/tejashwikalptaru/specviz/internal/ports"
	"github.com/tejashwikalptaru/specviz/internal/testutil"
)

func TestManualSchedulerRunsOncePerRequest(t *testing.T) {
	s := NewManualScheduler()

	calls := 0
	h := s.RequestFrame(func(time.Time) { calls++ })
	assert.NotZero(t, h)
	assert.Equal(t, 1, s.Pending())

	assert.Equal(t, 1, s.Step())
	assert.Equal(t, 0, s.Step())
	assert.Equal(t, 1, calls)
}

func TestManualSchedulerDefersNestedRequests(t *testing.T) {
	s := NewManualScheduler()

	var frames []time.Time
	var cb ports.FrameCallback
	cb = func(now time.Time) {
		frames = append(frames, now)
		s.RequestFrame(cb)
	}
	s.RequestFrame(cb)

	assert.Equal(t, 3, s.StepN(3))
	require.Len(t, frames, 3)
	assert.True(t, frames[1].After(frames[0]))
	assert.Equal(t, 1, s.Pending())
}

func TestManualSchedulerCancel(t *testing.T) {
	s := NewManualScheduler()

	called := false
	h := s.RequestFrame(func(time.Time) { called = true })
	s.CancelFrame(h)
	s.CancelFrame(12345)

	assert.Equal(t, 0, s.Step())
	assert.False(t, called)
}

func TestManualSchedulerCancelWithinFrame(t *testing.T) {
	s := NewManualScheduler()

	var second ports.FrameHandle
	secondRan := false
	s.RequestFrame(func(time.Time) { s.CancelFrame(second) })
	second = s.RequestFrame(func(time.Time) { secondRan = true })

	assert.Equal(t, 1, s.Step())
	assert.False(t, secondRan)
}

func TestTickerSchedulerRunsCallbacks(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	s := NewTickerScheduler(logger.NewTestLogger(), time.Millisecond)
	defer s.Close()

	var count atomic.Int32
	var cb ports.FrameCallback
	cb = func(time.Time) {
		if count.Add(1) < 5 {
			s.RequestFrame(cb)
		}
	}
	s.RequestFrame(cb)

	assert.Eventually(t, func() bool { return count.Load() == 5 }, time.Second, time.Millisecond)
	require.NoError(t, s.Close())
}

func TestTickerSchedulerCloseIsIdempotent(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	s := NewTickerScheduler(nil, 0)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	// Requests after close simply never run
	s.RequestFrame(func(time.Time) { t.Error("callback ran after close") })
	assert.Equal(t, 1, s.Pending())
}
