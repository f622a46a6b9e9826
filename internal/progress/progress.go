// Package progress formats playback time and maps pointer positions on the
// progress bar to seek fractions.
package progress

import (
	"fmt"
	"math"
	"sync"
)

// maxFormatSeconds keeps the conversion to int64 in range.
const maxFormatSeconds = 1 << 53

// FormatTime renders seconds as mm:ss. Fractions are truncated and minutes are
// not wrapped into hours (3661 -> "61:01"). Negative or non-finite input renders
// as "00:00"; larger values than 2^53 seconds are clamped.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}

	total := int64(math.Floor(min(seconds, maxFormatSeconds)))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// round2 rounds to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PercentFromPointer maps pointer x over a bar starting at left with the given
// width to a fraction in [0,1], rounded to two decimals. A bar without width
// yields 0.
func PercentFromPointer(x, left, width float64) float64 {
	if width <= 0 || math.IsNaN(width) {
		return 0
	}

	p := (x - left) / width
	if math.IsNaN(p) {
		return 0
	}
	return round2(min(max(p, 0), 1))
}

// ProgressPercent returns elapsed/duration as a percentage rounded to two decimals,
// 0 when the duration is unknown.
func ProgressPercent(current, duration float64) float64 {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) || math.IsNaN(current) {
		return 0
	}
	return round2(min(max(current/duration, 0), 1) * 100)
}

// Tracker keeps the latest position and duration reported to the view.
type Tracker struct {
	mu       sync.RWMutex
	current  float64
	duration float64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetDuration records the track duration.
func (t *Tracker) SetDuration(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.duration = max(0, seconds)
}

// SetCurrent records the playback position.
func (t *Tracker) SetCurrent(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = max(0, seconds)
}

// Reset forgets both values.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current, t.duration = 0, 0
}

// Elapsed returns the formatted position.
func (t *Tracker) Elapsed() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return FormatTime(t.current)
}

// Total returns the formatted duration.
func (t *Tracker) Total() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return FormatTime(t.duration)
}

// Percent returns the progress fill percentage.
func (t *Tracker) Percent() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return ProgressPercent(t.current, t.duration)
}

// SeekTarget returns the position in seconds for a seek fraction.
func (t *Tracker) SeekTarget(percent float64) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return percent * t.duration
}
