package beepaudio

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// Tap is a streamer wrapper that copies a mono mix of everything it passes
// through into a ring buffer for frequency analysis. It sits between the media
// output and the speaker.
type Tap struct {
	s    beep.Streamer
	mu   sync.Mutex
	buf  []float64
	pos  int
	fill int
}

// NewTap wraps a streamer with a ring buffer of size samples.
func NewTap(s beep.Streamer, size int) *Tap {
	return &Tap{
		s:   s,
		buf: make([]float64, max(1, size)),
	}
}

// Stream passes audio through while capturing it.
func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)

	t.mu.Lock()
	size := len(t.buf)
	for i := range n {
		t.buf[t.pos] = (samples[i][0] + samples[i][1]) / 2
		t.pos = (t.pos + 1) % size
	}
	t.fill = min(size, t.fill+n)
	t.mu.Unlock()

	return n, ok
}

// Err returns the underlying streamer's error.
func (t *Tap) Err() error {
	return t.s.Err()
}

// Latest copies the newest captured samples into dst in chronological order and
// returns how many were copied.
func (t *Tap) Latest(dst []float64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	size := len(t.buf)
	n := min(len(dst), t.fill)
	start := (t.pos - n + size) % size
	for i := range n {
		dst[i] = t.buf[(start+i)%size]
	}
	return n
}

// Reset forgets the captured history.
func (t *Tap) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.buf)
	t.pos = 0
	t.fill = 0
}
