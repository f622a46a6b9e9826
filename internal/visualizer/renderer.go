// Package visualizer draws frequency snapshots as spectrum bars and drives the
// per-frame render loop.
package visualizer

import (
	"math"

	"github.com/tejashwikalptaru/specviz/internal/domain"
)

// HeightScale is the fraction of the surface height a full-scale bin reaches.
const HeightScale = 0.8

// SpectrumRenderer maps a snapshot and a geometry to bar rectangles.
// It is pure: Compute has no side effects and depends only on its inputs.
type SpectrumRenderer struct {
	// Adaptive enables bin thinning so that wide spectra spread over the surface.
	// When false every bin is kept (skip = 1).
	Adaptive bool
}

// NewSpectrumRenderer returns a renderer with adaptive thinning enabled.
func NewSpectrumRenderer() SpectrumRenderer {
	return SpectrumRenderer{Adaptive: true}
}

// Skip returns the bin stride for n bins on a surface holding capacity bars.
func (r SpectrumRenderer) Skip(n, capacity int) int {
	if !r.Adaptive || capacity <= 0 {
		return 1
	}
	return max(1, int(math.Floor(0.5*float64(n)/float64(capacity))))
}

// Compute returns the bars for snapshot on geom, left to right.
//
// Bins i with i%skip == 0 are kept in index order, each one advancing x by
// BarWidth+BarGap from 0, and at most Capacity() bars are returned so that no bar
// crosses the right edge. Bars are bottom aligned. A degenerate geometry yields no bars.
func (r SpectrumRenderer) Compute(snapshot domain.FrequencySnapshot, geom domain.RenderGeometry) []domain.BarRect {
	capacity := geom.Capacity()
	if capacity == 0 || len(snapshot) == 0 || geom.SurfaceHeight <= 0 {
		return nil
	}

	skip := r.Skip(len(snapshot), capacity)
	step := geom.BarWidth + geom.BarGap
	h := float64(geom.SurfaceHeight)

	bars := make([]domain.BarRect, 0, min(capacity, (len(snapshot)+skip-1)/skip))
	x := 0
	for i := 0; i < len(snapshot) && len(bars) < capacity; i += skip {
		height := int(math.Round(float64(snapshot[i]) / 255 * h * HeightScale))
		bars = append(bars, domain.BarRect{
			X:      x,
			Y:      geom.SurfaceHeight - height,
			Width:  geom.BarWidth,
			Height: height,
		})
		x += step
	}

	return bars
}
