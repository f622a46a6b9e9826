// Package surface provides an in-memory RGBA implementation of ports.Surface.
package surface

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/internal/ports"
)

// RasterSurface draws bars into an image.RGBA back buffer. Present copies the back
// buffer into the front image read by the display.
type RasterSurface struct {
	mu        sync.RWMutex
	back      *image.RGBA
	front     *image.RGBA
	geom      domain.RenderGeometry
	onPresent func()
}

// NewRasterSurface creates a transparent surface of the given size and bar layout.
func NewRasterSurface(width, height, barWidth, barGap int) *RasterSurface {
	s := &RasterSurface{}
	s.geom = domain.RenderGeometry{BarWidth: barWidth, BarGap: barGap}
	s.allocate(width, height)
	return s
}

// allocate must be called with mu held.
func (s *RasterSurface) allocate(width, height int) {
	width, height = max(0, width), max(0, height)
	s.geom.SurfaceWidth = width
	s.geom.SurfaceHeight = height
	s.back = image.NewRGBA(image.Rect(0, 0, width, height))
	s.front = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Resize changes the surface size. The content is discarded.
func (s *RasterSurface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if width == s.geom.SurfaceWidth && height == s.geom.SurfaceHeight {
		return
	}
	s.allocate(width, height)
}

// SetBarLayout changes the bar width and gap.
func (s *RasterSurface) SetBarLayout(barWidth, barGap int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.geom.BarWidth = barWidth
	s.geom.BarGap = barGap
}

// SetOnPresent registers a function called after every Present, outside the lock.
func (s *RasterSurface) SetOnPresent(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPresent = fn
}

// Geometry returns the current size and bar layout.
func (s *RasterSurface) Geometry() domain.RenderGeometry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.geom
}

// Clear makes the back buffer fully transparent.
func (s *RasterSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.back.Pix)
}

// FillRect fills rect on the back buffer, clipped to the surface.
func (s *RasterSurface) FillRect(rect domain.BarRect, fill color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := image.Rect(rect.X, rect.Y, rect.X+rect.Width, rect.Y+rect.Height).Intersect(s.back.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(s.back, r, image.NewUniform(fill), image.Point{}, draw.Src)
}

// Present publishes the back buffer.
func (s *RasterSurface) Present() {
	s.mu.Lock()
	copy(s.front.Pix, s.back.Pix)
	fn := s.onPresent
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Image returns a copy of the last presented frame.
func (s *RasterSurface) Image() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img := image.NewRGBA(s.front.Rect)
	copy(img.Pix, s.front.Pix)
	return img
}

// Render draws the last presented frame scaled to w x h. It matches the
// fyne canvas.Raster generator signature.
func (s *RasterSurface) Render(w, h int) image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if w == s.front.Rect.Dx() && h == s.front.Rect.Dy() {
		img := image.NewRGBA(s.front.Rect)
		copy(img.Pix, s.front.Pix)
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, max(0, w), max(0, h)))
	sw, sh := s.front.Rect.Dx(), s.front.Rect.Dy()
	if sw == 0 || sh == 0 {
		return dst
	}
	// Nearest neighbour keeps bar edges sharp
	for y := range dst.Rect.Dy() {
		sy := y * sh / dst.Rect.Dy()
		for x := range dst.Rect.Dx() {
			sx := x * sw / dst.Rect.Dx()
			dst.SetRGBA(x, y, s.front.RGBAAt(sx, sy))
		}
	}
	return dst
}

// CountFilled returns how many pixels of the last presented frame are not transparent.
func (s *RasterSurface) CountFilled() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for i := 3; i < len(s.front.Pix); i += 4 {
		if s.front.Pix[i] != 0 {
			n++
		}
	}
	return n
}

var _ ports.Surface = (*RasterSurface)(nil)
