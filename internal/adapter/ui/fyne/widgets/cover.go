package widgets

import (
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// SpinPeriod is the duration of one full cover turn.
const SpinPeriod = 8 * time.Second

// Cover is a circular cover image that spins while playing and freezes at its
// current angle when paused.
type Cover struct {
	widget.BaseWidget

	raster *canvas.Raster
	size   float32
	spin   *fyne.Animation

	mu       sync.Mutex
	img      image.Image
	angle    float64 // radians
	base     float64 // angle when the current spin started
	spinning bool
}

// NewCover creates a cover of the given diameter.
func NewCover(size float32) *Cover {
	c := &Cover{size: size}
	c.raster = canvas.NewRaster(c.render)
	c.spin = fyne.NewAnimation(SpinPeriod, func(progress float32) {
		c.mu.Lock()
		c.angle = math.Mod(c.base+2*math.Pi*float64(progress), 2*math.Pi)
		c.mu.Unlock()
		c.raster.Refresh()
	})
	c.spin.Curve = fyne.AnimationLinear
	c.spin.RepeatCount = fyne.AnimationRepeatForever
	c.ExtendBaseWidget(c)
	return c
}

// SetImage replaces the cover image; nil shows an empty disc.
func (c *Cover) SetImage(img image.Image) {
	c.mu.Lock()
	c.img = img
	c.mu.Unlock()
	c.raster.Refresh()
}

// Play starts spinning from the current angle.
func (c *Cover) Play() {
	c.mu.Lock()
	if c.spinning {
		c.mu.Unlock()
		return
	}
	c.spinning = true
	c.base = c.angle
	c.mu.Unlock()

	c.spin.Start()
}

// Pause stops spinning and keeps the angle.
func (c *Cover) Pause() {
	c.stop()
}

// Rest stops spinning and turns the cover back to its initial angle.
func (c *Cover) Rest() {
	c.stop()

	c.mu.Lock()
	c.angle, c.base = 0, 0
	c.mu.Unlock()
	c.raster.Refresh()
}

func (c *Cover) stop() {
	c.mu.Lock()
	spinning := c.spinning
	c.spinning = false
	c.mu.Unlock()

	if spinning {
		c.spin.Stop()
	}
}

// Angle returns the current rotation in radians.
func (c *Cover) Angle() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.angle
}

// CreateRenderer implements fyne.Widget.
func (c *Cover) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.raster)
}

// MinSize returns the cover diameter.
func (c *Cover) MinSize() fyne.Size {
	return fyne.NewSquareSize(c.size)
}

// render samples the image rotated by the current angle into a disc with a dark
// rim. The image is scaled to cover the disc.
func (c *Cover) render(w, h int) image.Image {
	c.mu.Lock()
	src, angle := c.img, c.angle
	c.mu.Unlock()

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	d := min(w, h)
	if d <= 0 {
		return dst
	}

	r := float64(d) / 2
	cx, cy := float64(w)/2, float64(h)/2
	rim := max(2, r*0.02)
	sin, cos := math.Sincos(-angle)

	var sb image.Rectangle
	var scale float64
	if src != nil {
		sb = src.Bounds()
		scale = float64(min(sb.Dx(), sb.Dy())) / float64(d)
	}

	for y := range h {
		for x := range w {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			dist := math.Hypot(dx, dy)
			switch {
			case dist > r:
				continue
			case dist > r-rim || src == nil:
				dst.Set(x, y, color.Black)
				continue
			}

			rx := dx*cos - dy*sin
			ry := dx*sin + dy*cos
			sx := sb.Min.X + sb.Dx()/2 + int(rx*scale)
			sy := sb.Min.Y + sb.Dy()/2 + int(ry*scale)
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}
