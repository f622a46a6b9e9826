package widgets

import (
	"image"
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/specviz/internal/adapter/surface"
	"github.com/tejashwikalptaru/specviz/internal/domain"
)

func TestSpectrumViewResizesSurface(t *testing.T) {
	test.NewApp()

	surf := surface.NewRasterSurface(10, 10, 2, 2)
	v := NewSpectrumView(surf, fyne.NewSize(100, 40))
	assert.Equal(t, fyne.NewSize(100, 40), v.MinSize())

	v.Resize(fyne.NewSize(240, 80))
	g := surf.Geometry()
	assert.Equal(t, 240, g.SurfaceWidth)
	assert.Equal(t, 80, g.SurfaceHeight)

	surf.FillRect(domain.BarRect{X: 0, Y: 40, Width: 2, Height: 40}, color.White)
	surf.Present()
	v.FramePresented()

	img := surf.Render(240, 80)
	require.NotNil(t, img)
	_, _, _, a := img.At(1, 79).RGBA()
	assert.NotZero(t, a)
}

func TestScrubberReportsPositions(t *testing.T) {
	test.NewApp()

	s := NewScrubber()
	s.Resize(fyne.NewSize(300, 12))

	var hoverX, tapX, width float64
	s.OnHover = func(x, w float64) { hoverX, width = x, w }
	s.OnTapped = func(x, w float64) { tapX, width = x, w }

	s.MouseIn(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(30, 6)}})
	assert.InDelta(t, 30, hoverX, 1e-6)
	assert.InDelta(t, 300, width, 1e-6)

	s.MouseMoved(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(120, 6)}})
	assert.InDelta(t, 120, hoverX, 1e-6)

	s.Tapped(&fyne.PointEvent{Position: fyne.NewPos(75, 6)})
	assert.InDelta(t, 75, tapX, 1e-6)

	s.MouseOut()
	s.SetProgress(150)
	s.mu.Lock()
	assert.InDelta(t, 100, s.percent, 1e-9, "progress is clamped")
	assert.False(t, s.hovering)
	s.mu.Unlock()
}

func TestCoverStates(t *testing.T) {
	test.NewApp()

	c := NewCover(64)
	assert.Equal(t, fyne.NewSquareSize(64), c.MinSize())

	c.mu.Lock()
	c.angle = 1.5
	c.mu.Unlock()

	c.Pause()
	assert.InDelta(t, 1.5, c.Angle(), 1e-9, "pause keeps the angle")

	c.Rest()
	assert.Zero(t, c.Angle())
}

func TestCoverRender(t *testing.T) {
	test.NewApp()

	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}

	c := NewCover(32)
	c.SetImage(src)
	img := c.render(32, 32)

	_, _, _, a := img.At(0, 0).RGBA()
	assert.Zero(t, a, "corners are outside the disc")

	r, g, b, _ := img.At(16, 16).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})

	r, g, b, a = img.At(16, 0).RGBA()
	assert.Equal(t, [4]uint32{0, 0, 0, 0xffff}, [4]uint32{r, g, b, a}, "rim is dark")
}
