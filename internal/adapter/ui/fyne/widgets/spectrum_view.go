// Package widgets provides custom Fyne widgets for the SpecViz window.
package widgets

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// FrameSource is the raster surface the render loop draws on.
type FrameSource interface {
	// Render returns the last presented frame scaled to w x h pixels.
	Render(w, h int) image.Image

	// Resize changes the drawing surface size, in pixels.
	Resize(width, height int)
}

// SpectrumView displays the frames presented on a raster surface.
// The render loop draws; the view only shows the latest frame.
type SpectrumView struct {
	widget.BaseWidget

	raster  *canvas.Raster
	source  FrameSource
	minSize fyne.Size
}

// NewSpectrumView creates a view of source with the given minimum size.
func NewSpectrumView(source FrameSource, minSize fyne.Size) *SpectrumView {
	v := &SpectrumView{
		source:  source,
		minSize: minSize,
	}
	v.raster = canvas.NewRaster(source.Render)
	v.raster.ScaleMode = canvas.ImageScalePixels
	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget.
func (v *SpectrumView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// MinSize returns the configured minimum size.
func (v *SpectrumView) MinSize() fyne.Size {
	return v.minSize
}

// Resize keeps the drawing surface the size of the widget.
func (v *SpectrumView) Resize(size fyne.Size) {
	v.BaseWidget.Resize(size)
	v.source.Resize(int(size.Width), int(size.Height))
}

// FramePresented redraws the view. It must run on the Fyne goroutine.
func (v *SpectrumView) FramePresented() {
	v.raster.Refresh()
}
