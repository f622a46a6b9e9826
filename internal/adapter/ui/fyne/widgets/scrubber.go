package widgets

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	scrubberHeight = 12
	trackHeight    = 4
	knobSize       = 12
)

// Scrubber is the progress bar of the footer: a translucent track, a filled part
// for the elapsed time and a knob that follows the pointer while hovered.
// Positions are reported relative to the left edge of the widget.
type Scrubber struct {
	widget.BaseWidget

	// OnHover is called with the pointer x and the widget width.
	OnHover func(x, width float64)

	// OnTapped is called with the tapped x and the widget width.
	OnTapped func(x, width float64)

	mu       sync.Mutex
	percent  float64
	knobX    float64
	hovering bool
}

// NewScrubber creates an empty scrubber.
func NewScrubber() *Scrubber {
	s := &Scrubber{}
	s.ExtendBaseWidget(s)
	return s
}

// SetProgress sets the filled part, in percent.
func (s *Scrubber) SetProgress(percent float64) {
	s.mu.Lock()
	s.percent = min(max(percent, 0), 100)
	s.mu.Unlock()
	s.Refresh()
}

// SetKnob moves the hover knob to x.
func (s *Scrubber) SetKnob(x float64) {
	s.mu.Lock()
	s.knobX = x
	s.mu.Unlock()
	s.Refresh()
}

// Tapped implements fyne.Tappable.
func (s *Scrubber) Tapped(pe *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(float64(pe.Position.X), float64(s.Size().Width))
	}
}

// MouseIn implements desktop.Hoverable.
func (s *Scrubber) MouseIn(me *desktop.MouseEvent) {
	s.mu.Lock()
	s.hovering = true
	s.mu.Unlock()
	s.MouseMoved(me)
}

// MouseMoved implements desktop.Hoverable.
func (s *Scrubber) MouseMoved(me *desktop.MouseEvent) {
	if s.OnHover != nil {
		s.OnHover(float64(me.Position.X), float64(s.Size().Width))
	}
}

// MouseOut implements desktop.Hoverable.
func (s *Scrubber) MouseOut() {
	s.mu.Lock()
	s.hovering = false
	s.mu.Unlock()
	s.Refresh()
}

// CreateRenderer implements fyne.Widget.
func (s *Scrubber) CreateRenderer() fyne.WidgetRenderer {
	r := &scrubberRenderer{
		s:     s,
		track: canvas.NewRectangle(color.NRGBA{R: 255, G: 255, B: 255, A: 64}),
		fill:  canvas.NewRectangle(color.White),
		knob:  canvas.NewCircle(color.White),
	}
	r.track.CornerRadius = trackHeight / 2
	r.fill.CornerRadius = trackHeight / 2
	return r
}

type scrubberRenderer struct {
	s     *Scrubber
	track *canvas.Rectangle
	fill  *canvas.Rectangle
	knob  *canvas.Circle
}

func (r *scrubberRenderer) Layout(size fyne.Size) {
	r.s.mu.Lock()
	percent, knobX, hovering := r.s.percent, r.s.knobX, r.s.hovering
	r.s.mu.Unlock()

	top := (size.Height - trackHeight) / 2
	r.track.Move(fyne.NewPos(0, top))
	r.track.Resize(fyne.NewSize(size.Width, trackHeight))

	r.fill.Move(fyne.NewPos(0, top))
	r.fill.Resize(fyne.NewSize(size.Width*float32(percent)/100, trackHeight))

	r.knob.Move(fyne.NewPos(float32(knobX)-knobSize/2, (size.Height-knobSize)/2))
	r.knob.Resize(fyne.NewSize(knobSize, knobSize))
	r.knob.Hidden = !hovering
}

func (r *scrubberRenderer) MinSize() fyne.Size {
	return fyne.NewSize(knobSize, scrubberHeight)
}

func (r *scrubberRenderer) Refresh() {
	r.Layout(r.s.Size())
	canvas.Refresh(r.s)
}

func (r *scrubberRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.track, r.fill, r.knob}
}

func (r *scrubberRenderer) Destroy() {}

var (
	_ fyne.Tappable     = (*Scrubber)(nil)
	_ desktop.Hoverable = (*Scrubber)(nil)
)
