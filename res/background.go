package res

import (
	"image"
	"image/color"
)

// DefaultBackground returns the image shown when no background is set: a dark
// vertical gradient.
func DefaultBackground() image.Image {
	const w, h = 9, 16

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	top := color.NRGBA{R: 0x3a, G: 0x3f, B: 0x5c, A: 0xff}
	bottom := color.NRGBA{R: 0x0f, G: 0x10, B: 0x1a, A: 0xff}

	for y := range h {
		t := float64(y) / float64(h-1)
		c := color.NRGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 0xff,
		}
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
