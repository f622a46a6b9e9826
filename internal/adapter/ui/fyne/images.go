package fyne

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // decoder registration
	_ "image/jpeg" // decoder registration
	_ "image/png"  // decoder registration
	"os"

	xdraw "golang.org/x/image/draw"
)

// blurWidth is the width backgrounds are reduced to before being stretched back
// over the window, which blurs them.
const blurWidth = 24

func loadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeImage(data)
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// blur shrinks img to blurWidth pixels wide, keeping its aspect ratio.
// Displaying the result with smooth scaling gives a soft, blurred background.
func blur(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= blurWidth || b.Dy() <= 0 {
		return img
	}

	h := max(1, b.Dy()*blurWidth/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, blurWidth, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
