package texture

import (
	"image"
	"image/color"
)

// PixelAt returns the pixel of img at texture coordinates (u, v) in [0, 1]².
// The first image row is v = 0, matching the order rows are uploaded in.
func PixelAt(img image.Image, u, v float64) color.Color {
	b := img.Bounds()
	x := b.Min.X + clampPixel(u, b.Dx())
	y := b.Min.Y + clampPixel(v, b.Dy())
	return img.At(x, y)
}

func clampPixel(f float64, n int) int {
	p := int(f * float64(n))
	if p < 0 {
		return 0
	}
	if p >= n {
		return n - 1
	}
	return p
}
