// Package raster is a software point renderer used for snapshots and the
// terminal view. Particles are accumulated additively over the background
// without depth writes.
package raster

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Buffer holds additive color sums as a flat slice for cache locality.
// Values above 1 saturate when converted to an image.
type Buffer struct {
	Width  int
	Height int
	RGB    []float32 // interleaved, len = W*H*3
}

// NewBuffer allocates a buffer cleared to bg.
func NewBuffer(w, h int, bg colorful.Color) *Buffer {
	b := &Buffer{Width: w, Height: h, RGB: make([]float32, w*h*3)}
	b.Clear(bg)
	return b
}

// Clear fills the buffer with bg.
func (b *Buffer) Clear(bg colorful.Color) {
	r, g, bl := float32(bg.R), float32(bg.G), float32(bg.B)
	for i := 0; i < len(b.RGB); i += 3 {
		b.RGB[i], b.RGB[i+1], b.RGB[i+2] = r, g, bl
	}
}

// Add accumulates c scaled by w at pixel (x, y). Out-of-range pixels are
// ignored.
func (b *Buffer) Add(x, y int, c colorful.Color, w float64) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	i := (y*b.Width + x) * 3
	b.RGB[i] += float32(c.R * w)
	b.RGB[i+1] += float32(c.G * w)
	b.RGB[i+2] += float32(c.B * w)
}

// At returns the accumulated color at (x, y), unclamped.
func (b *Buffer) At(x, y int) colorful.Color {
	i := (y*b.Width + x) * 3
	return colorful.Color{R: float64(b.RGB[i]), G: float64(b.RGB[i+1]), B: float64(b.RGB[i+2])}
}

// Image converts the buffer to an opaque image.
func (b *Buffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for p, i := 0, 0; i < len(b.RGB); p, i = p+4, i+3 {
		img.Pix[p] = to8(b.RGB[i])
		img.Pix[p+1] = to8(b.RGB[i+1])
		img.Pix[p+2] = to8(b.RGB[i+2])
		img.Pix[p+3] = 255
	}
	return img
}

func to8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}
