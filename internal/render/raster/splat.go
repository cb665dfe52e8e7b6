package raster

import (
	"math"

	"github.com/ayusman/morphcloud/internal/render"
)

// DrawSplats adds each splat as an axis-aligned square. Edge pixels receive
// their fractional coverage so sub-pixel particles keep their energy.
func (b *Buffer) DrawSplats(splats []render.Splat) {
	for i := range splats {
		b.drawSplat(&splats[i])
	}
}

func (b *Buffer) drawSplat(s *render.Splat) {
	half := s.Size / 2
	x0, x1 := s.X-half, s.X+half
	y0, y1 := s.Y-half, s.Y+half

	px0 := int(math.Floor(x0))
	px1 := int(math.Ceil(x1))
	py0 := int(math.Floor(y0))
	py1 := int(math.Ceil(y1))

	for py := py0; py < py1; py++ {
		cy := overlap(y0, y1, float64(py))
		if cy <= 0 {
			continue
		}
		for px := px0; px < px1; px++ {
			cx := overlap(x0, x1, float64(px))
			if cx <= 0 {
				continue
			}
			b.Add(px, py, s.Color, s.Alpha*cx*cy)
		}
	}
}

// overlap returns how much of the unit pixel [p, p+1) lies in [a, b).
func overlap(a, b, p float64) float64 {
	return math.Min(b, p+1) - math.Max(a, p)
}
