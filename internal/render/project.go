package render

import (
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/morphcloud/internal/mathutil"
	"github.com/ayusman/morphcloud/internal/morph"
	"github.com/ayusman/morphcloud/internal/shape"
)

// Scene settings.
const (
	GroupScale = 2.0
	FogDensity = 0.05
)

// Splat is one projected particle.
type Splat struct {
	X, Y  float64 // screen pixels, origin top-left
	Size  float64 // square side in pixels
	Depth float64 // distance along the view axis
	Color colorful.Color
	Alpha float64
}

// Projector turns frames into splats for a viewport.
type Projector struct {
	Camera *Orbit
	Scale  float64
	Fog    float64
	Width  int
	Height int
}

// NewProjector uses the default scene settings.
func NewProjector(cam *Orbit, width, height int) *Projector {
	return &Projector{Camera: cam, Scale: GroupScale, Fog: FogDensity, Width: width, Height: height}
}

// Project appends one splat per visible particle of f to dst and returns it,
// sorted back to front.
func (p *Projector) Project(f *morph.Frame, dst []Splat) []Splat {
	dst = dst[:0]
	if p.Width <= 0 || p.Height <= 0 {
		return dst
	}

	eye := p.Camera.Position()
	right, up, forward := p.Camera.basis()
	rot := mathutil.EulerXY(f.Rotation.X, f.Rotation.Y)

	halfW, halfH := float64(p.Width)/2, float64(p.Height)/2
	focal := halfH / math.Tan(p.Camera.FOV*math.Pi/360)

	for i, pos := range f.Positions {
		world := rot.Apply(pos.Scale(p.Scale))
		d := world.Sub(eye)
		z := d.Dot(forward)
		if z < Near || z > Far {
			continue
		}

		sx := halfW + d.Dot(right)*focal/z
		sy := halfH - d.Dot(up)*focal/z
		size := math.Max(f.Size*halfH/z, 1)
		if sx+size < 0 || sy+size < 0 || sx-size > float64(p.Width) || sy-size > float64(p.Height) {
			continue
		}

		dst = append(dst, Splat{
			X:     sx,
			Y:     sy,
			Size:  size,
			Depth: z,
			Color: fog(f.Colors[i], z, p.Fog),
			Alpha: f.Opacity,
		})
	}

	sort.Slice(dst, func(i, j int) bool { return dst[i].Depth > dst[j].Depth })
	return dst
}

// fog mixes c toward the background with exponential-squared falloff.
func fog(c colorful.Color, depth, density float64) colorful.Color {
	if density <= 0 {
		return c
	}
	d := density * depth
	return c.BlendRgb(shape.Background, 1-math.Exp(-d*d))
}
