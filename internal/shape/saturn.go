package shape

import (
	"math"
	"math/rand/v2"

	"github.com/ayusman/morphcloud/internal/mathutil"
)

// Saturn layout constants.
const (
	SphereFraction = 0.4

	SphereMinRadius = 0.8
	SphereMaxRadius = 1.1
	SphereTintMax   = 0.3

	RingMinRadius = 1.2
	RingMaxRadius = 2.0
	RingThickness = 0.15
)

// Saturn returns count particles: the first 40% fill a shell around the
// planet body, the rest form a flat ring. Ring particles use their azimuth
// as seed so their idle wobble follows the ring.
func Saturn(count int, rng *rand.Rand) *ParticleSet {
	if count < 0 {
		count = 0
	}
	set := newParticleSet(count)
	sphereCount := int(math.Floor(float64(count) * SphereFraction))

	for i := 0; i < sphereCount; i++ {
		theta := rng.Float64() * 2 * math.Pi
		phi := math.Acos(2*rng.Float64() - 1)
		r := SphereMinRadius + rng.Float64()*(SphereMaxRadius-SphereMinRadius)

		set.Positions[i] = mathutil.Vec3{
			r * math.Sin(phi) * math.Cos(theta),
			r * math.Sin(phi) * math.Sin(theta),
			r * math.Cos(phi),
		}
		set.Colors[i] = SaturnBody.BlendRgb(RingInner, rng.Float64()*SphereTintMax)
		set.Seeds[i] = rng.Float64() * 2 * math.Pi
	}

	span := RingMaxRadius - RingMinRadius
	for i := sphereCount; i < count; i++ {
		r := RingMinRadius + rng.Float64()*span
		theta := rng.Float64() * 2 * math.Pi
		y := (rng.Float64() - 0.5) * RingThickness

		set.Positions[i] = mathutil.Vec3{math.Cos(theta) * r, y, math.Sin(theta) * r}
		set.Colors[i] = RingInner.BlendRgb(RingOuter, (r-RingMinRadius)/span)
		set.Seeds[i] = theta
	}

	return set
}
