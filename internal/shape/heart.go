package shape

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ayusman/morphcloud/internal/mathutil"
)

// Heart layout constants.
const (
	HeartSampleHalfExtent = 1.2
	HeartScale            = 1.1
	HeartDepthSpread      = 0.6
	HeartRipple           = 0.12

	// MaxHeartAttempts bounds rejection sampling per requested particle.
	// About two thirds of the sampling square lies inside the curve, so the
	// expected cost is roughly 1.5 attempts per particle.
	MaxHeartAttempts = 64
)

// InsideHeart reports whether (x, y) satisfies (x²+y²-1)³ - x²y³ <= 0.
func InsideHeart(x, y float64) bool {
	a := x*x + y*y - 1
	return a*a*a-x*x*y*y*y <= 0
}

// Heart returns exactly count particles sampled inside the heart curve,
// with a shallow rippled depth and a vertical color gradient.
func Heart(count int, rng *rand.Rand) (*ParticleSet, error) {
	if count < 0 {
		count = 0
	}
	set := newParticleSet(count)
	budget := count * MaxHeartAttempts

	i := 0
	for attempts := 0; i < count; attempts++ {
		if attempts >= budget {
			return nil, fmt.Errorf("%w: %d of %d particles after %d attempts",
				ErrSamplingExhausted, i, count, attempts)
		}

		x := spread(rng, 2*HeartSampleHalfExtent)
		y := spread(rng, 2*HeartSampleHalfExtent)
		if !InsideHeart(x, y) {
			continue
		}

		z := spread(rng, HeartDepthSpread) + math.Sin((x*x+y*y)*4)*HeartRipple
		set.Positions[i] = mathutil.Vec3{x * HeartScale, y * HeartScale, z}

		mix := mathutil.Smoothstep(y, -1.4, 1.4)
		set.Colors[i] = HeartDeep.
			BlendRgb(HeartMid, mix*0.7).
			BlendRgb(HeartLight, 0.15+rng.Float64()*0.25)
		set.Seeds[i] = rng.Float64() * 2 * math.Pi
		i++
	}

	return set, nil
}

// spread returns a value uniform in [-r/2, r/2].
func spread(rng *rand.Rand, r float64) float64 {
	return r * (0.5 - rng.Float64())
}
