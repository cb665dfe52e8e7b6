// Package shape generates the two particle clouds the morph engine blends
// between: a ringed planet and a heart.
package shape

import (
	"errors"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/morphcloud/internal/mathutil"
)

// ErrSamplingExhausted is returned when heart rejection sampling runs out of
// attempts before producing the requested number of particles.
var ErrSamplingExhausted = errors.New("shape: heart sampling exhausted")

// ParticleSet is a fixed-size, index-aligned particle cloud. Positions,
// Colors and Seeds always have the same length.
type ParticleSet struct {
	Positions []mathutil.Vec3
	Colors    []colorful.Color
	Seeds     []float64
}

func newParticleSet(count int) *ParticleSet {
	return &ParticleSet{
		Positions: make([]mathutil.Vec3, count),
		Colors:    make([]colorful.Color, count),
		Seeds:     make([]float64, count),
	}
}

// Len returns the number of particles.
func (s *ParticleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Positions)
}

// Truncate returns a view of the first n particles. It shares the
// underlying buffers with s.
func (s *ParticleSet) Truncate(n int) *ParticleSet {
	if n >= s.Len() {
		return s
	}
	if n < 0 {
		n = 0
	}
	return &ParticleSet{
		Positions: s.Positions[:n],
		Colors:    s.Colors[:n],
		Seeds:     s.Seeds[:n],
	}
}
