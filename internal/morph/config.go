package morph

import (
	"fmt"
	"math"
	"time"
)

// Config holds the tuning constants of the morph engine.
type Config struct {
	// BlendRate is the fraction of the remaining distance the blend covers
	// per tick. The filter is tick-rate coupled: at 60 ticks per second a
	// rate of 0.08 gives a half-life of about 8 ticks, and a slower display
	// slows the morph down proportionally.
	BlendRate float64 `yaml:"blend_rate"`

	// PositionLag is the per-tick fraction by which each rendered particle
	// chases its interpolated target.
	PositionLag float64 `yaml:"position_lag"`

	// Timeout reverts the gesture to fist when no hand has been seen for
	// this long.
	Timeout time.Duration `yaml:"timeout"`

	Tilt     float64 `yaml:"tilt"`      // planet tilt around X, radians
	Spin     float64 `yaml:"spin"`      // planet yaw per tick, radians
	FaceRate float64 `yaml:"face_rate"` // easing factor for orientation changes

	SaturnBand float64 `yaml:"saturn_band"` // blend below this spins the planet
	HeartBand  float64 `yaml:"heart_band"`  // blend above this faces the camera

	WaveAmplitude  float64 `yaml:"wave_amplitude"`
	SwirlAmplitude float64 `yaml:"swirl_amplitude"`
	WaveSpeed      float64 `yaml:"wave_speed"`  // radians per second
	SwirlSpeed     float64 `yaml:"swirl_speed"` // radians per second

	MinSize    float64 `yaml:"min_size"`
	MaxSize    float64 `yaml:"max_size"`
	MinOpacity float64 `yaml:"min_opacity"`
	MaxOpacity float64 `yaml:"max_opacity"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		BlendRate:      0.08,
		PositionLag:    0.1,
		Timeout:        2 * time.Second,
		Tilt:           math.Pi / 6,
		Spin:           0.002,
		FaceRate:       0.1,
		SaturnBand:     0.3,
		HeartBand:      0.7,
		WaveAmplitude:  0.02,
		SwirlAmplitude: 0.015,
		WaveSpeed:      0.5,
		SwirlSpeed:     0.6,
		MinSize:        0.035,
		MaxSize:        0.045,
		MinOpacity:     0.9,
		MaxOpacity:     1.0,
	}
}

// Validate checks that rates are fractions and the bands are ordered.
func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"blend_rate":   c.BlendRate,
		"position_lag": c.PositionLag,
		"face_rate":    c.FaceRate,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, v)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.SaturnBand < 0 || c.HeartBand > 1 || c.SaturnBand >= c.HeartBand {
		return fmt.Errorf("bands must satisfy 0 <= saturn_band < heart_band <= 1, got %v and %v",
			c.SaturnBand, c.HeartBand)
	}
	return nil
}
