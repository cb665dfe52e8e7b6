// Package render projects morph frames into screen-space point splats
// shared by the window, terminal and snapshot renderers.
package render

import (
	"math"

	"github.com/ayusman/morphcloud/internal/mathutil"
)

// Orbit camera defaults.
const (
	DefaultDistance = 8.0
	MinDistance     = 2.5
	MaxDistance     = 40.0
	DefaultFOV      = 60.0 // vertical, degrees
	Near            = 0.1
	Far             = 120.0

	// Pitch limits. The lower bound keeps the camera 0.9π from the north
	// pole; the upper bound stays short of it.
	MinPitch = -0.4 * math.Pi
	MaxPitch = 0.49 * math.Pi
)

// Orbit is a camera orbiting the origin.
type Orbit struct {
	Yaw      float64 // around +Y, 0 looks down -Z from +Z
	Pitch    float64 // elevation above the XZ plane
	Distance float64
	FOV      float64
}

// NewOrbit returns the default camera at (0, 0, 8).
func NewOrbit() *Orbit {
	return &Orbit{Distance: DefaultDistance, FOV: DefaultFOV}
}

// Position returns the camera position in world space.
func (o *Orbit) Position() mathutil.Vec3 {
	cp := math.Cos(o.Pitch)
	return mathutil.Vec3{
		o.Distance * cp * math.Sin(o.Yaw),
		o.Distance * math.Sin(o.Pitch),
		o.Distance * cp * math.Cos(o.Yaw),
	}
}

// Rotate moves the camera around the origin and clamps the pitch.
func (o *Orbit) Rotate(dYaw, dPitch float64) {
	o.Yaw = math.Mod(o.Yaw+dYaw, 2*math.Pi)
	o.Pitch = mathutil.Clamp(o.Pitch+dPitch, MinPitch, MaxPitch)
}

// Zoom scales the distance by factor and clamps it.
func (o *Orbit) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	o.Distance = mathutil.Clamp(o.Distance*factor, MinDistance, MaxDistance)
}

// Reset restores the default view.
func (o *Orbit) Reset() {
	*o = *NewOrbit()
}

// basis returns the camera's right, up and forward vectors.
func (o *Orbit) basis() (right, up, forward mathutil.Vec3) {
	forward = o.Position().Scale(-1).Normalize()
	right = forward.Cross(mathutil.Vec3{0, 1, 0}).Normalize()
	up = right.Cross(forward)
	return right, up, forward
}
