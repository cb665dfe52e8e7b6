package morph

import (
	"math"

	"github.com/ayusman/morphcloud/internal/mathutil"
)

// orient updates the group rotation for the current blend. The group sits at
// the origin of its parent space.
//
//	blend < SaturnBand:  fixed tilt, continuous spin
//	blend > HeartBand:   tilt relaxes to zero, yaw turns toward the camera
//	otherwise:           tilt eases with the blend, yaw holds
func (c *Controller) orient(camera mathutil.Vec3) {
	o := &c.orientation
	switch {
	case c.blend < c.cfg.SaturnBand:
		o.X = c.cfg.Tilt
		o.Y = wrapAngle(o.Y + c.cfg.Spin)

	case c.blend > c.cfg.HeartBand:
		yaw := facing(camera)
		// Shortest arc on the wrapped yaw, not lerp(o.Y, yaw): after a long
		// spin a plain lerp can turn the group most of the way round.
		o.Y = wrapAngle(o.Y + angleDiff(yaw, o.Y)*c.cfg.FaceRate)
		o.X = mathutil.Lerp(o.X, 0, c.cfg.FaceRate)

	default:
		o.X = mathutil.Lerp(o.X, c.bandTilt(), c.cfg.FaceRate)
	}
}

// settle sets the orientation the easing in orient converges to.
func (c *Controller) settle(camera mathutil.Vec3) {
	o := &c.orientation
	switch {
	case c.blend < c.cfg.SaturnBand:
		o.X = c.cfg.Tilt
	case c.blend > c.cfg.HeartBand:
		o.X, o.Y = 0, facing(camera)
	default:
		o.X = c.bandTilt()
	}
}

// bandTilt is the tilt target inside the transition band.
func (c *Controller) bandTilt() float64 {
	progress := (c.blend - c.cfg.SaturnBand) / (c.cfg.HeartBand - c.cfg.SaturnBand)
	return mathutil.Lerp(c.cfg.Tilt, 0, progress)
}

// facing returns the yaw that turns the group's +Z toward camera. A camera
// at the origin faces +Z.
func facing(camera mathutil.Vec3) float64 {
	dir := camera.Normalize()
	if dir == (mathutil.Vec3{}) {
		dir = mathutil.Vec3{0, 0, 1}
	}
	return math.Atan2(dir[0], dir[2])
}

// wrapAngle maps a to [-π, π).
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// angleDiff returns the shortest signed rotation from b to a.
func angleDiff(a, b float64) float64 {
	return wrapAngle(a - b)
}
