// Package morph is the gesture-driven blend engine. It smooths discrete
// open/fist observations into a continuous blend between two index-aligned
// particle sets and derives per-particle positions, colors and the group
// orientation once per render tick.
package morph

import (
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/morphcloud/internal/gesture"
	"github.com/ayusman/morphcloud/internal/mathutil"
	"github.com/ayusman/morphcloud/internal/shape"
)

// Gesture is the discrete steady state the blend is pulled toward.
type Gesture int

const (
	// Fist shows the planet. It is the default.
	Fist Gesture = iota
	// Open shows the heart.
	Open
)

// Target returns the blend value this gesture pulls toward.
func (g Gesture) Target() float64 {
	if g == Open {
		return 1
	}
	return 0
}

func (g Gesture) String() string {
	if g == Open {
		return "open"
	}
	return "fist"
}

// Shape names what the gesture shows.
func (g Gesture) Shape() string {
	if g == Open {
		return "Heart"
	}
	return "Saturn"
}

// Orientation is the particle group's rotation in radians.
type Orientation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Frame is the render state produced by one tick. The controller reuses the
// same Frame between ticks; Seq increases every time its contents change.
type Frame struct {
	Seq       uint64
	Time      time.Time
	Gesture   Gesture
	Blend     float64
	Size      float64
	Opacity   float64
	Rotation  Orientation
	Positions []mathutil.Vec3
	Colors    []colorful.Color
}

// Clone returns a deep copy safe to hand to another goroutine.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Positions = append([]mathutil.Vec3(nil), f.Positions...)
	c.Colors = append([]colorful.Color(nil), f.Colors...)
	return &c
}

// Controller owns the morph state. Tick must be called from a single
// goroutine; observations from other goroutines go through Mailbox.
type Controller struct {
	cfg    Config
	saturn *shape.ParticleSet
	heart  *shape.ParticleSet
	box    Mailbox

	gesture  Gesture
	blend    float64
	lastSeen time.Time
	start    time.Time

	current     []mathutil.Vec3
	orientation Orientation
	frame       Frame
}

// NewController builds a controller over the first min(len) particles of
// both sets. Planet colors and seeds are used as the per-particle identity.
// now starts both the idle clock and the inactivity timer.
func NewController(saturn, heart *shape.ParticleSet, cfg Config, now time.Time) *Controller {
	n := saturn.Len()
	if heart.Len() < n {
		n = heart.Len()
	}
	saturn = saturn.Truncate(n)
	heart = heart.Truncate(n)

	c := &Controller{
		cfg:      cfg,
		saturn:   saturn,
		heart:    heart,
		gesture:  Fist,
		lastSeen: now,
		start:    now,
		current:  append([]mathutil.Vec3(nil), saturn.Positions...),
	}
	c.orientation.X = cfg.Tilt
	c.frame = Frame{
		Time:      now,
		Size:      cfg.MinSize,
		Opacity:   cfg.MinOpacity,
		Rotation:  c.orientation,
		Positions: append([]mathutil.Vec3(nil), saturn.Positions...),
		Colors:    append([]colorful.Color(nil), saturn.Colors...),
	}
	return c
}

// Mailbox returns the handoff the detection goroutine posts to.
func (c *Controller) Mailbox() *Mailbox { return &c.box }

// Observe posts an observation; shorthand for Mailbox().Post.
func (c *Controller) Observe(obs Observation) { c.box.Post(obs) }

// Len returns the number of particles being morphed.
func (c *Controller) Len() int { return len(c.current) }

// Gesture returns the current discrete gesture.
func (c *Controller) Gesture() Gesture { return c.gesture }

// Blend returns the smoothed blend value.
func (c *Controller) Blend() float64 { return c.blend }

// LastSeen returns when a hand was last detected.
func (c *Controller) LastSeen() time.Time { return c.lastSeen }

// Frame returns the most recent render state.
func (c *Controller) Frame() *Frame { return &c.frame }

// apply folds pending observations into the discrete state.
func (c *Controller) apply() {
	p, ok := c.box.take()
	if !ok {
		return
	}
	if p.hasLabel {
		switch p.label {
		case gesture.Open:
			c.gesture = Open
		case gesture.Fist, gesture.Unknown:
			c.gesture = Fist
		}
	}
	if !p.seen.IsZero() && p.seen.After(c.lastSeen) {
		c.lastSeen = p.seen
	}
}

// Tick advances the engine by one render frame. now must come from the same
// clock as observation timestamps; camera is the viewer position in the
// group's parent space.
func (c *Controller) Tick(now time.Time, camera mathutil.Vec3) *Frame {
	c.apply()
	if now.Sub(c.lastSeen) > c.cfg.Timeout {
		c.gesture = Fist
	}

	c.blend = mathutil.Lerp(c.blend, c.gesture.Target(), c.cfg.BlendRate)
	for i := range c.current {
		target := c.saturn.Positions[i].Lerp(c.heart.Positions[i], c.blend)
		c.current[i] = c.current[i].Lerp(target, c.cfg.PositionLag)
	}
	c.orient(camera)
	return c.emit(now)
}

// Pose jumps straight to the settled state for blend, skipping all
// smoothing, and returns the resulting frame. Stills rendered without a
// camera use it. Blends of 0.5 and above select Open.
func (c *Controller) Pose(blend float64, now time.Time, camera mathutil.Vec3) *Frame {
	c.box.take()
	c.blend = mathutil.Clamp(blend, 0, 1)
	c.gesture = Fist
	if c.blend >= 0.5 {
		c.gesture = Open
	}
	c.lastSeen = now
	for i := range c.current {
		c.current[i] = c.saturn.Positions[i].Lerp(c.heart.Positions[i], c.blend)
	}
	c.settle(camera)
	return c.emit(now)
}

// emit writes the wobbled positions, colors and group attributes for the
// current blend into the frame.
func (c *Controller) emit(now time.Time) *Frame {
	blend := c.blend
	idle := 1 - blend
	t := now.Sub(c.start).Seconds()

	for i := range c.current {
		seed := c.saturn.Seeds[i]
		wave := math.Sin(seed+t*c.cfg.WaveSpeed) * c.cfg.WaveAmplitude * idle
		swirl := math.Cos(seed*1.5+t*c.cfg.SwirlSpeed) * c.cfg.SwirlAmplitude * idle
		c.frame.Positions[i] = c.current[i].Add(mathutil.Vec3{wave, swirl, wave * 0.5})

		c.frame.Colors[i] = c.saturn.Colors[i].BlendRgb(c.heart.Colors[i], blend)
	}

	c.frame.Seq++
	c.frame.Time = now
	c.frame.Gesture = c.gesture
	c.frame.Blend = blend
	c.frame.Size = mathutil.Lerp(c.cfg.MinSize, c.cfg.MaxSize, blend)
	c.frame.Opacity = mathutil.Lerp(c.cfg.MinOpacity, c.cfg.MaxOpacity, blend)
	c.frame.Rotation = c.orientation
	return &c.frame
}
