package morph

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/ayusman/morphcloud/internal/gesture"
	"github.com/ayusman/morphcloud/internal/mathutil"
	"github.com/ayusman/morphcloud/internal/shape"
)

const tickInterval = 16 * time.Millisecond

var (
	epoch  = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	camera = mathutil.Vec3{0, 0, 8}
)

func newTestController(t *testing.T, saturnCount, heartCount int) *Controller {
	t.Helper()
	rng := rand.New(rand.NewPCG(7, 11))
	heart, err := shape.Heart(heartCount, rng)
	if err != nil {
		t.Fatalf("shape.Heart() error = %v", err)
	}
	return NewController(shape.Saturn(saturnCount, rng), heart, DefaultConfig(), epoch)
}

// clock is a simulated frame clock.
type clock struct{ now time.Time }

func (c *clock) step() time.Time {
	c.now = c.now.Add(tickInterval)
	return c.now
}

func TestNewController_IndexAligned(t *testing.T) {
	c := newTestController(t, 320, 480)

	if c.Len() != 320 {
		t.Fatalf("Len() = %d, want min(320, 480)", c.Len())
	}
	f := c.Frame()
	if len(f.Positions) != 320 || len(f.Colors) != 320 {
		t.Errorf("frame buffers = %d/%d, want 320", len(f.Positions), len(f.Colors))
	}
	if c.Gesture() != Fist {
		t.Errorf("default gesture = %v, want fist", c.Gesture())
	}
	if c.Blend() != 0 {
		t.Errorf("initial blend = %f, want 0", c.Blend())
	}
}

func TestTick_BlendMonotonicToOpen(t *testing.T) {
	c := newTestController(t, 100, 100)
	clk := &clock{now: epoch}

	prev := c.Blend()
	for i := 0; i < 200; i++ {
		now := clk.step()
		c.Observe(Observation{Label: gesture.Open, At: now})
		c.Tick(now, camera)

		b := c.Blend()
		if b <= prev {
			t.Fatalf("tick %d: blend %f did not increase from %f", i, b, prev)
		}
		if b > 1 || b < 0 {
			t.Fatalf("tick %d: blend %f left [0, 1]", i, b)
		}
		prev = b
	}
	if prev < 0.99 {
		t.Errorf("blend after 200 ticks = %f, want close to 1", prev)
	}
}

func TestTick_ConvergesTowardZero(t *testing.T) {
	c := newTestController(t, 100, 100)
	clk := &clock{now: epoch}

	for i := 0; i < 30; i++ {
		now := clk.step()
		c.Observe(Observation{Label: gesture.Open, At: now})
		c.Tick(now, camera)
	}

	prev := c.Blend()
	for i := 0; i < 1000; i++ {
		now := clk.step()
		c.Observe(Observation{Label: gesture.Fist, At: now})
		c.Tick(now, camera)

		b := c.Blend()
		if b >= prev {
			t.Fatalf("tick %d: blend %g did not decrease from %g", i, b, prev)
		}
		if b <= 0 {
			t.Fatalf("tick %d: blend reached %g, want strictly positive", i, b)
		}
		prev = b
	}
}

func TestTick_TimeoutRevertsToFist(t *testing.T) {
	c := newTestController(t, 50, 50)
	now := epoch.Add(100 * time.Millisecond)

	c.Observe(Observation{Label: gesture.Open, At: now})
	c.Tick(now, camera)
	if c.Gesture() != Open {
		t.Fatalf("gesture = %v after open, want open", c.Gesture())
	}

	c.Tick(now.Add(2*time.Second), camera)
	if c.Gesture() != Open {
		t.Errorf("gesture reverted at exactly the timeout, want open")
	}

	c.Tick(now.Add(2*time.Second+time.Millisecond), camera)
	if c.Gesture() != Fist {
		t.Errorf("gesture = %v after 2s without a hand, want fist", c.Gesture())
	}
}

func TestTick_NoChangeRefreshesTimestamp(t *testing.T) {
	c := newTestController(t, 50, 50)
	t0 := epoch.Add(time.Second)

	c.Observe(Observation{Label: gesture.Open, At: t0})
	c.Tick(t0, camera)

	// Ambiguous frames keep the hand "seen" without changing the gesture.
	for i := 1; i <= 4; i++ {
		at := t0.Add(time.Duration(i) * time.Second)
		c.Observe(Observation{Label: gesture.NoChange, At: at})
		c.Tick(at, camera)
		if c.Gesture() != Open {
			t.Fatalf("gesture = %v after %ds of ambiguous frames, want open held", c.Gesture(), i)
		}
		if !c.LastSeen().Equal(at) {
			t.Fatalf("LastSeen = %v, want %v", c.LastSeen(), at)
		}
	}
}

func TestTick_UnknownResetsImmediately(t *testing.T) {
	c := newTestController(t, 50, 50)
	t0 := epoch.Add(time.Second)

	c.Observe(Observation{Label: gesture.Open, At: t0})
	c.Tick(t0, camera)

	t1 := t0.Add(tickInterval)
	c.Observe(Observation{Label: gesture.Unknown, At: t1})
	c.Tick(t1, camera)

	if c.Gesture() != Fist {
		t.Errorf("gesture = %v after no-hand frame, want fist", c.Gesture())
	}
	if !c.LastSeen().Equal(t0) {
		t.Errorf("no-hand frame must not refresh LastSeen: got %v, want %v", c.LastSeen(), t0)
	}
}

func TestTick_EndToEndSequence(t *testing.T) {
	c := newTestController(t, 200, 200)
	clk := &clock{now: epoch}

	type step struct {
		label gesture.Label
		want  Gesture
	}
	script := []step{{gesture.Unknown, Fist}, {gesture.Open, Open}}
	for i := 0; i < 5; i++ {
		script = append(script, step{gesture.NoChange, Open})
	}
	script = append(script, step{gesture.Fist, Fist})

	// Each classification is followed by a burst of render ticks.
	const ticksPerFrame = 10
	prevBlend := c.Blend()
	prevCurrent := append([]mathutil.Vec3(nil), c.current...)

	for i, s := range script {
		now := clk.step()
		c.Observe(Observation{Label: s.label, At: now})

		for k := 0; k < ticksPerFrame; k++ {
			now = clk.step()
			c.Tick(now, camera)

			if c.Gesture() != s.want {
				t.Fatalf("step %d (%v) tick %d: gesture = %v, want %v", i, s.label, k, c.Gesture(), s.want)
			}

			bound := 0.08*math.Abs(s.want.Target()-prevBlend) + 1e-12
			if d := math.Abs(c.Blend() - prevBlend); d > bound {
				t.Fatalf("step %d tick %d: blend jumped %g, bound %g", i, k, d, bound)
			}
			if s.want == Open && c.Blend() < prevBlend {
				t.Fatalf("step %d tick %d: blend fell while open", i, k)
			}
			if s.want == Fist && c.Blend() > prevBlend {
				t.Fatalf("step %d tick %d: blend rose while fist", i, k)
			}

			for p := range c.current {
				target := c.saturn.Positions[p].Lerp(c.heart.Positions[p], c.Blend())
				maxStep := prevCurrent[p].Sub(target).Len()*0.1 + 1e-12
				if d := c.current[p].Sub(prevCurrent[p]).Len(); d > maxStep {
					t.Fatalf("step %d tick %d particle %d: moved %g, bound %g", i, k, p, d, maxStep)
				}
			}
			copy(prevCurrent, c.current)
			prevBlend = c.Blend()
		}
	}

	if c.Blend() >= 0.99 || c.Blend() <= 0 {
		t.Errorf("final blend = %f, want falling back toward 0", c.Blend())
	}
}

func TestMailbox_MergeKeepsDecisiveLabel(t *testing.T) {
	c := newTestController(t, 20, 20)
	t0 := epoch.Add(time.Second)

	// Open then ambiguous between two ticks: Open must survive.
	c.Observe(Observation{Label: gesture.Open, At: t0})
	c.Observe(Observation{Label: gesture.NoChange, At: t0.Add(tickInterval)})
	c.Tick(t0.Add(2*tickInterval), camera)

	if c.Gesture() != Open {
		t.Errorf("gesture = %v, want open preserved through merge", c.Gesture())
	}
	if want := t0.Add(tickInterval); !c.LastSeen().Equal(want) {
		t.Errorf("LastSeen = %v, want latest sighting %v", c.LastSeen(), want)
	}

	// Open then no hand: the no-hand frame wins but keeps the sighting time.
	t1 := t0.Add(time.Second)
	c.Observe(Observation{Label: gesture.Open, At: t1})
	c.Observe(Observation{Label: gesture.Unknown, At: t1.Add(tickInterval)})
	c.Tick(t1.Add(2*tickInterval), camera)

	if c.Gesture() != Fist {
		t.Errorf("gesture = %v, want fist after trailing no-hand frame", c.Gesture())
	}
	if !c.LastSeen().Equal(t1) {
		t.Errorf("LastSeen = %v, want %v", c.LastSeen(), t1)
	}
}

func TestTick_ColorAndSizeFollowBlendWithoutLag(t *testing.T) {
	c := newTestController(t, 30, 30)
	clk := &clock{now: epoch}

	for i := 0; i < 15; i++ {
		now := clk.step()
		c.Observe(Observation{Label: gesture.Open, At: now})
		f := c.Tick(now, camera)

		b := f.Blend
		for p := range f.Colors {
			want := c.saturn.Colors[p].BlendRgb(c.heart.Colors[p], b)
			if math.Abs(f.Colors[p].R-want.R) > 1e-12 || math.Abs(f.Colors[p].B-want.B) > 1e-12 {
				t.Fatalf("tick %d particle %d: color %v, want %v", i, p, f.Colors[p], want)
			}
		}
		if want := 0.035 + 0.01*b; math.Abs(f.Size-want) > 1e-12 {
			t.Errorf("size = %f, want %f", f.Size, want)
		}
		if want := 0.9 + 0.1*b; math.Abs(f.Opacity-want) > 1e-12 {
			t.Errorf("opacity = %f, want %f", f.Opacity, want)
		}
	}
}

func TestTick_WobbleVanishesAtHeart(t *testing.T) {
	c := newTestController(t, 30, 30)
	c.blend = 0.999999999
	c.gesture = Open
	now := epoch.Add(tickInterval)
	c.Observe(Observation{Label: gesture.Open, At: now})
	f := c.Tick(now, camera)

	for p := range f.Positions {
		if d := f.Positions[p].Sub(c.current[p]).Len(); d > 1e-9 {
			t.Fatalf("particle %d wobble %g at blend≈1", p, d)
		}
	}
}

func TestPose_SettlesWithoutSmoothing(t *testing.T) {
	c := newTestController(t, 40, 40)

	f := c.Pose(1, epoch, mathutil.Vec3{8, 0, 0})
	if f.Gesture != Open || f.Blend != 1 {
		t.Fatalf("Pose(1) gesture/blend = %v/%f, want open/1", f.Gesture, f.Blend)
	}
	for i := range f.Positions {
		if f.Positions[i].Sub(c.heart.Positions[i]).Len() > 1e-12 {
			t.Fatalf("particle %d = %v, want heart position %v", i, f.Positions[i], c.heart.Positions[i])
		}
	}
	if math.Abs(f.Rotation.Y-math.Pi/2) > 1e-12 || f.Rotation.X != 0 {
		t.Errorf("rotation = %+v, want yaw π/2 and no tilt", f.Rotation)
	}

	f = c.Pose(0.5, epoch, camera)
	if f.Gesture != Open {
		t.Errorf("Pose(0.5) gesture = %v, want open", f.Gesture)
	}
	if math.Abs(f.Rotation.X-DefaultConfig().Tilt/2) > 1e-12 {
		t.Errorf("Pose(0.5) tilt = %f, want half the planet tilt", f.Rotation.X)
	}

	f = c.Pose(-3, epoch, camera)
	if f.Blend != 0 || f.Gesture != Fist {
		t.Errorf("Pose(-3) blend/gesture = %f/%v, want 0/fist", f.Blend, f.Gesture)
	}
}

func TestFrame_Clone(t *testing.T) {
	c := newTestController(t, 10, 10)
	f := c.Tick(epoch.Add(tickInterval), camera)
	clone := f.Clone()

	f.Positions[0] = mathutil.Vec3{99, 99, 99}
	if clone.Positions[0] == f.Positions[0] {
		t.Error("Clone shares position storage with the original")
	}
	if clone.Seq != f.Seq {
		t.Errorf("clone Seq = %d, want %d", clone.Seq, f.Seq)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}

	bad := DefaultConfig()
	bad.BlendRate = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero blend rate")
	}

	bad = DefaultConfig()
	bad.SaturnBand, bad.HeartBand = 0.8, 0.2
	if err := bad.Validate(); err == nil {
		t.Error("expected error for inverted bands")
	}
}
