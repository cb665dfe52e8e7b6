package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	BlurKernel    = 21 // Gaussian kernel size
	DiffThreshold = 25 // per-pixel intensity change counted as motion
)

// MotionDetector compares each frame with the previous one and reports the
// percentage of pixels that changed.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	primed    bool
}

// NewMotionDetector reports motion when more than threshold percent of the
// pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect returns whether the frame differs from the previous one and the
// changed-pixel percentage. The first frame only primes the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(BlurKernel, BlurKernel), 0, 0, gocv.BorderDefault)

	if !m.primed || m.prev.Rows() != blurred.Rows() || m.prev.Cols() != blurred.Cols() {
		blurred.CopyTo(&m.prev)
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)
	gocv.Threshold(diff, &diff, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	blurred.CopyTo(&m.prev)

	return changed > m.threshold, changed
}

// Reset forgets the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primed = false
}

// Close releases the baseline frame.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prev.Close()
	m.prev = gocv.NewMat()
	m.primed = false
}

// SetThreshold changes the motion threshold. Values <= 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// RateGate switches between an idle and an active detection rate. Motion
// moves it to the active rate at once; it drops back to idle after Cooldown
// without motion. Detection keeps running at the idle rate so a still hand
// is still seen.
type RateGate struct {
	IdleFPS   int
	ActiveFPS int
	Cooldown  time.Duration

	active     bool
	lastMotion time.Time
}

// NewRateGate returns a gate that starts idle.
func NewRateGate(idleFPS, activeFPS int, cooldown time.Duration) *RateGate {
	return &RateGate{IdleFPS: idleFPS, ActiveFPS: activeFPS, Cooldown: cooldown}
}

// Update records whether motion was seen at now and returns the rate to use
// and whether it changed.
func (g *RateGate) Update(motion bool, now time.Time) (fps int, changed bool) {
	switch {
	case motion:
		g.lastMotion = now
		if !g.active {
			g.active, changed = true, true
		}
	case g.active && now.Sub(g.lastMotion) > g.Cooldown:
		g.active, changed = false, true
	}
	return g.FPS(), changed
}

// Active reports whether the gate is at the active rate.
func (g *RateGate) Active() bool { return g.active }

// FPS returns the current rate.
func (g *RateGate) FPS() int {
	if g.active {
		return g.ActiveFPS
	}
	return g.IdleFPS
}

// Interval returns the frame period at the current rate.
func (g *RateGate) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}
