package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// SequenceDetector replays a fixed script of per-frame results, repeating
// the last entry once the script is exhausted.
type SequenceDetector struct {
	mu     sync.Mutex
	frames [][]HandLandmarks
	index  int
}

// NewSequenceDetector creates a detector that returns frames in order.
func NewSequenceDetector(frames ...[]HandLandmarks) *SequenceDetector {
	return &SequenceDetector{frames: frames}
}

// Detect returns the next scripted frame.
func (s *SequenceDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil, nil
	}
	i := s.index
	if i >= len(s.frames) {
		i = len(s.frames) - 1
	} else {
		s.index++
	}
	return s.frames[i], nil
}

// Close is a no-op.
func (s *SequenceDetector) Close() error {
	return nil
}

// fingerDirs are the unit directions from the wrist toward each knuckle in
// RatioLandmarks, thumb first, fanned across the upper half plane.
var fingerDirs = [5][2]float64{
	{math.Cos(math.Pi / 6), -math.Sin(math.Pi / 6)},
	{math.Cos(math.Pi / 3), -math.Sin(math.Pi / 3)},
	{0, -1},
	{-math.Cos(math.Pi / 3), -math.Sin(math.Pi / 3)},
	{-math.Cos(math.Pi / 6), -math.Sin(math.Pi / 6)},
}

var fingerJoints = [5][4]int{
	{ThumbCMC, ThumbMCP, ThumbIP, ThumbTip},
	{IndexMCP, IndexPIP, IndexDIP, IndexTip},
	{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
	{RingMCP, RingPIP, RingDIP, RingTip},
	{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
}

// RatioLandmarks builds a synthetic right hand in which every finger's
// tip-to-knuckle distance is exactly ratio times its knuckle-to-wrist
// distance. The knuckle is the MCP joint for the four fingers and the
// thumb MCP (index 2) for the thumb.
func RatioLandmarks(ratio float64) HandLandmarks {
	const palm = 0.1
	hand := HandLandmarks{Handedness: "Right", Score: 0.95}
	wrist := Point3D{X: 0.5, Y: 0.8}
	hand.Points[Wrist] = wrist

	for f, dir := range fingerDirs {
		at := func(d float64) Point3D {
			return Point3D{X: wrist.X + dir[0]*d, Y: wrist.Y + dir[1]*d}
		}
		joints := fingerJoints[f]
		tip := palm + ratio*palm
		if f == 0 {
			// Thumb: CMC sits halfway to the MCP knuckle.
			hand.Points[joints[0]] = at(palm / 2)
			hand.Points[joints[1]] = at(palm)
			hand.Points[joints[2]] = at((palm + tip) / 2)
			hand.Points[joints[3]] = at(tip)
			continue
		}
		hand.Points[joints[0]] = at(palm)
		hand.Points[joints[1]] = at(palm + (tip-palm)/3)
		hand.Points[joints[2]] = at(palm + 2*(tip-palm)/3)
		hand.Points[joints[3]] = at(tip)
	}
	return hand
}

// DegenerateLandmarks returns a hand whose 21 points all coincide, so every
// knuckle-to-wrist distance is zero.
func DegenerateLandmarks() HandLandmarks {
	hand := HandLandmarks{Handedness: "Right", Score: 0.5}
	for i := range hand.Points {
		hand.Points[i] = Point3D{X: 0.5, Y: 0.5}
	}
	return hand
}

// FistLandmarks returns a preset closed fist: every fingertip folded back
// onto its knuckle.
func FistLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb tucked across the index knuckle
	landmarks.Points[ThumbCMC] = Point3D{X: 0.56, Y: 0.76, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.60, Y: 0.70, Z: -0.01}
	landmarks.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.67, Z: -0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.56, Y: 0.68, Z: -0.04}

	// Four fingers rolled into the palm, tips just below the knuckles
	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.66, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.56, Y: 0.62, Z: -0.04}
	landmarks.Points[IndexDIP] = Point3D{X: 0.55, Y: 0.65, Z: -0.06}
	landmarks.Points[IndexTip] = Point3D{X: 0.55, Y: 0.68, Z: -0.04}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.65, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.61, Z: -0.04}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.64, Z: -0.06}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.67, Z: -0.04}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.66, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.45, Y: 0.62, Z: -0.04}
	landmarks.Points[RingDIP] = Point3D{X: 0.45, Y: 0.65, Z: -0.06}
	landmarks.Points[RingTip] = Point3D{X: 0.45, Y: 0.68, Z: -0.04}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.41, Y: 0.68, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.41, Y: 0.65, Z: -0.03}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.41, Y: 0.67, Z: -0.05}
	landmarks.Points[PinkyTip] = Point3D{X: 0.41, Y: 0.69, Z: -0.03}

	return landmarks
}

// ThumbsUpLandmarks returns a thumbs-up pose: thumb extended, the other
// fingers loosely bent. It is neither open nor a fist.
func ThumbsUpLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.65, Z: 0.0}
	landmarks.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.50, Z: 0.0}
	landmarks.Points[ThumbTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	landmarks.Points[IndexPIP] = Point3D{X: 0.55, Y: 0.68, Z: -0.05}
	landmarks.Points[IndexDIP] = Point3D{X: 0.52, Y: 0.70, Z: -0.04}
	landmarks.Points[IndexTip] = Point3D{X: 0.50, Y: 0.72, Z: -0.02}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.68, Z: -0.02}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.66, Z: -0.05}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.47, Y: 0.68, Z: -0.04}
	landmarks.Points[MiddleTip] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}
	landmarks.Points[RingPIP] = Point3D{X: 0.45, Y: 0.68, Z: -0.05}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	landmarks.Points[RingTip] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.40, Y: 0.70, Z: -0.05}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.37, Y: 0.72, Z: -0.04}
	landmarks.Points[PinkyTip] = Point3D{X: 0.35, Y: 0.74, Z: -0.02}

	return landmarks
}

// OpenPalmLandmarks returns a preset open palm with all fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	landmarks.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	landmarks.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	landmarks.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return landmarks
}
