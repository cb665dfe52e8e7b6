// Package gesture turns a single frame of hand landmarks into a coarse
// open/fist label using finger extension ratios.
package gesture

import (
	"math"

	"github.com/ayusman/morphcloud/internal/detector"
)

// Label is the per-frame classification result.
type Label int

const (
	// Unknown means no hand was detected in the frame.
	Unknown Label = iota
	// NoChange means a hand was seen but the pose matched neither threshold.
	// Callers keep their previous state.
	NoChange
	// Open means at least four fingers are extended.
	Open
	// Fist means at least four fingers are curled.
	Fist
)

// String returns the lowercase label name.
func (l Label) String() string {
	switch l {
	case NoChange:
		return "no-change"
	case Open:
		return "open"
	case Fist:
		return "fist"
	default:
		return "unknown"
	}
}

// Classification thresholds, as fractions of a finger's knuckle-to-wrist
// length.
const (
	ExtendedRatio = 0.6
	CurledRatio   = 0.4
	// MinFingers is how many of the five fingers must agree.
	MinFingers = 4
	// DegenerateEpsilon is the knuckle-to-wrist length below which a
	// finger's ratio is undefined and the finger votes for neither pose.
	DegenerateEpsilon = 1e-9
)

// finger pairs a fingertip with the knuckle its extension is measured from.
type finger struct {
	tip, knuckle int
}

var fingers = [5]finger{
	{detector.ThumbTip, detector.ThumbMCP},
	{detector.IndexTip, detector.IndexMCP},
	{detector.MiddleTip, detector.MiddleMCP},
	{detector.RingTip, detector.RingMCP},
	{detector.PinkyTip, detector.PinkyMCP},
}

// Ratios returns tipToKnuckle / knuckleToWrist for each finger, thumb first.
// A finger with degenerate geometry reports NaN.
func Ratios(hand *detector.HandLandmarks) [5]float64 {
	var out [5]float64
	wrist := hand.Points[detector.Wrist]
	for i, f := range fingers {
		knuckle := hand.Points[f.knuckle]
		tipToKnuckle := detector.Distance(hand.Points[f.tip], knuckle)
		knuckleToWrist := detector.Distance(knuckle, wrist)
		if knuckleToWrist < DegenerateEpsilon || !finite(knuckleToWrist) || !finite(tipToKnuckle) {
			out[i] = math.NaN()
			continue
		}
		out[i] = tipToKnuckle / knuckleToWrist
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsOpen reports whether at least four fingers are extended.
func IsOpen(hand *detector.HandLandmarks) bool {
	n := 0
	for _, r := range Ratios(hand) {
		// NaN compares false, so degenerate fingers never count.
		if r > ExtendedRatio {
			n++
		}
	}
	return n >= MinFingers
}

// IsFist reports whether at least four fingers are curled.
func IsFist(hand *detector.HandLandmarks) bool {
	n := 0
	for _, r := range Ratios(hand) {
		if r < CurledRatio {
			n++
		}
	}
	return n >= MinFingers
}

// Classify labels one detector frame. Only the first hand is considered.
// Open is checked before Fist; a pose matching neither is NoChange.
func Classify(hands []detector.HandLandmarks) Label {
	if len(hands) == 0 {
		return Unknown
	}
	hand := &hands[0]
	switch {
	case IsOpen(hand):
		return Open
	case IsFist(hand):
		return Fist
	default:
		return NoChange
	}
}
