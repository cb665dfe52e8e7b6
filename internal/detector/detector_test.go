package detector

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func TestDistance(t *testing.T) {
	got := Distance(Point3D{X: 1, Y: 2, Z: 3}, Point3D{X: 4, Y: 6, Z: 3})
	if math.Abs(got-5) > epsilon {
		t.Errorf("Distance = %f, want 5", got)
	}
}

func TestRatioLandmarks(t *testing.T) {
	pairs := [][2]int{
		{ThumbTip, ThumbMCP},
		{IndexTip, IndexMCP},
		{MiddleTip, MiddleMCP},
		{RingTip, RingMCP},
		{PinkyTip, PinkyMCP},
	}

	for _, ratio := range []float64{0.1, 0.5, 1.0} {
		hand := RatioLandmarks(ratio)
		for _, p := range pairs {
			tipToKnuckle := Distance(hand.Points[p[0]], hand.Points[p[1]])
			knuckleToWrist := Distance(hand.Points[p[1]], hand.Points[Wrist])
			if got := tipToKnuckle / knuckleToWrist; math.Abs(got-ratio) > 1e-6 {
				t.Errorf("ratio %f: finger tip %d ratio = %f", ratio, p[0], got)
			}
		}
	}
}

func TestHandLandmarks_Translate(t *testing.T) {
	hand := OpenPalmLandmarks()
	moved := hand.Translate(0.1, -0.1, 0)

	if math.Abs(moved.Points[Wrist].X-0.6) > epsilon {
		t.Errorf("wrist X = %f, want 0.6", moved.Points[Wrist].X)
	}
	if hand.Points[Wrist].X != 0.5 {
		t.Error("Translate must not modify the receiver")
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("keeps at most maxHands complete hands", func(t *testing.T) {
		point := `{"x":0.1,"y":0.2,"z":0}`
		points := point
		for i := 1; i < NumLandmarks; i++ {
			points += "," + point
		}
		hand := `{"points":[` + points + `],"handedness":"Left","score":0.9}`
		short := `{"points":[` + point + `],"handedness":"Right","score":0.9}`
		line := []byte(`{"hands":[` + short + `,` + hand + `,` + hand + `]}`)

		hands, err := parseResponse(line, 1)
		if err != nil {
			t.Fatalf("parseResponse() error = %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("got %d hands, want 1", len(hands))
		}
		if hands[0].Handedness != "Left" {
			t.Errorf("handedness = %s, want Left", hands[0].Handedness)
		}
	})

	t.Run("service error surfaces", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"hands":[],"error":"decode failed"}`), 1)
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := parseResponse([]byte("nope"), 1); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
		if mock.Calls() != 1 {
			t.Errorf("Calls() = %d, want 1", mock.Calls())
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{OpenPalmLandmarks()})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Errorf("expected 1 hand, got %d", len(hands))
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*SequenceDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestSequenceDetector(t *testing.T) {
	open := []HandLandmarks{OpenPalmLandmarks()}
	seq := NewSequenceDetector(nil, open)

	first, _ := seq.Detect(nil)
	if len(first) != 0 {
		t.Errorf("first frame has %d hands, want 0", len(first))
	}
	for i := 0; i < 3; i++ {
		hands, _ := seq.Detect(nil)
		if len(hands) != 1 {
			t.Fatalf("frame %d has %d hands, want the last entry repeated", i+2, len(hands))
		}
	}
}

func TestOpenPalmLandmarks(t *testing.T) {
	landmarks := OpenPalmLandmarks()

	t.Run("all fingers are extended", func(t *testing.T) {
		minExtension := 0.2
		for _, pair := range [][2]int{{IndexMCP, IndexTip}, {MiddleMCP, MiddleTip}, {RingMCP, RingTip}, {PinkyMCP, PinkyTip}} {
			extension := landmarks.Points[pair[0]].Y - landmarks.Points[pair[1]].Y
			if extension < minExtension {
				t.Errorf("finger tip %d not extended enough (extension: %f)", pair[1], extension)
			}
		}
	})

	t.Run("thumb is extended to the side", func(t *testing.T) {
		if landmarks.Points[ThumbTip].X <= landmarks.Points[ThumbMCP].X {
			t.Error("thumb tip should be to the right of thumb MCP (extended outward)")
		}
	})
}

func TestFistLandmarks(t *testing.T) {
	landmarks := FistLandmarks()
	for _, pair := range [][2]int{{IndexMCP, IndexTip}, {MiddleMCP, MiddleTip}, {RingMCP, RingTip}, {PinkyMCP, PinkyTip}} {
		if d := Distance(landmarks.Points[pair[0]], landmarks.Points[pair[1]]); d > 0.06 {
			t.Errorf("finger tip %d is %f from its knuckle, want a tight curl", pair[1], d)
		}
	}
}
