package capture

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestMotionDetector_NoMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if detected, pct := md.Detect(&frame); detected || pct != 0 {
		t.Errorf("first frame = (%v, %f), want (false, 0)", detected, pct)
	}
	if detected, pct := md.Detect(&frame); detected {
		t.Errorf("identical frames detected motion, changed = %f", pct)
	}
}

func TestMotionDetector_WithMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&black)
	detected, pct := md.Detect(&white)
	if !detected || pct < 50 {
		t.Errorf("black to white = (%v, %f), want motion over 50%%", detected, pct)
	}
}

func TestMotionDetector_ResetReprimes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	black := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&black)
	md.Reset()
	if detected, _ := md.Detect(&white); detected {
		t.Error("first frame after Reset should only prime the baseline")
	}
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.threshold != 5.0 {
		t.Errorf("threshold = %f, want 5.0", md.threshold)
	}
	md.SetThreshold(-1.0)
	if md.threshold != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", md.threshold)
	}
}

func TestMotionDetector_CloseTwice(t *testing.T) {
	md := NewMotionDetector(1.0)
	md.Close()
	md.Close()
}

func TestRateGate(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewRateGate(5, 15, 2*time.Second)

	if g.Active() || g.FPS() != 5 {
		t.Fatalf("new gate = active %v fps %d, want idle at 5", g.Active(), g.FPS())
	}
	if g.Interval() != 200*time.Millisecond {
		t.Errorf("idle Interval() = %v, want 200ms", g.Interval())
	}

	steps := []struct {
		name        string
		at          time.Duration
		motion      bool
		wantFPS     int
		wantChanged bool
	}{
		{"still while idle", 0, false, 5, false},
		{"motion wakes", 100 * time.Millisecond, true, 15, true},
		{"motion while active", 200 * time.Millisecond, true, 15, false},
		{"still within cooldown", 2200 * time.Millisecond, false, 15, false},
		{"still past cooldown", 2201 * time.Millisecond, false, 5, true},
		{"still while idle again", 5 * time.Second, false, 5, false},
	}
	for _, s := range steps {
		fps, changed := g.Update(s.motion, t0.Add(s.at))
		if fps != s.wantFPS || changed != s.wantChanged {
			t.Errorf("%s: Update() = (%d, %v), want (%d, %v)", s.name, fps, changed, s.wantFPS, s.wantChanged)
		}
	}
}
