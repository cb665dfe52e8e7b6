package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/morphcloud/internal/capture"
	"github.com/ayusman/morphcloud/internal/config"
	"github.com/ayusman/morphcloud/internal/detector"
	"github.com/ayusman/morphcloud/internal/gesture"
	"github.com/ayusman/morphcloud/internal/mathutil"
	"github.com/ayusman/morphcloud/internal/morph"
	"github.com/ayusman/morphcloud/internal/render"
	"github.com/ayusman/morphcloud/internal/render/raster"
	"github.com/ayusman/morphcloud/internal/status"
	"github.com/ayusman/morphcloud/internal/store"
)

var camera = mathutil.Vec3{0, 0, 8}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Particles = config.ParticlesConfig{Saturn: 200, Heart: 300, Seed: 42}
	cfg.Camera.IdleFPS = 50
	cfg.Camera.ActiveFPS = 100
	cfg.DataDir = t.TempDir()
	return cfg
}

func newTestApp(t *testing.T, opts Options) *App {
	t.Helper()
	if opts.Config.DataDir == "" {
		opts.Config = testConfig(t)
	}
	if opts.Detector == nil {
		opts.Detector = detector.NewSequenceDetector()
	}
	if opts.Camera == nil {
		cam := capture.NewBlankCamera(64, 48)
		t.Cleanup(cam.Release)
		opts.Camera = cam
	}
	a, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type fakeChime struct {
	mu    sync.Mutex
	inits int
	plays []bool
}

func (c *fakeChime) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inits++
	return nil
}

func (c *fakeChime) Play(heart bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plays = append(c.plays, heart)
}

func TestNew_BuildsIndexAlignedController(t *testing.T) {
	a := newTestApp(t, Options{})

	if got := a.Controller().Len(); got != 200 {
		t.Errorf("controller particles = %d, want min(200, 300)", got)
	}
	f := a.Latest()
	if f == nil || len(f.Positions) != 200 {
		t.Fatal("Latest() should hold the initial frame before the first tick")
	}
	if f.Gesture != morph.Fist {
		t.Errorf("initial gesture = %v, want fist", f.Gesture)
	}
	if !a.IsEnabled() {
		t.Error("detection should be enabled by default")
	}
}

func TestNew_SameSeedSameCloud(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, Options{Config: cfg})
	b := newTestApp(t, Options{Config: cfg})

	fa, fb := a.Latest(), b.Latest()
	for i := range fa.Positions {
		if fa.Positions[i] != fb.Positions[i] {
			t.Fatalf("particle %d differs between apps with the same seed", i)
		}
	}
}

func TestHandleHands(t *testing.T) {
	tests := []struct {
		name   string
		hands  []detector.HandLandmarks
		label  gesture.Label
		status status.Status
	}{
		{"no hand", nil, gesture.Unknown, status.Status{Text: status.NoHand}},
		{"open", []detector.HandLandmarks{detector.RatioLandmarks(1.0)}, gesture.Open, status.Status{Text: status.OpenPalm, Accent: true}},
		{"fist", []detector.HandLandmarks{detector.RatioLandmarks(0.1)}, gesture.Fist, status.Status{Text: status.FistClosed, Accent: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, Options{})
			if got := a.handleHands(tt.hands, time.Now()); got != tt.label {
				t.Errorf("handleHands() = %v, want %v", got, tt.label)
			}
			if got := a.Status(); got != tt.status {
				t.Errorf("Status() = %+v, want %+v", got, tt.status)
			}
		})
	}
}

func TestHandleHands_AmbiguousKeepsStatus(t *testing.T) {
	a := newTestApp(t, Options{})
	now := time.Now()

	a.handleHands([]detector.HandLandmarks{detector.RatioLandmarks(1.0)}, now)
	a.handleHands([]detector.HandLandmarks{detector.RatioLandmarks(0.5)}, now)

	if got := a.Status().Text; got != status.OpenPalm {
		t.Errorf("status after ambiguous pose = %q, want %q", got, status.OpenPalm)
	}
	if f := a.Tick(now, camera); f.Gesture != morph.Open {
		t.Errorf("gesture = %v, want open to survive the ambiguous frame", f.Gesture)
	}
}

func TestTick_GestureChangeFansOut(t *testing.T) {
	chime := &fakeChime{}
	cfg := testConfig(t)
	cfg.Sound.Enabled = true
	a := newTestApp(t, Options{Config: cfg, Chime: chime})

	var seen []morph.Gesture
	a.OnGestureChange(func(g morph.Gesture) { seen = append(seen, g) })

	now := time.Now()
	a.handleHands([]detector.HandLandmarks{detector.RatioLandmarks(1.0)}, now)
	a.Tick(now, camera)
	a.Tick(now.Add(16*time.Millisecond), camera)

	a.handleHands(nil, now.Add(32*time.Millisecond))
	a.Tick(now.Add(32*time.Millisecond), camera)

	want := []morph.Gesture{morph.Open, morph.Fist}
	if len(seen) != len(want) || seen[0] != want[0] || seen[1] != want[1] {
		t.Errorf("listener saw %v, want %v", seen, want)
	}
	if len(chime.plays) != 2 || !chime.plays[0] || chime.plays[1] {
		t.Errorf("chime plays = %v, want [true false]", chime.plays)
	}
}

func TestTick_PublishesCopy(t *testing.T) {
	a := newTestApp(t, Options{})

	f := a.Tick(time.Now(), camera)
	latest := a.Latest()
	if latest == f {
		t.Fatal("Latest() must not alias the controller's frame")
	}
	if latest.Seq != f.Seq {
		t.Errorf("Latest().Seq = %d, want %d", latest.Seq, f.Seq)
	}
}

func TestSetEnabled_Persists(t *testing.T) {
	s := newTestStore(t)
	cfg := testConfig(t)

	a := newTestApp(t, Options{Config: cfg, Store: s})
	a.SetEnabled(false)
	if got := a.Status().Text; got != status.Paused {
		t.Errorf("status after pause = %q, want %q", got, status.Paused)
	}

	b := newTestApp(t, Options{Config: cfg, Store: s})
	if b.IsEnabled() {
		t.Error("detection setting was not restored from the store")
	}
}

func TestSound_MutedByDefault(t *testing.T) {
	chime := &fakeChime{}
	a := newTestApp(t, Options{Chime: chime})
	if a.SoundEnabled() {
		t.Fatal("sound should be off unless configured")
	}

	now := time.Now()
	a.handleHands([]detector.HandLandmarks{detector.RatioLandmarks(1.0)}, now)
	a.Tick(now, camera)
	if len(chime.plays) != 0 || chime.inits != 0 {
		t.Errorf("muted chime: plays %v, inits %d; want none", chime.plays, chime.inits)
	}
}

func TestSetSoundEnabled_PersistsAndOpensSpeaker(t *testing.T) {
	s := newTestStore(t)
	cfg := testConfig(t)
	chime := &fakeChime{}

	a := newTestApp(t, Options{Config: cfg, Store: s, Chime: chime})
	a.SetSoundEnabled(true)
	if !a.SoundEnabled() {
		t.Fatal("SetSoundEnabled(true) did not enable sound")
	}
	if chime.inits != 1 {
		t.Errorf("Initialize calls = %d, want 1 when sound is switched on", chime.inits)
	}

	// Opened before the first chime, so Tick only queues notes.
	now := time.Now()
	a.handleHands([]detector.HandLandmarks{detector.RatioLandmarks(1.0)}, now)
	a.Tick(now, camera)
	if chime.inits != 1 || len(chime.plays) != 1 {
		t.Errorf("after gesture change: inits %d, plays %v; want 1, [true]", chime.inits, chime.plays)
	}

	b := newTestApp(t, Options{Config: cfg, Store: s, Chime: &fakeChime{}})
	if !b.SoundEnabled() {
		t.Error("sound setting was not restored from the store")
	}

	b.SetSoundEnabled(false)
	c := newTestApp(t, Options{Config: cfg, Store: s, Chime: &fakeChime{}})
	if c.SoundEnabled() {
		t.Error("disabling sound was not persisted")
	}
}

func TestStart_OpensSpeakerWhenSoundOn(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sound.Enabled = true
	chime := &fakeChime{}

	a := newTestApp(t, Options{Config: cfg, Chime: chime})
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	chime.mu.Lock()
	defer chime.mu.Unlock()
	if chime.inits != 1 {
		t.Errorf("Initialize calls = %d, want 1", chime.inits)
	}
}

func TestStart_CameraUnavailable(t *testing.T) {
	cam := capture.NewBlankCamera(64, 48)
	defer cam.Release()
	cam.FailOpen(errors.New("permission denied"))

	a := newTestApp(t, Options{Camera: cam})
	if err := a.Start(); err == nil {
		t.Fatal("Start() should fail when the camera cannot open")
	}
	if got := a.Status().Text; got != status.CameraUnavailable {
		t.Errorf("status = %q, want %q", got, status.CameraUnavailable)
	}

	// Rendering carries on and stays on Saturn.
	if f := a.Tick(time.Now(), camera); f.Gesture != morph.Fist {
		t.Errorf("gesture = %v, want fist", f.Gesture)
	}
}

func TestPipeline_OpenPalmMorphsToHeart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	open := []detector.HandLandmarks{detector.RatioLandmarks(1.0)}
	a := newTestApp(t, Options{Detector: detector.NewSequenceDetector(nil, open)})
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	deadline := time.Now().Add(3 * time.Second)
	var f *morph.Frame
	for time.Now().Before(deadline) {
		f = a.Tick(time.Now(), camera)
		if f.Gesture == morph.Open && f.Blend > 0.5 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if f.Gesture != morph.Open || f.Blend <= 0.5 {
		t.Fatalf("gesture/blend = %v/%f, want open past the midpoint", f.Gesture, f.Blend)
	}
	if got := a.Status().Text; got != status.OpenPalm {
		t.Errorf("status = %q, want %q", got, status.OpenPalm)
	}
}

func TestRunHeadless(t *testing.T) {
	a := newTestApp(t, Options{})

	f, err := a.RunHeadless(context.Background(), 500, 5)
	if err != nil {
		t.Fatalf("RunHeadless() error = %v", err)
	}
	if f.Seq != 5 {
		t.Errorf("Seq = %d, want 5 ticks", f.Seq)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.RunHeadless(ctx, 500, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("RunHeadless() after cancel error = %v, want context.Canceled", err)
	}

	if _, err := a.RunHeadless(context.Background(), 0, 1); err == nil {
		t.Error("RunHeadless() with zero rate should fail")
	}
}

func TestSnapshotter_SaveAndDelete(t *testing.T) {
	s := newTestStore(t)
	a := newTestApp(t, Options{})
	dir := t.TempDir()
	snaps := NewSnapshotter(s, dir, raster.Still{Width: 64, Height: 48, Supersample: 1})

	f := a.Controller().Pose(1, time.Now(), camera)
	snap, err := snaps.Save(f, *render.NewOrbit())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if snap.Gesture != "open" || snap.Particles != 200 {
		t.Errorf("snapshot = %+v, want open with 200 particles", snap)
	}
	if _, err := os.Stat(snap.Path); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}

	id, err := snaps.Func()(f, *render.NewOrbit())
	if err != nil || id == "" || id == snap.ID {
		t.Errorf("Func() = %q, %v, want a fresh id", id, err)
	}

	if err := snaps.Delete(snap.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(snap.Path); !os.IsNotExist(err) {
		t.Error("Delete() left the file behind")
	}
	if err := snaps.Delete(snap.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
