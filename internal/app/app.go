// Package app wires the camera, hand detector and morph controller together
// and hands frames to the renderers.
package app

import (
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/morphcloud/internal/capture"
	"github.com/ayusman/morphcloud/internal/config"
	"github.com/ayusman/morphcloud/internal/detector"
	"github.com/ayusman/morphcloud/internal/hook"
	"github.com/ayusman/morphcloud/internal/mathutil"
	"github.com/ayusman/morphcloud/internal/morph"
	"github.com/ayusman/morphcloud/internal/shape"
	"github.com/ayusman/morphcloud/internal/status"
	"github.com/ayusman/morphcloud/internal/store"
)

// MotionCooldown is how long the pipeline stays at the active frame rate
// after the last motion.
const MotionCooldown = 2 * time.Second

// Chimer plays a cue when the shape changes. Initialize opens the audio
// device and is called off the render goroutine.
type Chimer interface {
	Initialize() error
	Play(heart bool)
}

// Options configures an App. Only Config is required.
type Options struct {
	Config config.Config

	// Store persists the detection toggle. Optional.
	Store *store.Store
	// Camera overrides the configured capture device.
	Camera capture.Camera
	// Detector overrides the MediaPipe detector.
	Detector detector.Detector
	// Hooks receives gesture change events. Optional.
	Hooks *hook.Dispatcher
	// Chime plays on gesture changes while sound is enabled. Optional.
	Chime Chimer
}

// App is the running morph engine: a detection goroutine feeding the
// controller's mailbox, and a Tick method driven by whichever renderer is
// active.
type App struct {
	cfg        config.Config
	store      *store.Store
	camera     capture.Camera
	motion     *capture.MotionDetector
	detector   detector.Detector
	noDetector bool
	controller *morph.Controller
	board      *status.Board
	hooks      *hook.Dispatcher
	chime      Chimer

	// Owned by the goroutine calling Tick.
	shown morph.Gesture

	latest atomic.Pointer[morph.Frame]

	mu        sync.RWMutex
	enabled   bool
	sound     bool
	stopCh    chan struct{}
	done      chan struct{}
	listeners []func(morph.Gesture)
}

// New generates both particle sets and builds the controller. It does not
// touch the camera; call Start for that.
func New(opts Options) (*App, error) {
	cfg := opts.Config

	seed := cfg.Particles.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	saturn := shape.Saturn(cfg.Particles.Saturn, rng)
	heart, err := shape.Heart(cfg.Particles.Heart, rng)
	if err != nil {
		return nil, fmt.Errorf("generate heart: %w", err)
	}

	a := &App{
		cfg:        cfg,
		store:      opts.Store,
		camera:     opts.Camera,
		motion:     capture.NewMotionDetector(cfg.Camera.Motion),
		detector:   opts.Detector,
		controller: morph.NewController(saturn, heart, cfg.Morph, time.Now()),
		board:      status.NewBoard(status.Status{Text: status.Paused}),
		hooks:      opts.Hooks,
		chime:      opts.Chime,
		shown:      morph.Fist,
		enabled:    true,
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(capture.Options{
			DeviceID: cfg.Camera.DeviceID,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
			FPS:      cfg.Camera.IdleFPS,
		})
	}

	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(cfg.Detector); err == nil {
			a.detector = mp
			log.Println("using mediapipe hand detection")
		} else {
			log.Printf("mediapipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
			a.noDetector = true
		}
	}

	if a.store != nil {
		on, err := a.store.Settings().GetBool(store.SettingDetectionEnabled, true)
		if err != nil {
			log.Printf("read detection setting: %v", err)
		}
		a.enabled = on

		// The config (and -sound) can only switch the chime on.
		stored, err := a.store.Settings().GetBool(store.SettingSoundEnabled, false)
		if err != nil {
			log.Printf("read sound setting: %v", err)
		}
		a.sound = stored || cfg.Sound.Enabled
	} else {
		a.sound = cfg.Sound.Enabled
	}

	a.latest.Store(a.controller.Frame().Clone())
	return a, nil
}

// Start opens the camera and starts the detection goroutine. A camera that
// fails to open is reported on the status board and returned; the renderer
// can keep ticking and the timeout settles the cloud on Saturn.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if a.sound {
		a.initChime()
	}

	if err := a.camera.Open(); err != nil {
		a.board.Report(status.Status{Text: status.CameraUnavailable})
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(a.cfg.Camera.IdleFPS)

	switch {
	case a.noDetector:
		a.board.Report(status.Status{Text: status.DetectorMissing})
	case !a.enabled:
		a.board.Report(status.Status{Text: status.Paused})
	default:
		a.board.Report(status.Status{Text: status.CameraReady, Accent: true})
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.Println("detection pipeline started")
	return nil
}

// Stop halts the detection goroutine and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("close camera: %v", err)
	}
	a.motion.Close()
	if err := a.detector.Close(); err != nil {
		log.Printf("close detector: %v", err)
	}
	if a.hooks != nil {
		a.hooks.Wait()
	}

	log.Println("detection pipeline stopped")
}

// Tick advances the controller one frame. It implements render.Source and
// must only be called from one goroutine.
func (a *App) Tick(now time.Time, camera mathutil.Vec3) *morph.Frame {
	f := a.controller.Tick(now, camera)
	if f.Gesture != a.shown {
		a.shown = f.Gesture
		a.gestureChanged(f)
	}
	a.latest.Store(f.Clone())
	return f
}

// gestureChanged fans a discrete gesture change out to hooks, the chime and
// listeners.
func (a *App) gestureChanged(f *morph.Frame) {
	log.Printf("gesture changed to %s", f.Gesture)

	if a.hooks != nil {
		a.hooks.Dispatch(hook.Request{
			Event:     hook.EventGesture,
			Gesture:   f.Gesture.String(),
			Shape:     f.Gesture.Shape(),
			Blend:     f.Blend,
			Timestamp: f.Time,
		})
	}
	a.mu.RLock()
	listeners, sound := a.listeners, a.sound
	a.mu.RUnlock()

	if sound && a.chime != nil {
		a.chime.Play(f.Gesture == morph.Open)
	}
	for _, fn := range listeners {
		fn(f.Gesture)
	}
}

// OnGestureChange registers fn to run on the ticking goroutine whenever
// the discrete gesture changes.
func (a *App) OnGestureChange(fn func(morph.Gesture)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Latest returns a copy of the most recent frame. It is safe to call from
// any goroutine and the result is never mutated.
func (a *App) Latest() *morph.Frame {
	return a.latest.Load()
}

// Status returns the current status line.
func (a *App) Status() status.Status {
	return a.board.Latest()
}

// Board returns the status board for subscribers.
func (a *App) Board() *status.Board {
	return a.board
}

// Controller returns the morph controller.
func (a *App) Controller() *morph.Controller {
	return a.controller
}

// Camera returns the capture device.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Config returns the configuration the app was built with.
func (a *App) Config() config.Config {
	return a.cfg
}

// SetEnabled pauses or resumes detection and persists the choice. While
// paused no observations arrive, so the timeout returns the cloud to Saturn.
func (a *App) SetEnabled(enabled bool) {
	if a.store != nil {
		if err := a.store.Settings().SetBool(store.SettingDetectionEnabled, enabled); err != nil {
			log.Printf("save detection setting: %v", err)
		}
	}

	// Reported under the lock so a detection already in flight cannot
	// overwrite the paused status.
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
	switch {
	case !enabled:
		a.board.Report(status.Status{Text: status.Paused})
	case a.stopCh != nil && !a.noDetector:
		a.board.Report(status.Status{Text: status.CameraReady, Accent: true})
	}
}

// SetSoundEnabled switches the gesture chime and persists the choice. The
// audio device is opened here so the first chime does not stall Tick.
func (a *App) SetSoundEnabled(enabled bool) {
	if a.store != nil {
		if err := a.store.Settings().SetBool(store.SettingSoundEnabled, enabled); err != nil {
			log.Printf("save sound setting: %v", err)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.sound = enabled
	if enabled {
		a.initChime()
	}
}

// SoundEnabled reports whether the chime plays on gesture changes.
func (a *App) SoundEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sound
}

func (a *App) initChime() {
	if a.chime == nil {
		return
	}
	if err := a.chime.Initialize(); err != nil {
		log.Printf("audio unavailable: %v", err)
	}
}

// IsEnabled reports whether detection is running.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}
