package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/morphcloud/internal/app"
	"github.com/ayusman/morphcloud/internal/audio"
	"github.com/ayusman/morphcloud/internal/capture"
	"github.com/ayusman/morphcloud/internal/config"
	"github.com/ayusman/morphcloud/internal/detector"
	"github.com/ayusman/morphcloud/internal/hook"
	"github.com/ayusman/morphcloud/internal/morph"
	"github.com/ayusman/morphcloud/internal/render"
	"github.com/ayusman/morphcloud/internal/render/raster"
	"github.com/ayusman/morphcloud/internal/render/term"
	"github.com/ayusman/morphcloud/internal/render/window"
	"github.com/ayusman/morphcloud/internal/server"
	"github.com/ayusman/morphcloud/internal/store"
	"github.com/ayusman/morphcloud/internal/tray"
)

// engine is an App with everything it owns.
type engine struct {
	*app.App
	store     *store.Store
	snapshots *app.Snapshotter
	chime     *audio.Chime
}

// newEngine opens the store, discovers hooks and builds the app. opts
// carries test doubles for the camera and detector; nil uses the real ones.
func newEngine(cfg config.Config, opts app.Options) (*engine, error) {
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	hooks := hook.NewManager(cfg.HooksDir)
	if err := hooks.Discover(); err != nil {
		log.Printf("discover hooks: %v", err)
	}
	if n := len(hooks.List()); n > 0 {
		log.Printf("loaded %d hooks from %s", n, cfg.HooksDir)
	}

	e := &engine{store: st}
	if opts.Chime == nil {
		// Built even when muted so the live view can switch sound on.
		e.chime = audio.NewChime(cfg.Sound.Volume)
		opts.Chime = e.chime
	}

	opts.Config = cfg
	opts.Store = st
	opts.Hooks = hook.NewDispatcher(hooks, hook.NewExecutor(hook.DefaultTimeout))

	a, err := app.New(opts)
	if err != nil {
		st.Close()
		return nil, err
	}
	e.App = a
	e.snapshots = app.NewSnapshotter(st, cfg.SnapshotDir(), raster.Still{
		Width:       cfg.Snapshot.Width,
		Height:      cfg.Snapshot.Height,
		Supersample: cfg.Snapshot.Supersample,
	})
	return e, nil
}

// start opens the camera. Failure is not fatal: the cloud keeps rendering
// and settles on Saturn.
func (e *engine) start() {
	if err := e.Start(); err != nil {
		log.Printf("camera: %v", err)
	}
}

func (e *engine) close() {
	e.Stop()
	if e.chime != nil {
		e.chime.Close()
	}
	if err := e.store.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runWindow(cfg config.Config) error {
	e, err := newEngine(cfg, app.Options{})
	if err != nil {
		return err
	}
	defer e.close()
	e.start()

	return window.Run(e, window.Options{
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		Title:  cfg.Window.Title,
		Scale:  cfg.Window.Scale,
		TPS:    cfg.Window.TPS,
	}, e.snapshots.Func())
}

func runTerm(cfg config.Config) error {
	e, err := newEngine(cfg, app.Options{})
	if err != nil {
		return err
	}
	defer e.close()

	// Log lines would tear the terminal picture.
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "morphcloud.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err == nil {
		log.SetOutput(logFile)
		defer logFile.Close()
	}
	e.start()

	ctx, cancel := signalContext()
	defer cancel()
	return term.Run(ctx, e)
}

func runServe(cfg config.Config, withTray bool) error {
	e, err := newEngine(cfg, app.Options{})
	if err != nil {
		return err
	}
	defer e.close()
	e.start()

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if _, err := e.RunHeadless(ctx, cfg.Window.TPS, 0); err != nil && ctx.Err() == nil {
			log.Printf("tick loop: %v", err)
		}
	}()

	srv := server.New(server.Config{
		StaticDir: cfg.Server.StaticDir,
		Store:     e.store,
		Engine:    e,
		Snapshots: e.snapshots,
		Camera:    e.Camera(),
		FrameRate: cfg.Server.FrameRate,
	})
	certDir := ""
	if cfg.Server.TLS {
		certDir = cfg.Server.CertDir
	}

	if !withTray {
		return srv.Run(ctx, cfg.Server.Addr, certDir)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx, cfg.Server.Addr, certDir) }()

	tr := newTray(e, liveURL(cfg))
	tr.OnQuit(cancel)
	go func() {
		<-ctx.Done()
		tr.Quit()
	}()
	tr.Run()

	cancel()
	return <-errCh
}

// newTray mirrors the engine's toggle, shape and status in the tray menu.
func newTray(e *engine, url string) *tray.Tray {
	tr := tray.New()
	tr.SetEnabled(e.IsEnabled())
	tr.SetStatus(e.Status().Text)
	tr.OnToggle(e.SetEnabled)
	tr.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("open browser: %v", err)
		}
	})
	e.OnGestureChange(func(g morph.Gesture) { tr.SetShape(g.Shape()) })

	updates, _ := e.Board().Subscribe()
	go func() {
		for s := range updates {
			tr.SetStatus(s.Text)
		}
	}()
	return tr
}

func liveURL(cfg config.Config) string {
	scheme := "http"
	if cfg.Server.TLS {
		scheme = "https"
	}
	host := cfg.Server.Addr
	if len(host) > 0 && host[0] == ':' {
		host = "localhost" + host
	}
	return scheme + "://" + host + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// runSnapshot renders a settled still at blend without touching the camera.
// With out set the file is written there; otherwise it goes to the
// snapshots directory and is indexed.
func runSnapshot(cfg config.Config, blend, yaw float64, out string) error {
	blank := capture.NewBlankCamera(cfg.Camera.Width, cfg.Camera.Height)
	defer blank.Release()

	e, err := newEngine(cfg, app.Options{Camera: blank, Detector: detector.NewMockDetector()})
	if err != nil {
		return err
	}
	defer e.close()

	cam := render.NewOrbit()
	cam.Rotate(yaw, 0)
	f := e.Controller().Pose(blend, time.Now(), cam.Position())

	if out != "" {
		still := raster.Still{Width: cfg.Snapshot.Width, Height: cfg.Snapshot.Height, Supersample: cfg.Snapshot.Supersample}
		if err := still.SaveWebP(out, f, cam); err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	snap, err := e.snapshots.Save(f, *cam)
	if err != nil {
		return err
	}
	fmt.Println(snap.Path)
	return nil
}

// runHeadless ticks the engine without a renderer and logs where it ended.
func runHeadless(cfg config.Config, ticks int) error {
	e, err := newEngine(cfg, app.Options{})
	if err != nil {
		return err
	}
	defer e.close()
	e.start()

	ctx, cancel := signalContext()
	defer cancel()

	f, err := e.RunHeadless(ctx, cfg.Window.TPS, ticks)
	if err != nil && ctx.Err() == nil {
		return err
	}
	log.Printf("stopped after %d ticks: gesture %s, blend %.3f, status %q",
		f.Seq, f.Gesture, f.Blend, e.Status().Text)
	return nil
}
