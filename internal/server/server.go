// Package server provides the HTTPS live view: a static page, a websocket
// stream of morph frames and the snapshot and settings API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/morphcloud/internal/capture"
	"github.com/ayusman/morphcloud/internal/morph"
	"github.com/ayusman/morphcloud/internal/server/api"
	"github.com/ayusman/morphcloud/internal/status"
	"github.com/ayusman/morphcloud/internal/store"
)

// Engine is the running morph engine as the server sees it.
type Engine interface {
	Latest() *morph.Frame
	Board() *status.Board
	SetEnabled(enabled bool)
	IsEnabled() bool
	SetSoundEnabled(enabled bool)
	SoundEnabled() bool
}

// Config holds the server configuration. Every field is optional; routes
// whose dependencies are missing are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Engine    Engine
	Snapshots api.SnapshotSaver
	Camera    capture.Camera
	// FrameRate caps websocket frames per second.
	FrameRate int
}

// Server represents the HTTP server for the live view.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	frames *FrameHub
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Engine != nil {
		s.mux.HandleFunc("/api/state", s.handleState)

		s.frames = NewFrameHub(s.config.Engine, s.config.FrameRate)
		s.mux.Handle("/api/frames", s.frames)
	}

	if s.config.Store != nil && s.config.Engine != nil {
		if s.config.Snapshots != nil {
			snapshots := api.NewSnapshotHandler(s.config.Store, s.config.Engine, s.config.Snapshots)
			s.mux.Handle("/api/snapshots", snapshots)
			s.mux.Handle("/api/snapshots/", snapshots)
		}
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.Store, s.config.Engine))
	}

	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", NewStaticHandler(s.config.StaticDir))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	writeJSON(w, response)
}

// stateResponse is the JSON view of the latest frame.
type stateResponse struct {
	Seq       uint64            `json:"seq"`
	Gesture   string            `json:"gesture"`
	Shape     string            `json:"shape"`
	Blend     float64           `json:"blend"`
	Size      float64           `json:"size"`
	Opacity   float64           `json:"opacity"`
	Rotation  morph.Orientation `json:"rotation"`
	Particles int               `json:"particles"`
	Status    status.Status     `json:"status"`
	Enabled   bool              `json:"enabled"`
}

// handleState handles GET requests to /api/state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	f := s.config.Engine.Latest()
	if f == nil {
		http.Error(w, "No frame rendered yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, stateResponse{
		Seq:       f.Seq,
		Gesture:   f.Gesture.String(),
		Shape:     f.Gesture.Shape(),
		Blend:     f.Blend,
		Size:      f.Size,
		Opacity:   f.Opacity,
		Rotation:  f.Rotation,
		Particles: len(f.Positions),
		Status:    s.config.Engine.Board().Latest(),
		Enabled:   s.config.Engine.IsEnabled(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// Close stops the frame broadcaster.
func (s *Server) Close() {
	if s.frames != nil {
		s.frames.Close()
	}
}

// Run serves on addr until ctx is done. With certDir set it serves HTTPS
// using the certificate there, generating a self-signed one if needed.
func (s *Server) Run(ctx context.Context, addr, certDir string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if certDir == "" {
			log.Printf("serving on http://%s", addr)
			errCh <- srv.ListenAndServe()
			return
		}
		certFile, keyFile, err := EnsureCert(certDir)
		if err != nil {
			errCh <- err
			return
		}
		log.Printf("serving on https://%s", addr)
		errCh <- srv.ListenAndServeTLS(certFile, keyFile)
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	return srv.Shutdown(shutdownCtx)
}
