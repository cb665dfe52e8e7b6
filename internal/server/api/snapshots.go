// Package api provides the JSON HTTP handlers of the morphcloud live view.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ayusman/morphcloud/internal/morph"
	"github.com/ayusman/morphcloud/internal/render"
	"github.com/ayusman/morphcloud/internal/store"
)

// FrameSource provides the most recent morph frame.
type FrameSource interface {
	Latest() *morph.Frame
}

// SnapshotSaver renders and removes stills.
type SnapshotSaver interface {
	Save(f *morph.Frame, cam render.Orbit) (*store.Snapshot, error)
	Delete(id string) error
}

// SnapshotHandler handles HTTP requests for snapshot resources.
type SnapshotHandler struct {
	store  *store.Store
	frames FrameSource
	saver  SnapshotSaver
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(s *store.Store, frames FrameSource, saver SnapshotSaver) *SnapshotHandler {
	return &SnapshotHandler{store: s, frames: frames, saver: saver}
}

// ServeHTTP routes /api/snapshots and /api/snapshots/{id}.
func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/snapshots")
	id = strings.TrimPrefix(id, "/")

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.image(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// createSnapshotRequest positions the orbit camera. Missing fields keep the
// default view.
type createSnapshotRequest struct {
	Yaw      *float64 `json:"yaw"`
	Pitch    *float64 `json:"pitch"`
	Distance *float64 `json:"distance"`
}

type snapshotResponse struct {
	*store.Snapshot
	URL string `json:"url"`
}

type listSnapshotsResponse struct {
	Snapshots []snapshotResponse `json:"snapshots"`
}

func toResponse(s *store.Snapshot) snapshotResponse {
	return snapshotResponse{Snapshot: s, URL: "/api/snapshots/" + s.ID}
}

// list handles GET /api/snapshots.
func (h *SnapshotHandler) list(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.store.Snapshots().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	response := listSnapshotsResponse{Snapshots: make([]snapshotResponse, 0, len(snaps))}
	for _, s := range snaps {
		response.Snapshots = append(response.Snapshots, toResponse(s))
	}
	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/snapshots and renders the current frame.
func (h *SnapshotHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	cam := render.NewOrbit()
	if req.Yaw != nil || req.Pitch != nil {
		var yaw, pitch float64
		if req.Yaw != nil {
			yaw = *req.Yaw
		}
		if req.Pitch != nil {
			pitch = *req.Pitch
		}
		cam.Rotate(yaw, pitch)
	}
	if req.Distance != nil {
		if *req.Distance <= 0 {
			writeError(w, http.StatusBadRequest, "Distance must be positive")
			return
		}
		cam.Zoom(*req.Distance / cam.Distance)
	}

	f := h.frames.Latest()
	if f == nil {
		writeError(w, http.StatusServiceUnavailable, "No frame rendered yet")
		return
	}

	snap, err := h.saver.Save(f, *cam)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save snapshot")
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(snap))
}

// image handles GET /api/snapshots/{id} and serves the WebP file.
func (h *SnapshotHandler) image(w http.ResponseWriter, r *http.Request, id string) {
	snap, err := h.store.Snapshots().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return
	}

	f, err := os.Open(snap.Path)
	if err != nil {
		writeError(w, http.StatusNotFound, "Snapshot file missing")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "image/webp")
	http.ServeContent(w, r, snap.ID+".webp", snap.CreatedAt, f)
}

// delete handles DELETE /api/snapshots/{id}.
func (h *SnapshotHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.saver.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete snapshot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
