package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ayusman/morphcloud/internal/morph"
	"github.com/ayusman/morphcloud/internal/render"
	"github.com/ayusman/morphcloud/internal/render/raster"
	"github.com/ayusman/morphcloud/internal/store"
)

// Snapshotter renders frames to WebP files and indexes them in the store.
type Snapshotter struct {
	store *store.Store
	dir   string
	still raster.Still
}

// NewSnapshotter writes stills into dir. st may be nil, in which case
// files are written but not indexed.
func NewSnapshotter(st *store.Store, dir string, still raster.Still) *Snapshotter {
	return &Snapshotter{store: st, dir: dir, still: still}
}

// Save renders f from cam and records it.
func (s *Snapshotter) Save(f *morph.Frame, cam render.Orbit) (*store.Snapshot, error) {
	id := uuid.New().String()
	path := filepath.Join(s.dir, id+".webp")

	if err := s.still.SaveWebP(path, f, &cam); err != nil {
		return nil, fmt.Errorf("render snapshot: %w", err)
	}

	snap := &store.Snapshot{
		ID:        id,
		Path:      path,
		Width:     s.still.Width,
		Height:    s.still.Height,
		Blend:     f.Blend,
		Gesture:   f.Gesture.String(),
		Particles: len(f.Positions),
	}
	if s.store != nil {
		if err := s.store.Snapshots().Create(snap); err != nil {
			os.Remove(path)
			return nil, fmt.Errorf("index snapshot: %w", err)
		}
	}

	log.Printf("snapshot %s written to %s", id, path)
	return snap, nil
}

// Delete removes a snapshot's index entry and its file.
func (s *Snapshotter) Delete(id string) error {
	if s.store == nil {
		return store.ErrNotFound
	}
	snap, err := s.store.Snapshots().GetByID(id)
	if err != nil {
		return err
	}
	if err := s.store.Snapshots().Delete(id); err != nil {
		return err
	}
	if err := os.Remove(snap.Path); err != nil && !os.IsNotExist(err) {
		log.Printf("remove snapshot file: %v", err)
	}
	return nil
}

// Func adapts Save for the window renderer.
func (s *Snapshotter) Func() render.SnapshotFunc {
	return func(f *morph.Frame, cam render.Orbit) (string, error) {
		snap, err := s.Save(f, cam)
		if err != nil {
			return "", err
		}
		return snap.ID, nil
	}
}
