package store

import (
	"database/sql"
	"errors"
	"time"
)

// Snapshot is the index entry for a rendered still.
type Snapshot struct {
	ID        string    `json:"id"`
	Path      string    `json:"-"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Blend     float64   `json:"blend"`
	Gesture   string    `json:"gesture"`
	Particles int       `json:"particles"`
	CreatedAt time.Time `json:"createdAt"`
}

// SnapshotRepository provides CRUD operations for snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// Snapshots returns the snapshot repository for this store.
func (s *Store) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{db: s.db}
}

// Create inserts a snapshot. A zero CreatedAt is set to now.
func (r *SnapshotRepository) Create(snap *Snapshot) error {
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	_, err := r.db.Exec(
		`INSERT INTO snapshots (id, path, width, height, blend, gesture, particles, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Path, snap.Width, snap.Height, snap.Blend, snap.Gesture, snap.Particles, snap.CreatedAt,
	)
	return err
}

const snapshotColumns = `id, path, width, height, blend, gesture, particles, created_at`

func scanSnapshot(row interface{ Scan(...any) error }) (*Snapshot, error) {
	s := &Snapshot{}
	err := row.Scan(&s.ID, &s.Path, &s.Width, &s.Height, &s.Blend, &s.Gesture, &s.Particles, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID returns a snapshot or ErrNotFound.
func (r *SnapshotRepository) GetByID(id string) (*Snapshot, error) {
	s, err := scanSnapshot(r.db.QueryRow(`SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// List returns snapshots newest first.
func (r *SnapshotRepository) List() ([]*Snapshot, error) {
	rows, err := r.db.Query(`SELECT ` + snapshotColumns + ` FROM snapshots ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a snapshot row. The image file is the caller's concern.
func (r *SnapshotRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
