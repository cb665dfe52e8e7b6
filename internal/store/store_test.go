package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file should exist after creating store: %v", err)
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"settings", "snapshots"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Settings().SetBool(SettingDetectionEnabled, true); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Settings().GetBool(SettingDetectionEnabled, false)
	if err != nil || !got {
		t.Errorf("GetBool after reopen = (%v, %v), want (true, nil)", got, err)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}
	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestSettings(t *testing.T) {
	r := newTestStore(t).Settings()

	if _, err := r.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := r.Set("theme", "dark"); err != nil {
		t.Fatal(err)
	}
	if err := r.Set("theme", "light"); err != nil {
		t.Fatalf("Set should upsert: %v", err)
	}
	if v, _ := r.Get("theme"); v != "light" {
		t.Errorf("Get(theme) = %q, want light", v)
	}

	t.Run("bool default", func(t *testing.T) {
		got, err := r.GetBool(SettingSoundEnabled, true)
		if err != nil || !got {
			t.Errorf("GetBool(unset) = (%v, %v), want default true", got, err)
		}
	})

	t.Run("bool round trip", func(t *testing.T) {
		r.SetBool(SettingDetectionEnabled, false)
		got, _ := r.GetBool(SettingDetectionEnabled, true)
		if got {
			t.Error("GetBool = true, want stored false")
		}
	})

	t.Run("bool unparsable", func(t *testing.T) {
		r.Set("flag", "maybe")
		got, err := r.GetBool("flag", true)
		if err != nil || !got {
			t.Errorf("GetBool(garbage) = (%v, %v), want default", got, err)
		}
	})

	all, err := r.All()
	if err != nil {
		t.Fatal(err)
	}
	if all["theme"] != "light" || all[SettingDetectionEnabled] != "false" {
		t.Errorf("All() = %v", all)
	}
}

func TestSnapshots_CRUD(t *testing.T) {
	r := newTestStore(t).Snapshots()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	older := &Snapshot{ID: "a", Path: "/tmp/a.webp", Width: 1024, Height: 768, Blend: 0, Gesture: "fist", Particles: 3200, CreatedAt: base}
	newer := &Snapshot{ID: "b", Path: "/tmp/b.webp", Width: 1024, Height: 768, Blend: 0.97, Gesture: "open", Particles: 3200, CreatedAt: base.Add(time.Minute)}
	for _, s := range []*Snapshot{older, newer} {
		if err := r.Create(s); err != nil {
			t.Fatalf("Create(%s) error = %v", s.ID, err)
		}
	}

	got, err := r.GetByID("b")
	if err != nil {
		t.Fatalf("GetByID error = %v", err)
	}
	if got.Gesture != "open" || got.Blend != 0.97 || got.Path != "/tmp/b.webp" {
		t.Errorf("GetByID = %+v", got)
	}
	if !got.CreatedAt.Equal(newer.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, newer.CreatedAt)
	}

	list, err := r.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "a" {
		t.Errorf("List() order = %v, want newest first", ids(list))
	}

	if err := r.Delete("a"); err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	if err := r.Delete("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
	if _, err := r.GetByID("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestSnapshots_RejectsUnknownGesture(t *testing.T) {
	r := newTestStore(t).Snapshots()
	err := r.Create(&Snapshot{ID: "x", Path: "p", Gesture: "wave"})
	if err == nil {
		t.Error("expected constraint error for unknown gesture")
	}
}

func TestSnapshots_CreateStampsTime(t *testing.T) {
	r := newTestStore(t).Snapshots()
	s := &Snapshot{ID: "x", Path: "p", Gesture: "fist"}
	before := time.Now()
	if err := r.Create(s); err != nil {
		t.Fatal(err)
	}
	if s.CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, want >= %v", s.CreatedAt, before)
	}
}

func ids(list []*Snapshot) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}
