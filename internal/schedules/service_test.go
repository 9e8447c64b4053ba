package schedules

import (
	"path/filepath"
	"testing"
	"time"

	"vodvault/internal/logger"
	"vodvault/internal/store"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(db, logger.New(logger.Config{Level: "error"}))
}

func TestService_Lifecycle(t *testing.T) {
	s := setupService(t)

	sched, err := s.Create("weekly", "https://example.com/c/x", "0 0 * * 0", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !sched.Enabled {
		t.Error("new schedule should be enabled")
	}
	if sched.LastRunAt != nil {
		t.Error("new schedule should have no last run")
	}

	sched.Enabled = false
	if err := s.Update(sched); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, _ := s.Get(sched.ID)
	if got.Enabled {
		t.Error("disable did not persist")
	}

	if err := s.Delete(sched.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if gone, _ := s.Get(sched.ID); gone != nil {
		t.Error("schedule still present after delete")
	}
}

func TestService_MarkRan(t *testing.T) {
	s := setupService(t)

	sched, err := s.Create("daily", "https://example.com/c/y", "0 3 * * *", nil)
	if err != nil {
		t.Fatal(err)
	}

	ran := time.Now()
	if err := s.MarkRan(sched.ID, ran); err != nil {
		t.Fatalf("MarkRan failed: %v", err)
	}
	got, _ := s.Get(sched.ID)
	if got.LastRunAt == nil {
		t.Fatal("last_run_at not set")
	}
	if got.LastRunAt.Sub(ran).Abs() > time.Second {
		t.Errorf("last_run_at = %v, want ~%v", got.LastRunAt, ran)
	}

	if err := s.MarkRan("missing", time.Now()); err == nil {
		t.Error("expected error for unknown schedule")
	}
}

func TestService_UpdateCollectionReferences(t *testing.T) {
	s := setupService(t)

	oldID := "coll-old"
	if _, err := s.Create("a", "https://example.com/a", "0 0 * * *", &oldID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create("b", "https://example.com/b", "0 0 * * *", &oldID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create("c", "https://example.com/c", "0 0 * * *", nil); err != nil {
		t.Fatal(err)
	}

	count, err := s.UpdateCollectionReferences(oldID, "coll-new")
	if err != nil {
		t.Fatalf("UpdateCollectionReferences failed: %v", err)
	}
	if count != 2 {
		t.Errorf("rewrote %d schedules, want 2", count)
	}

	list, _ := s.List()
	for _, sched := range list {
		if sched.CollectionID != nil && *sched.CollectionID == oldID {
			t.Errorf("schedule %s still references the retired collection", sched.ID)
		}
	}
}
