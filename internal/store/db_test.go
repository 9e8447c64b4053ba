package store

import (
	"path/filepath"
	"testing"
	"time"

	"vodvault/internal/domain"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() {
		if cErr := db.Close(); cErr != nil {
			t.Logf("db.Close error: %v", cErr)
		}
	})
	return db
}

func TestDB_Collections(t *testing.T) {
	db := setupTestDB(t)

	c := &domain.Collection{
		ID:        "col-1",
		Name:      "Archive",
		RootPath:  "/downloads/Archive",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.CreateCollection(c); err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}

	fetched, err := db.GetCollection("col-1")
	if err != nil {
		t.Fatalf("GetCollection failed: %v", err)
	}
	if fetched == nil || fetched.Name != "Archive" || fetched.RootPath != "/downloads/Archive" {
		t.Errorf("unexpected collection: %+v", fetched)
	}

	byPath, err := db.GetCollectionByRootPath("/downloads/Archive")
	if err != nil || byPath == nil || byPath.ID != "col-1" {
		t.Errorf("GetCollectionByRootPath = %+v, %v", byPath, err)
	}

	// root_path is unique
	dup := &domain.Collection{ID: "col-2", Name: "Dup", RootPath: "/downloads/Archive", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := db.CreateCollection(dup); err == nil {
		t.Error("expected unique violation for duplicate root_path")
	}

	if err := db.UpdateCollection("col-1", "Renamed", "/downloads/Renamed", time.Now()); err != nil {
		t.Fatalf("UpdateCollection failed: %v", err)
	}
	fetched, _ = db.GetCollection("col-1")
	if fetched.Name != "Renamed" || fetched.RootPath != "/downloads/Renamed" {
		t.Errorf("update not applied: %+v", fetched)
	}

	if err := db.DeleteCollection("col-1"); err != nil {
		t.Fatalf("DeleteCollection failed: %v", err)
	}
	missing, err := db.GetCollection("col-1")
	if err != nil {
		t.Fatalf("GetCollection after delete: %v", err)
	}
	if missing != nil {
		t.Error("collection still present after delete")
	}
}

func TestDB_Schedules(t *testing.T) {
	db := setupTestDB(t)

	colA := "col-a"
	colB := "col-b"
	now := time.Now()

	for i, collectionID := range []*string{&colA, &colA, &colB, nil} {
		s := &domain.Schedule{
			ID:           string(rune('1' + i)),
			Name:         "sched",
			URL:          "https://example.com/feed",
			Cron:         "0 3 * * *",
			CollectionID: collectionID,
			Enabled:      true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := db.CreateSchedule(s); err != nil {
			t.Fatalf("CreateSchedule failed: %v", err)
		}
	}

	count, err := db.UpdateScheduleCollectionRefs(colA, colB, time.Now())
	if err != nil {
		t.Fatalf("UpdateScheduleCollectionRefs failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 schedules rewritten, got %d", count)
	}

	schedules, err := db.ListSchedules()
	if err != nil {
		t.Fatalf("ListSchedules failed: %v", err)
	}
	for _, s := range schedules {
		if s.CollectionID != nil && *s.CollectionID == colA {
			t.Errorf("schedule %s still references old collection", s.ID)
		}
	}
}

func TestDB_Downloads(t *testing.T) {
	db := setupTestDB(t)

	now := time.Now()
	d := &domain.Download{
		ID:        "dl-1",
		URL:       "https://example.com/watch?v=abc123",
		VideoID:   "abc123",
		Status:    domain.DownloadStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.CreateDownload(d); err != nil {
		t.Fatalf("CreateDownload failed: %v", err)
	}

	if err := db.AppendDownloadLog("dl-1", "fetching formats", time.Now()); err != nil {
		t.Fatalf("AppendDownloadLog failed: %v", err)
	}
	if err := db.AppendDownloadLog("dl-1", "downloading", time.Now()); err != nil {
		t.Fatalf("AppendDownloadLog failed: %v", err)
	}

	fetched, err := db.GetDownload("dl-1")
	if err != nil || fetched == nil {
		t.Fatalf("GetDownload = %v, %v", fetched, err)
	}
	if fetched.Log != "fetching formats\ndownloading\n" {
		t.Errorf("unexpected log: %q", fetched.Log)
	}

	// Substring search on the source video id
	results, err := db.SearchDownloadsByVideoID("bc12")
	if err != nil {
		t.Fatalf("SearchDownloadsByVideoID failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "dl-1" {
		t.Errorf("unexpected search results: %+v", results)
	}

	none, err := db.SearchDownloadsByVideoID("zzz")
	if err != nil {
		t.Fatalf("SearchDownloadsByVideoID failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no results, got %d", len(none))
	}

	if err := db.SetDownloadStatus("dl-1", domain.DownloadStatusCompleted, time.Now()); err != nil {
		t.Fatalf("SetDownloadStatus failed: %v", err)
	}
	fetched, _ = db.GetDownload("dl-1")
	if fetched.Status != domain.DownloadStatusCompleted {
		t.Errorf("expected completed status, got %s", fetched.Status)
	}
}
