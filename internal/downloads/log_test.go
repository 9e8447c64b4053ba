package downloads

import (
	"path/filepath"
	"strings"
	"testing"

	"vodvault/internal/domain"
	"vodvault/internal/logger"
	"vodvault/internal/store"
)

func setupLog(t *testing.T) *Log {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLog(db, logger.New(logger.Config{Level: "error"}))
}

func TestLog_Lifecycle(t *testing.T) {
	l := setupLog(t)

	d, err := l.Begin("https://example.com/watch?v=v1", "")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if d.Status != domain.DownloadStatusRunning {
		t.Errorf("status = %s", d.Status)
	}

	for _, line := range []string{"fetching formats", "downloading 50%"} {
		if err := l.Append(d.ID, line); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := l.SetVideoID(d.ID, "v1"); err != nil {
		t.Fatalf("SetVideoID failed: %v", err)
	}
	if err := l.Complete(d.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	got, err := l.Get(d.ID)
	if err != nil || got == nil {
		t.Fatalf("Get: %+v, %v", got, err)
	}
	if got.Status != domain.DownloadStatusCompleted || got.VideoID != "v1" {
		t.Errorf("record = %+v", got)
	}
	if got.Log != "fetching formats\ndownloading 50%\n" {
		t.Errorf("log = %q", got.Log)
	}
}

func TestLog_FailAppendsError(t *testing.T) {
	l := setupLog(t)

	d, err := l.Begin("https://example.com/watch?v=v1", "v1")
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Fail(d.ID, "network unreachable"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	got, _ := l.Get(d.ID)
	if got.Status != domain.DownloadStatusFailed {
		t.Errorf("status = %s", got.Status)
	}
	if !strings.Contains(got.Log, "ERROR: network unreachable") {
		t.Errorf("log = %q", got.Log)
	}

	matches, err := l.SearchByVideoID("v1")
	if err != nil || len(matches) != 1 {
		t.Errorf("search: %d matches, %v", len(matches), err)
	}
}
