package store

import (
	"encoding/json"
	"testing"
	"time"

	"vodvault/internal/domain"
)

func newTestJob(id string, createdAt time.Time) *domain.Job {
	return &domain.Job{
		ID:        id,
		Type:      domain.JobTypeDeleteVideo,
		Status:    domain.JobStatusPending,
		CreatedAt: createdAt,
		Data:      json.RawMessage(`{"video_id":"v1","relative_path":"a/b.mkv"}`),
	}
}

func TestDB_JobLifecycle(t *testing.T) {
	db := setupTestDB(t)

	job := newTestJob("j1", time.Now())
	if err := db.CreateJob(job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	fetched, err := db.GetJob("j1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.Status != domain.JobStatusPending {
		t.Errorf("expected pending, got %s", fetched.Status)
	}
	if fetched.StartedAt != nil || fetched.CompletedAt != nil {
		t.Error("new job should have no started/completed timestamps")
	}
	if string(fetched.Data) != string(job.Data) {
		t.Errorf("payload mismatch: %s", fetched.Data)
	}

	started := time.Now()
	if err := db.MarkJobRunning("j1", started); err != nil {
		t.Fatalf("MarkJobRunning failed: %v", err)
	}
	fetched, _ = db.GetJob("j1")
	if fetched.Status != domain.JobStatusRunning {
		t.Errorf("expected running, got %s", fetched.Status)
	}
	if fetched.StartedAt == nil {
		t.Fatal("started_at not set")
	}

	// Running jobs are not re-markable: the pending guard must miss
	if err := db.MarkJobRunning("j1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("MarkJobRunning failed: %v", err)
	}
	refetched, _ := db.GetJob("j1")
	if !refetched.StartedAt.Equal(*fetched.StartedAt) {
		t.Error("started_at changed on second transition")
	}

	result, _ := json.Marshal(&domain.JobResult{Success: true, Message: "done"})
	if err := db.CompleteJob("j1", result, time.Now()); err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}
	fetched, _ = db.GetJob("j1")
	if fetched.Status != domain.JobStatusCompleted {
		t.Errorf("expected completed, got %s", fetched.Status)
	}
	if fetched.CompletedAt == nil {
		t.Error("completed_at not set")
	}

	var decoded domain.JobResult
	if err := json.Unmarshal(fetched.Result, &decoded); err != nil || !decoded.Success {
		t.Errorf("unexpected result blob %s: %v", fetched.Result, err)
	}
}

func TestDB_GetJobNotFound(t *testing.T) {
	db := setupTestDB(t)

	job, err := db.GetJob("nope")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job != nil {
		t.Error("expected nil for missing job")
	}
}

func TestDB_NextPendingJobFIFO(t *testing.T) {
	db := setupTestDB(t)

	base := time.Now()
	// Inserted out of order on purpose
	for _, spec := range []struct {
		id     string
		offset time.Duration
	}{
		{"late", 2 * time.Second},
		{"early", 0},
		{"middle", time.Second},
	} {
		if err := db.CreateJob(newTestJob(spec.id, base.Add(spec.offset))); err != nil {
			t.Fatalf("CreateJob failed: %v", err)
		}
	}

	expected := []string{"early", "middle", "late"}
	for _, want := range expected {
		job, err := db.NextPendingJob()
		if err != nil {
			t.Fatalf("NextPendingJob failed: %v", err)
		}
		if job == nil || job.ID != want {
			t.Fatalf("NextPendingJob = %+v, want id %s", job, want)
		}
		if err := db.MarkJobRunning(job.ID, time.Now()); err != nil {
			t.Fatal(err)
		}
		if err := db.FailJob(job.ID, "test", nil, time.Now()); err != nil {
			t.Fatal(err)
		}
	}

	empty, err := db.NextPendingJob()
	if err != nil {
		t.Fatalf("NextPendingJob failed: %v", err)
	}
	if empty != nil {
		t.Errorf("expected drained queue, got %+v", empty)
	}
}

func TestDB_ListJobsNewestFirst(t *testing.T) {
	db := setupTestDB(t)

	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		if err := db.CreateJob(newTestJob(id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatal(err)
		}
	}

	jobs, err := db.ListJobs(2)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != "c" || jobs[1].ID != "b" {
		t.Errorf("unexpected order: %v", []string{jobs[0].ID, jobs[1].ID})
	}
}

func TestDB_StaleRunningReconciliation(t *testing.T) {
	t.Run("requeue", func(t *testing.T) {
		db := setupTestDB(t)
		seedStale(t, db)

		count, err := db.RequeueStaleRunning(time.Now())
		if err != nil {
			t.Fatalf("RequeueStaleRunning failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 requeued, got %d", count)
		}
		job, _ := db.GetJob("stale")
		if job.Status != domain.JobStatusPending {
			t.Errorf("expected pending, got %s", job.Status)
		}
		if job.StartedAt != nil {
			t.Error("started_at should be cleared on requeue")
		}
	})

	t.Run("fail", func(t *testing.T) {
		db := setupTestDB(t)
		seedStale(t, db)

		count, err := db.FailStaleRunning(time.Now(), "interrupted", time.Now())
		if err != nil {
			t.Fatalf("FailStaleRunning failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 failed, got %d", count)
		}
		job, _ := db.GetJob("stale")
		if job.Status != domain.JobStatusFailed {
			t.Errorf("expected failed, got %s", job.Status)
		}
		if job.Error == nil || *job.Error != "interrupted" {
			t.Errorf("unexpected error field: %v", job.Error)
		}
	})

	t.Run("grace period spares recent jobs", func(t *testing.T) {
		db := setupTestDB(t)
		seedStale(t, db)

		// Cutoff before the job started: nothing is stale yet
		count, err := db.FailStaleRunning(time.Now().Add(-time.Hour), "interrupted", time.Now())
		if err != nil {
			t.Fatalf("FailStaleRunning failed: %v", err)
		}
		if count != 0 {
			t.Errorf("expected 0 failed within grace, got %d", count)
		}
	})
}

func seedStale(t *testing.T, db *DB) {
	t.Helper()
	if err := db.CreateJob(newTestJob("stale", time.Now().Add(-time.Minute))); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkJobRunning("stale", time.Now().Add(-30*time.Second)); err != nil {
		t.Fatal(err)
	}
}
