package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vodvault/internal/constants"
	"vodvault/internal/domain"
	"vodvault/internal/logger"
	"vodvault/internal/store"
)

type handlerFunc func(ctx context.Context, job *domain.Job, logger *slog.Logger) (*domain.JobResult, error)

func (f handlerFunc) Handle(ctx context.Context, job *domain.Job, logger *slog.Logger) (*domain.JobResult, error) {
	return f(ctx, job, logger)
}

func setupQueue(t *testing.T) (*Queue, *Dispatcher) {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dispatcher := NewDispatcher()
	q := NewQueue(db, dispatcher, logger.New(logger.Config{Level: "error"}))
	return q, dispatcher
}

func waitTerminal(t *testing.T, q *Queue, id string) *domain.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := q.GetJob(id)
		if err != nil {
			t.Fatalf("GetJob failed: %v", err)
		}
		if job != nil && job.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal status", id)
	return nil
}

func TestQueue_ExecutesSequentiallyInOrder(t *testing.T) {
	q, dispatcher := setupQueue(t)

	var inFlight int32
	var maxInFlight int32
	var mu sync.Mutex
	var order []string

	dispatcher.Register(domain.JobTypeDeleteVideo, handlerFunc(func(_ context.Context, job *domain.Job, _ *slog.Logger) (*domain.JobResult, error) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)

		var p domain.DeleteVideoPayload
		if err := json.Unmarshal(job.Data, &p); err != nil {
			return nil, err
		}
		mu.Lock()
		order = append(order, p.VideoID)
		mu.Unlock()
		return &domain.JobResult{Success: true}, nil
	}))

	q.Start()
	defer q.Stop()

	var ids []string
	for i := 0; i < 5; i++ {
		data, _ := domain.EncodePayload(&domain.DeleteVideoPayload{
			VideoID:      fmt.Sprintf("v%d", i),
			RelativePath: "x",
		})
		job, err := q.Enqueue(domain.JobTypeDeleteVideo, data)
		if err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		ids = append(ids, job.ID)
		time.Sleep(2 * time.Millisecond)
	}

	for _, id := range ids {
		job := waitTerminal(t, q, id)
		if job.Status != domain.JobStatusCompleted {
			t.Errorf("job %s status = %s", id, job.Status)
		}
		if job.StartedAt == nil || job.CompletedAt == nil {
			t.Errorf("job %s missing timestamps", id)
		}
	}

	if got := atomic.LoadInt32(&maxInFlight); got != 1 {
		t.Errorf("max concurrent handlers = %d, want 1", got)
	}
	mu.Lock()
	defer mu.Unlock()
	for i, want := range []string{"v0", "v1", "v2", "v3", "v4"} {
		if order[i] != want {
			t.Fatalf("execution order = %v", order)
		}
	}
}

func TestQueue_FailedJobDoesNotBlockQueue(t *testing.T) {
	q, dispatcher := setupQueue(t)

	dispatcher.Register(domain.JobTypeDeleteVideo, handlerFunc(func(_ context.Context, job *domain.Job, _ *slog.Logger) (*domain.JobResult, error) {
		var p domain.DeleteVideoPayload
		if err := json.Unmarshal(job.Data, &p); err != nil {
			return nil, err
		}
		if p.VideoID == "bad" {
			return nil, fmt.Errorf("video bad is not removable")
		}
		return &domain.JobResult{Success: true, Message: "removed " + p.VideoID}, nil
	}))

	q.Start()
	defer q.Stop()

	badData, _ := domain.EncodePayload(&domain.DeleteVideoPayload{VideoID: "bad", RelativePath: "x"})
	bad, err := q.Enqueue(domain.JobTypeDeleteVideo, badData)
	if err != nil {
		t.Fatal(err)
	}
	goodData, _ := domain.EncodePayload(&domain.DeleteVideoPayload{VideoID: "good", RelativePath: "x"})
	good, err := q.Enqueue(domain.JobTypeDeleteVideo, goodData)
	if err != nil {
		t.Fatal(err)
	}

	badJob := waitTerminal(t, q, bad.ID)
	if badJob.Status != domain.JobStatusFailed {
		t.Errorf("bad job status = %s", badJob.Status)
	}
	if badJob.Error == nil || !strings.Contains(*badJob.Error, "not removable") {
		t.Errorf("bad job error = %v", badJob.Error)
	}

	goodJob := waitTerminal(t, q, good.ID)
	if goodJob.Status != domain.JobStatusCompleted {
		t.Errorf("good job status = %s after a failed predecessor", goodJob.Status)
	}
}

func TestQueue_PanicFailsJobOnly(t *testing.T) {
	q, dispatcher := setupQueue(t)

	var calls int32
	dispatcher.Register(domain.JobTypeDeleteVideo, handlerFunc(func(_ context.Context, _ *domain.Job, _ *slog.Logger) (*domain.JobResult, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("corrupt payload")
		}
		return &domain.JobResult{Success: true}, nil
	}))

	q.Start()
	defer q.Stop()

	data, _ := domain.EncodePayload(&domain.DeleteVideoPayload{VideoID: "v1", RelativePath: "x"})
	first, _ := q.Enqueue(domain.JobTypeDeleteVideo, data)
	second, _ := q.Enqueue(domain.JobTypeDeleteVideo, data)

	panicked := waitTerminal(t, q, first.ID)
	if panicked.Status != domain.JobStatusFailed {
		t.Errorf("panicked job status = %s", panicked.Status)
	}
	if panicked.Error == nil || !strings.Contains(*panicked.Error, "panic: corrupt payload") {
		t.Errorf("panicked job error = %v", panicked.Error)
	}

	survivor := waitTerminal(t, q, second.ID)
	if survivor.Status != domain.JobStatusCompleted {
		t.Errorf("queue did not survive the panic: %s", survivor.Status)
	}
}

func TestQueue_UnknownJobTypeFails(t *testing.T) {
	q, _ := setupQueue(t)

	q.Start()
	defer q.Stop()

	job, err := q.Enqueue(domain.JobTypeMoveCollection, json.RawMessage(`{"collection_id":"c1"}`))
	if err != nil {
		t.Fatal(err)
	}

	done := waitTerminal(t, q, job.ID)
	if done.Status != domain.JobStatusFailed {
		t.Errorf("status = %s", done.Status)
	}
	if done.Error == nil || !strings.Contains(*done.Error, "unknown job type") {
		t.Errorf("error = %v", done.Error)
	}
}

func TestQueue_NilResultBecomesSuccess(t *testing.T) {
	q, dispatcher := setupQueue(t)

	dispatcher.Register(domain.JobTypeDeleteVideo, handlerFunc(func(_ context.Context, _ *domain.Job, _ *slog.Logger) (*domain.JobResult, error) {
		return nil, nil
	}))

	q.Start()
	defer q.Stop()

	data, _ := domain.EncodePayload(&domain.DeleteVideoPayload{VideoID: "v1", RelativePath: "x"})
	job, _ := q.Enqueue(domain.JobTypeDeleteVideo, data)

	done := waitTerminal(t, q, job.ID)
	if done.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %s", done.Status)
	}
	var result domain.JobResult
	if err := json.Unmarshal(done.Result, &result); err != nil || !result.Success {
		t.Errorf("result = %s: %v", done.Result, err)
	}
}

func TestQueue_StaleReconciliation(t *testing.T) {
	seedRunning := func(t *testing.T, q *Queue) *domain.Job {
		t.Helper()
		job := &domain.Job{
			ID:        "stuck",
			Type:      domain.JobTypeDeleteVideo,
			Status:    domain.JobStatusPending,
			CreatedAt: time.Now().Add(-time.Minute),
			Data:      json.RawMessage(`{"video_id":"v1","relative_path":"x"}`),
		}
		if err := q.Repo.CreateJob(job); err != nil {
			t.Fatal(err)
		}
		if err := q.Repo.MarkJobRunning(job.ID, time.Now().Add(-30*time.Second)); err != nil {
			t.Fatal(err)
		}
		return job
	}

	t.Run("fail policy", func(t *testing.T) {
		q, _ := setupQueue(t)
		seedRunning(t, q)

		q.StalePolicy = constants.StaleJobFail
		q.Start()
		defer q.Stop()

		job := waitTerminal(t, q, "stuck")
		if job.Status != domain.JobStatusFailed {
			t.Errorf("status = %s", job.Status)
		}
		if job.Error == nil || !strings.Contains(*job.Error, "interrupted") {
			t.Errorf("error = %v", job.Error)
		}
	})

	t.Run("requeue policy", func(t *testing.T) {
		q, dispatcher := setupQueue(t)
		seedRunning(t, q)

		dispatcher.Register(domain.JobTypeDeleteVideo, handlerFunc(func(_ context.Context, _ *domain.Job, _ *slog.Logger) (*domain.JobResult, error) {
			return &domain.JobResult{Success: true}, nil
		}))

		q.StalePolicy = constants.StaleJobRequeue
		q.Start()
		defer q.Stop()

		job := waitTerminal(t, q, "stuck")
		if job.Status != domain.JobStatusCompleted {
			t.Errorf("requeued job status = %s", job.Status)
		}
	})

	t.Run("leave policy", func(t *testing.T) {
		q, _ := setupQueue(t)
		seedRunning(t, q)

		q.StalePolicy = constants.StaleJobLeave
		q.Start()
		defer q.Stop()

		time.Sleep(50 * time.Millisecond)
		job, err := q.GetJob("stuck")
		if err != nil {
			t.Fatal(err)
		}
		if job.Status != domain.JobStatusRunning {
			t.Errorf("leave policy changed status to %s", job.Status)
		}
	})
}
