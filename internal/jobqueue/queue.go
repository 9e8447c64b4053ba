// Package jobqueue is the durable single-worker task runner. Jobs are
// persisted as pending, executed one at a time in creation order, and left
// in place with their outcome when they finish.
package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"vodvault/internal/constants"
	"vodvault/internal/domain"
	"vodvault/internal/logger"
	"vodvault/internal/store"
)

type Queue struct {
	Repo       *store.DB
	Dispatcher *Dispatcher
	Logger     *logger.Logger

	// StalePolicy and StaleGrace control what happens to jobs found still
	// running at startup (a crash mid-job leaves them that way).
	StalePolicy string
	StaleGrace  time.Duration

	// wake holds at most one pending signal; the consumer drains the whole
	// backlog per signal, so coalescing is safe.
	wake   chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewQueue(repo *store.DB, dispatcher *Dispatcher, log *logger.Logger) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		Repo:        repo,
		Dispatcher:  dispatcher,
		Logger:      log.WithComponent("jobqueue"),
		StalePolicy: constants.StaleJobFail,
		wake:        make(chan struct{}, 1),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Enqueue persists a new pending job and wakes the consumer. The caller
// never blocks on execution.
func (q *Queue) Enqueue(jobType domain.JobType, data json.RawMessage) (*domain.Job, error) {
	job := &domain.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    domain.JobStatusPending,
		CreatedAt: time.Now(),
		Data:      data,
	}
	if err := q.Repo.CreateJob(job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	q.Logger.Info("Job enqueued", "job_id", job.ID, "job_type", jobType)
	q.signal()
	return job, nil
}

func (q *Queue) GetJob(id string) (*domain.Job, error) {
	return q.Repo.GetJob(id)
}

func (q *Queue) ListJobs(limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = constants.DefaultJobListLimit
	}
	return q.Repo.ListJobs(limit)
}

// Start reconciles jobs left running by a previous crash, then launches the
// single consumer goroutine. Any backlog of pending jobs begins draining
// immediately.
func (q *Queue) Start() {
	q.reconcileStale()

	q.wg.Add(1)
	go q.run()
	q.signal()
}

// Stop cancels the consumer and waits for the in-flight handler, if any, to
// run to completion. Handlers are never interrupted mid-job.
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) run() {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-q.wake:
			q.drain()
		}
	}
}

// drain executes pending jobs oldest-first until none remain. Exactly one
// job is in flight at any instant, system-wide.
func (q *Queue) drain() {
	for {
		select {
		case <-q.ctx.Done():
			return
		default:
		}

		job, err := q.Repo.NextPendingJob()
		if err != nil {
			q.Logger.Error("Failed to fetch next pending job", "error", err)
			return
		}
		if job == nil {
			return
		}

		q.execute(job)
	}
}

func (q *Queue) execute(job *domain.Job) {
	log := q.Logger.WithJob(job.ID, string(job.Type))

	if err := q.Repo.MarkJobRunning(job.ID, time.Now()); err != nil {
		log.Error("Failed to mark job running", "error", err)
		return
	}
	log.Info("Job started")

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic in job handler", "panic", r)
			q.fail(job, fmt.Sprintf("panic: %v", r))
		}
	}()

	result, err := q.Dispatcher.Dispatch(q.ctx, job, log.Logger)
	if err != nil {
		log.Warn("Job failed", "error", err)
		q.fail(job, err.Error())
		return
	}

	if result == nil {
		result = &domain.JobResult{Success: true}
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		q.fail(job, fmt.Sprintf("encode result: %v", err))
		return
	}
	if err := q.Repo.CompleteJob(job.ID, encoded, time.Now()); err != nil {
		log.Error("Failed to record job completion", "error", err)
		return
	}
	log.Info("Job completed", "message", result.Message)
}

func (q *Queue) fail(job *domain.Job, msg string) {
	result, _ := json.Marshal(&domain.JobResult{Success: false, Message: msg})
	if err := q.Repo.FailJob(job.ID, msg, result, time.Now()); err != nil {
		q.Logger.Error("Failed to record job failure", "job_id", job.ID, "error", err)
	}
}

// reconcileStale applies the configured policy to jobs stuck in running
// from a previous process. "leave" preserves them untouched but loudly.
func (q *Queue) reconcileStale() {
	cutoff := time.Now().Add(-q.StaleGrace)

	switch q.StalePolicy {
	case constants.StaleJobRequeue:
		count, err := q.Repo.RequeueStaleRunning(cutoff)
		if err != nil {
			q.Logger.Error("Failed to requeue stale running jobs", "error", err)
			return
		}
		if count > 0 {
			q.Logger.Info("Requeued stale running jobs", "count", count)
		}
	case constants.StaleJobFail:
		count, err := q.Repo.FailStaleRunning(cutoff, "interrupted by process restart", time.Now())
		if err != nil {
			q.Logger.Error("Failed to fail stale running jobs", "error", err)
			return
		}
		if count > 0 {
			q.Logger.Warn("Failed stale running jobs from previous run", "count", count)
		}
	default:
		running, err := q.Repo.ListRunningJobs()
		if err != nil {
			q.Logger.Error("Failed to inspect running jobs", "error", err)
			return
		}
		for _, job := range running {
			q.Logger.Warn("Job left in running state from previous run", "job_id", job.ID, "job_type", job.Type)
		}
	}
}
