package store

import (
	"database/sql"
	"time"

	"vodvault/internal/domain"
)

func (db *DB) CreateJob(job *domain.Job) error {
	query := `INSERT INTO jobs (id, type, status, created_at, data)
		VALUES (:id, :type, :status, :created_at, :data)`

	_, err := db.NamedExec(query, job)
	return err
}

func (db *DB) GetJob(id string) (*domain.Job, error) {
	query := `SELECT id, type, status, created_at, started_at, completed_at, error, data, result
		FROM jobs WHERE id = ?`

	job := &domain.Job{}
	err := db.Get(job, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (db *DB) ListJobs(limit int) ([]*domain.Job, error) {
	query := `SELECT id, type, status, created_at, started_at, completed_at, error, data, result
		FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?`

	var jobs []*domain.Job
	err := db.Select(&jobs, query, limit)
	return jobs, err
}

// NextPendingJob returns the oldest pending job, or nil when the queue is
// drained. Ties on created_at break by insertion order.
func (db *DB) NextPendingJob() (*domain.Job, error) {
	query := `SELECT id, type, status, created_at, started_at, completed_at, error, data, result
		FROM jobs WHERE status = ? ORDER BY created_at ASC, rowid ASC LIMIT 1`

	job := &domain.Job{}
	err := db.Get(job, query, domain.JobStatusPending)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// MarkJobRunning transitions a pending job to running, setting started_at
// exactly once.
func (db *DB) MarkJobRunning(id string, startedAt time.Time) error {
	query := `UPDATE jobs SET status = ?, started_at = COALESCE(started_at, ?)
		WHERE id = ? AND status = ?`
	_, err := db.Exec(query, domain.JobStatusRunning, startedAt, id, domain.JobStatusPending)
	return err
}

// CompleteJob marks a job completed with its structured result.
func (db *DB) CompleteJob(id string, result []byte, completedAt time.Time) error {
	query := `UPDATE jobs SET status = ?, result = ?, completed_at = COALESCE(completed_at, ?) WHERE id = ?`
	_, err := db.Exec(query, domain.JobStatusCompleted, result, completedAt, id)
	return err
}

// FailJob marks a job failed, capturing the handler error. A partial result
// may still be recorded alongside the error.
func (db *DB) FailJob(id string, errMsg string, result []byte, completedAt time.Time) error {
	query := `UPDATE jobs SET status = ?, error = ?, result = ?, completed_at = COALESCE(completed_at, ?) WHERE id = ?`
	_, err := db.Exec(query, domain.JobStatusFailed, errMsg, result, completedAt, id)
	return err
}

func (db *DB) ListRunningJobs() ([]*domain.Job, error) {
	query := `SELECT id, type, status, created_at, started_at, completed_at, error, data, result
		FROM jobs WHERE status = ? ORDER BY created_at ASC`

	var jobs []*domain.Job
	err := db.Select(&jobs, query, domain.JobStatusRunning)
	return jobs, err
}

// RequeueStaleRunning resets running jobs whose started_at is older than the
// cutoff back to pending. Returns the number of jobs requeued.
func (db *DB) RequeueStaleRunning(cutoff time.Time) (int64, error) {
	query := `UPDATE jobs SET status = ?, started_at = NULL
		WHERE status = ? AND (started_at IS NULL OR started_at <= ?)`
	res, err := db.Exec(query, domain.JobStatusPending, domain.JobStatusRunning, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FailStaleRunning marks running jobs older than the cutoff as failed with
// the given error message. Returns the number of jobs failed.
func (db *DB) FailStaleRunning(cutoff time.Time, errMsg string, completedAt time.Time) (int64, error) {
	query := `UPDATE jobs SET status = ?, error = ?, completed_at = COALESCE(completed_at, ?)
		WHERE status = ? AND (started_at IS NULL OR started_at <= ?)`
	res, err := db.Exec(query, domain.JobStatusFailed, errMsg, completedAt, domain.JobStatusRunning, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
