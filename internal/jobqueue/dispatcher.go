package jobqueue

import (
	"context"
	"errors"
	"log/slog"

	"vodvault/internal/domain"
)

var ErrUnknownJobType = errors.New("unknown job type")

// JobHandler executes one job type. A returned error fails the job; the
// queue itself keeps going.
type JobHandler interface {
	Handle(ctx context.Context, job *domain.Job, logger *slog.Logger) (*domain.JobResult, error)
}

type Dispatcher struct {
	handlers map[domain.JobType]JobHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[domain.JobType]JobHandler),
	}
}

func (d *Dispatcher) Register(jobType domain.JobType, handler JobHandler) {
	d.handlers[jobType] = handler
}

func (d *Dispatcher) Dispatch(ctx context.Context, job *domain.Job, logger *slog.Logger) (*domain.JobResult, error) {
	handler, ok := d.handlers[job.Type]
	if !ok {
		return nil, ErrUnknownJobType
	}
	return handler.Handle(ctx, job, logger)
}
