package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pollify/backend/pkg/queue"
)

// JobSource is the queue the runner drains.
type JobSource interface {
	Dequeue(ctx context.Context, queueName string) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Processor executes one job.
type Processor interface {
	Process(ctx context.Context, job *queue.Job) error
}

// Runner pulls jobs from one queue and hands them to a processor, retrying failures with backoff.
type Runner struct {
	jobs      JobSource
	queueName string
	proc      Processor
	backoff   time.Duration
	logger    *zap.Logger
}

// NewRunner creates a worker loop for queueName.
func NewRunner(jobs JobSource, queueName string, proc Processor, backoff time.Duration, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{jobs: jobs, queueName: queueName, proc: proc, backoff: backoff, logger: logger}
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (r *Runner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("worker stopping", zap.String("queue", r.queueName))
			return
		default:
		}

		job, err := r.jobs.Dequeue(ctx, r.queueName)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			r.logger.Warn("dequeue error", zap.Error(err))
			r.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		r.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := r.proc.Process(ctx, job); err != nil {
			r.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := r.jobs.Retry(ctx, job); reErr != nil {
				r.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			r.sleep(ctx)
		}
	}
}

func (r *Runner) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(r.backoff):
	}
}
