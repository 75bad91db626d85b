package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-program/internal/model"
	"github.com/unclebandit/crowdfund-program/internal/queue"
)

// Processor defines the method the worker needs
type Processor interface {
	Process(ctx context.Context, accounts []model.AccountMeta, data []byte) error
}

// Job pairs a queued instruction with the callback that settles it.
type Job struct {
	queue.Job
	Done func(err error)
}

// Worker processes queued instruction jobs
type Worker struct {
	Processor Processor
	Jobs      <-chan Job
	Logger    *zap.Logger
}

// Constructor
func NewWorker(p Processor, jobs <-chan Job, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		Processor: p,
		Jobs:      jobs,
		Logger:    logger,
	}
}

// Start processes jobs until the channel closes or ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.Jobs:
			if !ok {
				return
			}
			err := w.Processor.Process(ctx, job.Accounts, job.Data)
			if err != nil {
				w.Logger.Info("instruction failed", zap.Error(err))
			}
			if job.Done != nil {
				job.Done(err)
			}
		}
	}
}
