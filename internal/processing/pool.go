package processing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yourusername/predictive-punter/internal/logger"
	"github.com/yourusername/predictive-punter/internal/metrics"
)

// ErrPoolSaturated is returned when a task cannot be queued within the retry budget
var ErrPoolSaturated = errors.New("worker pool saturated")

type poolOptions struct {
	workers   int
	queueSize int
	retries   int
	backoff   time.Duration
}

// pool runs queued tasks on a fixed set of workers. The first failing task
// cancels the pool's context; queued tasks are then discarded.
type pool struct {
	ctx     context.Context
	group   *errgroup.Group
	tasks   chan func(context.Context) error
	opts    poolOptions
	limiter *rate.Limiter
	logger  *logger.ProcessingLogger
	unit    string
}

func newPool(ctx context.Context, unit string, opts poolOptions, log *logger.ProcessingLogger) *pool {
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(opts.workers)

	limiter := rate.NewLimiter(rate.Every(opts.backoff), 1)
	limiter.Allow()

	p := &pool{
		ctx:     gctx,
		group:   group,
		tasks:   make(chan func(context.Context) error, opts.queueSize),
		opts:    opts,
		limiter: limiter,
		logger:  log,
		unit:    unit,
	}
	for i := 0; i < opts.workers; i++ {
		group.Go(p.work)
	}
	return p
}

func (p *pool) work() error {
	for task := range p.tasks {
		if p.ctx.Err() != nil {
			continue
		}
		if err := task(p.ctx); err != nil {
			return err
		}
	}
	return nil
}

// submit queues a task, retrying at a fixed pace while the queue is full
func (p *pool) submit(task func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		if err := p.ctx.Err(); err != nil {
			return err
		}

		select {
		case p.tasks <- task:
			return nil
		default:
		}

		if attempt >= p.opts.retries {
			return fmt.Errorf("%w: %s queue full after %d retries", ErrPoolSaturated, p.unit, attempt)
		}

		metrics.RecordSubmitRetry()
		p.logger.LogSubmitRetry(p.unit, attempt+1, p.opts.retries)
		if err := p.limiter.Wait(p.ctx); err != nil {
			return err
		}
	}
}

// wait closes the queue and returns the first task error
func (p *pool) wait() error {
	close(p.tasks)
	return p.group.Wait()
}

// runAll processes every item on a new pool
func runAll[T any](ctx context.Context, unit string, opts poolOptions, log *logger.ProcessingLogger, items []T, fn func(context.Context, T) error) error {
	if len(items) == 0 {
		return nil
	}

	p := newPool(ctx, unit, opts, log)
	for _, item := range items {
		if err := p.submit(func(ctx context.Context) error { return fn(ctx, item) }); err != nil {
			if waitErr := p.wait(); waitErr != nil {
				return waitErr
			}
			return err
		}
	}
	return p.wait()
}
