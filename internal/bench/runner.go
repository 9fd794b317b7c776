package bench

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/mongosource/pkg/infra/pool"
)

// Op is one unit of load. It must be safe for concurrent use.
type Op func(ctx context.Context) error

// Runner drives an Op from a fixed set of workers.
type Runner struct {
	pool       *pool.Pool
	workers    int
	iterations int
	duration   time.Duration
	opTimeout  time.Duration
	observe    func(time.Duration, error)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithObserver is called after every operation, from the worker goroutine.
func WithObserver(fn func(time.Duration, error)) RunnerOption {
	return func(r *Runner) {
		r.observe = fn
	}
}

// NewRunner creates a runner backed by a worker pool sized to o.Workers.
func NewRunner(o *Options, opts ...RunnerOption) (*Runner, error) {
	p, err := pool.NewPool("bench", pool.WorkerPool, pool.WorkerPoolConfig(o.Workers))
	if err != nil {
		return nil, err
	}

	r := &Runner{
		pool:       p,
		workers:    o.Workers,
		iterations: o.Iterations,
		duration:   o.Duration,
		opTimeout:  o.OpTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run blocks until the iterations are used up, the duration has passed or
// ctx is cancelled. Operations already in flight are allowed to finish.
func (r *Runner) Run(ctx context.Context, op Op) (*Recorder, error) {
	runCtx := ctx
	if r.duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.duration)
		defer cancel()
	}
	// In-flight operations outlive the run deadline.
	opParent := context.WithoutCancel(ctx)

	var tickets atomic.Int64
	tickets.Store(int64(r.iterations))

	rec := NewRecorder(r.workers)
	var wg sync.WaitGroup

	for i := 0; i < r.workers; i++ {
		shard := rec.shard(i)
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			for runCtx.Err() == nil {
				if r.iterations > 0 && tickets.Add(-1) < 0 {
					return
				}
				d, err := r.once(opParent, op)
				shard.record(d, err)
				if r.observe != nil {
					r.observe(d, err)
				}
			}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			rec.finish()
			return rec, err
		}
	}

	wg.Wait()
	rec.finish()
	return rec, nil
}

func (r *Runner) once(parent context.Context, op Op) (time.Duration, error) {
	ctx := parent
	if r.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, r.opTimeout)
		defer cancel()
	}

	start := time.Now()
	err := op(ctx)
	return time.Since(start), err
}

// Stats returns the worker pool statistics.
func (r *Runner) Stats() pool.Stats {
	return r.pool.Stats()
}

// Close releases the worker pool.
func (r *Runner) Close() {
	r.pool.Release()
}
