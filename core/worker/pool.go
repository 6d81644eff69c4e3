// Package worker runs lookup jobs on a fixed set of goroutines so one slow
// portal or render call does not hold up other chats.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/lnmubot/core/logger"
	"github.com/m3rciful/lnmubot/core/netutil"
)

var (
	// ErrQueueClosed is returned by TrySubmit after Close.
	ErrQueueClosed = errors.New("worker: queue closed")
	// ErrQueueFull is returned by TrySubmit when every slot is taken.
	ErrQueueFull = errors.New("worker: queue full")
)

// Job is one unit of work. ctx carries the per-job deadline.
type Job func(ctx context.Context) error

// Options sizes the pool. Zero values fall back to defaults.
type Options struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	// OnInline is called when Submit runs a job on the caller goroutine.
	OnInline func()
}

type task struct {
	ctx  context.Context
	name string
	run  Job
}

// Pool is a bounded job queue served by a fixed number of workers.
type Pool struct {
	opts   Options
	tasks  chan task
	mu     sync.RWMutex
	closed bool
	once   sync.Once
	wg     sync.WaitGroup
	fails  atomic.Uint64
}

// New starts the workers.
func New(opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 2 * time.Minute
	}
	p := &Pool{
		opts:  opts,
		tasks: make(chan task, opts.QueueSize),
	}
	p.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go p.work()
	}
	return p
}

// TrySubmit queues run without blocking.
func (p *Pool) TrySubmit(ctx context.Context, name string, run Job) error {
	if run == nil {
		return fmt.Errorf("worker: nil job %q", name)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrQueueClosed
	}
	select {
	case p.tasks <- task{ctx: detach(ctx), name: name, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Submit queues run, or runs it inline when the queue is full or closed.
// The job is never dropped.
func (p *Pool) Submit(ctx context.Context, name string, run Job) {
	err := p.TrySubmit(ctx, name, run)
	if err == nil || run == nil {
		return
	}
	logger.LogEvent(ctx, logger.Worker, slog.LevelWarn, "job.inline",
		slog.String("job", name),
		slog.String("cause", err.Error()),
	)
	if p.opts.OnInline != nil {
		p.opts.OnInline()
	}
	p.execute(task{ctx: detach(ctx), name: name, run: run})
}

// Failures returns the number of jobs that returned an error.
func (p *Pool) Failures() uint64 {
	return p.fails.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) work() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.execute(t)
	}
}

func (p *Pool) execute(t task) {
	ctx, cancel := context.WithTimeout(t.ctx, p.opts.JobTimeout)
	defer cancel()

	start := time.Now()
	err := safeRun(ctx, t.run)
	if err == nil {
		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.Worker, slog.LevelDebug, "job.done",
				slog.String("job", t.name),
				slog.Duration("duration", logger.Took(start)),
			)
		}
		return
	}
	p.fails.Add(1)
	logger.LogEvent(ctx, logger.Worker, slog.LevelError, "job.fail",
		slog.String("job", t.name),
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
		slog.String("err_kind", netutil.Classify(err)),
		slog.Duration("duration", logger.Took(start)),
	)
}

func safeRun(ctx context.Context, run Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker: panic: %v", r)
		}
	}()
	return run(ctx)
}

// detach keeps ctx values (rid, chat ids) but drops the caller's
// cancellation, since the handler returns before the job runs.
func detach(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
