package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docbind/internal/config"
)

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("build queue stopped")

// Orchestrator queues build jobs and runs them on a single worker, so two
// queued builds of the same book never run at once.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	load    Loader
	builder *Builder
	stats   *BuildStats
	log     *slog.Logger
	cfg     config.Config

	// mu guards stopped and the close of queue against late submits.
	mu      sync.Mutex
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to run the worker.
func NewOrchestrator(cfg config.Config, load Loader, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, max(cfg.MaxQueueSize, 1)),
		load:    load,
		builder: NewBuilder(log),
		stats:   NewBuildStats(cfg.StatsWindow),
		log:     log,
		cfg:     cfg,
	}
}

// Start launches the worker and the job store cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		w := NewWorker(o.load, o.builder, o.stats, o.log, o.cfg.OutputDir)
		for {
			select {
			case <-workerCtx.Done():
				return
			case job, ok := <-o.queue:
				if !ok {
					return
				}
				w.Process(workerCtx, job)
			}
		}
	}()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline. It is safe to call more than once.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing. After Stop the job is marked
// failed and ErrStopped is returned.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "stopped")
		return ErrStopped
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("build queue is full (%d)", cap(o.queue))
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// TrackedJobs returns how many jobs the store still holds, finished or not.
func (o *Orchestrator) TrackedJobs() int {
	return o.jobs.Len()
}

// Stats returns the rolling build latency summary.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}

// Check loads the book and validates it without assembling.
func (o *Orchestrator) Check() (*CheckResult, error) {
	book, err := o.load()
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	return o.builder.Check(*book)
}

// BuildNow loads and builds the book outside the queue. Builders keep no
// state between builds, so this is safe alongside the worker.
func (o *Orchestrator) BuildNow() (*Document, error) {
	book, err := o.load()
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	return o.builder.Build(*book)
}
