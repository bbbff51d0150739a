package features

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DispatchJob is one fire-and-forget remote call.
type DispatchJob struct {
	Kind          string
	SessionToken  string
	QuestionIndex int
	Run           func(ctx context.Context)
	EnqueuedAt    time.Time
}

// Dispatcher runs remote calls off the runner's critical section. Jobs that are enqueued are
// always run, including during Stop.
type Dispatcher struct {
	jobQueue        chan DispatchJob
	workerCount     int
	maxTaskWaitTime time.Duration
	callTimeout     time.Duration
	logger          *zap.Logger
	wg              sync.WaitGroup
	pending         sync.WaitGroup
	stopOnce        sync.Once
	closed          atomic.Bool
	mu              sync.RWMutex
	// Metrics
	totalJobsEnqueued  int64
	totalJobsProcessed int64
	totalJobsDropped   int64
	activeWorkers      int64
}

// DispatcherConfig holds the dispatch.* keys.
type DispatcherConfig struct {
	Workers        int
	QueueSize      int
	EnqueueTimeout time.Duration
	CallTimeout    time.Duration
}

func NewDispatcher(cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	return &Dispatcher{
		jobQueue:        make(chan DispatchJob, cfg.QueueSize),
		workerCount:     cfg.Workers,
		maxTaskWaitTime: cfg.EnqueueTimeout,
		callTimeout:     cfg.CallTimeout,
		logger:          logger,
	}
}

func (d *Dispatcher) Start() {
	d.logger.Info("Starting dispatcher",
		zap.Int("workerCount", d.workerCount),
		zap.Int("queueCapacity", cap(d.jobQueue)))

	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Wait blocks until every job enqueued so far has run.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// Stop drains the queue and waits for the workers to exit.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed.Store(true)
		close(d.jobQueue)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker(workerID int) {
	defer d.wg.Done()
	atomic.AddInt64(&d.activeWorkers, 1)
	defer atomic.AddInt64(&d.activeWorkers, -1)

	jobsProcessed := 0
	for job := range d.jobQueue {
		d.logger.Debug("Worker processing job",
			zap.Int("workerID", workerID),
			zap.String("kind", job.Kind),
			zap.Int("questionIndex", job.QuestionIndex),
			zap.Duration("waitTime", time.Since(job.EnqueuedAt)))

		d.run(job)
		atomic.AddInt64(&d.totalJobsProcessed, 1)
		jobsProcessed++
	}

	d.logger.Debug("Worker stopping - job queue closed",
		zap.Int("workerID", workerID),
		zap.Int("jobsProcessed", jobsProcessed))
}

func (d *Dispatcher) run(job DispatchJob) {
	defer d.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Dispatched job panicked", zap.String("kind", job.Kind), zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.callTimeout)
	defer cancel()
	job.Run(ctx)
}

// Enqueue hands job to a worker, waiting at most the enqueue timeout for queue space.
func (d *Dispatcher) Enqueue(job DispatchJob) bool {
	job.EnqueuedAt = time.Now()

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed.Load() {
		atomic.AddInt64(&d.totalJobsDropped, 1)
		d.logger.Warn("Dispatcher stopped, dropping job", zap.String("kind", job.Kind))
		return false
	}

	d.pending.Add(1)
	select {
	case d.jobQueue <- job:
		atomic.AddInt64(&d.totalJobsEnqueued, 1)
		return true
	default:
	}

	timer := time.NewTimer(d.maxTaskWaitTime)
	defer timer.Stop()

	select {
	case d.jobQueue <- job:
		atomic.AddInt64(&d.totalJobsEnqueued, 1)
		return true
	case <-timer.C:
		d.pending.Done()
		atomic.AddInt64(&d.totalJobsDropped, 1)
		d.logger.Error("Job enqueue timeout - queue may be full or workers unavailable",
			zap.String("kind", job.Kind),
			zap.Int("questionIndex", job.QuestionIndex),
			zap.Duration("timeout", d.maxTaskWaitTime),
			zap.Int("queueSize", len(d.jobQueue)),
			zap.Int("queueCapacity", cap(d.jobQueue)),
			zap.Int64("activeWorkers", atomic.LoadInt64(&d.activeWorkers)))
		return false
	}
}

// GetMetrics returns dispatcher metrics
func (d *Dispatcher) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"total_jobs_enqueued":  atomic.LoadInt64(&d.totalJobsEnqueued),
		"total_jobs_processed": atomic.LoadInt64(&d.totalJobsProcessed),
		"total_jobs_dropped":   atomic.LoadInt64(&d.totalJobsDropped),
		"active_workers":       atomic.LoadInt64(&d.activeWorkers),
		"queue_size":           len(d.jobQueue),
		"queue_capacity":       cap(d.jobQueue),
	}
}
