package processor

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/abbensid2/alltheplaces/internal/models"
	"github.com/abbensid2/alltheplaces/internal/pipeline"
	"github.com/abbensid2/alltheplaces/internal/store"
	errs "github.com/abbensid2/alltheplaces/pkg/errors"
	"github.com/abbensid2/alltheplaces/pkg/logging"
	"github.com/abbensid2/alltheplaces/pkg/metrics"
)

// Counters the engine adds on top of the pipeline's.
const (
	StatRecordsWritten = "metric/records/written"
	StatRecordsFailed  = "metric/records/failed"
)

// ErrEngineStopped is returned by Submit once Stop has been called.
var ErrEngineStopped = stderrors.New("processing engine is shutting down")

// ProcessingJob is one harvested record waiting for the pipeline.
type ProcessingJob struct {
	Adapter string
	Record  models.Location
}

// ProcessingResult represents the outcome of one job.
type ProcessingResult struct {
	Adapter          string
	Ref              string
	Written          bool
	Dropped          bool // rejected by a pipeline stage
	Error            error
	ProcessingTimeMs int64
	Retries          int
}

// ProcessingStats tracks processing statistics
type ProcessingStats struct {
	RunID         string
	TotalJobs     int64
	CompletedJobs int64
	WrittenJobs   int64
	DroppedJobs   int64
	FailedJobs    int64
	AverageTimeMs int64
	StartTime     time.Time
	LastActivity  time.Time
	WorkerCount   int
	QueueSize     int64
}

// ProcessingConfig holds configuration for the processing engine
type ProcessingConfig struct {
	WorkerCount int
	MaxRetries  int // sink write retries
	RetryDelay  time.Duration
	JobTimeout  time.Duration
	WriteRPS    int // sink writes per second; 0 = unlimited
	WriteBurst  int
	QueueSize   int
}

// DefaultProcessingConfig returns a sensible default configuration
func DefaultProcessingConfig() ProcessingConfig {
	return ProcessingConfig{
		WorkerCount: 8,
		MaxRetries:  3,
		RetryDelay:  200 * time.Millisecond,
		JobTimeout:  10 * time.Second,
		QueueSize:   1000,
	}
}

// ProcessingEngine runs records through the pipeline on a worker pool and
// writes the survivors to a sink. A failing record never stops the batch.
type ProcessingEngine struct {
	pipeline *pipeline.Pipeline
	sink     store.Sink
	registry *metrics.Registry
	logger   *logging.ComponentLogger
	duration *metrics.Histogram

	workerCount int
	maxRetries  int
	retryDelay  time.Duration
	jobTimeout  time.Duration
	writeLimit  *RateLimiter

	jobQueue   chan ProcessingJob
	resultChan chan ProcessingResult
	ctx        context.Context
	cancel     context.CancelFunc
	workers    sync.WaitGroup
	results    sync.WaitGroup

	stats     ProcessingStats
	statsMu   sync.RWMutex
	totalJobs int64 // atomic
	queueSize int64 // atomic

	// submitMu guards jobQueue against sends after close.
	submitMu sync.RWMutex
	stopped  bool
	stopOnce sync.Once
}

// NewProcessingEngine wires the engine. The registry receives both the
// pipeline counters and the engine's own.
func NewProcessingEngine(p *pipeline.Pipeline, sink store.Sink, registry *metrics.Registry, logger *logging.Logger, config ProcessingConfig) *ProcessingEngine {
	if logger == nil {
		logger = logging.Discard()
	}
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = config.WorkerCount
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultProcessingConfig().JobTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	return &ProcessingEngine{
		pipeline:    p,
		sink:        sink,
		registry:    registry,
		logger:      logger.WithComponent("processor"),
		duration:    registry.Histogram("record_duration_seconds", "Time to process and write one record", []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}),
		workerCount: config.WorkerCount,
		maxRetries:  config.MaxRetries,
		retryDelay:  config.RetryDelay,
		jobTimeout:  config.JobTimeout,
		writeLimit:  NewRateLimiter(config.WriteRPS, config.WriteBurst),
		jobQueue:    make(chan ProcessingJob, config.QueueSize),
		resultChan:  make(chan ProcessingResult, config.QueueSize),
		ctx:         ctx,
		cancel:      cancel,
		stats: ProcessingStats{
			RunID:        runID,
			StartTime:    time.Now(),
			LastActivity: time.Now(),
			WorkerCount:  config.WorkerCount,
		},
	}
}

// RunID identifies this engine's run in logs and stats.
func (e *ProcessingEngine) RunID() string { return e.stats.RunID }

// Start launches the workers and the result processor.
func (e *ProcessingEngine) Start() {
	e.logger.WithContext(e.ctx).Info("starting processing engine", logging.Int("workers", e.workerCount))

	e.writeLimit.Start()

	for i := 0; i < e.workerCount; i++ {
		e.workers.Add(1)
		go e.worker()
	}

	e.results.Add(1)
	go e.resultProcessor()
}

// Stop stops accepting jobs, lets queued jobs drain and waits up to timeout.
// When the timeout is hit in-flight jobs are cancelled.
func (e *ProcessingEngine) Stop(timeout time.Duration) error {
	var err error

	e.stopOnce.Do(func() {
		e.submitMu.Lock()
		e.stopped = true
		close(e.jobQueue)
		e.submitMu.Unlock()

		done := make(chan struct{})
		go func() {
			e.workers.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(timeout):
			e.logger.WithContext(e.ctx).Warn("shutdown timeout reached, cancelling in-flight jobs")
			err = fmt.Errorf("shutdown timeout exceeded")
			e.cancel()
			<-done
		}

		close(e.resultChan)
		e.results.Wait()
		e.writeLimit.Stop()
		e.cancel()

		stats := e.GetStats()
		e.logger.WithContext(e.ctx).Info("processing engine stopped",
			logging.Int64("completed", stats.CompletedJobs),
			logging.Int64("written", stats.WrittenJobs),
			logging.Int64("dropped", stats.DroppedJobs),
			logging.Int64("failed", stats.FailedJobs))
	})

	return err
}

// Submit queues one job, blocking while the queue is full.
func (e *ProcessingEngine) Submit(ctx context.Context, job ProcessingJob) error {
	e.submitMu.RLock()
	defer e.submitMu.RUnlock()
	if e.stopped {
		return ErrEngineStopped
	}

	select {
	case e.jobQueue <- job:
		atomic.AddInt64(&e.totalJobs, 1)
		atomic.AddInt64(&e.queueSize, 1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.ctx.Done():
		return ErrEngineStopped
	}
}

// ProcessRecords queues every record of one adapter.
func (e *ProcessingEngine) ProcessRecords(ctx context.Context, adapter string, records []models.Location) error {
	for _, rec := range records {
		if err := e.Submit(ctx, ProcessingJob{Adapter: adapter, Record: rec}); err != nil {
			return err
		}
	}
	e.logger.WithContext(logging.WithAdapter(e.ctx, adapter)).Debug("queued records", logging.Int("count", len(records)))
	return nil
}

// GetStats returns current processing statistics
func (e *ProcessingEngine) GetStats() ProcessingStats {
	e.statsMu.RLock()
	stats := e.stats
	e.statsMu.RUnlock()

	stats.TotalJobs = atomic.LoadInt64(&e.totalJobs)
	stats.QueueSize = atomic.LoadInt64(&e.queueSize)
	return stats
}

// worker processes jobs from the queue
func (e *ProcessingEngine) worker() {
	defer e.workers.Done()

	for job := range e.jobQueue {
		atomic.AddInt64(&e.queueSize, -1)
		e.resultChan <- e.processJob(job)
	}
}

// processJob runs the pipeline, then writes with retry on storage errors.
func (e *ProcessingEngine) processJob(job ProcessingJob) ProcessingResult {
	startTime := time.Now()
	timer := e.duration.Start()
	defer timer.Observe()

	jobCtx, cancel := context.WithTimeout(e.ctx, e.jobTimeout)
	defer cancel()

	rec := job.Record
	result := ProcessingResult{Adapter: job.Adapter, Ref: rec.Ref}

	pc := &pipeline.Context{Record: &rec, Adapter: job.Adapter, Stats: e.registry}
	if err := e.pipeline.Run(jobCtx, pc); err != nil {
		result.Dropped = !isContextError(err)
		result.Error = err
		result.ProcessingTimeMs = time.Since(startTime).Milliseconds()
		return result
	}

	var err error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt*attempt) * e.retryDelay
			select {
			case <-time.After(delay):
			case <-jobCtx.Done():
				err = fmt.Errorf("job cancelled during retry delay: %w", jobCtx.Err())
				result.Retries = attempt - 1
				result.Error = err
				result.ProcessingTimeMs = time.Since(startTime).Milliseconds()
				return result
			}
		}

		if err = e.writeLimit.Wait(jobCtx); err != nil {
			break
		}
		if err = e.sink.Write(jobCtx, job.Adapter, &rec); err == nil {
			result.Written = true
			break
		}
		result.Retries = attempt
		if !e.isRetryableError(err) {
			break
		}
	}

	result.Error = err
	result.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	return result
}

// isRetryableError reports whether a sink error is worth another attempt.
func (e *ProcessingEngine) isRetryableError(err error) bool {
	if err == nil || isContextError(err) {
		return false
	}
	if !errs.Is(err, errs.ErrDB) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, retryable := range []string{
		"timeout",
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"deadlock",
		"loading",
		"temporary failure",
	} {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}
	return false
}

func isContextError(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

// resultProcessor folds results into the stats until the channel closes.
func (e *ProcessingEngine) resultProcessor() {
	defer e.results.Done()
	for result := range e.resultChan {
		e.handleResult(result)
	}
}

func (e *ProcessingEngine) handleResult(result ProcessingResult) {
	e.statsMu.Lock()
	e.stats.CompletedJobs++
	e.stats.LastActivity = time.Now()
	if e.stats.CompletedJobs == 1 {
		e.stats.AverageTimeMs = result.ProcessingTimeMs
	} else {
		e.stats.AverageTimeMs = (e.stats.AverageTimeMs + result.ProcessingTimeMs) / 2
	}
	switch {
	case result.Written:
		e.stats.WrittenJobs++
	case result.Dropped:
		e.stats.DroppedJobs++
	default:
		e.stats.FailedJobs++
	}
	e.statsMu.Unlock()

	switch {
	case result.Written:
		e.registry.Inc(StatRecordsWritten)
	case result.Dropped:
		// pipeline already counted and logged it
	default:
		e.registry.Inc(StatRecordsFailed)
		ctx := logging.WithRef(logging.WithAdapter(e.ctx, result.Adapter), result.Ref)
		e.logger.WithContext(ctx).Error("failed to write record", result.Error,
			logging.Int("retries", result.Retries))
	}
}
