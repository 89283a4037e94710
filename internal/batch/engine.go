package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ytscribe/internal/cache"
	"ytscribe/internal/fingerprint"
	"ytscribe/internal/logging"
	"ytscribe/internal/media"
	"ytscribe/internal/services"
	"ytscribe/internal/stage"
)

// PipelineRunner executes the full stage sequence for one source. It is
// satisfied by stage.Runner and by test doubles.
type PipelineRunner interface {
	Run(ctx context.Context, sourceRef string, opts media.Options, progress stage.ProgressFunc) (stage.Result, error)
}

// Config are the engine's immutable construction parameters, read once; the
// engine never consults live configuration afterwards.
type Config struct {
	// Concurrency bounds simultaneous pipeline executions.
	Concurrency int
	// JobTimeout forces a misbehaving execution onto the cooperative abort
	// path. Zero disables the watchdog.
	JobTimeout time.Duration
}

// Engine admits batches of jobs, deduplicates them by fingerprint,
// short-circuits work already present in the cache, and drives the rest
// through a bounded worker pool. It owns the job lifecycle end to end.
type Engine struct {
	runner   PipelineRunner
	store    *cache.Store
	exporter stage.Exporter
	reporter Reporter
	logger   *slog.Logger
	cfg      Config

	mu   sync.Mutex
	jobs map[string]*job
}

// New builds an engine. The cache store may be nil (caching disabled) and the
// exporter may be nil when cached results never need re-export.
func New(runner PipelineRunner, store *cache.Store, exporter stage.Exporter, cfg Config, reporter Reporter, logger *slog.Logger) *Engine {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Engine{
		runner:   runner,
		store:    store,
		exporter: exporter,
		reporter: reporter,
		logger:   logging.NewComponentLogger(logger, "batch"),
		cfg:      cfg,
		jobs:     make(map[string]*job),
	}
}

// execution is one unit of pipeline work shared by every job with the same
// fingerprint in a batch. Its context is cancelled only when all of its jobs
// have been individually cancelled.
type execution struct {
	fingerprint string
	sourceRef   string
	options     media.Options
	jobs        []*job
	active      int

	ctx    context.Context
	cancel context.CancelFunc
}

// Batch is the handle returned by Submit.
type Batch struct {
	ID     string
	engine *Engine
	jobs   []*job

	started time.Time
	done    chan struct{}
}

// Submit admits a batch and returns immediately; execution is asynchronous.
// Requests with identical fingerprints collapse to a single execution whose
// result fans out to every originating job.
func (e *Engine) Submit(requests []Request) (*Batch, error) {
	if len(requests) == 0 {
		return nil, errors.New("batch: no jobs submitted")
	}

	batch := &Batch{
		ID:      uuid.New().String(),
		engine:  e,
		started: time.Now(),
		done:    make(chan struct{}),
	}

	var executions []*execution
	byFingerprint := make(map[string]*execution)

	e.mu.Lock()
	for _, request := range requests {
		opts := request.Options.Normalize()
		j := &job{
			id:          uuid.New().String(),
			batchID:     batch.ID,
			sourceRef:   request.SourceRef,
			options:     opts,
			fingerprint: fingerprint.Compute(request.SourceRef, opts),
			state:       StateQueued,
		}
		e.jobs[j.id] = j
		batch.jobs = append(batch.jobs, j)

		exec, ok := byFingerprint[j.fingerprint]
		if !ok {
			ctx, cancel := context.WithCancel(context.Background())
			exec = &execution{
				fingerprint: j.fingerprint,
				sourceRef:   request.SourceRef,
				options:     opts,
				ctx:         ctx,
				cancel:      cancel,
			}
			byFingerprint[j.fingerprint] = exec
			executions = append(executions, exec)
		}
		j.exec = exec
		exec.jobs = append(exec.jobs, j)
		exec.active++
	}
	snapshots := make([]JobSnapshot, len(batch.jobs))
	for i, j := range batch.jobs {
		snapshots[i] = e.snapshotLocked(j)
	}
	e.mu.Unlock()

	for _, snapshot := range snapshots {
		e.reporter.JobUpdated(snapshot)
	}
	e.logger.Info("batch submitted",
		logging.String(logging.FieldBatchID, batch.ID),
		logging.Int("jobs", len(batch.jobs)),
		logging.Int("executions", len(executions)))

	var wg sync.WaitGroup
	wg.Add(len(executions))
	queue := make(chan *execution, len(executions))

	go e.dispatch(batch, executions, queue, &wg)

	workers := min(e.cfg.Concurrency, len(executions))
	for range workers {
		go func() {
			for exec := range queue {
				e.runExecution(exec)
				wg.Done()
			}
		}()
	}
	go func() {
		wg.Wait()
		close(batch.done)
	}()

	return batch, nil
}

// dispatch walks executions in submission order, resolving cache hits without
// consuming a worker and queueing the rest FIFO.
func (e *Engine) dispatch(batch *Batch, executions []*execution, queue chan<- *execution, wg *sync.WaitGroup) {
	defer close(queue)
	ctx := context.Background()
	for _, exec := range executions {
		if e.resolveWithoutWorker(ctx, exec) {
			wg.Done()
			continue
		}
		queue <- exec
	}
}

// resolveWithoutWorker handles the paths that finish an execution before it
// reaches the pool: every job already cancelled, an explicit fresh request,
// or a cache hit.
func (e *Engine) resolveWithoutWorker(ctx context.Context, exec *execution) bool {
	e.mu.Lock()
	active := exec.active
	e.mu.Unlock()
	if active == 0 {
		return true
	}

	if e.store == nil {
		return false
	}
	if exec.options.Fresh {
		if err := e.store.Invalidate(ctx, exec.fingerprint); err != nil {
			e.logger.Warn("cache invalidation failed",
				logging.String(logging.FieldFingerprint, exec.fingerprint),
				logging.Error(err))
		}
		return false
	}

	entry, ok := e.store.Lookup(ctx, exec.fingerprint)
	if !ok {
		return false
	}
	transcript, err := e.store.ReadArtifact(entry)
	if err != nil {
		e.logger.Warn("cached artifact unreadable, reprocessing",
			logging.String(logging.FieldFingerprint, exec.fingerprint),
			logging.Error(err))
		if err := e.store.Invalidate(ctx, exec.fingerprint); err != nil {
			e.logger.Warn("cache invalidation failed",
				logging.String(logging.FieldFingerprint, exec.fingerprint),
				logging.Error(err))
		}
		return false
	}

	// A cached transcript still needs its export files materialized for this
	// run's requested formats.
	var files []media.ExportFile
	if e.exporter != nil {
		files, err = e.exporter.Export(transcript, exec.options.Formats)
		if err != nil {
			e.finish(exec, StateFailed, nil, err)
			return true
		}
	}
	e.logger.Info("cache hit",
		logging.String(logging.FieldFingerprint, exec.fingerprint),
		logging.String("source", exec.sourceRef))
	e.finish(exec, StateCacheHit, files, nil)
	return true
}

// runExecution drives one pipeline execution inside a worker slot.
func (e *Engine) runExecution(exec *execution) {
	e.mu.Lock()
	if exec.active == 0 {
		e.mu.Unlock()
		return
	}
	updated := make([]JobSnapshot, 0, len(exec.jobs))
	for _, j := range exec.jobs {
		if j.state == StateQueued && !j.cancelRequested {
			j.state = StateRunning
			updated = append(updated, e.snapshotLocked(j))
		}
	}
	e.mu.Unlock()
	for _, snapshot := range updated {
		e.reporter.JobUpdated(snapshot)
	}

	runCtx := exec.ctx
	if e.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, e.cfg.JobTimeout)
		defer cancel()
	}
	runCtx = services.WithBatchID(runCtx, exec.jobs[0].batchID)
	runCtx = services.WithJobID(runCtx, exec.jobs[0].id)

	progress := func(stageName string, overall float64) {
		e.updateProgress(exec, overall)
	}
	result, err := e.runner.Run(runCtx, exec.sourceRef, exec.options, progress)

	switch {
	case err == nil:
		if e.store != nil && result.Transcript != nil {
			// Storing uses a fresh context: the result must still be cached
			// when the execution's own context has already expired.
			if _, storeErr := e.store.Store(context.Background(), exec.fingerprint, result.Transcript); storeErr != nil {
				e.logger.Warn("failed to cache result",
					logging.String(logging.FieldFingerprint, exec.fingerprint),
					logging.Error(storeErr))
			}
		}
		e.finish(exec, StateSucceeded, result.Files, nil)
	case errors.Is(err, context.DeadlineExceeded):
		e.finish(exec, StateFailed, nil,
			fmt.Errorf("job timed out after %s", e.cfg.JobTimeout))
	case services.IsCancellation(err):
		e.finish(exec, StateCancelled, nil, nil)
	default:
		e.finish(exec, StateFailed, nil, err)
	}
}

// updateProgress advances every non-terminal job of an execution. Progress is
// clamped monotonic per job.
func (e *Engine) updateProgress(exec *execution, overall float64) {
	e.mu.Lock()
	updated := make([]JobSnapshot, 0, len(exec.jobs))
	for _, j := range exec.jobs {
		if j.state.Terminal() {
			continue
		}
		if overall > j.progress {
			j.progress = overall
			updated = append(updated, e.snapshotLocked(j))
		}
	}
	e.mu.Unlock()
	for _, snapshot := range updated {
		e.reporter.JobUpdated(snapshot)
	}
}

// finish fans an execution outcome out to all of its non-terminal jobs.
func (e *Engine) finish(exec *execution, state State, files []media.ExportFile, err error) {
	e.mu.Lock()
	updated := make([]JobSnapshot, 0, len(exec.jobs))
	for _, j := range exec.jobs {
		if j.state.Terminal() {
			continue
		}
		j.state = state
		j.files = files
		if state.Completed() {
			j.progress = 1
		}
		if state == StateFailed {
			j.err = err
		}
		updated = append(updated, e.snapshotLocked(j))
	}
	e.mu.Unlock()

	exec.cancel()
	for _, snapshot := range updated {
		e.reporter.JobUpdated(snapshot)
	}
	if state == StateFailed && err != nil {
		e.logger.Error("job failed",
			logging.String(logging.FieldFingerprint, exec.fingerprint),
			logging.String("source", exec.sourceRef),
			logging.Error(err))
	}
}

// Cancel requests cancellation of one job. Queued and running jobs transition
// to Cancelled immediately; the shared execution is aborted once no job still
// wants its result. Cancelling a terminal job is a no-op.
func (e *Engine) Cancel(jobID string) error {
	e.mu.Lock()
	j, ok := e.jobs[jobID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("batch: unknown job %q", jobID)
	}
	if j.state.Terminal() {
		e.mu.Unlock()
		return nil
	}
	j.cancelRequested = true
	j.state = StateCancelled
	exec := j.exec
	exec.active--
	abort := exec.active == 0
	snapshot := e.snapshotLocked(j)
	e.mu.Unlock()

	if abort {
		exec.cancel()
	}
	e.reporter.JobUpdated(snapshot)
	return nil
}

// Snapshot returns the current view of one job.
func (e *Engine) Snapshot(jobID string) (JobSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	j, ok := e.jobs[jobID]
	if !ok {
		return JobSnapshot{}, false
	}
	return e.snapshotLocked(j), true
}

func (e *Engine) snapshotLocked(j *job) JobSnapshot {
	snapshot := JobSnapshot{
		ID:          j.id,
		BatchID:     j.batchID,
		SourceRef:   j.sourceRef,
		Fingerprint: j.fingerprint,
		State:       j.state,
		Progress:    j.progress,
		Files:       j.files,
	}
	if j.err != nil {
		snapshot.Error = services.Summary(j.err)
	}
	return snapshot
}

// CancelAll cancels every non-terminal job in the batch.
func (b *Batch) CancelAll() {
	for _, j := range b.jobs {
		_ = b.engine.Cancel(j.id)
	}
}

// JobIDs returns the batch's job IDs in submission order.
func (b *Batch) JobIDs() []string {
	ids := make([]string, len(b.jobs))
	for i, j := range b.jobs {
		ids[i] = j.id
	}
	return ids
}

// Snapshots returns the current view of every job in submission order.
func (b *Batch) Snapshots() []JobSnapshot {
	b.engine.mu.Lock()
	defer b.engine.mu.Unlock()
	snapshots := make([]JobSnapshot, len(b.jobs))
	for i, j := range b.jobs {
		snapshots[i] = b.engine.snapshotLocked(j)
	}
	return snapshots
}

// Wait blocks until every job in the batch is terminal, or until the context
// expires, and returns the aggregate summary.
func (b *Batch) Wait(ctx context.Context) (Summary, error) {
	select {
	case <-b.done:
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	}

	summary := Summary{
		BatchID:  b.ID,
		Total:    len(b.jobs),
		Duration: time.Since(b.started),
		Jobs:     b.Snapshots(),
	}
	for _, snapshot := range summary.Jobs {
		switch snapshot.State {
		case StateSucceeded:
			summary.Succeeded++
		case StateCacheHit:
			summary.CacheHits++
		case StateFailed:
			summary.Failed++
		case StateCancelled:
			summary.Cancelled++
		}
	}
	return summary, nil
}
