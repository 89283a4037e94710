package batch

import (
	"time"

	"ytscribe/internal/media"
)

// Request is one submission: a source reference plus processing options.
type Request struct {
	SourceRef string
	Options   media.Options
}

// job is the engine's internal record for one submitted request. All mutable
// fields are guarded by the engine mutex.
type job struct {
	id          string
	batchID     string
	sourceRef   string
	options     media.Options
	fingerprint string

	state           State
	progress        float64
	err             error
	files           []media.ExportFile
	cancelRequested bool

	exec *execution
}

// JobSnapshot is the externally visible view of a job at one instant.
type JobSnapshot struct {
	ID          string
	BatchID     string
	SourceRef   string
	Fingerprint string
	State       State
	Progress    float64
	// Error carries a human-readable summary; set only for failed jobs.
	Error string
	Files []media.ExportFile
}

// Summary aggregates a finished batch. Successes, cache hits, failures, and
// cancellations are counted separately so callers can tell "nothing to do"
// apart from "everything failed".
type Summary struct {
	BatchID   string
	Total     int
	Succeeded int
	CacheHits int
	Failed    int
	Cancelled int
	Duration  time.Duration
	Jobs      []JobSnapshot
}

// Reporter receives job state and progress notifications. Implementations
// must not block; they are called from worker goroutines and never influence
// scheduling.
type Reporter interface {
	JobUpdated(snapshot JobSnapshot)
}

// NopReporter discards all notifications.
type NopReporter struct{}

func (NopReporter) JobUpdated(JobSnapshot) {}
