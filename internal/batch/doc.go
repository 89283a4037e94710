// Package batch is the execution engine: it admits batches of jobs,
// deduplicates them by fingerprint, short-circuits work whose result is
// already cached, and runs the rest through a bounded FIFO worker pool with
// cooperative cancellation and a per-job timeout watchdog.
//
// The engine owns the job state machine. States move Queued to Running to one
// of Succeeded, Failed, or Cancelled, or straight from Queued to CacheHit;
// terminal states are never left. Progress and state changes flow to a
// Reporter that observes but never influences scheduling.
package batch
