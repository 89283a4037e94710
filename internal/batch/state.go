package batch

// State is a job's position in its lifecycle. Transitions are monotonic:
// Queued moves to Running or directly to a terminal state, Running moves to a
// terminal state, and nothing ever leaves a terminal state.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateCacheHit  State = "cache-hit"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	switch s {
	case StateCacheHit, StateSucceeded, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// Completed reports whether the job finished with a usable result.
func (s State) Completed() bool {
	return s == StateSucceeded || s == StateCacheHit
}
