package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for pipeline failure classification. Stage implementations
// tag errors with one of these via Wrap; the batch engine uses errors.Is to
// decide between retry and terminal failure.
var (
	// ErrNetwork marks transient network failures (timeouts, resets,
	// throttling). Retryable.
	ErrNetwork = errors.New("network error")
	// ErrNotFound marks unresolvable source references (deleted or private
	// videos, malformed identifiers). Not retryable.
	ErrNotFound = errors.New("not found")
	// ErrResource marks local resource exhaustion such as insufficient
	// memory for a model. Not retryable.
	ErrResource = errors.New("resource error")
	// ErrInference marks speech-to-text or translation model failures.
	ErrInference = errors.New("inference error")
	// ErrExport marks failures writing requested output formats.
	ErrExport = errors.New("export error")
	// ErrCacheIO marks cache persistence failures. Never fatal to the job
	// that produced the artifact; the caching side effect is simply lost.
	ErrCacheIO = errors.New("cache io error")
	// ErrConfiguration marks invalid or missing collaborator configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error that carries stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrInference
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether a stage error is worth retrying within the same
// worker slot. Only network failures qualify; everything else either cannot
// succeed on retry or is a cancellation.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, ErrNetwork)
}

// IsCancellation reports whether an error represents cooperative cancellation
// or a timeout-forced abort rather than a stage failure.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Summary extracts a human-readable one-line description for terminal job
// reporting. Marker prefixes introduced by Wrap are preserved because they
// name the failure class for the user.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "pipeline failure"
	}
	return msg
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
