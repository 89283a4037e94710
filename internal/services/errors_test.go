package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapPreservesMarker(t *testing.T) {
	base := errors.New("connection reset")
	err := Wrap(ErrNetwork, "download", "fetch", "remote closed connection", base)

	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("wrapped error should match ErrNetwork: %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("wrapped error should match the original cause: %v", err)
	}
	if !strings.Contains(err.Error(), "download: fetch: remote closed connection") {
		t.Errorf("detail missing from message: %v", err)
	}
}

func TestWrapNilMarkerDefaultsToInference(t *testing.T) {
	err := Wrap(nil, "transcribe", "", "model crashed", nil)
	if !errors.Is(err, ErrInference) {
		t.Fatalf("nil marker should default to ErrInference: %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network", Wrap(ErrNetwork, "download", "fetch", "timeout", nil), true},
		{"not found", Wrap(ErrNotFound, "download", "resolve", "video removed", nil), false},
		{"resource", Wrap(ErrResource, "transcribe", "load model", "oom", nil), false},
		{"inference", Wrap(ErrInference, "transcribe", "", "decode failed", nil), false},
		{"export", Wrap(ErrExport, "export", "srt", "disk full", nil), false},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"network wrapping cancellation", fmt.Errorf("%w: %w", ErrNetwork, context.Canceled), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsCancellation(t *testing.T) {
	if !IsCancellation(context.Canceled) {
		t.Error("context.Canceled should classify as cancellation")
	}
	if !IsCancellation(fmt.Errorf("stage aborted: %w", context.DeadlineExceeded)) {
		t.Error("wrapped deadline should classify as cancellation")
	}
	if IsCancellation(Wrap(ErrNetwork, "download", "", "timeout", nil)) {
		t.Error("network error should not classify as cancellation")
	}
}

func TestContextRoundTrips(t *testing.T) {
	ctx := context.Background()

	if _, ok := JobIDFromContext(ctx); ok {
		t.Error("empty context should not carry a job id")
	}

	ctx = WithJobID(ctx, "job-1")
	ctx = WithStage(ctx, "transcribe")
	ctx = WithBatchID(ctx, "batch-9")

	if id, ok := JobIDFromContext(ctx); !ok || id != "job-1" {
		t.Errorf("job id round trip failed: %q %v", id, ok)
	}
	if stage, ok := StageFromContext(ctx); !ok || stage != "transcribe" {
		t.Errorf("stage round trip failed: %q %v", stage, ok)
	}
	if id, ok := BatchIDFromContext(ctx); !ok || id != "batch-9" {
		t.Errorf("batch id round trip failed: %q %v", id, ok)
	}
}
