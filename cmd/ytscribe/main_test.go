package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ytscribe/internal/batch"
	"ytscribe/internal/media"
)

func TestCollectSourceRefs(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "urls.txt")
	content := "# favorites\nhttps://youtu.be/aaa\n\n  https://youtu.be/bbb  \n"
	if err := os.WriteFile(inputPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	refs, err := collectSourceRefs([]string{"https://youtu.be/ccc"}, inputPath)
	if err != nil {
		t.Fatalf("collectSourceRefs: %v", err)
	}
	want := []string{"https://youtu.be/ccc", "https://youtu.be/aaa", "https://youtu.be/bbb"}
	if len(refs) != len(want) {
		t.Fatalf("refs = %v, want %v", refs, want)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("refs[%d] = %q, want %q", i, refs[i], want[i])
		}
	}
}

func TestCollectSourceRefsMissingFile(t *testing.T) {
	if _, err := collectSourceRefs(nil, "/nonexistent/urls.txt"); err == nil {
		t.Error("missing input file should error")
	}
}

func TestRenderSummary(t *testing.T) {
	summary := batch.Summary{
		Total:     3,
		Succeeded: 1,
		CacheHits: 1,
		Failed:    1,
		Duration:  1500 * time.Millisecond,
		Jobs: []batch.JobSnapshot{
			{SourceRef: "url-1", State: batch.StateSucceeded,
				Files: []media.ExportFile{{Format: "srt", Path: "/out/yt_a.srt"}}},
			{SourceRef: "url-2", State: batch.StateCacheHit,
				Files: []media.ExportFile{{Format: "srt", Path: "/out/yt_b.srt"}, {Format: "txt", Path: "/out/yt_b.txt"}}},
			{SourceRef: "url-3", State: batch.StateFailed, Error: "download: video unavailable"},
		},
	}

	rendered := renderSummary(summary)
	for _, want := range []string{
		"url-1", "succeeded", "/out/yt_a.srt",
		"url-2", "cache-hit", "(+1 more)",
		"url-3", "failed", "video unavailable",
		"3 total: 1 succeeded, 1 cached, 1 failed, 0 cancelled",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("summary missing %q:\n%s", want, rendered)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.n); got != tc.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestConsoleReporterPrintsTransitions(t *testing.T) {
	var buf bytes.Buffer
	reporter := newConsoleReporter(&buf)

	snapshot := batch.JobSnapshot{ID: "job-1", SourceRef: "url", State: batch.StateQueued}
	reporter.JobUpdated(snapshot)
	snapshot.State = batch.StateRunning
	reporter.JobUpdated(snapshot)
	// Progress-only updates are suppressed off-terminal.
	snapshot.Progress = 0.5
	reporter.JobUpdated(snapshot)
	snapshot.State = batch.StateFailed
	snapshot.Error = "boom"
	reporter.JobUpdated(snapshot)

	out := buf.String()
	lines := strings.Count(out, "\n")
	if lines != 3 {
		t.Errorf("line count = %d, want 3:\n%s", lines, out)
	}
	if !strings.Contains(out, "[failed] url: boom") {
		t.Errorf("missing failure line:\n%s", out)
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"run", "cache", "config", "doctor"} {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing %q subcommand", name)
		}
	}
}
