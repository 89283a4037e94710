package whisper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytscribe/internal/services"
)

const resultJSON = `{
  "text": " Hello there. General Kenobi.",
  "language": "en",
  "segments": [
    {"id": 0, "start": 0.0, "end": 1.5, "text": " Hello there."},
    {"id": 1, "start": 1.5, "end": 3.25, "text": " General Kenobi."}
  ]
}`

func TestConvertBuildsFFmpegArgs(t *testing.T) {
	workDir := t.TempDir()
	var gotName string
	var gotArgs []string
	service := NewService("whisper", "ffmpeg", workDir, WithCommandRunner(
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			gotName = name
			gotArgs = args
			return nil, nil
		}))

	dest, err := service.Convert(context.Background(), "/downloads/abc123.m4a")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if dest != filepath.Join(workDir, "abc123.wav") {
		t.Errorf("dest = %q", dest)
	}
	if gotName != "ffmpeg" {
		t.Errorf("binary = %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-ac 1", "-ar 16000", "pcm_s16le"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %v", want, gotArgs)
		}
	}
}

func TestConvertFailureIsResourceError(t *testing.T) {
	service := NewService("whisper", "ffmpeg", t.TempDir(), WithCommandRunner(
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte("No such file or directory"), errors.New("exit status 1")
		}))

	_, err := service.Convert(context.Background(), "/missing.m4a")
	if !errors.Is(err, services.ErrResource) {
		t.Errorf("err = %v, want resource marker", err)
	}
}

func TestTranscribeParsesResult(t *testing.T) {
	workDir := t.TempDir()
	audioPath := filepath.Join(workDir, "abc123.wav")

	service := NewService("whisper", "ffmpeg", workDir, WithCommandRunner(
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			// Simulate the CLI writing its JSON sidecar.
			resultPath := filepath.Join(workDir, "abc123.json")
			if err := os.WriteFile(resultPath, []byte(resultJSON), 0o644); err != nil {
				t.Fatalf("write result: %v", err)
			}
			return nil, nil
		}))

	transcript, err := service.Transcribe(context.Background(), audioPath, "small")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if transcript.Language != "en" {
		t.Errorf("language = %q", transcript.Language)
	}
	if transcript.Text != "Hello there. General Kenobi." {
		t.Errorf("text not trimmed: %q", transcript.Text)
	}
	if len(transcript.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(transcript.Segments))
	}
	if transcript.Segments[0].Index != 1 || transcript.Segments[0].Text != "Hello there." {
		t.Errorf("first segment = %+v", transcript.Segments[0])
	}
	if transcript.Segments[1].End != 3.25 {
		t.Errorf("second segment end = %v", transcript.Segments[1].End)
	}

	// The sidecar is removed after parsing.
	if _, err := os.Stat(filepath.Join(workDir, "abc123.json")); !os.IsNotExist(err) {
		t.Error("result sidecar should be removed")
	}
}

func TestTranscribePassesModelAndLanguage(t *testing.T) {
	workDir := t.TempDir()
	var gotArgs []string
	service := NewService("whisper", "ffmpeg", workDir,
		WithLanguage("es"),
		WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			gotArgs = args
			resultPath := filepath.Join(workDir, "x.json")
			return nil, os.WriteFile(resultPath, []byte(resultJSON), 0o644)
		}))

	if _, err := service.Transcribe(context.Background(), filepath.Join(workDir, "x.wav"), "large-v3"); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "--model large-v3") {
		t.Errorf("args missing model: %v", gotArgs)
	}
	if !strings.Contains(joined, "--language es") {
		t.Errorf("args missing language: %v", gotArgs)
	}
}

func TestTranscribeMissingResultFile(t *testing.T) {
	service := NewService("whisper", "ffmpeg", t.TempDir(), WithCommandRunner(
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return nil, nil
		}))

	_, err := service.Transcribe(context.Background(), "/tmp/never-written.wav", "small")
	if !errors.Is(err, services.ErrInference) {
		t.Errorf("err = %v, want inference marker", err)
	}
}

func TestTranscribeModelDownloadFailureIsNetwork(t *testing.T) {
	service := NewService("whisper", "ffmpeg", t.TempDir(), WithCommandRunner(
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte("urlopen error [Errno -3] Temporary failure in name resolution"), errors.New("exit status 1")
		}))

	_, err := service.Transcribe(context.Background(), "/tmp/a.wav", "small")
	if !errors.Is(err, services.ErrNetwork) {
		t.Errorf("err = %v, want network marker", err)
	}
}

func TestTranscribeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	service := NewService("whisper", "ffmpeg", t.TempDir(), WithCommandRunner(
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return nil, ctx.Err()
		}))

	_, err := service.Transcribe(ctx, "/tmp/a.wav", "small")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
