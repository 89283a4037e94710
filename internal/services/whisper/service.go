package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"ytscribe/internal/media"
	"ytscribe/internal/services"
	"ytscribe/internal/stage"
)

const (
	// DefaultBinary is the whisper executable resolved from PATH.
	DefaultBinary = "whisper"
	// DefaultFFmpegBinary converts downloaded audio for inference.
	DefaultFFmpegBinary = "ffmpeg"
	// DefaultModel balances speed and quality for typical spoken content.
	DefaultModel = "small"
)

// Service prepares audio and runs speech recognition by shelling out to
// ffmpeg and the whisper CLI. It implements stage.Converter and
// stage.Transcriber.
type Service struct {
	binary       string
	ffmpegBinary string
	workDir      string
	// language, when set, pins the spoken language instead of auto-detection.
	language string

	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Option customizes the service.
type Option func(*Service)

// WithLanguage pins the source language passed to whisper.
func WithLanguage(language string) Option {
	return func(s *Service) {
		s.language = strings.TrimSpace(language)
	}
}

// WithCommandRunner overrides command execution (for tests).
func WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) Option {
	return func(s *Service) {
		if runner != nil {
			s.commandRunner = runner
		}
	}
}

// NewService builds a whisper service writing intermediates into workDir.
func NewService(binary, ffmpegBinary, workDir string, opts ...Option) *Service {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = DefaultFFmpegBinary
	}
	service := &Service{
		binary:        binary,
		ffmpegBinary:  ffmpegBinary,
		workDir:       workDir,
		commandRunner: runCommand,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

var (
	_ stage.Converter   = (*Service)(nil)
	_ stage.Transcriber = (*Service)(nil)
)

// Convert extracts a mono 16 kHz PCM WAV from the downloaded audio, the input
// layout whisper models expect.
func (s *Service) Convert(ctx context.Context, inputPath string) (string, error) {
	if strings.TrimSpace(inputPath) == "" {
		return "", services.Wrap(services.ErrConfiguration, stage.NameConvert, "convert", "input path required", nil)
	}
	if err := os.MkdirAll(s.workDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrResource, stage.NameConvert, "convert", "create work dir", err)
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	dest := filepath.Join(s.workDir, base+".wav")

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	if output, err := s.commandRunner(ctx, s.ffmpegBinary, args...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", services.Wrap(services.ErrResource, stage.NameConvert, "convert",
			fmt.Sprintf("ffmpeg failed: %s", strings.TrimSpace(string(output))), err)
	}
	return dest, nil
}

// Transcribe runs the whisper CLI over the prepared audio and parses its JSON
// output into a transcript.
func (s *Service) Transcribe(ctx context.Context, audioPath, model string) (*media.Transcript, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, services.Wrap(services.ErrConfiguration, stage.NameTranscribe, "transcribe", "audio path required", nil)
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	outputDir := filepath.Dir(audioPath)

	args := []string{
		audioPath,
		"--model", model,
		"--output_format", "json",
		"--output_dir", outputDir,
		"--verbose", "False",
	}
	if s.language != "" {
		args = append(args, "--language", s.language)
	}
	if output, err := s.commandRunner(ctx, s.binary, args...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if isModelDownloadFailure(string(output)) {
			return nil, services.Wrap(services.ErrNetwork, stage.NameTranscribe, "transcribe",
				"model download failed", err)
		}
		return nil, services.Wrap(services.ErrInference, stage.NameTranscribe, "transcribe",
			fmt.Sprintf("whisper failed: %s", strings.TrimSpace(string(output))), err)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	resultPath := filepath.Join(outputDir, base+".json")
	transcript, err := parseResultFile(resultPath)
	if err != nil {
		return nil, err
	}
	// The JSON sidecar is an intermediate, not a deliverable.
	_ = os.Remove(resultPath)
	return transcript, nil
}

// whisperResult mirrors the JSON document the whisper CLI writes.
type whisperResult struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func parseResultFile(path string) (*media.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrInference, stage.NameTranscribe, "transcribe",
			"whisper produced no result file", err)
	}
	var result whisperResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, services.Wrap(services.ErrInference, stage.NameTranscribe, "transcribe",
			"decode whisper result", err)
	}

	transcript := &media.Transcript{
		Language: result.Language,
		Text:     strings.TrimSpace(result.Text),
	}
	for i, segment := range result.Segments {
		transcript.Segments = append(transcript.Segments, media.Segment{
			Index: i + 1,
			Start: segment.Start,
			End:   segment.End,
			Text:  strings.TrimSpace(segment.Text),
		})
	}
	return transcript, nil
}

// isModelDownloadFailure detects the first-run case where whisper pulls model
// weights over the network and the fetch fails.
func isModelDownloadFailure(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "urlopen error") ||
		strings.Contains(lower, "connection") && strings.Contains(lower, "download")
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
