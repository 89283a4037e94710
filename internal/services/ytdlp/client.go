package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ytscribe/internal/services"
	"ytscribe/internal/stage"
)

const (
	// DefaultBinary is the yt-dlp executable name resolved from PATH.
	DefaultBinary = "yt-dlp"

	defaultTimeout = 10 * time.Minute
)

// Client downloads the audio track of a video by shelling out to yt-dlp. It
// implements stage.Downloader. A rate limiter spaces out requests so batches
// with high concurrency do not trip remote throttling.
type Client struct {
	binary  string
	workDir string
	timeout time.Duration
	limiter *rate.Limiter

	// commandRunner is injectable for tests; the default executes the
	// command and returns its combined output.
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Option customizes the client.
type Option func(*Client)

// WithTimeout bounds a single download invocation.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRequestsPerMinute enables request pacing; zero disables it.
func WithRequestsPerMinute(rpm int) Option {
	return func(c *Client) {
		if rpm > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
		}
	}
}

// WithCommandRunner overrides command execution (for tests).
func WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) Option {
	return func(c *Client) {
		if runner != nil {
			c.commandRunner = runner
		}
	}
}

// NewClient builds a downloader writing into workDir.
func NewClient(binary, workDir string, opts ...Option) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	client := &Client{
		binary:        binary,
		workDir:       workDir,
		timeout:       defaultTimeout,
		commandRunner: runCommand,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

var _ stage.Downloader = (*Client)(nil)

// Download fetches the best available audio stream for sourceRef and returns
// the path of the downloaded file. Failures are classified so the caller can
// distinguish transient network trouble from a missing or blocked video.
func (c *Client) Download(ctx context.Context, sourceRef string) (string, error) {
	sourceRef = strings.TrimSpace(sourceRef)
	if sourceRef == "" {
		return "", services.Wrap(services.ErrConfiguration, stage.NameDownload, "download", "source reference required", nil)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrResource, stage.NameDownload, "download", "create work dir", err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{
		"--no-playlist",
		"--no-progress",
		"--quiet",
		"-f", "bestaudio/best",
		"-o", c.workDir + "/%(id)s.%(ext)s",
		"--print", "after_move:filepath",
		sourceRef,
	}
	output, err := c.commandRunner(runCtx, c.binary, args...)
	if err != nil {
		return "", classify(sourceRef, output, err)
	}

	path := lastNonEmptyLine(string(output))
	if path == "" {
		return "", services.Wrap(services.ErrNetwork, stage.NameDownload, "download",
			fmt.Sprintf("%s reported no output file for %s", c.binary, sourceRef), nil)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return "", services.Wrap(services.ErrResource, stage.NameDownload, "download",
			fmt.Sprintf("downloaded file missing: %s", path), statErr)
	}
	return path, nil
}

// classify maps a failed yt-dlp invocation onto the error taxonomy. Messages
// indicating a permanently unavailable video are not retryable; everything
// else that smells like transport trouble is.
func classify(sourceRef string, output []byte, err error) error {
	message := strings.ToLower(strings.TrimSpace(string(output)) + " " + err.Error())
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrNetwork, stage.NameDownload, "download",
			fmt.Sprintf("download timed out for %s", sourceRef), err)
	case containsAny(message,
		"video unavailable", "private video", "this video is not available",
		"404", "has been removed", "account associated", "sign in to confirm your age"):
		return services.Wrap(services.ErrNotFound, stage.NameDownload, "download",
			fmt.Sprintf("video unavailable: %s", sourceRef), err)
	case errors.Is(err, exec.ErrNotFound):
		return services.Wrap(services.ErrConfiguration, stage.NameDownload, "download",
			"yt-dlp binary not found", err)
	default:
		return services.Wrap(services.ErrNetwork, stage.NameDownload, "download",
			fmt.Sprintf("download failed for %s", sourceRef), fmt.Errorf("%w: %s", err, firstLine(string(output))))
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func lastNonEmptyLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func firstLine(output string) string {
	output = strings.TrimSpace(output)
	if idx := strings.IndexByte(output, '\n'); idx >= 0 {
		return output[:idx]
	}
	return output
}
