package stage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"ytscribe/internal/logging"
	"ytscribe/internal/media"
	"ytscribe/internal/services"
)

// Deps bundles the pipeline collaborators a Runner drives.
type Deps struct {
	Downloader  Downloader
	Converter   Converter
	Transcriber Transcriber
	Translator  Translator
	Exporter    Exporter
}

// Runner executes the fixed stage sequence for one job: download, convert,
// transcribe, optionally translate, export. Stages that fail with a retryable
// error are re-attempted in place with exponential backoff; everything else
// fails the job immediately. Cancellation is observed between stages and
// between retry attempts.
type Runner struct {
	deps          Deps
	retryAttempts int
	retryBackoff  time.Duration
	logger        *slog.Logger

	// Injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRunner(deps Deps, retryAttempts int, retryBackoff time.Duration, logger *slog.Logger) *Runner {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &Runner{
		deps:          deps,
		retryAttempts: retryAttempts,
		retryBackoff:  retryBackoff,
		logger:        logging.NewComponentLogger(logger, "stage"),
		now:           time.Now,
		sleep:         sleepContext,
	}
}

// Result is the outcome of a completed pipeline run.
type Result struct {
	Transcript *media.Transcript
	Files      []media.ExportFile
}

// Run drives the pipeline for one source. The options are assumed normalized.
// Intermediate files are removed before return regardless of outcome.
func (r *Runner) Run(ctx context.Context, sourceRef string, opts media.Options, progress ProgressFunc) (Result, error) {
	report := func(stage string, fraction float64) {
		if progress != nil {
			progress(stage, scaled(stage, fraction))
		}
	}
	log := logging.WithContext(ctx, r.logger)

	var tempFiles []string
	defer func() {
		for _, path := range tempFiles {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Debug("failed to remove intermediate file",
					logging.String("path", path), logging.Error(err))
			}
		}
	}()

	audioPath, err := retryStage(ctx, r, NameDownload, func(ctx context.Context) (string, error) {
		return r.deps.Downloader.Download(ctx, sourceRef)
	})
	if err != nil {
		return Result{}, err
	}
	tempFiles = append(tempFiles, audioPath)
	report(NameDownload, 1)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	preparedPath, err := retryStage(ctx, r, NameConvert, func(ctx context.Context) (string, error) {
		return r.deps.Converter.Convert(ctx, audioPath)
	})
	if err != nil {
		return Result{}, err
	}
	if preparedPath != audioPath {
		tempFiles = append(tempFiles, preparedPath)
	}
	report(NameConvert, 1)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	transcript, err := retryStage(ctx, r, NameTranscribe, func(ctx context.Context) (*media.Transcript, error) {
		return r.deps.Transcriber.Transcribe(ctx, preparedPath, opts.Model)
	})
	if err != nil {
		return Result{}, err
	}
	if transcript == nil {
		return Result{}, services.Wrap(services.ErrInference, NameTranscribe, "transcribe", "empty transcription result", nil)
	}
	transcript.SourceRef = sourceRef
	transcript.Model = opts.Model
	transcript.TargetLanguage = opts.TargetLanguage
	transcript.GeneratedAt = r.now().UTC()
	report(NameTranscribe, 1)

	if opts.TargetLanguage != "" {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		_, err = retryStage(ctx, r, NameTranslate, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.deps.Translator.Translate(ctx, transcript, opts.TargetLanguage)
		})
		if err != nil {
			return Result{}, err
		}
	}
	report(NameTranslate, 1)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	files, err := r.deps.Exporter.Export(transcript, opts.Formats)
	if err != nil {
		return Result{}, err
	}
	report(NameExport, 1)

	return Result{Transcript: transcript, Files: files}, nil
}

// retryStage runs one stage with bounded retry. Only errors classified as
// retryable are re-attempted; the backoff doubles per attempt. Cancellation
// during the wait aborts with the context error so the job is recorded as
// cancelled rather than failed.
func retryStage[T any](ctx context.Context, r *Runner, stage string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	delay := r.retryBackoff
	for attempt := 1; attempt <= r.retryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		value, err := op(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if !services.IsRetryable(err) || attempt == r.retryAttempts {
			break
		}
		logging.WithContext(ctx, r.logger).Warn("stage failed, retrying",
			logging.String(logging.FieldStage, stage),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", r.retryAttempts),
			logging.Duration("backoff", delay),
			logging.Error(err))
		if err := r.sleep(ctx, delay); err != nil {
			return zero, err
		}
		delay *= 2
	}
	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
