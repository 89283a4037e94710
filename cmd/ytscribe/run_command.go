package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ytscribe/internal/batch"
	"ytscribe/internal/cache"
	"ytscribe/internal/config"
	"ytscribe/internal/export"
	"ytscribe/internal/language"
	"ytscribe/internal/logging"
	"ytscribe/internal/media"
	"ytscribe/internal/services/translate"
	"ytscribe/internal/services/whisper"
	"ytscribe/internal/services/ytdlp"
	"ytscribe/internal/stage"
)

type runFlags struct {
	model       string
	targetLang  string
	formats     []string
	outputDir   string
	concurrency int
	fresh       bool
	inputFile   string
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [url ...]",
		Short: "Transcribe a batch of video URLs",
		Long: "Runs each URL through the pipeline: download, convert, transcribe,\n" +
			"optionally translate, export. Results already in the cache are reused\n" +
			"without re-running the pipeline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			refs, err := collectSourceRefs(args, flags.inputFile)
			if err != nil {
				return err
			}
			if len(refs) == 0 {
				return fmt.Errorf("no URLs given; pass them as arguments or via --input")
			}
			if err := export.ValidateFormats(flags.formats); err != nil {
				return err
			}
			targetLang := strings.TrimSpace(flags.targetLang)
			if targetLang != "" {
				if targetLang, err = language.Normalize(targetLang); err != nil {
					return err
				}
			}
			if flags.concurrency > 0 {
				cfg.Batch.Concurrency = flags.concurrency
			}
			if strings.TrimSpace(flags.outputDir) != "" {
				if cfg.Paths.OutputDir, err = config.ExpandPath(flags.outputDir); err != nil {
					return err
				}
			}
			model := strings.TrimSpace(flags.model)
			if model == "" {
				model = cfg.Whisper.Model
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return err
			}

			store, err := cache.Open(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			exporter := export.NewWriter(cfg.Paths.OutputDir, logger)
			speech := whisper.NewService(cfg.Whisper.Binary, cfg.Whisper.FFmpegBinary, cfg.Paths.WorkDir,
				whisper.WithLanguage(cfg.Whisper.Language))
			runner := stage.NewRunner(stage.Deps{
				Downloader: ytdlp.NewClient(cfg.Downloader.Binary, cfg.Paths.WorkDir,
					ytdlp.WithTimeout(time.Duration(cfg.Downloader.TimeoutSeconds)*time.Second),
					ytdlp.WithRequestsPerMinute(cfg.Downloader.RequestsPerMinute)),
				Converter:   speech,
				Transcriber: speech,
				Translator: translate.NewClient(cfg.Translator.APIKey,
					translate.WithBaseURL(cfg.Translator.BaseURL),
					translate.WithModel(cfg.Translator.Model),
					translate.WithTimeout(time.Duration(cfg.Translator.TimeoutSeconds)*time.Second)),
				Exporter: exporter,
			}, cfg.Batch.RetryAttempts, cfg.RetryBackoff(), logger)

			reporter := newConsoleReporter(cmd.OutOrStdout())
			engine := batch.New(runner, store, exporter, batch.Config{
				Concurrency: cfg.Batch.Concurrency,
				JobTimeout:  cfg.JobTimeout(),
			}, reporter, logger)

			requests := make([]batch.Request, len(refs))
			for i, ref := range refs {
				requests[i] = batch.Request{
					SourceRef: ref,
					Options: media.Options{
						Model:          model,
						TargetLanguage: targetLang,
						Formats:        flags.formats,
						Fresh:          flags.fresh,
					},
				}
			}

			submitted, err := engine.Submit(requests)
			if err != nil {
				return err
			}

			waitCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-waitCtx.Done()
				submitted.CancelAll()
			}()

			summary, err := submitted.Wait(context.Background())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSummary(summary))
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", summary.Failed, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "Speech model size (default from config)")
	cmd.Flags().StringVarP(&flags.targetLang, "target-lang", "t", "", "Translate transcripts into this language")
	cmd.Flags().StringSliceVarP(&flags.formats, "format", "f", []string{"srt"},
		"Export formats: "+strings.Join(export.SupportedFormats(), ", "))
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "Directory for exported files (default from config)")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "Concurrent pipeline executions (default from config)")
	cmd.Flags().BoolVar(&flags.fresh, "fresh", false, "Ignore cached results and reprocess")
	cmd.Flags().StringVarP(&flags.inputFile, "input", "i", "", "File with one URL per line ('-' for stdin)")

	return cmd
}

// collectSourceRefs merges positional URLs with an optional input file,
// preserving order and dropping blank lines and #-comments.
func collectSourceRefs(args []string, inputFile string) ([]string, error) {
	refs := make([]string, 0, len(args))
	for _, arg := range args {
		if arg = strings.TrimSpace(arg); arg != "" {
			refs = append(refs, arg)
		}
	}
	if inputFile == "" {
		return refs, nil
	}

	var reader *bufio.Scanner
	if inputFile == "-" {
		reader = bufio.NewScanner(os.Stdin)
	} else {
		f, err := os.Open(inputFile)
		if err != nil {
			return nil, fmt.Errorf("open input file: %w", err)
		}
		defer f.Close()
		reader = bufio.NewScanner(f)
	}
	for reader.Scan() {
		line := strings.TrimSpace(reader.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, line)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	return refs, nil
}
